package main

// A record is a header (varint header length, then one varint serial type
// per column) followed by the column payloads back-to-back in declaration
// order.

// Record is a decoded record payload: one Value per declared column.
type Record struct {
	Values []Value
}

// decodeRecord decodes a record occupying the whole of payload. It fails
// with ErrTruncatedRecord if any column would read past the end of
// payload, or ErrInvalidUTF8 for malformed text columns.
func decodeRecord(payload []byte) (Record, error) {
	headerLen, n, err := decodeVarint(payload)
	if err != nil {
		return Record{}, NewDatabaseError("decode_record_header_len", err, nil)
	}

	var serialTypes []uint64
	offset := n
	for offset < int(headerLen) {
		if offset >= len(payload) {
			return Record{}, NewDatabaseError("decode_record_header", ErrTruncatedRecord, map[string]interface{}{
				"offset": offset,
			})
		}
		st, consumed, err := decodeVarint(payload[offset:])
		if err != nil {
			return Record{}, NewDatabaseError("decode_serial_type", err, map[string]interface{}{
				"offset": offset,
			})
		}
		serialTypes = append(serialTypes, st)
		offset += consumed
	}

	values := make([]Value, len(serialTypes))
	for i, st := range serialTypes {
		size := serialTypeSize(st)
		if offset+size > len(payload) {
			return Record{}, NewDatabaseError("decode_record_value", ErrTruncatedRecord, map[string]interface{}{
				"column":       i,
				"needed_bytes": offset + size,
				"have_bytes":   len(payload),
			})
		}
		val, err := decodeValue(st, payload[offset:offset+size])
		if err != nil {
			return Record{}, err
		}
		values[i] = val
		offset += size
	}

	return Record{Values: values}, nil
}

// decodeValue materializes one column from its serial type and the exact
// byte slice of its payload region.
func decodeValue(serialType uint64, data []byte) (Value, error) {
	switch serialToKind(serialType) {
	case KindNull:
		return NullValue(), nil
	case KindZero:
		return ZeroValue(), nil
	case KindOne:
		return OneValue(), nil
	case KindReserved1:
		return Value{Kind: KindReserved1}, nil
	case KindReserved2:
		return Value{Kind: KindReserved2}, nil
	case KindInt8:
		return IntValue(KindInt8, decodeInt(data, 1)), nil
	case KindInt16:
		return IntValue(KindInt16, decodeInt(data, 2)), nil
	case KindInt24:
		return IntValue(KindInt24, decodeInt(data, 3)), nil
	case KindInt32:
		return IntValue(KindInt32, decodeInt(data, 4)), nil
	case KindInt48:
		return IntValue(KindInt48, decodeInt(data, 6)), nil
	case KindInt64:
		return IntValue(KindInt64, decodeInt(data, 8)), nil
	case KindFloat64:
		return FloatValue(decodeFloat(data)), nil
	case KindBlob:
		cp := make([]byte, len(data))
		copy(cp, data)
		return BlobValue(cp), nil
	case KindText:
		if err := validateUTF8(data); err != nil {
			return Value{}, err
		}
		return TextValue(string(data)), nil
	default:
		return Value{}, NewDatabaseError("decode_value", ErrBadSerialType, map[string]interface{}{
			"serial_type": serialType,
		})
	}
}
