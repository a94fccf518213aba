package main

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodeIntWidths(t *testing.T) {
	if got := decodeInt([]byte{0xff}, 1); got != -1 {
		t.Errorf("int8 -1: got %d", got)
	}
	if got := decodeInt([]byte{0x01, 0x00}, 2); got != 256 {
		t.Errorf("int16 256: got %d", got)
	}
	if got := decodeInt([]byte{0xff, 0xff, 0xff}, 3); got != -1 {
		t.Errorf("int24 -1: got %d", got)
	}
}

func TestDecodeInt48ZeroWidensInsteadOfSignExtends(t *testing.T) {
	// All-0xff six bytes would be -1 under sign extension, but this reader
	// zero-prefix-widens, producing a large positive unsigned-style value.
	data := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	got := decodeInt48(data)
	want := int64(0x0000ffffffffffff)
	if got != want {
		t.Errorf("decodeInt48(all-ff) = %d, want %d", got, want)
	}
}

func TestDecodeFloat(t *testing.T) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(3.25))
	if got := decodeFloat(buf); got != 3.25 {
		t.Errorf("decodeFloat = %v, want 3.25", got)
	}
}

func TestValueStringFormatting(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NullValue(), "NULL"},
		{ZeroValue(), "0"},
		{OneValue(), "1"},
		{TextValue("hello"), "hello"},
		{IntValue(KindInt32, -5), "-5"},
		{FloatValue(2.0), "2.0"},
		{BlobValue([]byte{0x01, 0xab}), "x'01ab'"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	if !TextValue("a").Equal(TextValue("a")) {
		t.Error("equal text values should be equal")
	}
	if TextValue("a").Equal(TextValue("b")) {
		t.Error("different text values should not be equal")
	}
	if TextValue("1").Equal(IntValue(KindInt8, 1)) {
		t.Error("cross-kind values should never be equal")
	}
}

func TestValueIsIntegerAndInt64(t *testing.T) {
	if !ZeroValue().IsInteger() {
		t.Error("ZeroValue should be integer")
	}
	n, err := OneValue().Int64()
	if err != nil || n != 1 {
		t.Errorf("OneValue.Int64() = %v, %v", n, err)
	}
	if _, err := TextValue("x").Int64(); err == nil {
		t.Error("text value should not convert to int64")
	}
}
