package main

import "encoding/binary"

// The page decoder turns one page's raw bytes into its typed variant. Four
// page kinds are modeled as a closed sum type over the Page interface:
// pages are variants with different cell shapes, so traversal pattern-
// matches at the boundary rather than forcing a single "generic cell".

type PageKind int

const (
	pageTagInteriorIndex = 0x02
	pageTagInteriorTable = 0x05
	pageTagLeafIndex     = 0x0A
	pageTagLeafTable     = 0x0D
)

// Page is implemented by exactly the four page-kind structs below.
type Page interface {
	isPage()
}

// LeafTableCell is a leaf table-page cell: payload_len, rowid, record.
type LeafTableCell struct {
	RowID  uint64
	Record Record
}

// InteriorTableCell is an interior table-page cell: left_child, rowid. The
// rowid is the maximum rowid reachable through LeftChild (spec.md §3).
type InteriorTableCell struct {
	LeftChild uint32
	RowID     uint64
}

// LeafIndexCell is a leaf index-page cell. This reader's supported index
// shape is a 2-tuple [text key, i24 rowid].
type LeafIndexCell struct {
	Key   string
	RowID int64
}

// InteriorIndexCell is an interior index-page cell: left_child, then the
// same key/rowid record shape as a leaf index cell.
type InteriorIndexCell struct {
	LeftChild uint32
	Key       string
	RowID     int64
}

type LeafTablePage struct{ Cells []LeafTableCell }
type InteriorTablePage struct {
	RightMost uint32
	Cells     []InteriorTableCell
}
type LeafIndexPage struct{ Cells []LeafIndexCell }
type InteriorIndexPage struct {
	RightMost uint32
	Cells     []InteriorIndexCell
}

func (LeafTablePage) isPage()     {}
func (InteriorTablePage) isPage() {}
func (LeafIndexPage) isPage()     {}
func (InteriorIndexPage) isPage() {}

// decodePage parses one page's bytes into its typed variant. pageNo drives
// the page-1 file-header offset quirk.
func decodePage(data []byte, pageNo uint32) (Page, error) {
	off := 0
	if pageNo == 1 {
		off = 100
	}

	if off+8 > len(data) {
		return nil, NewDatabaseError("decode_page", ErrShortRead, map[string]interface{}{
			"page": pageNo,
		})
	}

	tag := data[off]
	cellCount := int(binary.BigEndian.Uint16(data[off+3 : off+5]))

	var rightMost uint32
	var headerEnd int
	switch tag {
	case pageTagInteriorTable, pageTagInteriorIndex:
		if off+12 > len(data) {
			return nil, NewDatabaseError("decode_page", ErrShortRead, map[string]interface{}{"page": pageNo})
		}
		rightMost = binary.BigEndian.Uint32(data[off+8 : off+12])
		headerEnd = off + 12
	case pageTagLeafTable, pageTagLeafIndex:
		headerEnd = off + 8
	default:
		return nil, NewDatabaseError("decode_page", ErrBadPageKind, map[string]interface{}{
			"page": pageNo,
			"tag":  tag,
		})
	}

	pointers, err := readCellPointers(data, headerEnd, cellCount)
	if err != nil {
		return nil, err
	}

	switch tag {
	case pageTagLeafTable:
		cells := make([]LeafTableCell, cellCount)
		for i, ptr := range pointers {
			cell, err := decodeLeafTableCell(data, ptr)
			if err != nil {
				return nil, err
			}
			cells[i] = cell
		}
		return LeafTablePage{Cells: cells}, nil

	case pageTagInteriorTable:
		cells := make([]InteriorTableCell, cellCount)
		for i, ptr := range pointers {
			cell, err := decodeInteriorTableCell(data, ptr)
			if err != nil {
				return nil, err
			}
			cells[i] = cell
		}
		return InteriorTablePage{RightMost: rightMost, Cells: cells}, nil

	case pageTagLeafIndex:
		cells := make([]LeafIndexCell, cellCount)
		for i, ptr := range pointers {
			cell, err := decodeLeafIndexCell(data, ptr)
			if err != nil {
				return nil, err
			}
			cells[i] = cell
		}
		return LeafIndexPage{Cells: cells}, nil

	default: // pageTagInteriorIndex
		cells := make([]InteriorIndexCell, cellCount)
		for i, ptr := range pointers {
			cell, err := decodeInteriorIndexCell(data, ptr)
			if err != nil {
				return nil, err
			}
			cells[i] = cell
		}
		return InteriorIndexPage{RightMost: rightMost, Cells: cells}, nil
	}
}

// readCellPointers reads the cell-pointer array starting at headerEnd, each
// entry an absolute (from page start) u16 offset, validated to lie inside
// [headerEnd, len(data)).
func readCellPointers(data []byte, headerEnd, cellCount int) ([]int, error) {
	pointers := make([]int, cellCount)
	for i := 0; i < cellCount; i++ {
		off := headerEnd + i*2
		if off+2 > len(data) {
			return nil, NewDatabaseError("read_cell_pointers", ErrShortRead, map[string]interface{}{
				"index": i,
			})
		}
		ptr := int(binary.BigEndian.Uint16(data[off : off+2]))
		if ptr < headerEnd || ptr >= len(data) {
			return nil, NewDatabaseError("read_cell_pointers", ErrShortRead, map[string]interface{}{
				"index":  i,
				"offset": ptr,
			})
		}
		pointers[i] = ptr
	}
	return pointers, nil
}

func decodeLeafTableCell(data []byte, offset int) (LeafTableCell, error) {
	payloadLen, n, err := decodeVarint(data[offset:])
	if err != nil {
		return LeafTableCell{}, err
	}
	offset += n

	rowID, n, err := decodeVarint(data[offset:])
	if err != nil {
		return LeafTableCell{}, err
	}
	offset += n

	if payloadLen > uint64(localPayloadCapacity(len(data))) {
		return LeafTableCell{}, NewDatabaseError("decode_leaf_table_cell", ErrUnimplemented, map[string]interface{}{
			"reason": "overflow pages not supported",
			"rowid":  rowID,
		})
	}
	if offset+int(payloadLen) > len(data) {
		return LeafTableCell{}, NewDatabaseError("decode_leaf_table_cell", ErrTruncatedRecord, map[string]interface{}{
			"rowid": rowID,
		})
	}

	record, err := decodeRecord(data[offset : offset+int(payloadLen)])
	if err != nil {
		return LeafTableCell{}, err
	}

	return LeafTableCell{RowID: rowID, Record: record}, nil
}

func decodeInteriorTableCell(data []byte, offset int) (InteriorTableCell, error) {
	if offset+4 > len(data) {
		return InteriorTableCell{}, NewDatabaseError("decode_interior_table_cell", ErrShortRead, nil)
	}
	leftChild := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4

	rowID, _, err := decodeVarint(data[offset:])
	if err != nil {
		return InteriorTableCell{}, err
	}

	return InteriorTableCell{LeftChild: leftChild, RowID: rowID}, nil
}

func decodeLeafIndexCell(data []byte, offset int) (LeafIndexCell, error) {
	payloadLen, n, err := decodeVarint(data[offset:])
	if err != nil {
		return LeafIndexCell{}, err
	}
	offset += n

	if payloadLen > uint64(localPayloadCapacity(len(data))) {
		return LeafIndexCell{}, NewDatabaseError("decode_leaf_index_cell", ErrUnimplemented, map[string]interface{}{
			"reason": "overflow pages not supported",
		})
	}
	if offset+int(payloadLen) > len(data) {
		return LeafIndexCell{}, NewDatabaseError("decode_leaf_index_cell", ErrTruncatedRecord, nil)
	}

	return indexKeyFromRecordBytes(data[offset : offset+int(payloadLen)])
}

func decodeInteriorIndexCell(data []byte, offset int) (InteriorIndexCell, error) {
	if offset+4 > len(data) {
		return InteriorIndexCell{}, NewDatabaseError("decode_interior_index_cell", ErrShortRead, nil)
	}
	leftChild := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4

	payloadLen, n, err := decodeVarint(data[offset:])
	if err != nil {
		return InteriorIndexCell{}, err
	}
	offset += n

	if payloadLen > uint64(localPayloadCapacity(len(data))) {
		return InteriorIndexCell{}, NewDatabaseError("decode_interior_index_cell", ErrUnimplemented, map[string]interface{}{
			"reason": "overflow pages not supported",
		})
	}
	if offset+int(payloadLen) > len(data) {
		return InteriorIndexCell{}, NewDatabaseError("decode_interior_index_cell", ErrTruncatedRecord, nil)
	}

	leaf, err := indexKeyFromRecordBytes(data[offset : offset+int(payloadLen)])
	if err != nil {
		return InteriorIndexCell{}, err
	}
	return InteriorIndexCell{LeftChild: leftChild, Key: leaf.Key, RowID: leaf.RowID}, nil
}

// indexKeyFromRecordBytes decodes an index record and extracts the
// supported [text, i24-rowid] shape. Records with any other key shape are
// reported as unimplemented rather than guessed at.
func indexKeyFromRecordBytes(payload []byte) (LeafIndexCell, error) {
	record, err := decodeRecord(payload)
	if err != nil {
		return LeafIndexCell{}, err
	}
	if len(record.Values) != 2 {
		return LeafIndexCell{}, NewDatabaseError("decode_index_key", ErrUnimplemented, map[string]interface{}{
			"reason":     "index record is not a 2-tuple [text, rowid]",
			"num_values": len(record.Values),
		})
	}
	key, ok := record.Values[0].Text()
	if !ok {
		return LeafIndexCell{}, NewDatabaseError("decode_index_key", ErrUnimplemented, map[string]interface{}{
			"reason": "index key column is not text",
		})
	}
	rowidVal := record.Values[1]
	if rowidVal.Kind != KindInt24 {
		return LeafIndexCell{}, NewDatabaseError("decode_index_key", ErrUnimplemented, map[string]interface{}{
			"reason": "index rowid column is not encoded as i24",
			"kind":   rowidVal.Kind,
		})
	}
	return LeafIndexCell{Key: key, RowID: rowidVal.I}, nil
}

// localPayloadCapacity is a conservative stand-in for SQLite's local-payload
// formula: any payload that could not possibly fit on the page it was read
// from must have spilled to an overflow page, which this reader declines to
// follow.
func localPayloadCapacity(pageSize int) int {
	return pageSize
}
