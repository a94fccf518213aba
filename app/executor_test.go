package main

import (
	"encoding/binary"
	"testing"
)

// indexCell builds a leaf index cell for the [text key, i24 rowid] shape
// this reader supports.
func indexCell(key string, rowid int64) []byte {
	serials := []byte{byte(13 + 2*len(key)), 3} // text, int24
	record := append([]byte{byte(len(serials) + 1)}, serials...)
	record = append(record, []byte(key)...)

	var rowidBytes [3]byte
	u := uint32(rowid) & 0xFFFFFF
	rowidBytes[0] = byte(u >> 16)
	rowidBytes[1] = byte(u >> 8)
	rowidBytes[2] = byte(u)
	record = append(record, rowidBytes[:]...)

	cell := encodeVarint(uint64(len(record)))
	cell = append(cell, record...)
	return cell
}

func buildLeafIndexPage(pageSize int, cells [][]byte) []byte {
	data := make([]byte, pageSize)
	data[0] = pageTagLeafIndex
	binary.BigEndian.PutUint16(data[3:5], uint16(len(cells)))

	headerEnd := 8
	cursor := pageSize
	for i, cell := range cells {
		cursor -= len(cell)
		copy(data[cursor:], cell)
		ptrOff := headerEnd + i*2
		binary.BigEndian.PutUint16(data[ptrOff:ptrOff+2], uint16(cursor))
	}
	return data
}

// appleRow builds a leaf table cell for a table with columns (id integer
// primary key, name text, color text): the id column is stored as NULL
// since it aliases the rowid.
func appleRow(rowid uint64, name, color string) []byte {
	serials := []byte{0, byte(13 + 2*len(name)), byte(13 + 2*len(color))}
	record := append([]byte{byte(len(serials) + 1)}, serials...)
	record = append(record, []byte(name)...)
	record = append(record, []byte(color)...)

	cell := encodeVarint(uint64(len(record)))
	cell = append(cell, encodeVarint(rowid)...)
	cell = append(cell, record...)
	return cell
}

// scoredRow builds a leaf table cell for a table with columns (id integer
// primary key, name text, score integer), with score stored as NULL — an
// ordinary unset INTEGER column, not the rowid alias.
func scoredRow(rowid uint64, name string) []byte {
	serials := []byte{0, byte(13 + 2*len(name)), 0}
	record := append([]byte{byte(len(serials) + 1)}, serials...)
	record = append(record, []byte(name)...)

	cell := encodeVarint(uint64(len(record)))
	cell = append(cell, encodeVarint(rowid)...)
	cell = append(cell, record...)
	return cell
}

func setupApplesDB(t *testing.T, withIndex bool) (*Pager, *Catalog) {
	t.Helper()

	tableRows := [][]byte{
		appleRow(1, "granny smith", "green"),
		appleRow(2, "fuji", "red"),
		appleRow(3, "golden delicious", "yellow"),
	}
	tablePage := buildLeafTablePage(testPageSize, tableRows)

	var schemaCells [][]byte
	schemaCells = append(schemaCells, schemaCell(1, "table", "apples", "apples", 2,
		"CREATE TABLE apples (id integer primary key, name text, color text)"))

	pages := [][]byte{nil, tablePage}
	if withIndex {
		indexPage := buildLeafIndexPage(testPageSize, [][]byte{indexCell("red", 2)})
		schemaCells = append(schemaCells, schemaCell(2, "index", "idx_apples_color", "apples", 3,
			"CREATE INDEX idx_apples_color ON apples (color)"))
		pages = append(pages, indexPage)
	}
	pages[0] = buildPage1(testPageSize, schemaCells)

	pager := writeTestDB(t, pages)
	catalog, err := NewCatalog(pager)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return pager, catalog
}

func TestExecuteFullScanWithCondition(t *testing.T) {
	pager, catalog := setupApplesDB(t, false)

	sel, err := ParseSelect("select name from apples where color = 'red'")
	if err != nil {
		t.Fatalf("ParseSelect: %v", err)
	}
	rs, err := Execute(pager, catalog, sel)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rs.Rows))
	}
	text, _ := rs.Rows[0][0].Text()
	if text != "fuji" {
		t.Errorf("expected fuji, got %q", text)
	}
}

func TestExecuteIndexProbe(t *testing.T) {
	pager, catalog := setupApplesDB(t, true)

	sel, err := ParseSelect("select name from apples where color = 'red'")
	if err != nil {
		t.Fatalf("ParseSelect: %v", err)
	}
	rs, err := Execute(pager, catalog, sel)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rs.Rows))
	}
	text, _ := rs.Rows[0][0].Text()
	if text != "fuji" {
		t.Errorf("expected fuji, got %q", text)
	}
}

func TestExecuteSelectStarMaterializesIntegerPrimaryKey(t *testing.T) {
	pager, catalog := setupApplesDB(t, false)

	sel, err := ParseSelect("select * from apples")
	if err != nil {
		t.Fatalf("ParseSelect: %v", err)
	}
	rs, err := Execute(pager, catalog, sel)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rs.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rs.Rows))
	}
	id, err := rs.Rows[0][0].Int64()
	if err != nil || id != 1 {
		t.Errorf("expected materialized id 1, got %v, %v", id, err)
	}
}

func TestExecuteCountStar(t *testing.T) {
	pager, catalog := setupApplesDB(t, false)

	sel, err := ParseSelect("select count(*) from apples")
	if err != nil {
		t.Fatalf("ParseSelect: %v", err)
	}
	rs, err := Execute(pager, catalog, sel)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	n, _ := rs.Rows[0][0].Int64()
	if n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}
}

func TestExecuteNullNonPrimaryKeyColumnStaysNull(t *testing.T) {
	schemaCells := [][]byte{
		schemaCell(1, "table", "scores", "scores", 2,
			"CREATE TABLE scores (id integer primary key, name text, score integer)"),
	}
	page1 := buildPage1(testPageSize, schemaCells)
	scoresPage := buildLeafTablePage(testPageSize, [][]byte{scoredRow(1, "ana")})
	pager := writeTestDB(t, [][]byte{page1, scoresPage})
	catalog, err := NewCatalog(pager)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	sel, err := ParseSelect("select id, score from scores")
	if err != nil {
		t.Fatalf("ParseSelect: %v", err)
	}
	rs, err := Execute(pager, catalog, sel)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rs.Rows))
	}

	id, err := rs.Rows[0][0].Int64()
	if err != nil || id != 1 {
		t.Errorf("expected materialized id 1, got %v, %v", id, err)
	}
	if !rs.Rows[0][1].IsNull() {
		t.Errorf("expected score to stay NULL, got %v", rs.Rows[0][1])
	}
}

func TestParseSelectRejectsNotEqual(t *testing.T) {
	if _, err := ParseSelect("select name from apples where color != 'red'"); err == nil {
		t.Fatal("expected error for != operator")
	}
}
