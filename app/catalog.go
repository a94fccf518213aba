package main

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// The catalog reads sqlite_schema, page 1, which is itself a leaf-table
// page over an implicit five-column schema (type, name, tbl_name,
// rootpage, sql); it goes through the same page decoder as every other
// table, special-cased only for the 100-byte file-header offset that
// decodePage already handles.

type CatalogKind int

const (
	KindTable CatalogKind = iota
	KindIndex
	KindView
	KindTrigger
)

// CatalogRow is one row of sqlite_schema.
type CatalogRow struct {
	Kind     CatalogKind
	Name     string
	TblName  string
	RootPage uint32
	SQL      string
}

// ColumnDef is one column from a parsed CREATE TABLE statement.
type ColumnDef struct {
	Name string
	Type string
}

// Catalog is built once from page 1 and treated as immutable thereafter.
type Catalog struct {
	rows []CatalogRow
}

// NewCatalog reads page 1 via pager and decodes it as sqlite_schema.
func NewCatalog(pager *Pager) (*Catalog, error) {
	data, err := pager.ReadPage(1)
	if err != nil {
		return nil, err
	}

	page, err := decodePage(data, 1)
	if err != nil {
		return nil, err
	}

	leaf, ok := page.(LeafTablePage)
	if !ok {
		// An interior page 1 (a schema large enough to overflow one page) is
		// out of scope.
		return nil, NewDatabaseError("load_catalog", ErrUnimplemented, map[string]interface{}{
			"reason": "page 1 is not a leaf table page",
		})
	}

	rows := make([]CatalogRow, 0, len(leaf.Cells))
	for _, cell := range leaf.Cells {
		row, err := schemaRowFromRecord(cell.Record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return &Catalog{rows: rows}, nil
}

func schemaRowFromRecord(rec Record) (CatalogRow, error) {
	if len(rec.Values) != 5 {
		return CatalogRow{}, NewDatabaseError("decode_catalog_row", ErrBadCatalogKind, map[string]interface{}{
			"num_columns": len(rec.Values),
		})
	}

	typeText, _ := rec.Values[0].Text()
	name, _ := rec.Values[1].Text()
	tblName, _ := rec.Values[2].Text()
	sql, _ := rec.Values[4].Text()

	var rootPage uint32
	if !rec.Values[3].IsNull() {
		n, err := rec.Values[3].Int64()
		if err != nil {
			return CatalogRow{}, NewDatabaseError("decode_catalog_row", ErrBadCatalogKind, map[string]interface{}{
				"field": "rootpage",
			})
		}
		rootPage = uint32(n)
	}

	kind, err := parseCatalogKind(typeText)
	if err != nil {
		return CatalogRow{}, err
	}

	return CatalogRow{Kind: kind, Name: name, TblName: tblName, RootPage: rootPage, SQL: sql}, nil
}

func parseCatalogKind(s string) (CatalogKind, error) {
	switch s {
	case "table":
		return KindTable, nil
	case "index":
		return KindIndex, nil
	case "view":
		return KindView, nil
	case "trigger":
		return KindTrigger, nil
	default:
		return 0, NewDatabaseError("parse_catalog_kind", ErrBadCatalogKind, map[string]interface{}{
			"kind": s,
		})
	}
}

// Tables returns user table names in catalog order. sqlite_schema never
// lists itself as a row, so no filtering for "sqlite_master" is needed.
func (c *Catalog) Tables() []string {
	var names []string
	for _, row := range c.rows {
		if row.Kind == KindTable {
			names = append(names, row.Name)
		}
	}
	return names
}

// CountTables returns the number of user tables.
func (c *Catalog) CountTables() int {
	n := 0
	for _, row := range c.rows {
		if row.Kind == KindTable {
			n++
		}
	}
	return n
}

// TableRootPage resolves a table name to its rootpage.
func (c *Catalog) TableRootPage(name string) (uint32, error) {
	for _, row := range c.rows {
		if row.Kind == KindTable && strings.EqualFold(row.Name, name) {
			return row.RootPage, nil
		}
	}
	return 0, NewDatabaseError("table_rootpage", ErrTableNotFound, map[string]interface{}{
		"table": name,
	})
}

// FindIndex returns the rootpage of the first index on table covering
// column, or false if none.
func (c *Catalog) FindIndex(table, column string) (uint32, bool, error) {
	for _, row := range c.rows {
		if row.Kind != KindIndex || !strings.EqualFold(row.TblName, table) {
			continue
		}
		_, columns, err := parseCreateIndex(row.SQL)
		if err != nil {
			continue // malformed index DDL just doesn't match; not a query error
		}
		for _, col := range columns {
			if strings.EqualFold(col, column) {
				return row.RootPage, true, nil
			}
		}
	}
	return 0, false, nil
}

// IndexDDL parses an index's stored CREATE INDEX SQL into its target
// table and covered column list.
func (c *Catalog) IndexDDL(name string) (table string, columns []string, err error) {
	for _, row := range c.rows {
		if row.Kind == KindIndex && row.Name == name {
			return parseCreateIndex(row.SQL)
		}
	}
	return "", nil, NewDatabaseError("index_ddl", ErrTableNotFound, map[string]interface{}{
		"index": name,
	})
}

// TableDDL parses a table's stored CREATE TABLE SQL into ordered column
// definitions.
func (c *Catalog) TableDDL(name string) ([]ColumnDef, error) {
	for _, row := range c.rows {
		if row.Kind == KindTable && strings.EqualFold(row.Name, name) {
			return parseCreateTable(row.SQL)
		}
	}
	return nil, NewDatabaseError("table_ddl", ErrTableNotFound, map[string]interface{}{
		"table": name,
	})
}

// parseCreateTable parses SQLite CREATE TABLE DDL via sqlparser, after
// normalizing SQLite-isms sqlparser's MySQL grammar rejects — the same
// normalization the teacher's database.go does (quoted identifiers,
// "PRIMARY KEY AUTOINCREMENT" word order).
func parseCreateTable(sql string) ([]ColumnDef, error) {
	stmt, err := sqlparser.Parse(normalizeSQLiteToMySQL(sql))
	if err != nil {
		return nil, NewDatabaseError("parse_create_table", fmt.Errorf("%w: %v", ErrUnimplemented, err), map[string]interface{}{
			"sql": sql,
		})
	}

	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.Action != "create" || ddl.TableSpec == nil {
		return nil, NewDatabaseError("parse_create_table", ErrUnimplemented, map[string]interface{}{
			"sql": sql,
		})
	}

	columns := make([]ColumnDef, len(ddl.TableSpec.Columns))
	for i, col := range ddl.TableSpec.Columns {
		columns[i] = ColumnDef{
			Name: col.Name.String(),
			Type: strings.ToUpper(col.Type.Type),
		}
	}
	return columns, nil
}

// parseCreateIndex parses SQLite CREATE INDEX DDL by rewriting it into a
// throwaway CREATE TABLE shape sqlparser can parse (sqlparser, a MySQL-
// flavored grammar, has no CREATE INDEX production at all), then lifting
// the column list back out — the same trick the rest of the corpus's
// codecrafters-sqlite forks reach for by hand-splitting strings; routing
// it through sqlparser instead keeps quoting/whitespace handling in one
// place (parseCreateTable).
func parseCreateIndex(sql string) (table string, columns []string, err error) {
	clean := strings.TrimSpace(sql)
	upper := strings.ToUpper(clean)

	onIdx := strings.Index(upper, " ON ")
	if onIdx == -1 {
		return "", nil, NewDatabaseError("parse_create_index", ErrUnimplemented, map[string]interface{}{"sql": sql})
	}
	rest := clean[onIdx+4:]

	parenIdx := strings.Index(rest, "(")
	if parenIdx == -1 {
		return "", nil, NewDatabaseError("parse_create_index", ErrUnimplemented, map[string]interface{}{"sql": sql})
	}
	table = strings.TrimSpace(rest[:parenIdx])
	table = strings.Trim(table, `"`)

	closeIdx := strings.LastIndex(rest, ")")
	if closeIdx == -1 || closeIdx < parenIdx {
		return "", nil, NewDatabaseError("parse_create_index", ErrUnimplemented, map[string]interface{}{"sql": sql})
	}
	columnsPart := rest[parenIdx+1 : closeIdx]

	var fakeDefs []string
	for _, raw := range strings.Split(columnsPart, ",") {
		name := strings.Trim(strings.TrimSpace(raw), `"`)
		if name == "" {
			continue
		}
		fakeDefs = append(fakeDefs, fmt.Sprintf("`%s` int", name))
	}

	fakeTable := fmt.Sprintf("CREATE TABLE idx (%s)", strings.Join(fakeDefs, ", "))
	cols, err := parseCreateTable(fakeTable)
	if err != nil {
		return "", nil, err
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return table, names, nil
}

// normalizeSQLiteToMySQL converts SQLite-specific syntax to MySQL syntax
// sqlparser accepts, per the teacher's database.go.
func normalizeSQLiteToMySQL(sql string) string {
	normalized := strings.ReplaceAll(sql, `"`, "")
	normalized = strings.ReplaceAll(normalized, "primary key autoincrement", "AUTO_INCREMENT PRIMARY KEY")
	normalized = strings.ReplaceAll(normalized, "PRIMARY KEY AUTOINCREMENT", "AUTO_INCREMENT PRIMARY KEY")
	return strings.TrimSpace(normalized)
}
