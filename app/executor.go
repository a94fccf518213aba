package main

import (
	"strings"

	"github.com/xwb1989/sqlparser"
)

// The query executor: plans and runs a single SELECT against the catalog
// and the B-tree layer. Grounded on the teacher's query_optimizer.go (WHERE-
// clause index analysis, comparison evaluation) and service.go (schema
// lookup, row materialization), consolidated into one pass instead of a
// separate QueryOptimizer/ExecutePlan split, since this reader only ever
// considers a single equality predicate.

// Condition is the one predicate shape this reader understands: an
// equality test of a column against a text literal.
type Condition struct {
	Column  string
	Literal string
}

// Select is a parsed query ready to run.
type Select struct {
	Table     string
	Columns   []string // as named in the query; empty means "*"
	CountStar bool
	Condition *Condition
}

// ParseSelect parses a SQL SELECT statement into a Select plan input.
func ParseSelect(sql string) (*Select, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, NewDatabaseError("parse_select", ErrUnimplemented, map[string]interface{}{
			"sql": sql,
			"err": err.Error(),
		})
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, NewDatabaseError("parse_select", ErrUnimplemented, map[string]interface{}{
			"reason": "only SELECT statements are supported",
		})
	}

	if len(sel.From) != 1 {
		return nil, NewDatabaseError("parse_select", ErrUnimplemented, map[string]interface{}{
			"reason": "exactly one table in FROM is required",
		})
	}
	aliased, ok := sel.From[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return nil, NewDatabaseError("parse_select", ErrUnimplemented, map[string]interface{}{
			"reason": "unsupported FROM clause",
		})
	}
	tableName, ok := aliased.Expr.(sqlparser.TableName)
	if !ok {
		return nil, NewDatabaseError("parse_select", ErrUnimplemented, map[string]interface{}{
			"reason": "unsupported FROM clause",
		})
	}

	out := &Select{Table: tableName.Name.String()}

	if isCountStar(sel.SelectExprs) {
		out.CountStar = true
	} else {
		for _, expr := range sel.SelectExprs {
			switch e := expr.(type) {
			case *sqlparser.StarExpr:
				out.Columns = nil // "*"; resolved against DDL at execution time
			case *sqlparser.AliasedExpr:
				colName, ok := e.Expr.(*sqlparser.ColName)
				if !ok {
					return nil, NewDatabaseError("parse_select", ErrUnimplemented, map[string]interface{}{
						"reason": "only plain column references are supported",
					})
				}
				out.Columns = append(out.Columns, colName.Name.String())
			default:
				return nil, NewDatabaseError("parse_select", ErrUnimplemented, map[string]interface{}{
					"reason": "unsupported select expression",
				})
			}
		}
	}

	if sel.Where != nil {
		cond, err := parseCondition(sel.Where.Expr)
		if err != nil {
			return nil, err
		}
		out.Condition = cond
	}

	return out, nil
}

func isCountStar(exprs sqlparser.SelectExprs) bool {
	if len(exprs) != 1 {
		return false
	}
	aliased, ok := exprs[0].(*sqlparser.AliasedExpr)
	if !ok {
		return false
	}
	fn, ok := aliased.Expr.(*sqlparser.FuncExpr)
	if !ok || !strings.EqualFold(fn.Name.String(), "count") {
		return false
	}
	if len(fn.Exprs) != 1 {
		return false
	}
	_, ok = fn.Exprs[0].(*sqlparser.StarExpr)
	return ok
}

func parseCondition(expr sqlparser.Expr) (*Condition, error) {
	cmp, ok := expr.(*sqlparser.ComparisonExpr)
	if !ok {
		return nil, NewDatabaseError("parse_condition", ErrUnimplemented, map[string]interface{}{
			"reason": "only a single comparison is supported in WHERE",
		})
	}

	switch cmp.Operator {
	case "=":
		// supported below
	case "!=", "<>":
		return nil, NewDatabaseError("parse_condition", ErrUnimplemented, map[string]interface{}{
			"reason": "!= and <> are not supported",
		})
	default:
		return nil, NewDatabaseError("parse_condition", ErrUnimplemented, map[string]interface{}{
			"reason": "only = is supported",
			"op":     cmp.Operator,
		})
	}

	colName, ok := cmp.Left.(*sqlparser.ColName)
	if !ok {
		return nil, NewDatabaseError("parse_condition", ErrUnimplemented, map[string]interface{}{
			"reason": "left side of = must be a column",
		})
	}

	val, ok := cmp.Right.(*sqlparser.SQLVal)
	if !ok || val.Type != sqlparser.StrVal {
		return nil, NewDatabaseError("parse_condition", ErrUnimplemented, map[string]interface{}{
			"reason": "right side of = must be a text literal",
		})
	}

	return &Condition{Column: colName.Name.String(), Literal: string(val.Val)}, nil
}

// ResultSet is the output of Execute: the projected column names and one
// slice of Values per matched row.
type ResultSet struct {
	Columns []string
	Rows    [][]Value
}

// Execute runs sel against the table data reachable via pager and catalog.
func Execute(pager *Pager, catalog *Catalog, sel *Select) (*ResultSet, error) {
	rootPage, err := catalog.TableRootPage(sel.Table)
	if err != nil {
		return nil, err
	}
	ddl, err := catalog.TableDDL(sel.Table)
	if err != nil {
		return nil, err
	}

	if sel.CountStar {
		cells, err := rowsForSelect(pager, catalog, sel.Table, rootPage, sel.Condition)
		if err != nil {
			return nil, err
		}
		return &ResultSet{
			Columns: []string{"count(*)"},
			Rows:    [][]Value{{IntValue(KindInt64, int64(len(cells)))}},
		}, nil
	}

	projection, err := resolveProjection(ddl, sel.Columns)
	if err != nil {
		return nil, err
	}

	cells, err := rowsForSelect(pager, catalog, sel.Table, rootPage, sel.Condition)
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(projection))
	for i, idx := range projection {
		columns[i] = ddl[idx].Name
	}

	rows := make([][]Value, 0, len(cells))
	for _, cell := range cells {
		materialized := materializeRow(cell, ddl)
		row := make([]Value, len(projection))
		for i, idx := range projection {
			row[i] = materialized[idx]
		}
		rows = append(rows, row)
	}

	return &ResultSet{Columns: columns, Rows: rows}, nil
}

// rowsForSelect picks a full scan or an index probe + rowid fetch
// depending on whether the condition's column is covered by an index, then
// applies the condition as a final filter (an index probe already returns
// only matching rowids, but a predicate on a column without an index must
// still be evaluated against every scanned row).
func rowsForSelect(pager *Pager, catalog *Catalog, table string, rootPage uint32, cond *Condition) ([]LeafTableCell, error) {
	if cond == nil {
		return ScanTable(pager, rootPage)
	}

	if indexRoot, ok, err := catalog.FindIndex(table, cond.Column); err != nil {
		return nil, err
	} else if ok {
		rowids, err := ProbeIndex(pager, indexRoot, cond.Literal)
		if err != nil {
			return nil, err
		}
		return FetchByRowids(pager, rootPage, rowids)
	}

	all, err := ScanTable(pager, rootPage)
	if err != nil {
		return nil, err
	}

	ddl, err := catalog.TableDDL(table)
	if err != nil {
		return nil, err
	}
	colIdx := -1
	for i, col := range ddl {
		if strings.EqualFold(col.Name, cond.Column) {
			colIdx = i
			break
		}
	}
	if colIdx == -1 {
		return nil, NewDatabaseError("apply_condition", ErrUnknownColumn, map[string]interface{}{
			"column": cond.Column,
		})
	}

	var matched []LeafTableCell
	for _, cell := range all {
		row := materializeRow(cell, ddl)
		val := row[colIdx]
		if val.IsNull() {
			continue
		}
		text, ok := val.Text()
		if !ok {
			return nil, NewDatabaseError("apply_condition", ErrUnsupportedCompare, map[string]interface{}{
				"column": cond.Column,
				"kind":   val.Kind,
			})
		}
		if text == cond.Literal {
			matched = append(matched, cell)
		}
	}
	return matched, nil
}

// resolveProjection maps requested column names to indices into ddl,
// case-insensitively; an empty names list ("SELECT *") expands to every
// declared column in order.
func resolveProjection(ddl []ColumnDef, names []string) ([]int, error) {
	if len(names) == 0 {
		idx := make([]int, len(ddl))
		for i := range ddl {
			idx[i] = i
		}
		return idx, nil
	}

	idx := make([]int, len(names))
	for i, name := range names {
		found := -1
		for j, col := range ddl {
			if strings.EqualFold(col.Name, name) {
				found = j
				break
			}
		}
		if found == -1 {
			return nil, NewDatabaseError("resolve_projection", ErrUnknownColumn, map[string]interface{}{
				"column": name,
			})
		}
		idx[i] = found
	}
	return idx, nil
}

// materializeRow returns one Value per declared column, substituting the
// cell's rowid for column 0 when it is declared INTEGER and its stored
// serial type is NULL, which is how SQLite stores an INTEGER PRIMARY KEY
// rowid alias. Only column 0 is ever substituted; a NULL in any later
// column stays NULL. The PRIMARY KEY declaration itself is not checked, so
// a column 0 declared plain INTEGER that is NULL in storage also shows the
// rowid.
func materializeRow(cell LeafTableCell, ddl []ColumnDef) []Value {
	row := make([]Value, len(ddl))
	for i, col := range ddl {
		if i < len(cell.Record.Values) {
			row[i] = cell.Record.Values[i]
		} else {
			row[i] = NullValue()
		}
		if i == 0 && row[i].IsNull() && col.Type == "INTEGER" {
			row[i] = IntValue(KindInt64, int64(cell.RowID))
		}
	}
	return row
}
