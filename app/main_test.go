package main

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it, the way the teacher's own console tests do.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestRunDBInfoAndTables(t *testing.T) {
	pager, catalog := setupApplesDB(t, false)

	out := captureStdout(t, func() { runDBInfo(pager, catalog) })
	if out == "" {
		t.Fatal("expected dbinfo output")
	}

	out = captureStdout(t, func() { runTables(catalog) })
	if out != "apples\n" {
		t.Errorf("runTables output = %q, want %q", out, "apples\n")
	}
}

func TestRunTablesOnePerLine(t *testing.T) {
	cells := [][]byte{
		schemaCell(1, "table", "apples", "apples", 2, "CREATE TABLE apples (id integer primary key, name text)"),
		schemaCell(2, "table", "oranges", "oranges", 3, "CREATE TABLE oranges (id integer primary key, name text)"),
	}
	page1 := buildPage1(testPageSize, cells)
	pager := writeTestDB(t, [][]byte{page1})
	catalog, err := NewCatalog(pager)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	out := captureStdout(t, func() { runTables(catalog) })
	want := "apples\noranges\n"
	if out != want {
		t.Errorf("runTables output = %q, want %q", out, want)
	}
}

func TestRunQueryPipeSeparatedOutput(t *testing.T) {
	pager, catalog := setupApplesDB(t, false)

	out := captureStdout(t, func() { runQuery(pager, catalog, "select name, color from apples where color = 'red'") })
	if out != "fuji|red\n" {
		t.Errorf("runQuery output = %q, want %q", out, "fuji|red\n")
	}
}
