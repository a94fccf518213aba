package main

import (
	"fmt"
	"log"
	"os"
)

var debugLog = log.New(os.Stderr, "", 0)

// debugf logs to stderr only when SQLITE_READER_DEBUG is set, following
// the teacher's habit of gating verbose diagnostics behind an env var
// rather than a flag.
func debugf(format string, args ...interface{}) {
	if os.Getenv("SQLITE_READER_DEBUG") == "" {
		return
	}
	debugLog.Printf(format, args...)
}

// Usage: sqlite-reader <database file> <command>
func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: sqlite-reader <database file> <command>")
		os.Exit(1)
	}

	dbPath := os.Args[1]
	command := os.Args[2]

	resources := NewResourceManager()
	defer resources.Close()

	pager, err := NewPager(dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	resources.AddCleaner(pager.Close)

	catalog, err := NewCatalog(pager)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch {
	case command == ".dbinfo":
		runDBInfo(pager, catalog)
	case command == ".tables":
		runTables(catalog)
	default:
		runQuery(pager, catalog, command)
	}
}

func runDBInfo(pager *Pager, catalog *Catalog) {
	fmt.Printf("database page size: %v\n", pager.PageSize())
	fmt.Printf("number of tables: %v\n", catalog.CountTables())
}

func runTables(catalog *Catalog) {
	for _, name := range catalog.Tables() {
		fmt.Println(name)
	}
}

func runQuery(pager *Pager, catalog *Catalog, sql string) {
	sel, err := ParseSelect(sql)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	debugf("parsed select: table=%s columns=%v count_star=%v condition=%+v",
		sel.Table, sel.Columns, sel.CountStar, sel.Condition)

	rs, err := Execute(pager, catalog, sel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	formatter := NewConsoleFormatter(os.Stdout)
	if err := formatter.WriteResultSet(rs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
