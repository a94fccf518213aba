package main

import (
	"io"
	"strings"
)

// ConsoleFormatter renders a ResultSet as pipe-separated rows, one per
// line, with no header row — matching how sqlite3's own "-separator |"
// mode and the rest of this corpus's embedded readers print query output.
// Adapted from the teacher's ConsoleFormatter, which joined columns with a
// tab; this reader's output contract is pipe-joined instead.
type ConsoleFormatter struct {
	w io.Writer
}

// NewConsoleFormatter creates a console formatter writing to w.
func NewConsoleFormatter(w io.Writer) *ConsoleFormatter {
	return &ConsoleFormatter{w: w}
}

// FormatRow renders one row's values pipe-separated.
func (cf *ConsoleFormatter) FormatRow(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, "|")
}

// WriteResultSet writes every row of rs to the formatter's writer,
// newline-terminated, in order.
func (cf *ConsoleFormatter) WriteResultSet(rs *ResultSet) error {
	var b strings.Builder
	for _, row := range rs.Rows {
		b.WriteString(cf.FormatRow(row))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(cf.w, b.String())
	return err
}
