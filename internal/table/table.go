// Package table provides the in-memory ordered table that statement
// files are loaded into before normalization.
package table

import (
	"fmt"
)

// LoadError reports a file that could not be read or parsed as its
// declared kind. The file is skipped; the run continues.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Table is an ordered collection of rows with named columns. The rows
// above the header line are retained as the preamble so that formats
// carrying metadata in fixed header cells can still reach them.
type Table struct {
	headers  []string
	index    map[string]int // header -> column position
	rows     [][]string
	preamble [][]string
}

// New creates a table from a header row and data rows. Rows shorter
// than the header are padded with empty cells so that column access is
// always in range.
func New(headers []string, rows [][]string) *Table {
	t := &Table{
		headers: append([]string(nil), headers...),
		rows:    make([][]string, len(rows)),
	}
	for i, row := range rows {
		padded := make([]string, len(headers))
		copy(padded, row)
		t.rows[i] = padded
	}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.headers))
	for i, h := range t.headers {
		// First occurrence wins for duplicate headers
		if _, ok := t.index[h]; !ok {
			t.index[h] = i
		}
	}
}

// SetPreamble attaches the raw rows found above the header line
func (t *Table) SetPreamble(rows [][]string) {
	t.preamble = rows
}

// Preamble returns the raw rows above the header line, if any
func (t *Table) Preamble() [][]string {
	return t.preamble
}

// Headers returns a copy of the current header names in column order
func (t *Table) Headers() []string {
	return append([]string(nil), t.headers...)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether a column with the given name exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the value at the given row for the named column.
// Returns ("", false) when the column does not exist.
func (t *Table) Cell(row int, column string) (string, bool) {
	i, ok := t.index[column]
	if !ok {
		return "", false
	}
	return t.rows[row][i], true
}

// Column returns a copy of all values of the named column in row order.
// Returns (nil, false) when the column does not exist.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	values := make([]string, len(t.rows))
	for r, row := range t.rows {
		values[r] = row[i]
	}
	return values, true
}

// RenameHeader replaces a header name in place. Renaming to an existing
// name is rejected to keep column lookup unambiguous.
func (t *Table) RenameHeader(from, to string) error {
	i, ok := t.index[from]
	if !ok {
		return fmt.Errorf("column %q not found", from)
	}
	if from == to {
		return nil
	}
	if _, exists := t.index[to]; exists {
		return fmt.Errorf("column %q already exists", to)
	}
	t.headers[i] = to
	t.reindex()
	return nil
}

// SetHeaders replaces all header names at once (used by header
// canonicalization). Length must match the current column count.
func (t *Table) SetHeaders(headers []string) error {
	if len(headers) != len(t.headers) {
		return fmt.Errorf("header count mismatch: got %d, table has %d columns", len(headers), len(t.headers))
	}
	t.headers = append([]string(nil), headers...)
	t.reindex()
	return nil
}

// Truncate discards every row at index n and beyond
func (t *Table) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(t.rows) {
		t.rows = t.rows[:n]
	}
}
