package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Table is an in-memory column-labeled dataset. Rows are addressed by their
// position at load time; that position is the stable row id every detector
// reports, so mutating operations never reorder or renumber rows.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table with the given column labels. Labels must be
// non-empty and unique.
func New(columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table requires at least one column")
	}
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		index[name] = i
	}
	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// Columns returns the column labels in declaration order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// AppendRow adds a row. The row length must match the column count exactly.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, append([]Value(nil), row...))
	return nil
}

// At returns the cell at (row, column name). Unknown columns and
// out-of-range rows yield the missing cell.
func (t *Table) At(row int, column string) Value {
	ci, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return Missing()
	}
	return t.rows[row][ci]
}

// Set overwrites the cell at (row, column name). Unknown columns and
// out-of-range rows are ignored.
func (t *Table) Set(row int, column string, v Value) {
	ci, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return
	}
	t.rows[row][ci] = v
}

// Row returns a copy of the row at the given id, or nil when out of range.
func (t *Table) Row(row int) []Value {
	if row < 0 || row >= len(t.rows) {
		return nil
	}
	return append([]Value(nil), t.rows[row]...)
}

// RowMap returns the row at the given id keyed by column name, or nil when
// out of range.
func (t *Table) RowMap(row int) map[string]Value {
	if row < 0 || row >= len(t.rows) {
		return nil
	}
	m := make(map[string]Value, len(t.columns))
	for i, name := range t.columns {
		m[name] = t.rows[row][i]
	}
	return m
}

// Column returns a copy of the named column's cells in row order. Unknown
// columns yield nil.
func (t *Table) Column(name string) []Value {
	ci, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[ci]
	}
	return out
}

// Select projects the rows with the given ids into a new table sharing this
// table's columns. Ids outside the valid range are skipped, and the original
// ids are returned alongside so callers can keep reporting against them.
func (t *Table) Select(rowIDs []int) (*Table, []int) {
	index := make(map[string]int, len(t.index))
	for name, i := range t.index {
		index[name] = i
	}
	out := &Table{
		columns: append([]string(nil), t.columns...),
		index:   index,
	}
	kept := make([]int, 0, len(rowIDs))
	for _, id := range rowIDs {
		if id < 0 || id >= len(t.rows) {
			continue
		}
		out.rows = append(out.rows, append([]Value(nil), t.rows[id]...))
		kept = append(kept, id)
	}
	return out, kept
}

// AddColumn appends a derived column. The value slice must cover every row.
func (t *Table) AddColumn(name string, values []Value) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("column name is empty")
	}
	if _, dup := t.index[name]; dup {
		return fmt.Errorf("duplicate column name %q", name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], values[i])
	}
	return nil
}

// RowKey returns a collision-safe fingerprint of an entire row, used for
// exact-duplicate detection. Out-of-range rows yield the empty string.
func (t *Table) RowKey(row int) string {
	if row < 0 || row >= len(t.rows) {
		return ""
	}
	parts := make([]string, len(t.rows[row]))
	for i, v := range t.rows[row] {
		parts[i] = v.key()
	}
	return strings.Join(parts, "\x1f")
}

// ValueKey returns the collision-safe fingerprint of a single cell, used for
// distinct-value counting alongside RowKey.
func ValueKey(v Value) string {
	return v.key()
}

// SortedRowIDs returns the given row ids deduplicated and in ascending
// order. Detector outputs normalize through this so reports stay stable
// across runs.
func SortedRowIDs(ids map[int]struct{}) []int {
	out := make([]int, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
