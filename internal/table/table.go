package table

import (
	"fmt"
	"sort"
)

// Table is an in-memory, column-ordered dataset. Tables are never modified
// after construction; every operation returns a new Table.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New builds a table from column names and rows. Every row must have exactly
// one value per column and column names must be unique.
func New(columns []string, rows [][]Value) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}
	out := make([][]Value, len(rows))
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
		cp := make([]Value, len(r))
		copy(cp, r)
		out[i] = cp
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{cols: cols, index: index, rows: out}, nil
}

// Empty returns a table with the given columns and no rows.
func Empty(columns ...string) *Table {
	return NewBuilder(columns...).Table()
}

func newUnchecked(cols []string, rows [][]Value) *Table {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	return &Table{cols: cols, index: index, rows: rows}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Absent returns the names not present in the table, in the given order.
func (t *Table) Absent(names ...string) []string {
	var out []string
	for _, n := range names {
		if !t.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Width is the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// Value returns the cell at row i in the named column, or a missing value
// if the column does not exist.
func (t *Table) Value(i int, col string) Value {
	j, ok := t.index[col]
	if !ok {
		return Null()
	}
	return t.rows[i][j]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	copy(out, t.rows[i])
	return out
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]Value, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// Kind infers the column type from its non-missing values. A column with no
// non-missing values is numeric, like an all-NaN float column. Unknown
// columns report KindMissing.
func (t *Table) Kind(name string) Kind {
	j, ok := t.index[name]
	if !ok {
		return KindMissing
	}
	kind := KindMissing
	for _, r := range t.rows {
		v := r[j]
		if v.IsMissing() {
			continue
		}
		switch {
		case kind == KindMissing:
			kind = v.Kind()
		case kind != v.Kind():
			return KindText
		}
	}
	if kind == KindMissing {
		return KindNumber
	}
	return kind
}

// NumericColumns lists the columns whose kind is numeric, in table order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.cols {
		if t.Kind(c) == KindNumber {
			out = append(out, c)
		}
	}
	return out
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []int
	var cols []string
	for i, c := range t.cols {
		if !drop[c] {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Value, len(keep))
		for k, j := range keep {
			nr[k] = r[j]
		}
		rows[i] = nr
	}
	return newUnchecked(cols, rows)
}

// Select returns a table restricted to the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	if missing := t.Absent(names...); len(missing) > 0 {
		return nil, &SchemaError{Op: "select", Missing: missing}
	}
	b := NewBuilder(names...)
	for i := range t.rows {
		vals := make([]Value, len(names))
		for k, n := range names {
			vals[k] = t.Value(i, n)
		}
		b.Add(vals...)
	}
	return b.Table(), nil
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	var rows [][]Value
	for i, r := range t.rows {
		if keep(i) {
			rows = append(rows, r)
		}
	}
	return newUnchecked(t.Columns(), rows)
}

// Head returns the first n rows (or all rows when n exceeds the length).
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	return newUnchecked(t.Columns(), t.rows[:n:n])
}

// WithColumn returns a table where the named column holds values. An
// existing column is replaced in place; a new one is appended.
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	cols := t.Columns()
	j, exists := t.index[name]
	if !exists {
		cols = append(cols, name)
		j = len(cols) - 1
	}
	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Value, len(cols))
		copy(nr, r)
		nr[j] = values[i]
		rows[i] = nr
	}
	return newUnchecked(cols, rows), nil
}

// Clone returns a deep copy of the row storage.
func (t *Table) Clone() *Table {
	rows := make([][]Value, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Value, len(r))
		copy(nr, r)
		rows[i] = nr
	}
	return newUnchecked(t.Columns(), rows)
}

// Equal reports whether both tables have the same columns in the same order
// and structurally equal cells.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.cols) != len(o.cols) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.cols {
		if t.cols[i] != o.cols[i] {
			return false
		}
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if !t.rows[i][j].Equal(o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// Group is the set of row indices sharing one key.
type Group struct {
	Key  []Value
	Rows []int
}

// GroupBy partitions rows by the key columns. Rows with any missing key are
// skipped. Groups are returned in ascending key order; row indices keep
// table order within a group.
func (t *Table) GroupBy(keys ...string) []Group {
	idx := make([]int, len(keys))
	for k, name := range keys {
		j, ok := t.index[name]
		if !ok {
			return nil
		}
		idx[k] = j
	}
	pos := map[string]int{}
	var groups []Group
	for i, r := range t.rows {
		key := make([]Value, len(idx))
		var hk string
		skip := false
		for k, j := range idx {
			v := r[j]
			if v.IsMissing() {
				skip = true
				break
			}
			key[k] = v
			hk += v.Key() + "\x1f"
		}
		if skip {
			continue
		}
		p, ok := pos[hk]
		if !ok {
			p = len(groups)
			pos[hk] = p
			groups = append(groups, Group{Key: key})
		}
		groups[p].Rows = append(groups[p].Rows, i)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		for k := range groups[a].Key {
			if c := Compare(groups[a].Key[k], groups[b].Key[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return groups
}

// Floats returns the non-missing numbers of col at the given rows. A nil rows
// slice means every row.
func (t *Table) Floats(col string, rows []int) []float64 {
	j, ok := t.index[col]
	if !ok {
		return nil
	}
	var out []float64
	visit := func(i int) {
		if f, ok := t.rows[i][j].Float(); ok {
			out = append(out, f)
		}
	}
	if rows == nil {
		for i := range t.rows {
			visit(i)
		}
		return out
	}
	for _, i := range rows {
		visit(i)
	}
	return out
}

// Sum adds the non-missing numbers of col at the given rows.
func (t *Table) Sum(col string, rows []int) float64 {
	var s float64
	for _, f := range t.Floats(col, rows) {
		s += f
	}
	return s
}
