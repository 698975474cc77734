package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Builder assembles a table row by row.
type Builder struct {
	cols []string
	rows [][]Value
}

// NewBuilder starts a table with the given columns. Duplicate names are
// made unique with a ".N" suffix.
func NewBuilder(columns ...string) *Builder {
	return &Builder{cols: uniqueNames(columns)}
}

// Add appends a row. It panics when the arity does not match the columns.
func (b *Builder) Add(values ...Value) {
	if len(values) != len(b.cols) {
		panic(fmt.Sprintf("table: row has %d values, want %d", len(values), len(b.cols)))
	}
	row := make([]Value, len(values))
	copy(row, values)
	b.rows = append(b.rows, row)
}

// Table returns the assembled table.
func (b *Builder) Table() *Table {
	cols := make([]string, len(b.cols))
	copy(cols, b.cols)
	return newUnchecked(cols, b.rows)
}

// uniqueNames names blank headers "Unnamed: i" and suffixes repeats with
// ".1", ".2", ... so every column can be addressed by name.
func uniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := map[string]int{}
	taken := map[string]bool{}
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			n = "Unnamed: " + strconv.Itoa(i)
		}
		taken[n] = true
		out[i] = n
	}
	for i, n := range out {
		cnt := seen[n]
		seen[n] = cnt + 1
		if cnt == 0 {
			continue
		}
		cand := n + "." + strconv.Itoa(cnt)
		for taken[cand] {
			cnt++
			cand = n + "." + strconv.Itoa(cnt)
		}
		seen[n] = cnt + 1
		taken[cand] = true
		out[i] = cand
	}
	return out
}
