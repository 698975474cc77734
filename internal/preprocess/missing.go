package preprocess

import (
	"sort"
	"strings"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/statistic"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
)

// StrategyKind selects how missing values of a column are handled.
type StrategyKind int

const (
	Unknown StrategyKind = iota
	Drop
	Mean
	Median
	Mode
	Constant
)

// Strategy is a missing-value policy. Value holds the literal for Constant
// and the raw token for Unknown.
type Strategy struct {
	Kind  StrategyKind
	Value string
}

func (s Strategy) String() string {
	switch s.Kind {
	case Drop:
		return "drop"
	case Mean:
		return "mean"
	case Median:
		return "median"
	case Mode:
		return "mode"
	case Constant:
		return "constant:" + s.Value
	default:
		return s.Value
	}
}

// ColumnStrategy binds a strategy to one column.
type ColumnStrategy struct {
	Column   string
	Strategy Strategy
}

// ParseStrategy reads drop, mean, median, mode or constant:<literal>.
// Anything else yields an Unknown strategy carrying the token.
func ParseStrategy(token string) Strategy {
	tok := strings.TrimSpace(token)
	switch strings.ToLower(tok) {
	case "drop":
		return Strategy{Kind: Drop}
	case "mean":
		return Strategy{Kind: Mean}
	case "median":
		return Strategy{Kind: Median}
	case "mode":
		return Strategy{Kind: Mode}
	}
	if len(tok) >= len("constant:") && strings.EqualFold(tok[:len("constant:")], "constant:") {
		return Strategy{Kind: Constant, Value: tok[len("constant:"):]}
	}
	return Strategy{Kind: Unknown, Value: tok}
}

// ParseStrategies converts a column to token map, ordered by column name.
func ParseStrategies(m map[string]string) []ColumnStrategy {
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	out := make([]ColumnStrategy, len(cols))
	for i, c := range cols {
		out[i] = ColumnStrategy{Column: c, Strategy: ParseStrategy(m[c])}
	}
	return out
}

// HandleMissing applies the per-column strategies in order. With no
// per-column strategies def applies to the whole table; only Drop is
// supported there.
func (c *Cleaner) HandleMissing(t *table.Table, strategies []ColumnStrategy, def Strategy) diag.Result {
	rec := diag.NewRecorder(c.log, stage)
	if len(strategies) == 0 {
		if def.Kind != Drop {
			rec.Warn("", 0, "default strategy %q not implemented", def.String())
			return rec.Result(t)
		}
		out := t.Filter(func(i int) bool {
			for _, v := range t.Row(i) {
				if v.IsMissing() {
					return false
				}
			}
			return true
		})
		rec.Info("", t.Len()-out.Len(), "removed %d rows with missing values", t.Len()-out.Len())
		return rec.Result(out)
	}

	out := t
	for _, cs := range strategies {
		col, s := cs.Column, cs.Strategy
		if !out.Has(col) {
			rec.Warn(col, 0, "missing-value strategy given for absent column")
			continue
		}
		switch s.Kind {
		case Drop:
			cur := out
			out = cur.Filter(func(i int) bool { return !cur.Value(i, col).IsMissing() })
			rec.Info(col, cur.Len()-out.Len(), "removed %d rows missing %s", cur.Len()-out.Len(), col)
		case Mean, Median:
			if out.Kind(col) != table.KindNumber {
				rec.Warn(col, 0, "strategy %s needs a numeric column", s)
				continue
			}
			xs := out.Floats(col, nil)
			if len(xs) == 0 {
				continue
			}
			fill := statistic.Mean(xs)
			if s.Kind == Median {
				fill = statistic.Median(xs)
			}
			var n int
			out, n = fillMissing(out, col, table.Number(fill))
			rec.Info(col, n, "filled %d values with %s=%s", n, s, table.FormatNumber(fill))
		case Mode:
			v, ok := mode(out, col)
			if !ok {
				continue
			}
			var n int
			out, n = fillMissing(out, col, v)
			rec.Info(col, n, "filled %d values with mode=%q", n, v.String())
		case Constant:
			v := table.Text(s.Value)
			if out.Kind(col) == table.KindNumber {
				if f, ok := (table.NumberFormat{}).ParseNumber(s.Value); ok {
					v = table.Number(f)
				}
			}
			var n int
			out, n = fillMissing(out, col, v)
			rec.Info(col, n, "filled %d values with constant=%q", n, s.Value)
		default:
			rec.Warn(col, 0, "unknown or incompatible strategy %q", s.String())
		}
	}
	return rec.Result(out)
}

func fillMissing(t *table.Table, col string, v table.Value) (*table.Table, int) {
	vals, _ := t.Column(col)
	n := 0
	for i := range vals {
		if vals[i].IsMissing() {
			vals[i] = v
			n++
		}
	}
	if n == 0 {
		return t, 0
	}
	out, _ := t.WithColumn(col, vals)
	return out, n
}

// mode returns the most frequent non-missing value; ties go to the smallest.
func mode(t *table.Table, col string) (table.Value, bool) {
	vals, _ := t.Column(col)
	counts := map[string]int{}
	first := map[string]table.Value{}
	for _, v := range vals {
		if v.IsMissing() {
			continue
		}
		k := v.Key()
		counts[k]++
		if _, ok := first[k]; !ok {
			first[k] = v
		}
	}
	var best table.Value
	bestN := 0
	for k, n := range counts {
		v := first[k]
		if n > bestN || (n == bestN && table.Compare(v, best) < 0) {
			best, bestN = v, n
		}
	}
	return best, bestN > 0
}
