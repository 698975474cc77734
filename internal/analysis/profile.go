// Package analysis profiles a table: inferred kinds, missing shares,
// numeric spread, frequent categories, group summaries and correlations.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/statistic"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"gonum.org/v1/gonum/stat"
)

// Options controls profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopValues caps the categories listed per column.
	TopValues int
	// MaxCategories is the distinct-value limit under which a text column
	// is reported as categorical.
	MaxCategories int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for a sales export.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		TopValues:        8,
		MaxCategories:    50,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Datetime range
	First, Last time.Time
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Profile summarizes t.
func Profile(name string, t *table.Table, opt Options) *Report {
	if opt.SampleRows <= 0 {
		opt.SampleRows = 5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	if opt.MaxCategories <= 0 {
		opt.MaxCategories = 50
	}
	rep := &Report{Name: name, Rows: t.Len()}
	cols := t.Columns()
	var numCols []string
	for _, c := range cols {
		s := summarize(t, c, opt)
		if s.Kind == "numeric" {
			numCols = append(numCols, c)
		}
		rep.Cols = append(rep.Cols, s)
	}
	for i := 0; i < t.Len() && i < opt.SampleRows; i++ {
		row := make([]string, len(cols))
		for j, v := range t.Row(i) {
			row[j] = v.String()
		}
		rep.Samples = append(rep.Samples, row)
	}
	if len(opt.GroupBy) > 0 {
		if missing := t.Absent(opt.GroupBy...); len(missing) > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by columns not found: %s", strings.Join(missing, ", ")))
		} else {
			rep.Groups = groupSummaries(t, opt.GroupBy, numCols)
		}
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlations(t, numCols)
	}
	return rep
}

func summarize(t *table.Table, col string, opt Options) ColumnSummary {
	vals, _ := t.Column(col)
	s := ColumnSummary{Name: col}
	counts := map[string]int{}
	for _, v := range vals {
		if v.IsMissing() {
			s.Missing++
			continue
		}
		s.NonNull++
		counts[v.String()]++
	}
	s.Unique = len(counts)
	if s.NonNull == 0 {
		s.Kind = "empty"
		return s
	}
	switch t.Kind(col) {
	case table.KindNumber:
		s.Kind = "numeric"
		xs := t.Floats(col, nil)
		d := statistic.Describe(xs)
		s.Min, s.Max, s.Mean, s.Std = d.Min, d.Max, d.Mean, d.Std
		if math.IsNaN(s.Std) {
			s.Std = 0
		}
		if opt.Outliers && len(xs) >= 8 {
			s.OutlierThreshold = opt.OutlierThreshold
			if s.OutlierThreshold <= 0 {
				s.OutlierThreshold = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustZ(xs, s.OutlierThreshold)
		}
	case table.KindTime:
		s.Kind = "datetime"
		for _, v := range vals {
			tm, ok := v.Time()
			if !ok {
				continue
			}
			if s.First.IsZero() || tm.Before(s.First) {
				s.First = tm
			}
			if tm.After(s.Last) {
				s.Last = tm
			}
		}
	default:
		if s.Unique <= opt.MaxCategories {
			s.Kind = "categorical"
			tops := make([]CategoryCount, 0, len(counts))
			for k, v := range counts {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > opt.TopValues {
				tops = tops[:opt.TopValues]
			}
			s.TopValues = tops
		} else {
			s.Kind = "text"
			for _, v := range vals {
				if !v.IsMissing() && len(s.ExampleTexts) < 3 {
					s.ExampleTexts = append(s.ExampleTexts, v.String())
				}
			}
		}
	}
	return s
}

// robustZ counts values whose modified z-score exceeds thr.
func robustZ(xs []float64, thr float64) (count int, maxAbsZ float64) {
	median := statistic.Median(xs)
	dev := make([]float64, len(xs))
	for i, v := range xs {
		dev[i] = math.Abs(v - median)
	}
	mad := statistic.Median(dev)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range xs {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

func groupSummaries(t *table.Table, keys, numCols []string) []GroupResult {
	var out []GroupResult
	for _, g := range t.GroupBy(keys...) {
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k, safeVal(g.Key[i].String()))
		}
		gr := GroupResult{Key: strings.Join(parts, " | "), Size: len(g.Rows), Metrics: map[string]NumSummary{}}
		for _, c := range numCols {
			xs := t.Floats(c, g.Rows)
			if len(xs) == 0 {
				continue
			}
			d := statistic.Describe(xs)
			gr.Metrics[c] = NumSummary{Count: d.Count, Min: d.Min, Max: d.Max, Mean: d.Mean}
		}
		out = append(out, gr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size > out[j].Size })
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

// correlations uses pairwise-complete rows for every pair of columns.
func correlations(t *table.Table, numCols []string) *CorrMatrix {
	n := len(numCols)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var xs, ys []float64
			for i := 0; i < t.Len(); i++ {
				x, okx := t.Value(i, numCols[a]).Float()
				y, oky := t.Value(i, numCols[b]).Float()
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			var r float64
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			mat[a][b], mat[b][a] = r, r
		}
	}
	cols := make([]string, n)
	copy(cols, numCols)
	return &CorrMatrix{Columns: cols, Values: mat}
}
