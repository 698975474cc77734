// Package statistic computes grouped descriptive statistics, IQR outliers and
// head/tail segmentation of a metric.
package statistic

import (
	"math"
	"sort"
	"strings"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
)

// Long-tail output columns.
const (
	MetricSumColumn       = "metric_sum"
	CumulativeShareColumn = "cumulative_share"
	SegmentColumn         = "segment"
	SegmentHead           = "head"
	SegmentTail           = "tail"
)

// StatNames are the per-metric statistics in output order.
var StatNames = []string{"count", "mean", "median", "std", "min", "p25", "p75", "max"}

// Analyzer computes statistics over a cleaned table.
type Analyzer struct {
	log zerolog.Logger
}

// New returns an Analyzer logging to log.
func New(log zerolog.Logger) *Analyzer {
	return &Analyzer{log: log.With().Str("component", "statistic").Logger()}
}

// SummaryStats returns one row per distinct non-missing value of
// groupColumn, ascending, with {metric}_{stat} columns for every metric.
func (a *Analyzer) SummaryStats(t *table.Table, groupColumn string, metrics []string) (*table.Table, error) {
	const op = "summary stats"
	if err := table.RequireColumns(op, t, append([]string{groupColumn}, metrics...)...); err != nil {
		return nil, err
	}
	for _, m := range metrics {
		if err := table.RequireNumeric(op, t, m); err != nil {
			return nil, err
		}
	}
	cols := []string{groupColumn}
	for _, m := range metrics {
		for _, s := range StatNames {
			cols = append(cols, m+"_"+s)
		}
	}
	b := table.NewBuilder(cols...)
	groups := t.GroupBy(groupColumn)
	for _, g := range groups {
		row := []table.Value{g.Key[0]}
		for _, m := range metrics {
			d := Describe(t.Floats(m, g.Rows))
			row = append(row,
				table.Number(float64(d.Count)),
				table.Number(d.Mean),
				table.Number(d.Median),
				table.Number(d.Std),
				table.Number(d.Min),
				table.Number(d.P25),
				table.Number(d.P75),
				table.Number(d.Max),
			)
		}
		b.Add(row...)
	}
	a.log.Info().Str("group", groupColumn).Strs("metrics", metrics).Int("groups", len(groups)).Msg("summary statistics computed")
	return b.Table(), nil
}

// OutlierOptions configures DetectOutliers.
type OutlierOptions struct {
	Method string
	Factor float64
}

// DefaultOutlierOptions returns the IQR method with the conventional 1.5 factor.
func DefaultOutlierOptions() OutlierOptions {
	return OutlierOptions{Method: "iqr", Factor: 1.5}
}

// DetectOutliers flags the rows of column lying strictly outside
// [Q1 - f*IQR, Q3 + f*IQR]. Missing values are never flagged.
func (a *Analyzer) DetectOutliers(t *table.Table, column string, opt OutlierOptions) ([]bool, error) {
	const op = "detect outliers"
	method := opt.Method
	if method == "" {
		method = "iqr"
	}
	if !strings.EqualFold(method, "iqr") {
		return nil, &table.UnsupportedMethodError{Op: op, Method: opt.Method, Supported: []string{"iqr"}}
	}
	if opt.Factor < 0 || math.IsNaN(opt.Factor) {
		return nil, &table.ValueError{Op: op, Param: "factor", Value: opt.Factor, Reason: "must be non-negative"}
	}
	if err := table.RequireColumns(op, t, column); err != nil {
		return nil, err
	}
	if err := table.RequireNumeric(op, t, column); err != nil {
		return nil, err
	}
	flags := make([]bool, t.Len())
	xs := t.Floats(column, nil)
	if len(xs) == 0 {
		return flags, nil
	}
	sorted := sortedCopy(xs)
	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper := q1-opt.Factor*iqr, q3+opt.Factor*iqr
	n := 0
	for i := range flags {
		f, ok := t.Value(i, column).Float()
		if ok && (f < lower || f > upper) {
			flags[i] = true
			n++
		}
	}
	a.log.Info().Str("column", column).Int("outliers", n).Float64("lower", lower).Float64("upper", upper).Msg("outliers detected")
	return flags, nil
}

// LongTail sums metricColumn per group, sorts descending and labels each
// group head while its cumulative share stays at or below threshold.
func (a *Analyzer) LongTail(t *table.Table, groupColumn, metricColumn string, threshold float64) (*table.Table, error) {
	const op = "long tail"
	if !(threshold > 0 && threshold < 1) {
		return nil, &table.ValueError{Op: op, Param: "threshold", Value: threshold, Reason: "must be in (0, 1)"}
	}
	if err := table.RequireColumns(op, t, groupColumn, metricColumn); err != nil {
		return nil, err
	}
	if err := table.RequireNumeric(op, t, metricColumn); err != nil {
		return nil, err
	}
	type agg struct {
		key table.Value
		sum float64
	}
	groups := t.GroupBy(groupColumn)
	sums := make([]agg, len(groups))
	var total float64
	for i, g := range groups {
		s := t.Sum(metricColumn, g.Rows)
		sums[i] = agg{key: g.Key[0], sum: s}
		total += s
	}
	sort.SliceStable(sums, func(i, j int) bool { return sums[i].sum > sums[j].sum })

	b := table.NewBuilder(groupColumn, MetricSumColumn, CumulativeShareColumn, SegmentColumn)
	var running float64
	heads := 0
	for _, s := range sums {
		running += s.sum
		share := math.NaN()
		if total != 0 {
			share = running / total
		}
		seg := SegmentTail
		if share <= threshold {
			seg = SegmentHead
			heads++
		}
		b.Add(s.key, table.Number(s.sum), table.Number(share), table.Text(seg))
	}
	if total == 0 && len(sums) > 0 {
		a.log.Warn().Str("metric", metricColumn).Msg("metric total is zero, cumulative share undefined")
	}
	a.log.Info().Int("head", heads).Int("groups", len(sums)).Msgf("long tail over %s", metricColumn)
	return b.Table(), nil
}
