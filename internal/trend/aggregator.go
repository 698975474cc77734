// Package trend buckets sales by calendar period.
package trend

import (
	"sort"
	"strings"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
)

// Aggregator sums metrics over time.
type Aggregator struct {
	log zerolog.Logger
}

// New returns an Aggregator logging to log.
func New(log zerolog.Logger) *Aggregator {
	return &Aggregator{log: log.With().Str("component", "trend").Logger()}
}

// AggregateOverTime sums the metrics per period of dateColumn, and per
// groupColumn value when it is not empty. A nil metrics slice selects every
// numeric column except the date and group columns. Rows without a usable
// date are dropped.
//
// Without grouping every period from the first to the last observed one is
// emitted, empty periods summing to zero. With grouping only observed
// (period, group) pairs are emitted, ordered by period then group.
func (a *Aggregator) AggregateOverTime(t *table.Table, dateColumn string, freq Frequency, metrics []string, groupColumn string) (diag.Result, error) {
	const op = "aggregate over time"
	if freq.code == "" {
		freq = Monthly
	}
	if err := table.RequireColumns(op, t, dateColumn); err != nil {
		return diag.Result{}, err
	}
	rec := diag.NewRecorder(a.log, "trend")
	if metrics == nil {
		for _, c := range t.NumericColumns() {
			if c != dateColumn && c != groupColumn {
				metrics = append(metrics, c)
			}
		}
		rec.Info("", len(metrics), "no metrics given, using numeric columns [%s]", strings.Join(metrics, ", "))
	} else if err := table.RequireColumns(op, t, metrics...); err != nil {
		return diag.Result{}, err
	}
	if groupColumn != "" {
		if err := table.RequireColumns(op, t, groupColumn); err != nil {
			return diag.Result{}, err
		}
	}
	for _, m := range metrics {
		if err := table.RequireNumeric(op, t, m); err != nil {
			return diag.Result{}, err
		}
	}

	dates := make([]time.Time, t.Len())
	valid := make([]bool, t.Len())
	dropped := 0
	for i := range dates {
		v := t.Value(i, dateColumn)
		tm, ok := v.Time()
		if !ok && !v.IsMissing() {
			tm, ok = table.ParseTime(v.String())
		}
		if !ok {
			dropped++
			continue
		}
		// Periods are bucketed in UTC so mixed offsets share calendar anchors.
		dates[i], valid[i] = tm.UTC(), true
	}
	if dropped > 0 {
		rec.Warn(dateColumn, dropped, "removed %d rows with invalid dates", dropped)
	}

	cols := []string{dateColumn}
	if groupColumn != "" {
		cols = append(cols, groupColumn)
	}
	b := table.NewBuilder(append(cols, metrics...)...)

	type bucket struct {
		period time.Time
		group  table.Value
		sums   []float64
	}
	index := map[string]*bucket{}
	var buckets []*bucket
	for i := range dates {
		if !valid[i] {
			continue
		}
		p := freq.Period(dates[i])
		key := p.Format(time.DateOnly)
		g := table.Null()
		if groupColumn != "" {
			g = t.Value(i, groupColumn)
			if g.IsMissing() {
				continue
			}
			key += "\x1f" + g.Key()
		}
		bk, ok := index[key]
		if !ok {
			bk = &bucket{period: p, group: g, sums: make([]float64, len(metrics))}
			index[key] = bk
			buckets = append(buckets, bk)
		}
		for j, m := range metrics {
			if f, ok := t.Value(i, m).Float(); ok {
				bk.sums[j] += f
			}
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if c := buckets[i].period.Compare(buckets[j].period); c != 0 {
			return c < 0
		}
		return table.Compare(buckets[i].group, buckets[j].group) < 0
	})

	emit := func(bk *bucket) {
		row := []table.Value{table.Time(bk.period)}
		if groupColumn != "" {
			row = append(row, bk.group)
		}
		for _, s := range bk.sums {
			row = append(row, table.Number(s))
		}
		b.Add(row...)
	}
	if groupColumn != "" || len(buckets) == 0 {
		for _, bk := range buckets {
			emit(bk)
		}
	} else {
		last := buckets[len(buckets)-1].period
		next := 0
		for p := buckets[0].period; !p.After(last); p = freq.Next(p) {
			if next < len(buckets) && buckets[next].period.Equal(p) {
				emit(buckets[next])
				next++
				continue
			}
			emit(&bucket{period: p, sums: make([]float64, len(metrics))})
		}
	}
	out := b.Table()
	a.log.Info().Str("frequency", freq.String()).Str("group", groupColumn).Int("rows", out.Len()).Msg("time aggregation done")
	return rec.Result(out), nil
}
