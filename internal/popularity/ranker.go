// Package popularity ranks products by units sold or revenue.
package popularity

import (
	"sort"
	"strings"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
)

// Metric selects what popularity measures.
type Metric string

const (
	Quantity Metric = "quantity"
	Revenue  Metric = "revenue"
)

// Default source columns and the output column.
const (
	QuantityColumn   = "Qty"
	AmountColumn     = "Amount"
	PopularityColumn = "popularity"
)

// Ranker aggregates a metric per product.
type Ranker struct {
	log zerolog.Logger
	// QuantityColumn and AmountColumn name the columns summed for the
	// quantity and revenue metrics.
	QuantityColumn string
	AmountColumn   string
}

// New returns a Ranker reading Qty and Amount.
func New(log zerolog.Logger) *Ranker {
	return &Ranker{
		log:            log.With().Str("component", "popularity").Logger(),
		QuantityColumn: QuantityColumn,
		AmountColumn:   AmountColumn,
	}
}

// Column returns the source column implied by metric.
func (r *Ranker) Column(metric Metric) (string, error) {
	switch Metric(strings.ToLower(string(metric))) {
	case Quantity:
		return r.QuantityColumn, nil
	case Revenue:
		return r.AmountColumn, nil
	}
	return "", &table.ValueError{Op: "popularity", Param: "metric", Value: string(metric), Reason: "must be quantity or revenue"}
}

// Compute sums the metric per product and sorts descending. Products with
// equal popularity keep ascending product order.
func (r *Ranker) Compute(t *table.Table, productColumn string, metric Metric) (*table.Table, error) {
	const op = "popularity"
	if err := table.RequireColumns(op, t, productColumn); err != nil {
		return nil, err
	}
	col, err := r.Column(metric)
	if err != nil {
		return nil, err
	}
	if err := table.RequireColumns(op, t, col); err != nil {
		return nil, err
	}
	if err := table.RequireNumeric(op, t, col); err != nil {
		return nil, err
	}
	type entry struct {
		key table.Value
		sum float64
	}
	groups := t.GroupBy(productColumn)
	entries := make([]entry, len(groups))
	for i, g := range groups {
		entries[i] = entry{key: g.Key[0], sum: t.Sum(col, g.Rows)}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].sum > entries[j].sum })

	b := table.NewBuilder(productColumn, PopularityColumn)
	for _, e := range entries {
		b.Add(e.key, table.Number(e.sum))
	}
	r.log.Info().Str("metric", string(metric)).Int("products", len(entries)).Msg("popularity computed")
	return b.Table(), nil
}

// TopN returns the first n rows of a popularity table without re-sorting.
func (r *Ranker) TopN(t *table.Table, n int) (*table.Table, error) {
	const op = "top n"
	if n <= 0 {
		return nil, &table.ValueError{Op: op, Param: "n", Value: n, Reason: "must be positive"}
	}
	if !t.Has(PopularityColumn) {
		return nil, &table.ValueError{Op: op, Param: "table", Value: strings.Join(t.Columns(), ","), Reason: "no popularity column"}
	}
	out := t.Head(n)
	r.log.Info().Int("n", n).Int("rows", out.Len()).Msg("top products selected")
	return out, nil
}
