// Package preprocess loads a raw sales export and turns it into the cleaned
// table every report is computed from.
package preprocess

import (
	"fmt"
	"strings"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
)

// SalesColumns is the column vocabulary of an Amazon sale report export.
var SalesColumns = []string{
	"Order ID", "Date", "Status", "Fulfilment", "Sales Channel", "ship-service-level",
	"Style", "SKU", "Category", "Size", "ASIN", "Courier Status", "Qty", "currency",
	"Amount", "ship-city", "ship-state", "ship-postal-code", "ship-country",
	"promotion-ids", "B2B", "fulfilled-by",
}

const stage = "preprocess"

// Cleaner applies the cleaning steps. It holds no state besides its logger.
type Cleaner struct {
	log zerolog.Logger
}

// New returns a Cleaner logging to log.
func New(log zerolog.Logger) *Cleaner {
	return &Cleaner{log: log.With().Str("component", stage).Logger()}
}

// Load reads a raw export from path.
func (c *Cleaner) Load(path string, opt table.ReadOptions) (*table.Table, error) {
	t, err := table.ReadFile(path, opt)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("load failed")
		return nil, err
	}
	c.log.Info().Str("path", path).Int("rows", t.Len()).Int("columns", t.Width()).Msg("raw data loaded")
	return t, nil
}

// Save writes t to path, creating parent directories and overwriting any
// existing file.
func (c *Cleaner) Save(t *table.Table, path string) error {
	if err := table.WriteFile(path, t); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	c.log.Info().Str("path", path).Int("rows", t.Len()).Msg("table saved")
	return nil
}

// CheckColumns warns about every expected column the table lacks.
func (c *Cleaner) CheckColumns(t *table.Table, expected []string) diag.Result {
	rec := diag.NewRecorder(c.log, stage)
	for _, name := range t.Absent(expected...) {
		rec.Warn(name, 0, "expected column not found")
	}
	return rec.Result(t)
}

// DropColumns removes the named columns. Names not in the table are ignored.
func (c *Cleaner) DropColumns(t *table.Table, names []string) diag.Result {
	rec := diag.NewRecorder(c.log, stage)
	var present []string
	for _, n := range names {
		if t.Has(n) {
			present = append(present, n)
		}
	}
	if len(present) == 0 {
		return rec.Result(t)
	}
	rec.Info("", len(present), "dropped columns [%s]", strings.Join(present, ", "))
	return rec.Result(t.Drop(present...))
}

// ParseDates converts each named column to timestamps. Values that cannot be
// parsed become missing. format is a Go layout or a strftime pattern; empty
// tries the common layouts.
func (c *Cleaner) ParseDates(t *table.Table, columns []string, format string) diag.Result {
	rec := diag.NewRecorder(c.log, stage)
	out := t
	for _, col := range columns {
		vals, ok := out.Column(col)
		if !ok {
			rec.Warn(col, 0, "date column not found")
			continue
		}
		failed, missing := 0, 0
		for i, v := range vals {
			conv, ok := toTime(v, format)
			if !ok {
				if !v.IsMissing() {
					failed++
				}
				missing++
			}
			vals[i] = conv
		}
		out, _ = out.WithColumn(col, vals)
		if failed > 0 {
			rec.Warn(col, failed, "%d values could not be parsed as dates", failed)
		} else {
			rec.Info(col, missing, "dates parsed, %d missing", missing)
		}
	}
	return rec.Result(out)
}

func toTime(v table.Value, format string) (table.Value, bool) {
	if v.IsMissing() {
		return table.Null(), false
	}
	if _, ok := v.Time(); ok {
		return v, true
	}
	tm, ok := table.ParseTimeLayout(v.String(), format)
	if !ok {
		return table.Null(), false
	}
	return table.Time(tm), true
}

// StandardizeText trims and lowercases the named text columns. Missing
// values stay missing.
func (c *Cleaner) StandardizeText(t *table.Table, columns []string) diag.Result {
	rec := diag.NewRecorder(c.log, stage)
	out := t
	for _, col := range columns {
		if !out.Has(col) || out.Kind(col) != table.KindText {
			rec.Warn(col, 0, "text column not found or not text")
			continue
		}
		vals, _ := out.Column(col)
		for i, v := range vals {
			if s, ok := v.Str(); ok {
				vals[i] = table.Text(strings.ToLower(strings.TrimSpace(s)))
			}
		}
		out, _ = out.WithColumn(col, vals)
		rec.Info(col, 0, "text standardized")
	}
	return rec.Result(out)
}
