// Package geography maps shipping locations to regions and ranks products
// inside each region.
package geography

import (
	"fmt"
	"sort"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/popularity"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
)

const (
	// RegionColumn is the column MapToRegion writes.
	RegionColumn = "region"
	// DefaultRegion is assigned to unmapped locations.
	DefaultRegion = "Unknown"
)

// Regions maps a location value (country, state, city) to a region name.
type Regions map[string]string

// Mapper assigns regions.
type Mapper struct {
	log zerolog.Logger
}

// New returns a Mapper logging to log.
func New(log zerolog.Logger) *Mapper {
	return &Mapper{log: log.With().Str("component", "geography").Logger()}
}

// DefineRegions validates a mapping.
func (m *Mapper) DefineRegions(mapping map[string]string) (Regions, error) {
	if len(mapping) == 0 {
		return nil, &table.ValueError{Op: "define regions", Param: "mapping", Value: len(mapping), Reason: "must not be empty"}
	}
	out := make(Regions, len(mapping))
	for k, v := range mapping {
		out[k] = v
	}
	m.log.Info().Int("entries", len(out)).Msg("regions defined")
	return out, nil
}

// LoadRegions reads a mapping file whose first column holds location values
// and second column region names. The header row is skipped.
func (m *Mapper) LoadRegions(path string) (Regions, error) {
	t, err := table.ReadFile(path, table.ReadOptions{})
	if err != nil {
		return nil, err
	}
	cols := t.Columns()
	if len(cols) < 2 {
		return nil, &table.ParseError{Path: path, Err: fmt.Errorf("region mapping needs two columns, found %d", len(cols))}
	}
	mapping := make(map[string]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		geo, region := t.Value(i, cols[0]), t.Value(i, cols[1])
		if geo.IsMissing() || region.IsMissing() {
			continue
		}
		mapping[geo.String()] = region.String()
	}
	return m.DefineRegions(mapping)
}

// MapToRegion adds or overwrites the region column. Missing or unmapped
// locations get defaultRegion, or DefaultRegion when it is empty.
func (m *Mapper) MapToRegion(t *table.Table, geoColumn string, regions Regions, defaultRegion string) (diag.Result, error) {
	if err := table.RequireColumns("map to region", t, geoColumn); err != nil {
		return diag.Result{}, err
	}
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	rec := diag.NewRecorder(m.log, "geography")
	geo, _ := t.Column(geoColumn)
	vals := make([]table.Value, len(geo))
	unmapped := 0
	for i, g := range geo {
		region, ok := "", false
		if !g.IsMissing() {
			region, ok = regions[g.String()]
		}
		if !ok {
			region = defaultRegion
		}
		if region == defaultRegion {
			unmapped++
		}
		vals[i] = table.Text(region)
	}
	out, err := t.WithColumn(RegionColumn, vals)
	if err != nil {
		return diag.Result{}, err
	}
	rec.Info(geoColumn, unmapped, "mapped %s to regions, %d rows unmapped", geoColumn, unmapped)
	return rec.Result(out), nil
}

// PopularityByRegion sums metricColumn per (region, product), ordered by
// region ascending then popularity descending. Ties keep product order.
func (m *Mapper) PopularityByRegion(t *table.Table, regionColumn, productColumn, metricColumn string) (*table.Table, error) {
	const op = "popularity by region"
	if err := table.RequireColumns(op, t, regionColumn, productColumn, metricColumn); err != nil {
		return nil, err
	}
	if err := table.RequireNumeric(op, t, metricColumn); err != nil {
		return nil, err
	}
	type entry struct {
		region, product table.Value
		sum             float64
	}
	groups := t.GroupBy(regionColumn, productColumn)
	entries := make([]entry, len(groups))
	regions := map[string]bool{}
	for i, g := range groups {
		entries[i] = entry{region: g.Key[0], product: g.Key[1], sum: t.Sum(metricColumn, g.Rows)}
		regions[g.Key[0].Key()] = true
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if c := table.Compare(entries[i].region, entries[j].region); c != 0 {
			return c < 0
		}
		return entries[i].sum > entries[j].sum
	})
	b := table.NewBuilder(regionColumn, productColumn, popularity.PopularityColumn)
	for _, e := range entries {
		b.Add(e.region, e.product, table.Number(e.sum))
	}
	m.log.Info().Int("regions", len(regions)).Int("rows", len(entries)).Msg("regional popularity computed")
	return b.Table(), nil
}
