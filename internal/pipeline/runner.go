// Package pipeline sequences the cleaning and reporting stages over one sales
// export and writes every artifact the configuration names.
package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/analysis"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/config"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/geography"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/manifest"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/popularity"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/preprocess"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/statistic"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/trend"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/utils"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/visualization"
	"github.com/rs/zerolog"
)

// Stage names used in errors, logs and notes.
const (
	StageLoad       = "load"
	StageClean      = "clean"
	StagePopularity = "popularity"
	StageStats      = "stats"
	StageLongTail   = "long-tail"
	StageOutliers   = "outliers"
	StageTrend      = "trend"
	StageGeography  = "geography"
	StageCharts     = "charts"
	StageProfile    = "profile"
	StageManifest   = "manifest"
)

// ProfileFileName is the dataset profile written into the reports directory.
const ProfileFileName = "profile.md"

// StageError reports which stage stopped a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Summary describes a completed run.
type Summary struct {
	Manifest     *manifest.Manifest
	ManifestPath string
	RawRows      int
	CleanRows    int
}

// Runner owns one instance of every component and the run manifest.
type Runner struct {
	cfg *config.Global
	log zerolog.Logger

	// ReadOptions applies to the raw export only; cleaned tables are always
	// written as plain CSV.
	ReadOptions table.ReadOptions

	cleaner    *preprocess.Cleaner
	ranker     *popularity.Ranker
	analyzer   *statistic.Analyzer
	mapper     *geography.Mapper
	aggregator *trend.Aggregator
	renderer   *visualization.Renderer

	manifest *manifest.Manifest
}

// New wires the components for cfg and tags every log line with the run id.
func New(cfg *config.Global, log zerolog.Logger) *Runner {
	m := manifest.New(cfg.RawDataPath)
	log = log.With().Str("run_id", m.ID).Logger()
	return &Runner{
		cfg:        cfg,
		log:        log.With().Str("component", "pipeline").Logger(),
		cleaner:    preprocess.New(log),
		ranker:     popularity.New(log),
		analyzer:   statistic.New(log),
		mapper:     geography.New(log),
		aggregator: trend.New(log),
		renderer:   visualization.New(log),
		manifest:   m,
	}
}

// Manifest returns the manifest the runner records into.
func (r *Runner) Manifest() *manifest.Manifest { return r.manifest }

// Run executes every stage in order. The first failing stage ends the run.
func (r *Runner) Run() (*Summary, error) {
	r.log.Info().Str("input", r.cfg.RawDataPath).Msg("pipeline started")
	raw, err := r.Load()
	if err != nil {
		return nil, err
	}
	clean, err := r.Clean(raw)
	if err != nil {
		return nil, err
	}
	top, err := r.Popularity(clean)
	if err != nil {
		return nil, err
	}
	if _, err := r.Stats(clean); err != nil {
		return nil, err
	}
	if _, err := r.LongTail(clean); err != nil {
		return nil, err
	}
	if _, err := r.Outliers(clean); err != nil {
		return nil, err
	}
	trendTable, err := r.Trend(clean)
	if err != nil {
		return nil, err
	}
	regional, err := r.Geography(clean)
	if err != nil {
		return nil, err
	}
	if r.cfg.PlotsEnabled {
		if err := r.Charts(top, trendTable, regional); err != nil {
			return nil, err
		}
	}
	if err := r.Profile(clean); err != nil {
		return nil, err
	}
	path, err := r.manifest.Save(r.cfg.ReportsDir)
	if err != nil {
		return nil, stageErr(StageManifest, err)
	}
	r.log.Info().
		Str("manifest", path).
		Int("artifacts", len(r.manifest.Artifacts)).
		Int("warnings", r.manifest.Warnings()).
		Msg("pipeline completed")
	return &Summary{Manifest: r.manifest, ManifestPath: path, RawRows: raw.Len(), CleanRows: clean.Len()}, nil
}

// Load reads the raw export.
func (r *Runner) Load() (*table.Table, error) {
	t, err := r.cleaner.Load(r.cfg.RawDataPath, r.ReadOptions)
	return t, stageErr(StageLoad, err)
}

// LoadCleaned reads a previously saved cleaned table, as the per-stage
// commands do.
func (r *Runner) LoadCleaned() (*table.Table, error) {
	t, err := r.cleaner.Load(r.cfg.CleanedDataPath, table.ReadOptions{})
	return t, stageErr(StageLoad, err)
}

// Clean applies the configured cleaning steps to raw and saves the result.
func (r *Runner) Clean(raw *table.Table) (*table.Table, error) {
	t := raw
	for _, step := range []func(*table.Table) diag.Result{
		func(t *table.Table) diag.Result { return r.cleaner.CheckColumns(t, preprocess.SalesColumns) },
		func(t *table.Table) diag.Result { return r.cleaner.DropColumns(t, r.cfg.DropColumns) },
		func(t *table.Table) diag.Result { return r.cleaner.ParseDates(t, r.cfg.DateColumns, r.cfg.DateFormat) },
		func(t *table.Table) diag.Result {
			return r.cleaner.HandleMissing(t, r.strategies(), preprocess.ParseStrategy(r.cfg.DefaultMissingStrategy))
		},
		func(t *table.Table) diag.Result { return r.cleaner.StandardizeText(t, r.cfg.TextColumns) },
	} {
		res := step(t)
		r.manifest.AddNotes(res.Notes...)
		t = res.Table
	}
	if err := r.cleaner.Save(t, r.cfg.CleanedDataPath); err != nil {
		return nil, stageErr(StageClean, err)
	}
	r.manifest.Add(manifest.KindTable, r.cfg.CleanedDataPath, t.Len())
	return t, nil
}

func (r *Runner) strategies() []preprocess.ColumnStrategy {
	out := make([]preprocess.ColumnStrategy, 0, len(r.cfg.MissingStrategies))
	for _, s := range r.cfg.MissingStrategies {
		out = append(out, preprocess.ColumnStrategy{Column: s.Column, Strategy: preprocess.ParseStrategy(s.Strategy)})
	}
	return out
}

func (r *Runner) save(stage string, t *table.Table, path string) error {
	if err := r.cleaner.Save(t, path); err != nil {
		return stageErr(stage, err)
	}
	r.manifest.Add(manifest.KindTable, path, t.Len())
	return nil
}

// Popularity ranks products and saves the top N.
func (r *Runner) Popularity(t *table.Table) (*table.Table, error) {
	pop, err := r.ranker.Compute(t, r.cfg.ProductColumn, popularity.Metric(r.cfg.PopularityMetric))
	if err != nil {
		return nil, stageErr(StagePopularity, err)
	}
	top, err := r.ranker.TopN(pop, r.cfg.TopN)
	if err != nil {
		return nil, stageErr(StagePopularity, err)
	}
	return top, r.save(StagePopularity, top, r.cfg.TopNProductsPath)
}

// Stats saves per-product descriptive statistics.
func (r *Runner) Stats(t *table.Table) (*table.Table, error) {
	st, err := r.analyzer.SummaryStats(t, r.cfg.ProductColumn, r.cfg.StatsMetrics)
	if err != nil {
		return nil, stageErr(StageStats, err)
	}
	return st, r.save(StageStats, st, r.cfg.SummaryStatsPath)
}

// LongTail saves the head/tail segmentation of the long-tail metric.
func (r *Runner) LongTail(t *table.Table) (*table.Table, error) {
	lt, err := r.analyzer.LongTail(t, r.cfg.ProductColumn, r.cfg.LongTailMetric, r.cfg.LongTailThreshold)
	if err != nil {
		return nil, stageErr(StageLongTail, err)
	}
	return lt, r.save(StageLongTail, lt, r.cfg.LongTailPath)
}

// Outliers counts IQR outliers of the long-tail metric and records the
// count as a note.
func (r *Runner) Outliers(t *table.Table) (int, error) {
	flags, err := r.analyzer.DetectOutliers(t, r.cfg.LongTailMetric, statistic.DefaultOutlierOptions())
	if err != nil {
		return 0, stageErr(StageOutliers, err)
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	rec := diag.NewRecorder(r.log, StageOutliers)
	rec.Info(r.cfg.LongTailMetric, n, "%d of %d rows outside the IQR fences", n, len(flags))
	r.manifest.AddNotes(rec.Notes()...)
	return n, nil
}

// Trend saves the metrics aggregated per configured period.
func (r *Runner) Trend(t *table.Table) (*table.Table, error) {
	freq, err := trend.ParseFrequency(r.cfg.TrendFrequency)
	if err != nil {
		return nil, stageErr(StageTrend, err)
	}
	date := trendDateColumn(r.cfg.DateColumns)
	var metrics []string
	if len(r.cfg.TrendMetrics) > 0 {
		metrics = r.cfg.TrendMetrics
	}
	res, err := r.aggregator.AggregateOverTime(t, date, freq, metrics, r.cfg.TrendGroupColumn)
	if err != nil {
		return nil, stageErr(StageTrend, err)
	}
	r.manifest.AddNotes(res.Notes...)
	return res.Table, r.save(StageTrend, res.Table, r.cfg.TrendPath)
}

func trendDateColumn(cols []string) string {
	if len(cols) == 0 {
		return "Date"
	}
	return cols[0]
}

// Geography maps the geo column to regions and saves product popularity per
// region. Without a mapping file the stage is skipped with a warning and a
// nil table is returned.
func (r *Runner) Geography(t *table.Table) (*table.Table, error) {
	rec := diag.NewRecorder(r.log, StageGeography)
	path := r.cfg.RegionMappingFile
	if path == "" {
		rec.Warn("", 0, "no region mapping file configured, geography skipped")
		r.manifest.AddNotes(rec.Notes()...)
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		rec.Warn("", 0, "region mapping file %s not found, geography skipped", path)
		r.manifest.AddNotes(rec.Notes()...)
		return nil, nil
	}
	regions, err := r.mapper.LoadRegions(path)
	if err != nil {
		return nil, stageErr(StageGeography, err)
	}
	res, err := r.mapper.MapToRegion(t, r.cfg.GeoColumn, regions, r.cfg.DefaultRegion)
	if err != nil {
		return nil, stageErr(StageGeography, err)
	}
	r.manifest.AddNotes(res.Notes...)
	metric, err := r.ranker.Column(popularity.Metric(r.cfg.PopularityMetric))
	if err != nil {
		return nil, stageErr(StageGeography, err)
	}
	pop, err := r.mapper.PopularityByRegion(res.Table, geography.RegionColumn, r.cfg.ProductColumn, metric)
	if err != nil {
		return nil, stageErr(StageGeography, err)
	}
	return pop, r.save(StageGeography, pop, r.cfg.RegionPopularityPath)
}

// Charts renders the top-N bar chart, the trend lines and, when regional
// popularity is available, a heatmap of the leading products per region.
func (r *Runner) Charts(top, trendTable, regional *table.Table) error {
	if err := r.TopChart(top); err != nil {
		return err
	}
	if err := r.TrendCharts(trendTable); err != nil {
		return err
	}
	return r.RegionHeatmap(top, regional)
}

// TopChart draws the top-N products as bars.
func (r *Runner) TopChart(top *table.Table) error {
	if top.Len() == 0 {
		r.skipChart("", "no products to chart")
		return nil
	}
	path := filepath.Join(r.cfg.PlotsDir, "top_n_products.png")
	title := fmt.Sprintf("Top %d products by %s", r.cfg.TopN, r.cfg.PopularityMetric)
	if err := r.renderer.BarChart(top, r.cfg.ProductColumn, popularity.PopularityColumn, title, path); err != nil {
		return stageErr(StageCharts, err)
	}
	r.manifest.Add(manifest.KindChart, path, 0)
	return nil
}

// TrendCharts draws one line chart per metric of the trend table, one line
// per group when the trend is grouped.
func (r *Runner) TrendCharts(trendTable *table.Table) error {
	date := trendDateColumn(r.cfg.DateColumns)
	group := r.cfg.TrendGroupColumn
	if trendTable.Len() == 0 {
		r.skipChart(date, "no dated rows, trend chart skipped")
		return nil
	}
	for _, metric := range trendTable.Columns() {
		if metric == date || metric == group {
			continue
		}
		path := filepath.Join(r.cfg.PlotsDir, fmt.Sprintf("trend_%s.png", utils.Slug(metric)))
		title := fmt.Sprintf("%s per period (%s)", metric, r.cfg.TrendFrequency)
		if err := r.renderer.LineChart(trendTable, date, metric, group, title, path); err != nil {
			return stageErr(StageCharts, err)
		}
		r.manifest.Add(manifest.KindChart, path, 0)
	}
	return nil
}

// RegionHeatmap pivots the regional popularity of the first heatmap_top
// products of top. A nil or empty regional table draws nothing.
func (r *Runner) RegionHeatmap(top, regional *table.Table) error {
	if regional == nil || regional.Len() == 0 {
		return nil
	}
	product := r.cfg.ProductColumn
	leaders := map[string]bool{}
	for i := 0; i < top.Len() && i < r.cfg.HeatmapTop; i++ {
		leaders[top.Value(i, product).Key()] = true
	}
	subset := regional.Filter(func(i int) bool { return leaders[regional.Value(i, product).Key()] })
	if subset.Len() == 0 {
		r.skipChart(product, "leading products have no regional sales, heatmap skipped")
		return nil
	}
	path := filepath.Join(r.cfg.PlotsDir, "heatmap_top_products_by_region.png")
	title := fmt.Sprintf("Top %d products by region", r.cfg.HeatmapTop)
	if err := r.renderer.Heatmap(subset, geography.RegionColumn, product, popularity.PopularityColumn, title, path); err != nil {
		return stageErr(StageCharts, err)
	}
	r.manifest.Add(manifest.KindChart, path, 0)
	return nil
}

func (r *Runner) skipChart(column, msg string) {
	rec := diag.NewRecorder(r.log, StageCharts)
	rec.Warn(column, 0, "%s", msg)
	r.manifest.AddNotes(rec.Notes()...)
}

// Profile writes the Markdown dataset profile of the cleaned table.
func (r *Runner) Profile(t *table.Table) error {
	opt := analysis.DefaultOptions()
	if t.Has("Category") {
		opt.GroupBy = []string{"Category"}
	}
	md := analysis.Profile(r.cfg.CleanedDataPath, t, opt).Markdown()
	if err := utils.EnsureDir(r.cfg.ReportsDir); err != nil {
		return stageErr(StageProfile, err)
	}
	path := filepath.Join(r.cfg.ReportsDir, ProfileFileName)
	if err := utils.SafeWriteFile(path, []byte(md)); err != nil {
		return stageErr(StageProfile, err)
	}
	r.manifest.Add(manifest.KindReport, path, 0)
	r.log.Info().Str("path", path).Msg("profile written")
	return nil
}
