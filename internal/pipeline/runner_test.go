package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/config"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/manifest"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/pipeline"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const rawSales = `Order ID,Date,Status,Fulfilment,ASIN,Courier Status,Qty,Amount,ship-country,Category,Unnamed: 22
O1,04-30-22, Shipped ,Amazon,A1,Shipped,2,600,IN,kurta,
O2,04-30-22,Shipped,Amazon,A2,Shipped,5,1000,US,set,
O3,05-01-22,Cancelled,Merchant,A1,Unshipped,1,300,IN,kurta,
O4,05-02-22,Shipped,Amazon,A3,Shipped,1,200,FR,top,
O5,05-03-22,Shipped,Amazon,A2,Shipped,5,1000,US,set,
O6,05-04-22,Shipped,Amazon,A3,Shipped,,,FR,top,
`

func testConfig(t *testing.T, withMapping bool) *config.Global {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)

	dir := t.TempDir()
	raw := filepath.Join(dir, "raw", "sales.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(raw), 0o755))
	require.NoError(t, os.WriteFile(raw, []byte(rawSales), 0o644))

	processed := filepath.Join(dir, "processed")
	cfg.RawDataPath = raw
	cfg.CleanedDataPath = filepath.Join(processed, "cleaned.csv")
	cfg.TopNProductsPath = filepath.Join(processed, "top_n_products.csv")
	cfg.SummaryStatsPath = filepath.Join(processed, "summary_stats.csv")
	cfg.LongTailPath = filepath.Join(processed, "long_tail_analysis.csv")
	cfg.RegionPopularityPath = filepath.Join(processed, "region_popularity.csv")
	cfg.TrendPath = filepath.Join(processed, "trend.csv")
	cfg.ReportsDir = filepath.Join(dir, "reports")
	cfg.PlotsDir = filepath.Join(dir, "reports", "plots")
	cfg.RegionMappingFile = filepath.Join(dir, "region_mapping.csv")
	cfg.TopN = 2
	if withMapping {
		require.NoError(t, os.WriteFile(cfg.RegionMappingFile, []byte("country,region\nIN,Asia\nUS,Americas\n"), 0o644))
	}
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRunWritesEveryArtifact(t *testing.T) {
	cfg := testConfig(t, true)
	sum, err := pipeline.New(cfg, zerolog.Nop()).Run()
	require.NoError(t, err)
	require.Equal(t, 6, sum.RawRows)
	require.Equal(t, 5, sum.CleanRows)

	require.Equal(t, "ASIN,popularity\nA2,10\nA1,3\n", readFile(t, cfg.TopNProductsPath))
	require.Equal(t, "Date,Qty\n2022-04-30,7\n2022-05-31,7\n", readFile(t, cfg.TrendPath))
	require.Equal(t, "region,ASIN,popularity\nAmericas,A2,10\nAsia,A1,3\nUnknown,A3,1\n", readFile(t, cfg.RegionPopularityPath))
	require.Contains(t, readFile(t, cfg.LongTailPath), "ASIN,metric_sum,cumulative_share,segment\nA2,10,")
	require.Contains(t, readFile(t, filepath.Join(cfg.ReportsDir, pipeline.ProfileFileName)), "# Dataset profile")

	cleaned, err := table.ReadFile(cfg.CleanedDataPath, table.ReadOptions{})
	require.NoError(t, err)
	require.False(t, cleaned.Has("Unnamed: 22"))
	status, _ := cleaned.Column("Status")
	require.Equal(t, "shipped", status[0].String())

	m, err := manifest.Load(cfg.ReportsDir)
	require.NoError(t, err)
	require.Equal(t, sum.Manifest.ID, m.ID)
	kinds := map[string]int{}
	for _, a := range m.Artifacts {
		kinds[a.Kind]++
		_, err := os.Stat(a.Path)
		require.NoError(t, err, a.Path)
	}
	require.Equal(t, map[string]int{manifest.KindTable: 6, manifest.KindChart: 3, manifest.KindReport: 1}, kinds)
}

func TestRunSkipsGeographyWithoutMapping(t *testing.T) {
	cfg := testConfig(t, false)
	cfg.PlotsEnabled = false
	sum, err := pipeline.New(cfg, zerolog.Nop()).Run()
	require.NoError(t, err)

	_, err = os.Stat(cfg.RegionPopularityPath)
	require.True(t, errors.Is(err, os.ErrNotExist))

	var skipped bool
	for _, n := range sum.Manifest.Notes {
		if n.Stage == pipeline.StageGeography && n.Level == diag.Warn {
			skipped = true
		}
	}
	require.True(t, skipped)
	for _, a := range sum.Manifest.Artifacts {
		require.NotEqual(t, manifest.KindChart, a.Kind)
	}
}

func TestRunStopsAtFailingStage(t *testing.T) {
	cfg := testConfig(t, true)
	cfg.RawDataPath = filepath.Join(t.TempDir(), "missing.csv")
	_, err := pipeline.New(cfg, zerolog.Nop()).Run()
	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, pipeline.StageLoad, se.Stage)
	var nf *table.NotFoundError
	require.ErrorAs(t, err, &nf)

	cfg = testConfig(t, true)
	cfg.StatsMetrics = []string{"Qty", "Discount"}
	_, err = pipeline.New(cfg, zerolog.Nop()).Run()
	require.ErrorAs(t, err, &se)
	require.Equal(t, pipeline.StageStats, se.Stage)
	var schema *table.SchemaError
	require.ErrorAs(t, err, &schema)
	_, err = os.Stat(filepath.Join(cfg.ReportsDir, manifest.FileName))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStagesOnCleanedTable(t *testing.T) {
	cfg := testConfig(t, true)
	r := pipeline.New(cfg, zerolog.Nop())
	raw, err := r.Load()
	require.NoError(t, err)
	_, err = r.Clean(raw)
	require.NoError(t, err)

	clean, err := pipeline.New(cfg, zerolog.Nop()).LoadCleaned()
	require.NoError(t, err)
	out, err := r.Trend(clean)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	n, err := r.Outliers(clean)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
