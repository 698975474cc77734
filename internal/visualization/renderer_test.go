package visualization_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/visualization"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func requireFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestBarChart(t *testing.T) {
	b := table.NewBuilder("ASIN", "popularity")
	b.Add(table.Text("A2"), table.Number(10))
	b.Add(table.Text("A1"), table.Number(8))
	r := visualization.New(zerolog.Nop())
	p := filepath.Join(t.TempDir(), "plots", "top.png")
	require.NoError(t, r.BarChart(b.Table(), "ASIN", "popularity", "Top products", p))
	requireFile(t, p)

	err := r.BarChart(b.Table(), "SKU", "popularity", "", p)
	var se *table.SchemaError
	require.ErrorAs(t, err, &se)

	err = r.BarChart(table.Empty("ASIN", "popularity"), "ASIN", "popularity", "", p)
	var ve *table.ValueError
	require.ErrorAs(t, err, &ve)
}

func TestLineChartTimeAxisWithHue(t *testing.T) {
	b := table.NewBuilder("Date", "ASIN", "Qty")
	for m := time.January; m <= time.March; m++ {
		d := time.Date(2022, m+1, 0, 0, 0, 0, 0, time.UTC)
		b.Add(table.Time(d), table.Text("A1"), table.Number(float64(m)))
		b.Add(table.Time(d), table.Text("A2"), table.Number(float64(4-m)))
	}
	r := visualization.New(zerolog.Nop())
	dir := t.TempDir()
	p := filepath.Join(dir, "trend.svg")
	require.NoError(t, r.LineChart(b.Table(), "Date", "Qty", "ASIN", "Qty by month", p))
	requireFile(t, p)

	single := filepath.Join(dir, "total.png")
	require.NoError(t, r.LineChart(b.Table(), "Date", "Qty", "", "Qty", single))
	requireFile(t, single)

	err := r.LineChart(b.Table(), "ASIN", "Qty", "", "", single)
	var te *table.TypeError
	require.ErrorAs(t, err, &te)
}

func TestHeatmap(t *testing.T) {
	b := table.NewBuilder("region", "ASIN", "popularity")
	b.Add(table.Text("Americas"), table.Text("A1"), table.Number(2))
	b.Add(table.Text("Americas"), table.Text("A2"), table.Number(5))
	b.Add(table.Text("Europe"), table.Text("A1"), table.Number(4))
	r := visualization.New(zerolog.Nop())
	p := filepath.Join(t.TempDir(), "heatmap.png")
	require.NoError(t, r.Heatmap(b.Table(), "region", "ASIN", "popularity", "Popularity", p))
	requireFile(t, p)

	flat := table.NewBuilder("region", "ASIN", "popularity")
	flat.Add(table.Text("Europe"), table.Text("A1"), table.Number(1))
	require.NoError(t, r.Heatmap(flat.Table(), "region", "ASIN", "popularity", "", p))
}
