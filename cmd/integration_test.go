package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

const cliSales = `Order ID,Date,Status,Fulfilment,Sales Channel,ASIN,Courier Status,Qty,Amount,ship-country,Category,Unnamed: 22
O1,04-30-22,Shipped,Amazon,Amazon.in,A1,Shipped,2,600,IN,kurta,
O2,04-30-22,Shipped,Amazon,Amazon.in,A2,Shipped,5,1000,US,set,
O3,05-01-22,Cancelled,Merchant,Amazon.in,A1,Unshipped,1,300,IN,kurta,
O4,05-02-22,Shipped,Amazon,Amazon.in,A3,Shipped,1,200,FR,top,
O5,05-03-22,Shipped,Amazon,Amazon.in,A2,Shipped,5,1000,US,set,
`

// resetFlags clears values bound by earlier invocations in the same process.
func resetFlags() {
	cfg = nil
	cfgFile, debug, logFormat = "", false, ""
	runInput, runNoPlots, runRead = "", false, readFlags{}
	cleanInput, cleanOutput, cleanRead = "", "", readFlags{}
	cleanStrategies = map[string]string{}
	popInput, popOutput, popMetric, popTop, popProduct = "", "", "", 0, ""
	statsInput, statsOutput, statsTailOut, statsGroup, statsTailMet = "", "", "", "", ""
	statsMetrics, statsThreshold = nil, 0
	geoInput, geoOutput, geoMapping, geoColumn, geoDefault = "", "", "", "", ""
	trendInput, trendOutput, trendFreq, trendGroup = "", "", "", ""
	trendMetrics, trendPlot = nil, false
	profOutputPath = ""
	profGroupBy = nil
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
}

func execute(args ...string) (string, error) {
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCLI is a helper to execute the root command with args.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// setupProject writes a raw export, a region mapping and a config file
// pointing every artifact into a temp dir. It returns the config path.
func setupProject(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	raw := filepath.Join(dir, "data", "raw", "sales.csv")
	if err := os.MkdirAll(filepath.Dir(raw), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(raw, []byte(cliSales), 0o644); err != nil {
		t.Fatal(err)
	}
	mapping := filepath.Join(dir, "region_mapping.csv")
	if err := os.WriteFile(mapping, []byte("country,region\nIN,Asia\nUS,Americas\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := func(parts ...string) string { return filepath.Join(append([]string{dir}, parts...)...) }
	body := strings.Join([]string{
		"raw_data_path: " + raw,
		"cleaned_data_path: " + p("data", "processed", "cleaned.csv"),
		"top_n_products_path: " + p("data", "processed", "top.csv"),
		"summary_stats_path: " + p("data", "processed", "stats.csv"),
		"long_tail_path: " + p("data", "processed", "long_tail.csv"),
		"region_popularity_path: " + p("data", "processed", "regions.csv"),
		"trend_path: " + p("data", "processed", "trend.csv"),
		"region_mapping_file: " + mapping,
		"plots_dir: " + p("reports", "plots"),
		"reports_dir: " + p("reports"),
		"top_n: 2",
		"log_level: error",
		"",
	}, "\n")
	cfgPath := filepath.Join(dir, "fba.yaml")
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, dir
}

func readOut(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestCLI_RunAndManifestShow(t *testing.T) {
	cfgPath, dir := setupProject(t)

	out := runCLI(t, "run", "--config", cfgPath)
	if !strings.Contains(out, "✓ Pipeline completed") {
		t.Fatalf("unexpected run output:\n%s", out)
	}
	if !strings.Contains(out, "rows: 5 raw, 5 cleaned") {
		t.Fatalf("missing row counts:\n%s", out)
	}
	if got := readOut(t, filepath.Join(dir, "data", "processed", "top.csv")); got != "ASIN,popularity\nA2,10\nA1,3\n" {
		t.Fatalf("unexpected top-N file: %q", got)
	}
	for _, f := range []string{"top_n_products.png", "trend_qty.png", "heatmap_top_products_by_region.png"} {
		if _, err := os.Stat(filepath.Join(dir, "reports", "plots", f)); err != nil {
			t.Fatalf("expected chart %s: %v", f, err)
		}
	}

	show := runCLI(t, "manifest", "show", filepath.Join(dir, "reports"))
	for _, want := range []string{"Run:", "Artifacts (10):", "[table]", "[chart]", "[report]", "profile.md"} {
		if !strings.Contains(show, want) {
			t.Fatalf("manifest show missing %q:\n%s", want, show)
		}
	}
}

func TestCLI_StageCommands(t *testing.T) {
	cfgPath, dir := setupProject(t)
	processed := filepath.Join(dir, "data", "processed")

	out := runCLI(t, "clean", "--config", cfgPath, "--strategy", "Amount=median")
	if !strings.Contains(out, "✓ Cleaned 5 of 5 rows") {
		t.Fatalf("unexpected clean output:\n%s", out)
	}
	if !strings.Contains(readOut(t, filepath.Join(processed, "cleaned.csv")), "cancelled") {
		t.Fatalf("status was not standardized")
	}

	runCLI(t, "popularity", "--config", cfgPath, "--metric", "revenue", "-n", "1")
	if got := readOut(t, filepath.Join(processed, "top.csv")); got != "ASIN,popularity\nA2,2000\n" {
		t.Fatalf("unexpected revenue ranking: %q", got)
	}

	out = runCLI(t, "stats", "--config", cfgPath, "--threshold", "0.75")
	if !strings.Contains(out, "1 head, 2 tail") {
		t.Fatalf("unexpected long-tail split:\n%s", out)
	}
	if !strings.HasPrefix(readOut(t, filepath.Join(processed, "stats.csv")), "ASIN,Qty_count,Qty_mean,Qty_median,Qty_std,Qty_min,Qty_p25,Qty_p75,Qty_max,Amount_count") {
		t.Fatalf("unexpected summary statistics header")
	}

	runCLI(t, "trend", "--config", cfgPath, "--freq", "MS", "--group", "Category")
	want := "Date,Category,Qty\n2022-04-01,kurta,2\n2022-04-01,set,5\n2022-05-01,kurta,1\n2022-05-01,set,5\n2022-05-01,top,1\n"
	if got := readOut(t, filepath.Join(processed, "trend.csv")); got != want {
		t.Fatalf("unexpected trend:\n%s", got)
	}

	out = runCLI(t, "trend", "--config", cfgPath, "--freq", "m")
	if !strings.Contains(out, "✓ Trend (M)") {
		t.Fatalf("lower-case frequency not accepted:\n%s", out)
	}

	runCLI(t, "geo", "--config", cfgPath, "--default-region", "Other")
	if got := readOut(t, filepath.Join(processed, "regions.csv")); got != "region,ASIN,popularity\nAmericas,A2,10\nAsia,A1,3\nOther,A3,1\n" {
		t.Fatalf("unexpected region popularity: %q", got)
	}

	if _, err := execute("geo", "--config", cfgPath, "--mapping", filepath.Join(dir, "nope.csv")); err == nil {
		t.Fatalf("expected geo to fail without a mapping file")
	}
	if _, err := execute("popularity", "--config", cfgPath, "--metric", "margin"); err == nil {
		t.Fatalf("expected invalid metric to fail validation")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	cfgPath, _ := setupProject(t)
	runCLI(t, "config", "set", "top_n", "7", "--config", cfgPath)
	runCLI(t, "config", "set", "missing_strategies", "Amount=median,Courier Status=constant:unknown", "--config", cfgPath)
	out := runCLI(t, "config", "show", "--config", cfgPath)
	for _, want := range []string{"top_n: 7", "column: Courier Status", "constant:unknown"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
	if _, err := execute("config", "set", "long_tail_threshold", "1.5", "--config", cfgPath); err == nil {
		t.Fatalf("expected threshold outside (0,1) to be rejected")
	}
	if _, err := execute("config", "set", "retrieval_top_k", "3", "--config", cfgPath); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestCLI_Profile(t *testing.T) {
	_, dir := setupProject(t)
	raw := filepath.Join(dir, "data", "raw", "sales.csv")
	out := runCLI(t, "profile", raw, "--group-by", "Category")
	for _, want := range []string{"# Dataset profile", "File: sales.csv", "| Qty | numeric |", "## Group-by summary"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile missing %q:\n%s", want, out)
		}
	}
	dest := filepath.Join(dir, "reports", "sales.md")
	runCLI(t, "profile", raw, "-o", dest)
	if !strings.Contains(readOut(t, dest), "## Schema") {
		t.Fatalf("profile file incomplete")
	}
}
