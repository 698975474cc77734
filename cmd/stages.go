package cmd

import (
	"errors"
	"fmt"
	"io"

	cfgpkg "github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/config"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/manifest"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/pipeline"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/preprocess"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/statistic"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/spf13/cobra"
)

// Per-stage commands read the cleaned table written by `clean` (or `run`)
// unless --input names another file.

var (
	cleanInput      string
	cleanOutput     string
	cleanStrategies map[string]string
	cleanRead       readFlags

	popInput   string
	popOutput  string
	popMetric  string
	popTop     int
	popProduct string

	statsInput     string
	statsOutput    string
	statsTailOut   string
	statsGroup     string
	statsMetrics   []string
	statsTailMet   string
	statsThreshold float64

	geoInput   string
	geoOutput  string
	geoMapping string
	geoColumn  string
	geoDefault string

	trendInput   string
	trendOutput  string
	trendFreq    string
	trendMetrics []string
	trendGroup   string
	trendPlot    bool
)

// stageRunner validates config after apply has copied flag overrides in.
func stageRunner(input string, apply func(c *cfgpkg.Global)) (*pipeline.Runner, *table.Table, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	if input != "" {
		c.CleanedDataPath = input
	}
	apply(c)
	if err := cfgpkg.Validate(c); err != nil {
		return nil, nil, err
	}
	r := pipeline.New(c, newLogger(c))
	t, err := r.LoadCleaned()
	if err != nil {
		return nil, nil, err
	}
	return r, t, nil
}

func printWarnings(w io.Writer, notes []diag.Note) {
	for _, n := range notes {
		if n.Level == diag.Warn {
			fmt.Fprintf(w, "⚠ %s\n", n)
		}
	}
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Load the raw export, clean it and save the cleaned table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if cleanInput != "" {
			c.RawDataPath = cleanInput
		}
		if cleanOutput != "" {
			c.CleanedDataPath = cleanOutput
		}
		if len(cleanStrategies) > 0 {
			c.MissingStrategies = nil
			for _, cs := range preprocess.ParseStrategies(cleanStrategies) {
				c.MissingStrategies = append(c.MissingStrategies, cfgpkg.MissingStrategy{Column: cs.Column, Strategy: cs.Strategy.String()})
			}
		}
		opt, err := cleanRead.options()
		if err != nil {
			return err
		}
		r := pipeline.New(c, newLogger(c))
		r.ReadOptions = opt
		raw, err := r.Load()
		if err != nil {
			return err
		}
		clean, err := r.Clean(raw)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printWarnings(out, r.Manifest().Notes)
		fmt.Fprintf(out, "✓ Cleaned %d of %d rows into %s\n", clean.Len(), raw.Len(), c.CleanedDataPath)
		printTable(out, clean.Head(5), 0)
		return nil
	},
}

var popularityCmd = &cobra.Command{
	Use:   "popularity",
	Short: "Rank products by quantity or revenue and save the top N",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, t, err := stageRunner(popInput, func(c *cfgpkg.Global) {
			if popOutput != "" {
				c.TopNProductsPath = popOutput
			}
			if popMetric != "" {
				c.PopularityMetric = popMetric
			}
			if popTop > 0 {
				c.TopN = popTop
			}
			if popProduct != "" {
				c.ProductColumn = popProduct
			}
		})
		if err != nil {
			return err
		}
		top, err := r.Popularity(t)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Top %d products by %s saved to %s\n", cfg.TopN, cfg.PopularityMetric, cfg.TopNProductsPath)
		printTable(out, top, 0)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Descriptive statistics per product, long-tail segmentation and outlier count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, t, err := stageRunner(statsInput, func(c *cfgpkg.Global) {
			if statsOutput != "" {
				c.SummaryStatsPath = statsOutput
			}
			if statsTailOut != "" {
				c.LongTailPath = statsTailOut
			}
			if statsGroup != "" {
				c.ProductColumn = statsGroup
			}
			if len(statsMetrics) > 0 {
				c.StatsMetrics = statsMetrics
			}
			if statsTailMet != "" {
				c.LongTailMetric = statsTailMet
			}
			if statsThreshold > 0 {
				c.LongTailThreshold = statsThreshold
			}
		})
		if err != nil {
			return err
		}
		st, err := r.Stats(t)
		if err != nil {
			return err
		}
		lt, err := r.LongTail(t)
		if err != nil {
			return err
		}
		n, err := r.Outliers(t)
		if err != nil {
			return err
		}
		head := 0
		for i := 0; i < lt.Len(); i++ {
			if s, _ := lt.Value(i, statistic.SegmentColumn).Str(); s == statistic.SegmentHead {
				head++
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Summary statistics for %d groups saved to %s\n", st.Len(), cfg.SummaryStatsPath)
		printTable(out, st, 5)
		fmt.Fprintf(out, "✓ Long tail saved to %s: %d head, %d tail (threshold %.2f)\n", cfg.LongTailPath, head, lt.Len()-head, cfg.LongTailThreshold)
		printTable(out, lt, 5)
		fmt.Fprintf(out, "  %s outliers (IQR): %d\n", cfg.LongTailMetric, n)
		return nil
	},
}

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Map shipping locations to regions and rank products per region",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, t, err := stageRunner(geoInput, func(c *cfgpkg.Global) {
			if geoOutput != "" {
				c.RegionPopularityPath = geoOutput
			}
			if geoMapping != "" {
				c.RegionMappingFile = geoMapping
			}
			if geoColumn != "" {
				c.GeoColumn = geoColumn
			}
			if geoDefault != "" {
				c.DefaultRegion = geoDefault
			}
		})
		if err != nil {
			return err
		}
		pop, err := r.Geography(t)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if pop == nil {
			printWarnings(out, r.Manifest().Notes)
			return errors.New("geography needs a region mapping file (set region_mapping_file or --mapping)")
		}
		fmt.Fprintf(out, "✓ Popularity by region saved to %s\n", cfg.RegionPopularityPath)
		printTable(out, pop, 10)
		return nil
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Aggregate metrics per calendar period, optionally per group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, t, err := stageRunner(trendInput, func(c *cfgpkg.Global) {
			if trendOutput != "" {
				c.TrendPath = trendOutput
			}
			if trendFreq != "" {
				c.TrendFrequency = trendFreq
			}
			if len(trendMetrics) > 0 {
				c.TrendMetrics = trendMetrics
			}
			if trendGroup != "" {
				c.TrendGroupColumn = trendGroup
			}
		})
		if err != nil {
			return err
		}
		tr, err := r.Trend(t)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printWarnings(out, r.Manifest().Notes)
		fmt.Fprintf(out, "✓ Trend (%s) saved to %s\n", cfg.TrendFrequency, cfg.TrendPath)
		printTable(out, tr, 12)
		if trendPlot {
			if err := r.TrendCharts(tr); err != nil {
				return err
			}
			for _, a := range r.Manifest().Artifacts {
				if a.Kind == manifest.KindChart {
					fmt.Fprintf(out, "✓ Chart saved to %s\n", a.Path)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd, popularityCmd, statsCmd, geoCmd, trendCmd)

	cleanCmd.Flags().StringVarP(&cleanInput, "input", "i", "", "raw sales export (overrides raw_data_path)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "cleaned table path (overrides cleaned_data_path)")
	cleanCmd.Flags().StringToStringVar(&cleanStrategies, "strategy", nil, "per-column missing strategy, e.g. Amount=median,Qty=constant:0")
	cleanRead.register(cleanCmd)

	popularityCmd.Flags().StringVarP(&popInput, "input", "i", "", "cleaned table (overrides cleaned_data_path)")
	popularityCmd.Flags().StringVarP(&popOutput, "output", "o", "", "top-N output path")
	popularityCmd.Flags().StringVar(&popMetric, "metric", "", "quantity | revenue")
	popularityCmd.Flags().IntVarP(&popTop, "top", "n", 0, "number of products to keep")
	popularityCmd.Flags().StringVar(&popProduct, "product", "", "product column (default ASIN)")

	statsCmd.Flags().StringVarP(&statsInput, "input", "i", "", "cleaned table (overrides cleaned_data_path)")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "", "summary statistics output path")
	statsCmd.Flags().StringVar(&statsTailOut, "long-tail-output", "", "long-tail output path")
	statsCmd.Flags().StringVar(&statsGroup, "group", "", "group column (default product_column)")
	statsCmd.Flags().StringSliceVar(&statsMetrics, "metrics", nil, "comma-separated metric columns")
	statsCmd.Flags().StringVar(&statsTailMet, "long-tail-metric", "", "metric summed for the long tail")
	statsCmd.Flags().Float64Var(&statsThreshold, "threshold", 0, "cumulative share bounding the head segment, in (0,1)")

	geoCmd.Flags().StringVarP(&geoInput, "input", "i", "", "cleaned table (overrides cleaned_data_path)")
	geoCmd.Flags().StringVarP(&geoOutput, "output", "o", "", "region popularity output path")
	geoCmd.Flags().StringVar(&geoMapping, "mapping", "", "two-column location,region file")
	geoCmd.Flags().StringVar(&geoColumn, "geo-column", "", "location column (default ship-country)")
	geoCmd.Flags().StringVar(&geoDefault, "default-region", "", "region for unmapped locations")

	trendCmd.Flags().StringVarP(&trendInput, "input", "i", "", "cleaned table (overrides cleaned_data_path)")
	trendCmd.Flags().StringVarP(&trendOutput, "output", "o", "", "trend output path")
	trendCmd.Flags().StringVarP(&trendFreq, "freq", "f", "", "D | W | M | MS | Q | QS | Y | YS")
	trendCmd.Flags().StringSliceVar(&trendMetrics, "metrics", nil, "comma-separated metric columns")
	trendCmd.Flags().StringVar(&trendGroup, "group", "", "optional group column")
	trendCmd.Flags().BoolVar(&trendPlot, "plot", false, "also render the trend chart into plots_dir")
}
