package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set fba configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a scalar or list key. Lists take comma-separated values.
missing_strategies takes column=strategy pairs, e.g. "Amount=median,Courier Status=constant:unknown".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Validate(cfg); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	strs := map[string]*string{
		"raw_data_path":            &c.RawDataPath,
		"cleaned_data_path":        &c.CleanedDataPath,
		"top_n_products_path":      &c.TopNProductsPath,
		"summary_stats_path":       &c.SummaryStatsPath,
		"long_tail_path":           &c.LongTailPath,
		"region_popularity_path":   &c.RegionPopularityPath,
		"trend_path":               &c.TrendPath,
		"region_mapping_file":      &c.RegionMappingFile,
		"plots_dir":                &c.PlotsDir,
		"reports_dir":              &c.ReportsDir,
		"trend_frequency":          &c.TrendFrequency,
		"trend_group_column":       &c.TrendGroupColumn,
		"product_column":           &c.ProductColumn,
		"popularity_metric":        &c.PopularityMetric,
		"long_tail_metric":         &c.LongTailMetric,
		"geo_column":               &c.GeoColumn,
		"default_region":           &c.DefaultRegion,
		"date_format":              &c.DateFormat,
		"default_missing_strategy": &c.DefaultMissingStrategy,
		"log_level":                &c.LogLevel,
		"log_format":               &c.LogFormat,
	}
	lists := map[string]*[]string{
		"stats_metrics": &c.StatsMetrics,
		"trend_metrics": &c.TrendMetrics,
		"date_columns":  &c.DateColumns,
		"drop_columns":  &c.DropColumns,
		"text_columns":  &c.TextColumns,
	}
	if p, ok := strs[key]; ok {
		*p = val
		return nil
	}
	if p, ok := lists[key]; ok {
		*p = splitList(val)
		return nil
	}
	switch key {
	case "top_n", "heatmap_top":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		if key == "top_n" {
			c.TopN = i
		} else {
			c.HeatmapTop = i
		}
	case "long_tail_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for long_tail_threshold: %w", err)
		}
		c.LongTailThreshold = f
	case "plots_enabled":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for plots_enabled: %w", err)
		}
		c.PlotsEnabled = b
	case "missing_strategies":
		var out []cfgpkg.MissingStrategy
		for _, pair := range splitList(val) {
			col, strategy, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid missing strategy %q (use column=strategy)", pair)
			}
			out = append(out, cfgpkg.MissingStrategy{Column: strings.TrimSpace(col), Strategy: strings.TrimSpace(strategy)})
		}
		c.MissingStrategies = out
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
