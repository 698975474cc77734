package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/analysis"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/utils"
	"github.com/spf13/cobra"
)

var (
	profOutputPath string
	profSampleRows int
	profGroupBy    []string
	profCorr       bool
	profOutliers   bool
	profOutlierThr float64
	profMaxCats    int
	profRead       readFlags
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV/TSV/XLSX table and print a Markdown summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ropt, err := profRead.options()
		if err != nil {
			return err
		}
		t, err := table.ReadFile(path, ropt)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if profSampleRows > 0 {
			opt.SampleRows = profSampleRows
		}
		if profMaxCats > 0 {
			opt.MaxCategories = profMaxCats
		}
		opt.GroupBy = profGroupBy
		opt.Correlations = profCorr
		opt.Outliers = profOutliers
		if profOutlierThr > 0 {
			opt.OutlierThreshold = profOutlierThr
		}
		md := analysis.Profile(filepath.Base(path), t, opt).Markdown()

		if profOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.EnsureDir(filepath.Dir(profOutputPath)); err != nil {
			return err
		}
		if err := os.WriteFile(profOutputPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", profOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().IntVar(&profMaxCats, "max-categories", 50, "distinct values under which a text column is categorical")
	profileCmd.Flags().StringSliceVar(&profGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	profileCmd.Flags().BoolVar(&profCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().BoolVar(&profOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&profOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profRead.register(profileCmd)
}
