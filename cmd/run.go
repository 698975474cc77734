package cmd

import (
	"fmt"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/manifest"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	runInput   string
	runNoPlots bool
	runRead    readFlags
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline: clean, rank, describe, trend, map regions, chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if runInput != "" {
			c.RawDataPath = runInput
		}
		if runNoPlots {
			c.PlotsEnabled = false
		}
		opt, err := runRead.options()
		if err != nil {
			return err
		}
		r := pipeline.New(c, newLogger(c))
		r.ReadOptions = opt
		sum, err := r.Run()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Pipeline completed (run %s)\n", sum.Manifest.ID)
		fmt.Fprintf(out, "  rows: %d raw, %d cleaned\n", sum.RawRows, sum.CleanRows)
		for _, a := range sum.Manifest.Artifacts {
			if a.Kind == manifest.KindTable {
				fmt.Fprintf(out, "  %-6s %s (%d rows)\n", a.Kind, a.Path, a.Rows)
			} else {
				fmt.Fprintf(out, "  %-6s %s\n", a.Kind, a.Path)
			}
		}
		if w := sum.Manifest.Warnings(); w > 0 {
			fmt.Fprintf(out, "⚠ %d warnings, see %s\n", w, sum.ManifestPath)
		} else {
			fmt.Fprintf(out, "  manifest: %s\n", sum.ManifestPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "raw sales export (overrides raw_data_path)")
	runCmd.Flags().BoolVar(&runNoPlots, "no-plots", false, "skip chart rendering")
	runRead.register(runCmd)
}
