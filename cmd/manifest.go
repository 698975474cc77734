package cmd

import (
	"fmt"
	"time"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/manifest"
	"github.com/spf13/cobra"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Inspect run manifests",
}

var manifestShowCmd = &cobra.Command{
	Use:   "show [reports-dir]",
	Short: "Show the manifest of the last run (default reports_dir)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		} else {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			dir = c.ReportsDir
		}
		m, err := manifest.Load(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:      %s\n", m.ID)
		fmt.Fprintf(out, "Input:    %s\n", m.Input)
		fmt.Fprintf(out, "Started:  %s\n", m.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Duration: %s\n", m.FinishedAt.Sub(m.StartedAt).Round(time.Millisecond))
		fmt.Fprintf(out, "\nArtifacts (%d):\n", len(m.Artifacts))
		for _, a := range m.Artifacts {
			if a.Kind == manifest.KindTable {
				fmt.Fprintf(out, "  - [%s] %s (%d rows)\n", a.Kind, a.Path, a.Rows)
			} else {
				fmt.Fprintf(out, "  - [%s] %s\n", a.Kind, a.Path)
			}
		}
		if len(m.Notes) > 0 {
			fmt.Fprintf(out, "\nNotes (%d warnings):\n", m.Warnings())
			for _, n := range m.Notes {
				fmt.Fprintf(out, "  - %s\n", n)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestShowCmd)
}
