package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/config"
	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/diag"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "fba",
	Short: "fba: clean an Amazon sales export and build popularity, trend and regional reports",
	Long: `fba loads an Amazon FBA sales export (CSV, TSV or XLSX), cleans it and derives
product popularity, descriptive statistics, long-tail segmentation, sales trends
and popularity per region, writing every result as a flat file plus optional charts.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.fba/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log output: console | json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config report it themselves
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// requireConfig returns the loaded configuration, loading it on first use,
// and validates it.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfgpkg.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the stderr logger from config and the global flags.
func newLogger(c *cfgpkg.Global) zerolog.Logger {
	level, format := "info", "console"
	if c != nil {
		level, format = c.LogLevel, c.LogFormat
	}
	if debug {
		level = "debug"
	}
	if logFormat != "" {
		format = logFormat
	}
	return diag.NewLogger(os.Stderr, level, format)
}
