package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MissingStrategy assigns a missing-value strategy to one column. Kept as a
// list rather than a map so column names keep their case and order.
type MissingStrategy struct {
	Column   string `mapstructure:"column" yaml:"column" validate:"required"`
	Strategy string `mapstructure:"strategy" yaml:"strategy" validate:"required,strategy"`
}

// Global configuration structure.
type Global struct {
	// Inputs and artifact paths
	RawDataPath          string `mapstructure:"raw_data_path" yaml:"raw_data_path" validate:"required"`
	CleanedDataPath      string `mapstructure:"cleaned_data_path" yaml:"cleaned_data_path" validate:"required"`
	TopNProductsPath     string `mapstructure:"top_n_products_path" yaml:"top_n_products_path" validate:"required"`
	SummaryStatsPath     string `mapstructure:"summary_stats_path" yaml:"summary_stats_path" validate:"required"`
	LongTailPath         string `mapstructure:"long_tail_path" yaml:"long_tail_path" validate:"required"`
	RegionPopularityPath string `mapstructure:"region_popularity_path" yaml:"region_popularity_path" validate:"required"`
	TrendPath            string `mapstructure:"trend_path" yaml:"trend_path" validate:"required"`
	RegionMappingFile    string `mapstructure:"region_mapping_file" yaml:"region_mapping_file"`
	PlotsDir             string `mapstructure:"plots_dir" yaml:"plots_dir" validate:"required"`
	ReportsDir           string `mapstructure:"reports_dir" yaml:"reports_dir" validate:"required"`

	// Analysis parameters
	TopN              int      `mapstructure:"top_n" yaml:"top_n" validate:"gt=0"`
	LongTailThreshold float64  `mapstructure:"long_tail_threshold" yaml:"long_tail_threshold" validate:"gt=0,lt=1"`
	TrendFrequency    string   `mapstructure:"trend_frequency" yaml:"trend_frequency" validate:"oneof=D W M ME MS Q QE QS Y YE A YS AS"`
	ProductColumn     string   `mapstructure:"product_column" yaml:"product_column" validate:"required"`
	PopularityMetric  string   `mapstructure:"popularity_metric" yaml:"popularity_metric" validate:"oneof=quantity revenue"`
	StatsMetrics      []string `mapstructure:"stats_metrics" yaml:"stats_metrics" validate:"min=1,dive,required"`
	TrendMetrics      []string `mapstructure:"trend_metrics" yaml:"trend_metrics" validate:"dive,required"`
	TrendGroupColumn  string   `mapstructure:"trend_group_column" yaml:"trend_group_column"`
	LongTailMetric    string   `mapstructure:"long_tail_metric" yaml:"long_tail_metric" validate:"required"`
	GeoColumn         string   `mapstructure:"geo_column" yaml:"geo_column" validate:"required"`
	DefaultRegion     string   `mapstructure:"default_region" yaml:"default_region"`

	// Cleaning
	DateColumns            []string          `mapstructure:"date_columns" yaml:"date_columns"`
	DateFormat             string            `mapstructure:"date_format" yaml:"date_format"`
	DropColumns            []string          `mapstructure:"drop_columns" yaml:"drop_columns"`
	TextColumns            []string          `mapstructure:"text_columns" yaml:"text_columns"`
	MissingStrategies      []MissingStrategy `mapstructure:"missing_strategies" yaml:"missing_strategies" validate:"dive"`
	DefaultMissingStrategy string            `mapstructure:"default_missing_strategy" yaml:"default_missing_strategy" validate:"required,strategy"`

	// Output
	PlotsEnabled bool   `mapstructure:"plots_enabled" yaml:"plots_enabled"`
	HeatmapTop   int    `mapstructure:"heatmap_top" yaml:"heatmap_top" validate:"gt=0"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`
}

// Dir is the directory holding the default config file, relative to home.
const Dir = ".fba"

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, Dir, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.fba/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("raw_data_path", "data/raw/AmazonSaleReport.csv")
	v.SetDefault("cleaned_data_path", "data/processed/cleaned.csv")
	v.SetDefault("top_n_products_path", "data/processed/top_n_products.csv")
	v.SetDefault("summary_stats_path", "data/processed/summary_stats.csv")
	v.SetDefault("long_tail_path", "data/processed/long_tail_analysis.csv")
	v.SetDefault("region_popularity_path", "data/processed/region_popularity.csv")
	v.SetDefault("trend_path", "data/processed/trend.csv")
	v.SetDefault("region_mapping_file", "config/region_mapping.csv")
	v.SetDefault("plots_dir", "reports/plots")
	v.SetDefault("reports_dir", "reports")

	v.SetDefault("top_n", 10)
	v.SetDefault("long_tail_threshold", 0.8)
	v.SetDefault("trend_frequency", "M")
	v.SetDefault("product_column", "ASIN")
	v.SetDefault("popularity_metric", "quantity")
	v.SetDefault("stats_metrics", []string{"Qty", "Amount"})
	v.SetDefault("trend_metrics", []string{"Qty"})
	v.SetDefault("trend_group_column", "")
	v.SetDefault("long_tail_metric", "Qty")
	v.SetDefault("geo_column", "ship-country")
	v.SetDefault("default_region", "Unknown")

	v.SetDefault("date_columns", []string{"Date"})
	v.SetDefault("date_format", "")
	v.SetDefault("drop_columns", []string{"Unnamed: 22"})
	v.SetDefault("text_columns", []string{"Status", "Courier Status", "Fulfilment"})
	v.SetDefault("default_missing_strategy", "drop")

	v.SetDefault("plots_enabled", true)
	v.SetDefault("heatmap_top", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("FBA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	return &c, nil
}

// expandPaths resolves a leading "~/" in every path key.
func (c *Global) expandPaths() error {
	for _, p := range []*string{
		&c.RawDataPath, &c.CleanedDataPath, &c.TopNProductsPath, &c.SummaryStatsPath,
		&c.LongTailPath, &c.RegionPopularityPath, &c.TrendPath, &c.RegionMappingFile,
		&c.PlotsDir, &c.ReportsDir,
	} {
		expanded, err := utils.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

var validate *validator.Validate

func validatorInstance() *validator.Validate {
	if validate == nil {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			switch s {
			case "drop", "mean", "median", "mode":
				return true
			}
			return strings.HasPrefix(s, "constant:")
		})
	}
	return validate
}

// Validate normalizes the trend frequency code, checks the struct tags and
// reports every failing key.
func Validate(c *Global) error {
	// Frequency codes are case-insensitive, like trend.ParseFrequency.
	c.TrendFrequency = strings.ToUpper(strings.TrimSpace(c.TrendFrequency))
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, message(fe))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Global.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "strategy":
		return fmt.Sprintf("%s must be drop, mean, median, mode or constant:<value>", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
