package config

import (
	"os"
	"strconv"
	"strings"

	"gvif/domain/stats/gvif"
	"gvif/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Data     DataConfig
	Output   OutputConfig
	LogLevel string
}

// AnalysisConfig holds GVIF computation settings
type AnalysisConfig struct {
	Threshold         float64
	SingularTolerance float64
	Workers           int
}

// DataConfig holds input selection settings
type DataConfig struct {
	InputFile                 string
	Sheet                     string
	Drop                      []string
	Categorical               []string
	IntegerCodesAsCategorical bool
}

// OutputConfig holds rendering settings
type OutputConfig struct {
	Format       string
	WorkbookPath string
}

// Supported output formats
var Formats = []string{"table", "json", "csv", "markdown", "html"}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Analysis: *loadAnalysisConfig(),
		Data:     *loadDataConfig(),
		Output:   *loadOutputConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Threshold:         getEnvFloatOrDefault("GVIF_THRESHOLD", gvif.DefaultThreshold),
		SingularTolerance: getEnvFloatOrDefault("GVIF_SINGULAR_TOLERANCE", gvif.DefaultSingularTolerance),
		Workers:           getEnvIntOrDefault("GVIF_WORKERS", 1),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		InputFile:                 getEnvOrDefault("GVIF_INPUT", ""),
		Sheet:                     getEnvOrDefault("GVIF_SHEET", ""),
		Drop:                      getEnvListOrDefault("GVIF_DROP", nil),
		Categorical:               getEnvListOrDefault("GVIF_CATEGORICAL", nil),
		IntegerCodesAsCategorical: getEnvBoolOrDefault("GVIF_INTEGER_CODES_AS_CATEGORICAL", false),
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		Format:       getEnvOrDefault("GVIF_FORMAT", "table"),
		WorkbookPath: getEnvOrDefault("GVIF_XLSX", ""),
	}
}

// Validate checks value ranges; flags may change fields after Load
func (c *Config) Validate() error {
	if c.Analysis.Threshold <= 0 {
		return errors.ConfigInvalid("GVIF_THRESHOLD must be positive")
	}
	if c.Analysis.SingularTolerance <= 0 || c.Analysis.SingularTolerance >= 1 {
		return errors.ConfigInvalid("GVIF_SINGULAR_TOLERANCE must be in (0, 1)")
	}
	if c.Analysis.Workers < 1 {
		return errors.ConfigInvalid("GVIF_WORKERS must be at least 1")
	}
	for _, f := range Formats {
		if c.Output.Format == f {
			return nil
		}
	}
	return errors.ConfigInvalid("unsupported output format " + strconv.Quote(c.Output.Format) + " (want one of " + strings.Join(Formats, ", ") + ")")
}

// Request converts analysis settings into a computation request
func (c *Config) Request() gvif.ComputationRequest {
	return gvif.ComputationRequest{
		Threshold:         c.Analysis.Threshold,
		SingularTolerance: c.Analysis.SingularTolerance,
		Workers:           c.Analysis.Workers,
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value, dropping empty items
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
