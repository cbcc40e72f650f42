// Package config reads application configuration from environment variables,
// with .env support for local use.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Templates TemplateConfig
	Matching  MatchingConfig
	Branches  BranchConfig
	Archive   ArchiveConfig
	Logging   LoggingConfig
}

// TemplateConfig points at the three pre-authored workbook templates the
// run mutates in place.
type TemplateConfig struct {
	DessertPath   string
	FrozenPath    string
	LogisticsPath string
}

// MatchingConfig tunes the product matcher.
type MatchingConfig struct {
	// FuzzyThreshold is the minimum word-overlap score a fuzzy candidate
	// needs before it is accepted.
	FuzzyThreshold int
	// SpanMargin is how many columns a located branch span may be widened
	// to capture adjacent size sub-columns.
	SpanMargin int
}

// BranchConfig configures branch identity resolution.
type BranchConfig struct {
	// AliasFile optionally overrides the embedded alias/day-sheet tables.
	AliasFile string
}

// ArchiveConfig configures the processed-file archive. An empty Dir
// disables archiving.
type ArchiveConfig struct {
	Dir string
}

type LoggingConfig struct {
	Level string
	JSON  bool
}

// Load reads configuration from environment variables. A missing .env file
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Templates: TemplateConfig{
			DessertPath:   getEnv("SEVKIYAT_DESSERT_TEMPLATE", "sevkiyat_tatli.xlsx"),
			FrozenPath:    getEnv("SEVKIYAT_FROZEN_TEMPLATE", "sevkiyat_donuk.xlsx"),
			LogisticsPath: getEnv("SEVKIYAT_LOGISTICS_TEMPLATE", "sevkiyat_lojistik.xlsx"),
		},
		Matching: MatchingConfig{
			FuzzyThreshold: getEnvAsInt("SEVKIYAT_FUZZY_THRESHOLD", 6),
			SpanMargin:     getEnvAsInt("SEVKIYAT_SPAN_MARGIN", 4),
		},
		Branches: BranchConfig{
			AliasFile: getEnv("SEVKIYAT_ALIAS_FILE", ""),
		},
		Archive: ArchiveConfig{
			Dir: getEnv("SEVKIYAT_ARCHIVE_DIR", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnvAsBool("LOG_JSON", false),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
