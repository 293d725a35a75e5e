package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported source formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Ingestion source: the daily water balance workbook or a CSV export.
	SourcePath        string
	SourceFormat      string
	SourceSheet       string
	SourceHeaderRow   int
	SourceFirstColumn string
	RefreshInterval   time.Duration

	// Early-warning alert publication.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaAlertTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "1m"))
	if err != nil || refreshInterval <= 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}

	headerRow, err := strconv.Atoi(sharedcfg.EnvOrDefault("SOURCE_HEADER_ROW", "2"))
	if err != nil || headerRow < 1 {
		return nil, errors.New("invalid SOURCE_HEADER_ROW")
	}

	sourcePath := sharedcfg.EnvOrDefault("SOURCE_PATH", "Daily_Water_Balance.xlsx")
	sourceFormat := strings.ToLower(os.Getenv("SOURCE_FORMAT"))
	if sourceFormat == "" {
		sourceFormat = InferFormat(sourcePath)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SourcePath:        sourcePath,
		SourceFormat:      sourceFormat,
		SourceSheet:       sharedcfg.EnvOrDefault("SOURCE_SHEET", "Rangkum"),
		SourceHeaderRow:   headerRow,
		SourceFirstColumn: strings.ToUpper(sharedcfg.EnvOrDefault("SOURCE_FIRST_COLUMN", "B")),
		RefreshInterval:   refreshInterval,

		KafkaEnabled:    os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "water-balance-alerts"),
	}

	if cfg.SourcePath == "" {
		return nil, errors.New("SOURCE_PATH is required")
	}
	if cfg.SourceFormat != FormatXLSX && cfg.SourceFormat != FormatCSV {
		return nil, fmt.Errorf("invalid SOURCE_FORMAT %q (want xlsx or csv)", cfg.SourceFormat)
	}
	if !validColumn(cfg.SourceFirstColumn) {
		return nil, errors.New("invalid SOURCE_FIRST_COLUMN")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_ALERT_TOPIC is empty")
		}
	}

	return cfg, nil
}

// InferFormat picks the source format from the file extension, defaulting to xlsx.
func InferFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// validColumn reports whether s is a spreadsheet column name like "B" or "AA".
func validColumn(s string) bool {
	if s == "" || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
