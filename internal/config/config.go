// Package config loads the application configuration from the environment,
// optionally layered over a YAML file named by CONFIG_FILE.
package config

import (
	"os"
	"strings"
	"time"

	"datalens/adapters/ingest"
	"datalens/internal"
	"datalens/internal/dataset"
	"datalens/internal/errors"
	"datalens/internal/metrics"
	"datalens/internal/visualization"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP host settings
type ServerConfig struct {
	Port           string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	GinMode        string        `yaml:"gin_mode" env:"GIN_MODE" env-default:"release"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" env-default:"33554432"`
	SessionTTL     time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"2h"`
}

// PipelineConfig holds parsing and analysis settings
type PipelineConfig struct {
	MaxRows          int      `yaml:"max_rows" env:"MAX_ROWS" env-default:"100000"`
	PreviewRows      int      `yaml:"preview_rows" env:"PREVIEW_ROWS" env-default:"100"`
	SampleSize       int      `yaml:"sample_size" env:"SAMPLE_SIZE" env-default:"5"`
	TopCategories    int      `yaml:"top_categories" env:"TOP_CATEGORIES" env-default:"20"`
	SupportedFormats []string `yaml:"supported_formats" env:"SUPPORTED_FORMATS" env-default:"csv,excel,json" env-separator:","`
	MetricTemplates  string   `yaml:"metric_templates" env:"METRIC_TEMPLATES" env-default:"extended"`
	ColorPalette     string   `yaml:"color_palette" env:"COLOR_PALETTE" env-default:"professional"`
	CSVQuoteAware    bool     `yaml:"csv_quote_aware" env:"CSV_QUOTE_AWARE" env-default:"false"`
	InferCardinality bool     `yaml:"infer_cardinality" env:"INFER_CARDINALITY" env-default:"false"`
	Concurrency      int      `yaml:"concurrency" env:"INGEST_CONCURRENCY" env-default:"4"`
}

// LogConfig selects the log level and encoder
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"INFO"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// Load reads configuration from environment variables, over CONFIG_FILE when
// it is set, and validates it
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to read %s", path))
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to read environment"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.ConfigInvalid("SERVER_PORT is required")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.ConfigInvalid("server timeouts must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_BYTES must be positive")
	}

	p := c.Pipeline
	switch {
	case p.MaxRows <= 0:
		return errors.ConfigInvalid("MAX_ROWS must be positive")
	case p.PreviewRows <= 0:
		return errors.ConfigInvalid("PREVIEW_ROWS must be positive")
	case p.SampleSize <= 0:
		return errors.ConfigInvalid("SAMPLE_SIZE must be positive")
	case p.TopCategories <= 0:
		return errors.ConfigInvalid("TOP_CATEGORIES must be positive")
	case p.Concurrency <= 0:
		return errors.ConfigInvalid("INGEST_CONCURRENCY must be positive")
	}

	if _, err := ingest.ParseFormats(p.SupportedFormats); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if _, err := metrics.ParseTemplateSet(p.MetricTemplates); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if !visualization.IsKnownPalette(p.ColorPalette) {
		return errors.Newf(errors.CodeConfigInvalid, "unknown COLOR_PALETTE %q", p.ColorPalette)
	}
	return nil
}

// PipelineOptions projects the configuration onto the processor options.
// It assumes Validate has passed.
func (c *Config) PipelineOptions() dataset.Options {
	opts := dataset.DefaultOptions()
	p := c.Pipeline

	opts.Ingest.MaxRows = p.MaxRows
	opts.Ingest.CSVQuoteAware = p.CSVQuoteAware
	if formats, err := ingest.ParseFormats(p.SupportedFormats); err == nil {
		opts.Ingest.SupportedFormats = formats
	}
	opts.SampleSize = p.SampleSize
	if set, err := metrics.ParseTemplateSet(p.MetricTemplates); err == nil {
		opts.Templates = set
	}
	opts.Visualization = visualization.Options{
		PreviewRows:   p.PreviewRows,
		TopCategories: p.TopCategories,
		Palette:       p.ColorPalette,
	}
	opts.Discovery.InferCardinality = p.InferCardinality
	opts.Concurrency = p.Concurrency
	return opts
}

// Logger builds the application logger
func (c *Config) Logger() *internal.Logger {
	return internal.NewLogger(internal.ParseLogLevel(c.Log.Level), strings.EqualFold(c.Log.Format, "json"))
}
