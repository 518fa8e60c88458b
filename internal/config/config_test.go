package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"datalens/domain/dataset"
	"datalens/internal/errors"
	"datalens/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 100000, cfg.Pipeline.MaxRows)
	assert.Equal(t, 100, cfg.Pipeline.PreviewRows)
	assert.Equal(t, 5, cfg.Pipeline.SampleSize)
	assert.Equal(t, 20, cfg.Pipeline.TopCategories)
	assert.Equal(t, []string{"csv", "excel", "json"}, cfg.Pipeline.SupportedFormats)
	assert.Equal(t, "extended", cfg.Pipeline.MetricTemplates)
	assert.Equal(t, "professional", cfg.Pipeline.ColorPalette)
	assert.False(t, cfg.Pipeline.CSVQuoteAware)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MAX_ROWS", "50")
	t.Setenv("SUPPORTED_FORMATS", "csv,json")
	t.Setenv("METRIC_TEMPLATES", "core")
	t.Setenv("COLOR_PALETTE", "pastel")
	t.Setenv("CSV_QUOTE_AWARE", "true")
	t.Setenv("INFER_CARDINALITY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)

	opts := cfg.PipelineOptions()
	assert.Equal(t, 50, opts.Ingest.MaxRows)
	assert.True(t, opts.Ingest.CSVQuoteAware)
	assert.Equal(t, []dataset.Format{dataset.FormatCSV, dataset.FormatJSON}, opts.Ingest.SupportedFormats)
	assert.Equal(t, metrics.TemplatesCore, opts.Templates)
	assert.Equal(t, "pastel", opts.Visualization.Palette)
	assert.True(t, opts.Discovery.InferCardinality)
	assert.Equal(t, 0.8, opts.Discovery.Confidence)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7000\"\npipeline:\n  top_categories: 8\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 8, cfg.Pipeline.TopCategories)
	assert.Equal(t, 100, cfg.Pipeline.PreviewRows)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid))
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	valid := func(t *testing.T) *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = " " }},
		{"zero timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"zero upload", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"zero rows", func(c *Config) { c.Pipeline.MaxRows = 0 }},
		{"zero preview", func(c *Config) { c.Pipeline.PreviewRows = 0 }},
		{"zero categories", func(c *Config) { c.Pipeline.TopCategories = 0 }},
		{"unknown format", func(c *Config) { c.Pipeline.SupportedFormats = []string{"xml"} }},
		{"unknown templates", func(c *Config) { c.Pipeline.MetricTemplates = "all" }},
		{"unknown palette", func(c *Config) { c.Pipeline.ColorPalette = "neon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid), "got %s", errors.GetCode(err))
		})
	}
}
