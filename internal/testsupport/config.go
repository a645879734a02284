package testsupport

import (
	"path/filepath"
	"testing"

	"docket/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and service endpoints filled with placeholder values.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.OCR.Endpoint = "http://127.0.0.1:0"
	cfg.OCR.APIKey = "test"
	cfg.Extraction.BaseURL = "http://127.0.0.1:0"
	cfg.Extraction.APIKey = "test"
	cfg.Pipeline.PollIntervalSeconds = 1
	cfg.Pipeline.RetryBaseSeconds = 0
	cfg.Pipeline.RetryMaxSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxRetries overrides the pipeline retry budget.
func WithMaxRetries(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.MaxRetries = n
	}
}

// WithWorkers overrides the run-loop worker count.
func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.Workers = n
	}
}
