package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Redis contains connection settings for the cache and lock store. When URL
// is empty the pipeline falls back to in-process cache and locks, which is
// only safe with a single worker process.
type Redis struct {
	URL            string `toml:"url"`
	DialTimeout    int    `toml:"dial_timeout"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Cache tunes the idempotency layer.
type Cache struct {
	ResultTTLHours int `toml:"result_ttl_hours"`
	Version        int `toml:"version"`
}

// Pipeline tunes orchestration behavior: retry budget, backoff envelope,
// stage timeouts, and the run-loop worker pool.
type Pipeline struct {
	MaxRetries          int `toml:"max_retries"`
	RetryBaseSeconds    int `toml:"retry_base_seconds"`
	RetryMaxSeconds     int `toml:"retry_max_seconds"`
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
	LockTTLSeconds      int `toml:"lock_ttl_seconds"`
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	Workers             int `toml:"workers"`
}

// OCR configures the document recognition service.
type OCR struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Extraction configures the LLM used for entity extraction.
type Extraction struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	BatchSize      int    `toml:"batch_size"`
}

// Chunking tunes how OCR text is split before extraction.
type Chunking struct {
	MaxChars     int `toml:"max_chars"`
	OverlapChars int `toml:"overlap_chars"`
}

// Resolution tunes entity canonicalization.
type Resolution struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// Logging controls log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Redis      Redis      `toml:"redis"`
	Cache      Cache      `toml:"cache"`
	Pipeline   Pipeline   `toml:"pipeline"`
	OCR        OCR        `toml:"ocr"`
	Extraction Extraction `toml:"extraction"`
	Chunking   Chunking   `toml:"chunking"`
	Resolution Resolution `toml:"resolution"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the expected config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "docket", "config.toml"), nil
}

// Load reads the configuration at path, applying defaults for every field the
// file leaves unset. A missing file yields defaults plus environment
// overrides; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}
	path = expandPath(path)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment are enough to run against local services.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("DOCKET_REDIS_URL")); v != "" {
		c.Redis.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("DOCKET_OCR_API_KEY")); v != "" {
		c.OCR.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("DOCKET_EXTRACTION_API_KEY")); v != "" {
		c.Extraction.APIKey = v
	}
}

// EnsureDirectories creates the data and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
