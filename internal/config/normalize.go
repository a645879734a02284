package config

import (
	"os"
	"path/filepath"
	"strings"
)

func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

func (c *Config) normalize() {
	c.Paths.DataDir = expandPath(c.Paths.DataDir)
	c.Paths.LogDir = expandPath(c.Paths.LogDir)

	c.Redis.URL = strings.TrimSpace(c.Redis.URL)
	c.OCR.Endpoint = strings.TrimSpace(c.OCR.Endpoint)
	c.OCR.APIKey = strings.TrimSpace(c.OCR.APIKey)
	c.Extraction.BaseURL = strings.TrimSpace(c.Extraction.BaseURL)
	c.Extraction.APIKey = strings.TrimSpace(c.Extraction.APIKey)
	c.Extraction.Model = strings.TrimSpace(c.Extraction.Model)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	if c.Cache.Version < 1 {
		c.Cache.Version = defaultCacheVersion
	}
	if c.Pipeline.Workers < 1 {
		c.Pipeline.Workers = 1
	}
	if c.Pipeline.MaxRetries < 0 {
		c.Pipeline.MaxRetries = 0
	}
	if c.Extraction.BatchSize < 1 {
		c.Extraction.BatchSize = 1
	}
	if c.Chunking.OverlapChars >= c.Chunking.MaxChars {
		c.Chunking.OverlapChars = c.Chunking.MaxChars / 10
	}
}
