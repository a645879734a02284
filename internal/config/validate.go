package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable for pipeline processing.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateResolution(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.RetryBaseSeconds <= 0 {
		return errors.New("pipeline.retry_base_seconds must be positive")
	}
	if c.Pipeline.RetryMaxSeconds < c.Pipeline.RetryBaseSeconds {
		return errors.New("pipeline.retry_max_seconds must be >= pipeline.retry_base_seconds")
	}
	if c.Pipeline.StageTimeoutSeconds <= 0 {
		return errors.New("pipeline.stage_timeout_seconds must be positive")
	}
	if c.Pipeline.LockTTLSeconds <= 0 {
		return errors.New("pipeline.lock_ttl_seconds must be positive")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if c.OCR.Endpoint == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/docket/config.toml"
		}
		return fmt.Errorf("ocr.endpoint is required. Edit %s (create with 'docket config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.APIKey == "" {
		return errors.New("extraction.api_key is required. Set DOCKET_EXTRACTION_API_KEY or edit the config file")
	}
	if c.Extraction.Model == "" {
		return errors.New("extraction.model must be set")
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.Chunking.MaxChars <= 0 {
		return errors.New("chunking.max_chars must be positive")
	}
	if c.Chunking.OverlapChars < 0 {
		return errors.New("chunking.overlap_chars must not be negative")
	}
	return nil
}

func (c *Config) validateResolution() error {
	if c.Resolution.SimilarityThreshold < 0 || c.Resolution.SimilarityThreshold > 1 {
		return errors.New("resolution.similarity_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
