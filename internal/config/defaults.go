package config

const (
	defaultDataDir             = "~/.local/share/docket"
	defaultLogDir              = "~/.local/share/docket/logs"
	defaultRedisDialTimeout    = 5
	defaultRedisRequestTimeout = 3
	defaultResultTTLHours      = 720
	defaultCacheVersion        = 1
	defaultMaxRetries          = 3
	defaultRetryBaseSeconds    = 2
	defaultRetryMaxSeconds     = 60
	defaultStageTimeoutSeconds = 3600
	defaultLockTTLSeconds      = 300
	defaultPollIntervalSeconds = 5
	defaultWorkers             = 2
	defaultOCRTimeoutSeconds   = 120
	defaultExtractionBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultExtractionModel     = "google/gemini-3-flash-preview"
	defaultExtractionTimeout   = 60
	defaultExtractionBatchSize = 8
	defaultChunkMaxChars       = 4000
	defaultChunkOverlapChars   = 400
	defaultSimilarityThreshold = 0.82
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Redis: Redis{
			DialTimeout:    defaultRedisDialTimeout,
			RequestTimeout: defaultRedisRequestTimeout,
		},
		Cache: Cache{
			ResultTTLHours: defaultResultTTLHours,
			Version:        defaultCacheVersion,
		},
		Pipeline: Pipeline{
			MaxRetries:          defaultMaxRetries,
			RetryBaseSeconds:    defaultRetryBaseSeconds,
			RetryMaxSeconds:     defaultRetryMaxSeconds,
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
			LockTTLSeconds:      defaultLockTTLSeconds,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			Workers:             defaultWorkers,
		},
		OCR: OCR{
			TimeoutSeconds: defaultOCRTimeoutSeconds,
		},
		Extraction: Extraction{
			BaseURL:        defaultExtractionBaseURL,
			Model:          defaultExtractionModel,
			TimeoutSeconds: defaultExtractionTimeout,
			BatchSize:      defaultExtractionBatchSize,
		},
		Chunking: Chunking{
			MaxChars:     defaultChunkMaxChars,
			OverlapChars: defaultChunkOverlapChars,
		},
		Resolution: Resolution{
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
