package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"docket/internal/chunking"
	"docket/internal/config"
	"docket/internal/docstore"
	"docket/internal/extraction"
	"docket/internal/finalize"
	"docket/internal/kv"
	"docket/internal/lock"
	"docket/internal/logging"
	"docket/internal/recognition"
	"docket/internal/relations"
	"docket/internal/resolution"
	"docket/internal/services/llm"
	"docket/internal/services/ocr"
	"docket/internal/stage"
	"docket/internal/stagecache"
	"docket/internal/state"
	"docket/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app is the assembled dependency graph behind every command that touches
// documents. Commands build it on demand and close it when done.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	docs       *docstore.Store
	manager    *workflow.Manager
	closeCache func() error
}

func (c *commandContext) buildApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	// Without Redis the cache and locks live in-process, which is only safe
	// with a single worker process.
	var (
		cache      kv.Store
		locker     lock.Locker
		closeCache func() error
	)
	if cfg.Redis.URL != "" {
		redisStore, err := kv.NewRedisStore(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		cache = redisStore
		locker = lock.NewRedisLocker(redisStore.Client())
		closeCache = redisStore.Close
	} else {
		cache = kv.NewMemoryStore()
		locker = lock.NewMemoryLocker()
	}

	docs, err := docstore.Open(cfg)
	if err != nil {
		if closeCache != nil {
			_ = closeCache()
		}
		return nil, err
	}

	tracker := state.New(cache, logger)
	memoizer := stagecache.New(cache, cfg.Cache.Version,
		time.Duration(cfg.Cache.ResultTTLHours)*time.Hour, logger)

	ocrClient := ocr.NewClient(ocr.Config{
		Endpoint:       cfg.OCR.Endpoint,
		APIKey:         cfg.OCR.APIKey,
		TimeoutSeconds: cfg.OCR.TimeoutSeconds,
	})
	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.Extraction.APIKey,
		BaseURL:        cfg.Extraction.BaseURL,
		Model:          cfg.Extraction.Model,
		TimeoutSeconds: cfg.Extraction.TimeoutSeconds,
	})

	executors := []stage.Executor{
		recognition.NewRecognizer(ocrClient, logger),
		chunking.NewChunker(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars, logger),
		extraction.NewExtractor(llmClient, memoizer, cfg.Extraction.BatchSize, logger),
		resolution.NewResolver(cfg.Resolution.SimilarityThreshold, logger),
		relations.NewBuilder(logger),
		finalize.NewFinalizer(docs, logger),
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		docs:       docs,
		manager:    workflow.NewManager(cfg, docs, tracker, memoizer, locker, executors, logger),
		closeCache: closeCache,
	}, nil
}

func (a *app) Close() {
	if a.docs != nil {
		_ = a.docs.Close()
	}
	if a.closeCache != nil {
		_ = a.closeCache()
	}
}

func (c *commandContext) withApp(fn func(*app) error) error {
	application, err := c.buildApp()
	if err != nil {
		return err
	}
	defer application.Close()
	return fn(application)
}
