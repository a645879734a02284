package stagecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"docket/internal/fingerprint"
	"docket/internal/kv"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/stage"
)

// ComputeFunc performs the expensive stage work on normalized content.
type ComputeFunc func(ctx context.Context, content []byte) (*stage.Result, error)

// Memoizer wraps stage computations with fingerprint-keyed caching.
type Memoizer struct {
	store   kv.Store
	version int
	ttl     time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// envelope is the serialized form of a cached stage result.
type envelope struct {
	Payload json.RawMessage `json:"payload"`
	Summary string          `json:"summary,omitempty"`
}

// New constructs a memoizer. version is the pipeline cache version; bumping
// it invalidates every cached result without touching content.
func New(store kv.Store, version int, ttl time.Duration, logger *slog.Logger) *Memoizer {
	if version < 1 {
		version = 1
	}
	return &Memoizer{
		store:   store,
		version: version,
		ttl:     ttl,
		logger:  logging.NewComponentLogger(logger, "stagecache"),
	}
}

// Version returns the active cache version.
func (m *Memoizer) Version() int {
	return m.version
}

// Do returns the cached result for (stage, documentID, content, version) or
// invokes compute exactly once for concurrent identical requests. Failed
// computations are never cached. Cache store errors degrade to recomputation.
func (m *Memoizer) Do(ctx context.Context, stg pipeline.Stage, documentID string, content []byte, compute ComputeFunc) (*stage.Result, error) {
	normalized := fingerprint.Normalize(content)
	key := fingerprint.Key(string(stg), documentID, m.version, normalized)

	if result, ok := m.lookup(ctx, key); ok {
		m.logger.Debug("stage cache hit",
			logging.String(logging.FieldStage, string(stg)),
			logging.String(logging.FieldDocumentID, documentID),
			logging.String(logging.FieldCacheKey, key))
		return result, nil
	}

	value, err, shared := m.group.Do(key, func() (any, error) {
		result, err := compute(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, fmt.Errorf("stage %s returned no result", stg)
		}
		m.save(ctx, key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result := value.(*stage.Result)
	if shared {
		// Another in-flight caller did the work; this caller did not compute.
		cp := *result
		cp.FromCache = true
		return &cp, nil
	}
	return result, nil
}

func (m *Memoizer) lookup(ctx context.Context, key string) (*stage.Result, bool) {
	if m.store == nil {
		return nil, false
	}
	data, found, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.Warn("cache lookup failed; recomputing",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache store connectivity"))
		return nil, false
	}
	if !found {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.logger.Warn("cache entry corrupt; recomputing",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return nil, false
	}
	return &stage.Result{Payload: env.Payload, Summary: env.Summary, FromCache: true}, true
}

func (m *Memoizer) save(ctx context.Context, key string, result *stage.Result) {
	if m.store == nil {
		return
	}
	data, err := json.Marshal(envelope{Payload: result.Payload, Summary: result.Summary})
	if err != nil {
		m.logger.Warn("cache entry marshal failed",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return
	}
	if err := m.store.Set(ctx, key, data, m.ttl); err != nil {
		m.logger.Warn("cache store failed; result not memoized",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache store connectivity"))
	}
}
