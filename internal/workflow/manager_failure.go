package workflow

import (
	"context"
	"math/rand/v2"
	"time"

	"docket/internal/docstore"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
)

// backoff computes the delay before retry attempt+1: exponential from the
// configured base, capped, with up to 25% jitter so workers retrying the
// same document do not collide.
func (m *Manager) backoff(attempt int) time.Duration {
	base := time.Duration(m.cfg.Pipeline.RetryBaseSeconds) * time.Second
	if base <= 0 {
		return 0
	}
	max := time.Duration(m.cfg.Pipeline.RetryMaxSeconds) * time.Second
	if max < base {
		max = base
	}

	delay := base
	for i := 1; i < attempt && delay < max; i++ {
		delay *= 2
	}
	if delay > max {
		delay = max
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/4 + 1))
	return delay + jitter
}

// recordRetry marks the stage retrying with the failure details and the
// planned delay. A failure to record is returned; retrying without a
// durable record would hide the attempt from status queries.
func (m *Manager) recordRetry(ctx context.Context, documentID string, stg pipeline.Stage, cause error, attempt int, delay time.Duration) error {
	details := services.Details(cause)
	metadata := map[string]any{
		pipeline.MetaError:      details.Message,
		pipeline.MetaErrorType:  details.Kind,
		pipeline.MetaRetryCount: attempt,
	}
	if err := m.tracker.Update(ctx, documentID, stg, pipeline.StatusRetrying, metadata); err != nil {
		return err
	}

	m.logger.Warn("stage failed; retrying",
		logging.String(logging.FieldDocumentID, documentID),
		logging.String(logging.FieldStage, string(stg)),
		logging.String(logging.FieldEventType, "stage_retry"),
		logging.Int(logging.FieldAttempt, attempt),
		logging.Duration("retry_delay", delay),
		logging.Error(cause))
	return nil
}

// failDocument records a terminal failure on both the stage state and the
// document record. Recording failures is best effort at this point; the
// causal error is what callers see.
func (m *Manager) failDocument(ctx context.Context, documentID string, stg pipeline.Stage, cause error, attempt int) {
	ctx = context.WithoutCancel(ctx)
	details := services.Details(cause)
	metadata := map[string]any{
		pipeline.MetaError:      details.Message,
		pipeline.MetaErrorType:  details.Kind,
		pipeline.MetaRetryCount: attempt - 1,
	}
	if attempt < 1 {
		metadata[pipeline.MetaRetryCount] = 0
	}
	if err := m.tracker.Update(ctx, documentID, stg, pipeline.StatusFailed, metadata); err != nil {
		m.logger.Error("failed to record stage failure",
			logging.String(logging.FieldDocumentID, documentID),
			logging.String(logging.FieldStage, string(stg)),
			logging.Error(err))
	}
	if err := m.store.UpdateStatus(ctx, documentID, docstore.StatusFailed, details.Message); err != nil {
		m.logger.Error("failed to record document failure",
			logging.String(logging.FieldDocumentID, documentID),
			logging.Error(err))
	}

	m.logger.Error("document failed",
		logging.String(logging.FieldDocumentID, documentID),
		logging.String(logging.FieldStage, string(stg)),
		logging.String(logging.FieldEventType, "document_failed"),
		logging.String("error_type", details.Kind),
		logging.Error(cause))
}
