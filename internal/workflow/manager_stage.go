package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docket/internal/docstore"
	"docket/internal/fingerprint"
	"docket/internal/lock"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
	"docket/internal/stage"
)

// ProcessDocument walks one document through the pipeline, resuming after
// any stages already completed. On terminal failure the document record and
// the failing stage both carry the error; a context cancellation leaves the
// document resumable.
func (m *Manager) ProcessDocument(ctx context.Context, documentID string) error {
	doc, err := m.store.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return services.Wrap(services.ErrNotFound, "", "process", fmt.Sprintf("document %s", documentID), nil)
	}

	source, err := m.store.Artifact(ctx, documentID, sourceArtifactStage)
	if err != nil {
		return err
	}
	if source == nil {
		err := services.Wrap(services.ErrConfiguration, "", "process", "source artifact missing", nil)
		m.failDocument(ctx, documentID, pipeline.FirstStage(), err, 0)
		return err
	}

	ctx = services.WithDocumentID(ctx, documentID)
	logger := logging.WithContext(ctx, m.logger)
	start := time.Now()

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go m.runHeartbeat(heartbeatCtx, documentID)

	content := source.Payload
	for _, stg := range pipeline.Stages() {
		status, err := m.tracker.StageStatus(ctx, documentID, stg)
		if err != nil {
			return err
		}
		if status == pipeline.StatusCompleted {
			artifact, err := m.store.Artifact(ctx, documentID, string(stg))
			if err != nil {
				return err
			}
			if artifact != nil {
				content = artifact.Payload
				continue
			}
			// State says completed but the payload is gone. Re-run the
			// stage; the memoizer absorbs the cost when the cache survived.
		}

		result, err := m.runStageWithRetry(ctx, documentID, stg, content)
		if err != nil {
			return err
		}
		content = result.Payload
	}

	if err := m.store.UpdateStatus(ctx, documentID, docstore.StatusCompleted, ""); err != nil {
		return fmt.Errorf("mark document completed: %w", err)
	}
	logger.Info("document completed",
		logging.String(logging.FieldEventType, "document_complete"),
		logging.Duration("pipeline_duration", time.Since(start)))
	return nil
}

// runHeartbeat stamps the document's heartbeat while it is being processed.
// The reclaimer treats a heartbeat older than the lock TTL as abandoned, so
// the stamp interval stays well inside that window.
func (m *Manager) runHeartbeat(ctx context.Context, documentID string) {
	interval := m.lockTTL / 3
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := m.store.UpdateHeartbeat(ctx, documentID); err != nil {
			m.logger.Warn("failed to update document heartbeat",
				logging.String(logging.FieldDocumentID, documentID),
				logging.Error(err))
		}
	}
}

// runStageWithRetry drives the attempt loop for one stage. Retryable
// failures back off exponentially up to the configured budget; anything
// else fails the document immediately.
func (m *Manager) runStageWithRetry(ctx context.Context, documentID string, stg pipeline.Stage, content []byte) (*stage.Result, error) {
	for attempt := 1; ; attempt++ {
		result, err := m.runStage(ctx, documentID, stg, content, attempt)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		if !m.classifyRetryable(stg, err) || attempt > m.cfg.Pipeline.MaxRetries {
			m.failDocument(ctx, documentID, stg, err, attempt)
			return nil, err
		}

		delay := m.backoff(attempt)
		if recordErr := m.recordRetry(ctx, documentID, stg, err, attempt, delay); recordErr != nil {
			return nil, recordErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// runStage executes a single attempt under the stage's advisory lock.
func (m *Manager) runStage(ctx context.Context, documentID string, stg pipeline.Stage, content []byte, attempt int) (*stage.Result, error) {
	exec, ok := m.executors[stg]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, string(stg), "run", "no executor registered", nil)
	}

	lease, err := m.locker.Acquire(ctx, stageLockName(documentID, stg), m.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, services.Wrap(services.ErrTransient, string(stg), "acquire lock",
				"stage is locked by another worker", err)
		}
		return nil, services.Wrap(services.ErrUnavailable, string(stg), "acquire lock",
			"lock store unavailable", err)
	}
	defer func() {
		if err := m.locker.Release(context.WithoutCancel(ctx), lease); err != nil {
			m.logger.Warn("failed to release stage lock",
				logging.String(logging.FieldDocumentID, documentID),
				logging.String(logging.FieldStage, string(stg)),
				logging.Error(err))
		}
	}()

	metadata := map[string]any{
		pipeline.MetaRetryCount: attempt - 1,
		pipeline.MetaHeartbeat:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := m.tracker.Update(ctx, documentID, stg, pipeline.StatusInProgress, metadata); err != nil {
		return nil, err
	}

	stageCtx := services.WithStage(ctx, string(stg))
	if m.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, m.stageTimeout)
		defer cancel()
	}

	logger := logging.WithContext(stageCtx, m.logger)
	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int(logging.FieldAttempt, attempt))

	result, err := m.memoizer.Do(stageCtx, stg, documentID, content, func(ctx context.Context, normalized []byte) (*stage.Result, error) {
		return exec.Execute(ctx, stage.Request{
			DocumentID: documentID,
			Stage:      stg,
			Content:    normalized,
			Attempt:    attempt,
		})
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = services.Wrap(services.ErrTimeout, string(stg), "run",
				fmt.Sprintf("stage exceeded %s timeout", m.stageTimeout), err)
		}
		return nil, err
	}

	if err := m.store.SaveArtifact(ctx, &docstore.Artifact{
		DocumentID:  documentID,
		Stage:       string(stg),
		Fingerprint: fingerprint.Content(fingerprint.Normalize(content)),
		Payload:     result.Payload,
	}); err != nil {
		return nil, err
	}

	completed := map[string]any{
		pipeline.MetaFromCache: result.FromCache,
		pipeline.MetaSummary:   result.Summary,
	}
	if err := m.tracker.Update(ctx, documentID, stg, pipeline.StatusCompleted, completed); err != nil {
		return nil, err
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Bool("from_cache", result.FromCache),
		logging.Duration("stage_duration", time.Since(start)))
	return result, nil
}

// classifyRetryable defers to the stage executor when one is registered.
func (m *Manager) classifyRetryable(stg pipeline.Stage, err error) bool {
	if exec, ok := m.executors[stg]; ok {
		return exec.Retryable(err)
	}
	return services.Retryable(err)
}

func stageLockName(documentID string, stg pipeline.Stage) string {
	return fmt.Sprintf("lock:%s:%s", documentID, stg)
}
