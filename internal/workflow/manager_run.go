package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"docket/internal/logging"
)

// Start begins background processing with the configured worker count.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if missing := m.missingExecutors(); len(missing) > 0 {
		return fmt.Errorf("workflow stages not configured: %v", missing)
	}

	workers := m.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}

	// A previous run may have died mid-claim. Nothing else can hold a claim
	// while this loop is down, so every processing document is requeued.
	reclaimed, err := m.store.ResetProcessing(ctx)
	if err != nil {
		return fmt.Errorf("requeue interrupted documents: %w", err)
	}
	if reclaimed > 0 {
		m.logger.Info("requeued interrupted documents",
			logging.Int("documents", int(reclaimed)),
			logging.String(logging.FieldEventType, "processing_reset"))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	group, groupCtx := errgroup.WithContext(runCtx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = group.Wait()
	}()
	for i := 0; i < workers; i++ {
		worker := m.logger.With(logging.Int("worker", i))
		group.Go(func() error {
			m.runWorker(groupCtx, worker)
			return nil
		})
	}
	group.Go(func() error {
		m.runReclaimer(groupCtx)
		return nil
	})

	m.logger.Info("workflow started", logging.Int("workers", workers))
	return nil
}

// Stop terminates background processing and waits for workers to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

// Running reports whether the background run loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// runWorker claims pending documents until the context is canceled. A
// processing failure is already persisted by the time ProcessDocument
// returns; the worker just moves on to the next document.
func (m *Manager) runWorker(ctx context.Context, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		doc, err := m.store.ClaimNextPending(ctx)
		if err != nil {
			logger.Error("failed to claim next document",
				logging.Error(err),
				logging.String(logging.FieldEventType, "claim_failed"),
				logging.String(logging.FieldErrorHint, "check document database access"))
			m.waitOrShutdown(ctx)
			continue
		}
		if doc == nil {
			m.waitOrShutdown(ctx)
			continue
		}

		logger.Info("processing document",
			logging.String(logging.FieldDocumentID, doc.ID),
			logging.String("title", doc.Title))
		if err := m.ProcessDocument(ctx, doc.ID); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Warn("document processing ended with failure",
				logging.String(logging.FieldDocumentID, doc.ID),
				logging.Error(err))
		}
	}
}

// runReclaimer periodically requeues processing documents whose worker
// stopped heartbeating, so a crashed peer never wedges a document. The lock
// TTL bounds staleness the same way it bounds a crashed holder's lock.
func (m *Manager) runReclaimer(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		reclaimed, err := m.store.ReclaimStale(ctx, time.Now().Add(-m.lockTTL))
		if err != nil {
			m.logger.Warn("failed to reclaim stale documents",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"))
			continue
		}
		if reclaimed > 0 {
			m.logger.Info("reclaimed stale documents",
				logging.Int("documents", int(reclaimed)),
				logging.String(logging.FieldEventType, "heartbeat_reclaim"))
		}
	}
}

func (m *Manager) waitOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
