package docstore

import (
	"context"
	"fmt"
	"time"
)

// ResetProcessing returns every processing document to pending. Called on
// run-loop startup, when no worker can still own a claim; completed stage
// work is replayed from artifacts, so requeueing never repeats paid work.
func (s *Store) ResetProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE documents SET status = ?, last_heartbeat = NULL, updated_at = ?
		 WHERE status = ?`,
		string(StatusPending), time.Now().UTC(), string(StatusProcessing))
	if err != nil {
		return 0, fmt.Errorf("reset processing documents: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat stamps an in-flight document's heartbeat so the reclaimer
// can tell a working document from an abandoned one.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`UPDATE documents SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStale returns processing documents whose heartbeat stopped before
// cutoff back to pending, recovering work abandoned by a crashed worker.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE documents SET status = ?, last_heartbeat = NULL, updated_at = ?
		 WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		string(StatusPending), time.Now().UTC(), string(StatusProcessing), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("reclaim stale documents: %w", err)
	}
	return res.RowsAffected()
}
