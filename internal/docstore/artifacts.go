package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Artifact is one stage's persisted result payload for a document.
type Artifact struct {
	DocumentID  string
	Stage       string
	Fingerprint string
	Payload     []byte
	CreatedAt   time.Time
}

// SaveArtifact stores (or replaces) a stage's result payload.
func (s *Store) SaveArtifact(ctx context.Context, artifact *Artifact) error {
	if artifact == nil || artifact.DocumentID == "" || artifact.Stage == "" {
		return errors.New("artifact requires document id and stage")
	}
	artifact.CreatedAt = time.Now().UTC()
	_, err := s.execWithRetry(ctx,
		`INSERT INTO artifacts (document_id, stage, fingerprint, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(document_id, stage) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		artifact.DocumentID, artifact.Stage, artifact.Fingerprint, artifact.Payload, artifact.CreatedAt)
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// Artifact returns the stored payload for (document, stage), or nil when
// absent.
func (s *Store) Artifact(ctx context.Context, documentID, stage string) (*Artifact, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT document_id, stage, fingerprint, payload, created_at
		 FROM artifacts WHERE document_id = ? AND stage = ?`,
		documentID, stage)
	var artifact Artifact
	err := row.Scan(&artifact.DocumentID, &artifact.Stage, &artifact.Fingerprint, &artifact.Payload, &artifact.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return &artifact, nil
}

// ArtifactExists reports whether a stage result is already persisted.
func (s *Store) ArtifactExists(ctx context.Context, documentID, stage string) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM artifacts WHERE document_id = ? AND stage = ?`,
		documentID, stage).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("artifact exists: %w", err)
	}
	return count > 0, nil
}
