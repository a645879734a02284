package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the overall lifecycle of a submitted document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Document is a submitted document's durable record.
type Document struct {
	ID           string
	Title        string
	SourcePath   string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary describes aggregated document counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

const documentColumns = `id, title, source_path, status, error_message, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	var doc Document
	var status string
	if err := row.Scan(&doc.ID, &doc.Title, &doc.SourcePath, &status, &doc.ErrorMessage, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Status = Status(status)
	return &doc, nil
}

// Insert records a newly submitted document.
func (s *Store) Insert(ctx context.Context, doc *Document) error {
	if doc == nil || strings.TrimSpace(doc.ID) == "" {
		return errors.New("document id is required")
	}
	now := time.Now().UTC()
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	doc.CreatedAt = now
	doc.UpdatedAt = now
	_, err := s.execWithRetry(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.SourcePath, string(doc.Status), doc.ErrorMessage, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get returns the document with the given ID, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns all documents, newest first.
func (s *Store) List(ctx context.Context) ([]*Document, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ClaimNextPending atomically transitions the oldest pending document to
// processing and returns it. Returns nil when nothing is pending.
func (s *Store) ClaimNextPending(ctx context.Context) (*Document, error) {
	ctx = ensureContext(ctx)
	var doc *Document
	err := retryOnBusy(ctx, func() error {
		now := time.Now().UTC()
		row := s.db.QueryRowContext(ctx,
			`UPDATE documents SET status = ?, updated_at = ?, last_heartbeat = ?
			 WHERE id = (
				SELECT id FROM documents WHERE status = ? ORDER BY created_at LIMIT 1
			 )
			 RETURNING `+documentColumns,
			string(StatusProcessing), now, now, string(StatusPending))
		var scanErr error
		doc, scanErr = scanDocument(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			doc = nil
			return nil
		}
		return scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("claim next pending: %w", err)
	}
	return doc, nil
}

// UpdateStatus transitions a document's overall status, replacing its error
// message (empty for non-failure transitions).
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, errorMessage string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE documents SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(status), errorMessage, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

// Health returns aggregated per-status counts.
func (s *Store) Health(ctx context.Context) (*HealthSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("document health: %w", err)
	}
	defer rows.Close()

	summary := &HealthSummary{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending = count
		case StatusProcessing:
			summary.Processing = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}
