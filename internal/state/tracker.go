package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docket/internal/kv"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
)

// Tracker is the durable, queryable record of per-document stage progress.
type Tracker struct {
	store  kv.Store
	logger *slog.Logger
}

// New constructs a tracker over the supplied store.
func New(store kv.Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:  store,
		logger: logging.NewComponentLogger(logger, "state"),
	}
}

func stageKey(documentID string, stg pipeline.Stage) string {
	return fmt.Sprintf("state:%s:%s", documentID, stg)
}

func lastKey(documentID string) string {
	return fmt.Sprintf("state:%s:last", documentID)
}

// Update writes the stage record and stamps the last-update pointer. Failed
// and retrying statuses must carry error metadata; the timestamp is always
// set here, never by callers.
func (t *Tracker) Update(ctx context.Context, documentID string, stg pipeline.Stage, status pipeline.Status, metadata map[string]any) error {
	if strings.TrimSpace(documentID) == "" {
		return services.Wrap(services.ErrValidation, string(stg), "update state", "document id is empty", nil)
	}
	if _, ok := pipeline.ParseStage(string(stg)); !ok {
		return fmt.Errorf("%w: %s", pipeline.ErrUnknownStage, stg)
	}

	record := pipeline.StageRecord{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	if err := record.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, string(stg), "update state", err.Error(), nil)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal stage record: %w", err)
	}
	if err := t.store.Set(ctx, stageKey(documentID, stg), data, 0); err != nil {
		return fmt.Errorf("persist stage record: %w", err)
	}

	last := pipeline.LastUpdate{Stage: stg, Status: status, Timestamp: record.Timestamp}
	lastData, err := json.Marshal(last)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}
	if err := t.store.Set(ctx, lastKey(documentID), lastData, 0); err != nil {
		// The stage record landed; a stale pointer only degrades dashboards.
		t.logger.Warn("failed to persist last-update pointer",
			logging.String(logging.FieldDocumentID, documentID),
			logging.String(logging.FieldStage, string(stg)),
			logging.Error(err))
	}

	t.logger.Debug("state updated",
		logging.String(logging.FieldDocumentID, documentID),
		logging.String(logging.FieldStage, string(stg)),
		logging.String(logging.FieldStatus, string(status)))
	return nil
}

// Get assembles the full document state. Unknown documents return a default
// all-pending state, never an error.
func (t *Tracker) Get(ctx context.Context, documentID string) (*pipeline.DocumentState, error) {
	docState := pipeline.NewDocumentState(documentID)
	for _, stg := range pipeline.Stages() {
		data, found, err := t.store.Get(ctx, stageKey(documentID, stg))
		if err != nil {
			return nil, fmt.Errorf("read stage record %s/%s: %w", documentID, stg, err)
		}
		if !found {
			continue
		}
		var record pipeline.StageRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("parse stage record %s/%s: %w", documentID, stg, err)
		}
		docState.Stages[stg] = record
	}

	data, found, err := t.store.Get(ctx, lastKey(documentID))
	if err == nil && found {
		var last pipeline.LastUpdate
		if err := json.Unmarshal(data, &last); err == nil {
			docState.LastUpdate = &last
		}
	}
	return docState, nil
}

// StageStatus is a convenience accessor for one stage's status.
func (t *Tracker) StageStatus(ctx context.Context, documentID string, stg pipeline.Stage) (pipeline.Status, error) {
	data, found, err := t.store.Get(ctx, stageKey(documentID, stg))
	if err != nil {
		return "", fmt.Errorf("read stage record %s/%s: %w", documentID, stg, err)
	}
	if !found {
		return pipeline.StatusPending, nil
	}
	var record pipeline.StageRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("parse stage record %s/%s: %w", documentID, stg, err)
	}
	return record.Status, nil
}
