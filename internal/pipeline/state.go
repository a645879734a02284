package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Metadata keys the orchestrator and tracker agree on.
const (
	MetaError      = "error"
	MetaErrorType  = "error_type"
	MetaRetryCount = "retry_count"
	MetaFromCache  = "from_cache"
	MetaSummary    = "summary"
	MetaHeartbeat  = "heartbeat"
)

// StageRecord captures the latest attempt of one stage for one document.
type StageRecord struct {
	Status    Status         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Validate enforces the record invariants: a known status, and error metadata
// on failed/retrying records.
func (r StageRecord) Validate() error {
	if _, ok := statusSet[r.Status]; !ok {
		return fmt.Errorf("unknown stage status %q", r.Status)
	}
	if r.Status.RequiresError() {
		msg, _ := r.Metadata[MetaError].(string)
		if strings.TrimSpace(msg) == "" {
			return fmt.Errorf("status %s requires non-empty %s metadata", r.Status, MetaError)
		}
	}
	return nil
}

// ErrorMessage returns the error metadata entry, if any.
func (r StageRecord) ErrorMessage() string {
	msg, _ := r.Metadata[MetaError].(string)
	return msg
}

// LastUpdate is a denormalized pointer to the most recently touched stage,
// kept so dashboards can answer "where is this document" with one read.
type LastUpdate struct {
	Stage     Stage     `json:"stage"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentState is the assembled per-document view over all stage records.
type DocumentState struct {
	DocumentID string                `json:"document_id"`
	Stages     map[Stage]StageRecord `json:"stages"`
	LastUpdate *LastUpdate           `json:"last_update,omitempty"`
}

// NewDocumentState returns a default state with every stage pending. Unknown
// documents always resolve to this shape rather than an error.
func NewDocumentState(documentID string) *DocumentState {
	stages := make(map[Stage]StageRecord, len(stageOrder))
	for _, stage := range stageOrder {
		stages[stage] = StageRecord{Status: StatusPending}
	}
	return &DocumentState{DocumentID: documentID, Stages: stages}
}

// Record returns the stage record, defaulting to pending when absent.
func (s *DocumentState) Record(stage Stage) StageRecord {
	if s == nil || s.Stages == nil {
		return StageRecord{Status: StatusPending}
	}
	record, ok := s.Stages[stage]
	if !ok {
		return StageRecord{Status: StatusPending}
	}
	return record
}

// Completed reports whether the document finished the whole pipeline.
func (s *DocumentState) Completed() bool {
	return s.Record(LastStage()).Status == StatusCompleted
}

// FirstFailed returns the earliest stage currently in failed status.
func (s *DocumentState) FirstFailed() (Stage, bool) {
	for _, stage := range stageOrder {
		if s.Record(stage).Status == StatusFailed {
			return stage, true
		}
	}
	return "", false
}

// ErrUnknownStage is returned when callers name a stage outside the pipeline.
var ErrUnknownStage = errors.New("unknown pipeline stage")
