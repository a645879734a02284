package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docket/internal/config"
	"docket/internal/docstore"
	"docket/internal/fingerprint"
	"docket/internal/lock"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
	"docket/internal/stage"
	"docket/internal/stagecache"
	"docket/internal/state"
)

// sourceArtifactStage is the pseudo-stage under which the submitted raw
// document bytes are persisted.
const sourceArtifactStage = "source"

// Manager coordinates document processing using registered stage executors.
type Manager struct {
	cfg       *config.Config
	store     *docstore.Store
	tracker   *state.Tracker
	memoizer  *stagecache.Memoizer
	locker    lock.Locker
	executors map[pipeline.Stage]stage.Executor
	logger    *slog.Logger

	pollInterval time.Duration
	stageTimeout time.Duration
	lockTTL      time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a workflow manager. Every pipeline stage must have
// exactly one registered executor; the run loop refuses to start otherwise.
func NewManager(
	cfg *config.Config,
	store *docstore.Store,
	tracker *state.Tracker,
	memoizer *stagecache.Memoizer,
	locker lock.Locker,
	executors []stage.Executor,
	logger *slog.Logger,
) *Manager {
	registered := make(map[pipeline.Stage]stage.Executor, len(executors))
	for _, exec := range executors {
		if exec != nil {
			registered[exec.Stage()] = exec
		}
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		tracker:      tracker,
		memoizer:     memoizer,
		locker:       locker,
		executors:    registered,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: time.Duration(cfg.Pipeline.PollIntervalSeconds) * time.Second,
		stageTimeout: time.Duration(cfg.Pipeline.StageTimeoutSeconds) * time.Second,
		lockTTL:      time.Duration(cfg.Pipeline.LockTTLSeconds) * time.Second,
	}
}

// Submit registers a document for processing: a durable record, the raw
// bytes as the source artifact, and an all-pending state. An empty
// documentID gets a generated one; a caller-supplied ID must be unused.
// Returns the document ID.
func (m *Manager) Submit(ctx context.Context, documentID, title, sourcePath string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", services.Wrap(services.ErrValidation, "", "submit", "document content is empty", nil)
	}
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		documentID = uuid.NewString()
	} else {
		existing, err := m.store.Get(ctx, documentID)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return "", services.Wrap(services.ErrValidation, "", "submit",
				fmt.Sprintf("document %s already exists", documentID), nil)
		}
	}
	if strings.TrimSpace(title) == "" {
		title = documentID
	}

	doc := &docstore.Document{
		ID:         documentID,
		Title:      title,
		SourcePath: sourcePath,
		Status:     docstore.StatusPending,
	}
	if err := m.store.Insert(ctx, doc); err != nil {
		return "", fmt.Errorf("submit document: %w", err)
	}
	if err := m.store.SaveArtifact(ctx, &docstore.Artifact{
		DocumentID:  documentID,
		Stage:       sourceArtifactStage,
		Fingerprint: fingerprint.Content(content),
		Payload:     content,
	}); err != nil {
		return "", fmt.Errorf("persist source artifact: %w", err)
	}
	if err := m.tracker.Update(ctx, documentID, pipeline.FirstStage(), pipeline.StatusPending, nil); err != nil {
		return "", fmt.Errorf("initialize document state: %w", err)
	}

	m.logger.Info("document submitted",
		logging.String(logging.FieldDocumentID, documentID),
		logging.String("title", title),
		logging.Int("content_bytes", len(content)))
	return documentID, nil
}

// DocumentStatus combines the durable document record with its per-stage
// pipeline state.
type DocumentStatus struct {
	Document *docstore.Document
	State    *pipeline.DocumentState
}

// Status returns the current state of a document.
func (m *Manager) Status(ctx context.Context, documentID string) (*DocumentStatus, error) {
	doc, err := m.store.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, services.Wrap(services.ErrNotFound, "", "status", fmt.Sprintf("document %s", documentID), nil)
	}
	docState, err := m.tracker.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentStatus{Document: doc, State: docState}, nil
}

// Retry resets a failed document so processing resumes from the given stage.
// The stage and everything after it return to pending; completed work before
// it is kept.
func (m *Manager) Retry(ctx context.Context, documentID string, from pipeline.Stage) error {
	if _, ok := pipeline.ParseStage(string(from)); !ok {
		return fmt.Errorf("%w: %s", pipeline.ErrUnknownStage, from)
	}
	doc, err := m.store.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return services.Wrap(services.ErrNotFound, "", "retry", fmt.Sprintf("document %s", documentID), nil)
	}

	for _, stg := range pipeline.Stages() {
		if stg.Before(from) {
			continue
		}
		if err := m.tracker.Update(ctx, documentID, stg, pipeline.StatusPending, nil); err != nil {
			return fmt.Errorf("reset stage %s: %w", stg, err)
		}
	}
	if err := m.store.UpdateStatus(ctx, documentID, docstore.StatusPending, ""); err != nil {
		return err
	}

	m.logger.Info("document queued for retry",
		logging.String(logging.FieldDocumentID, documentID),
		logging.String(logging.FieldStage, string(from)))
	return nil
}

// Health reports per-executor readiness plus a document store check, sorted
// by name for stable output.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(m.executors)+1)
	for _, exec := range m.executors {
		checks = append(checks, exec.HealthCheck(ctx))
	}
	if _, err := m.store.Health(ctx); err != nil {
		checks = append(checks, stage.Unhealthy("docstore", err.Error()))
	} else {
		checks = append(checks, stage.Healthy("docstore"))
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return checks
}

// missingExecutors returns the pipeline stages with no registered executor.
func (m *Manager) missingExecutors() []pipeline.Stage {
	var missing []pipeline.Stage
	for _, stg := range pipeline.Stages() {
		if _, ok := m.executors[stg]; !ok {
			missing = append(missing, stg)
		}
	}
	return missing
}
