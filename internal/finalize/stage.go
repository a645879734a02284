package finalize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"docket/internal/docstore"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/relations"
	"docket/internal/resolution"
	"docket/internal/services"
	"docket/internal/stage"
)

// TypeCount is one entity type's tally in the report.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Report is the payload this stage emits.
type Report struct {
	DocumentID    string      `json:"document_id"`
	Entities      int         `json:"entities"`
	Relationships int         `json:"relationships"`
	EntityTypes   []TypeCount `json:"entity_types"`
	TopEntities   []string    `json:"top_entities"`
	CompletedAt   time.Time   `json:"completed_at"`
}

// Finalizer is the finalize stage executor.
type Finalizer struct {
	store  *docstore.Store
	logger *slog.Logger
}

// NewFinalizer constructs the finalize stage executor.
func NewFinalizer(store *docstore.Store, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		store:  store,
		logger: logging.NewComponentLogger(logger, "finalize"),
	}
}

func (f *Finalizer) Stage() pipeline.Stage {
	return pipeline.StageFinalize
}

// Execute builds the document report from the relationship graph.
func (f *Finalizer) Execute(ctx context.Context, req stage.Request) (*stage.Result, error) {
	logger := logging.WithContext(ctx, f.logger)

	var graph relations.Result
	if err := json.Unmarshal(req.Content, &graph); err != nil {
		return nil, services.Wrap(services.ErrValidation, "finalize", "parse input",
			"relationship payload missing or invalid", err)
	}

	report := buildReport(req.DocumentID, &graph)

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	logger.Info("document finalized",
		logging.Int("entities", report.Entities),
		logging.Int("relationships", report.Relationships))

	return &stage.Result{
		Payload: payload,
		Summary: fmt.Sprintf("%d entities, %d relationships", report.Entities, report.Relationships),
	}, nil
}

// buildReport tallies the graph. Top entities rank by mention count, ties
// broken alphabetically, capped at ten.
func buildReport(documentID string, graph *relations.Result) *Report {
	typeCounts := make(map[string]int)
	for _, entity := range graph.Entities {
		typeCounts[entity.Type]++
	}
	types := make([]TypeCount, 0, len(typeCounts))
	for entityType, count := range typeCounts {
		types = append(types, TypeCount{Type: entityType, Count: count})
	}
	sortTypeCounts(types)

	ranked := make([]int, len(graph.Entities))
	for i := range ranked {
		ranked[i] = i
	}
	sortRanked(ranked, graph.Entities)

	limit := len(ranked)
	if limit > 10 {
		limit = 10
	}
	top := make([]string, 0, limit)
	for _, idx := range ranked[:limit] {
		top = append(top, graph.Entities[idx].Name)
	}

	return &Report{
		DocumentID:    documentID,
		Entities:      len(graph.Entities),
		Relationships: len(graph.Relationships),
		EntityTypes:   types,
		TopEntities:   top,
		CompletedAt:   time.Now().UTC(),
	}
}

func sortTypeCounts(types []TypeCount) {
	sort.Slice(types, func(i, j int) bool {
		if types[i].Count != types[j].Count {
			return types[i].Count > types[j].Count
		}
		return types[i].Type < types[j].Type
	})
}

func sortRanked(ranked []int, entities []resolution.Entity) {
	sort.Slice(ranked, func(i, j int) bool {
		a, b := entities[ranked[i]], entities[ranked[j]]
		if a.Mentions != b.Mentions {
			return a.Mentions > b.Mentions
		}
		return a.Name < b.Name
	})
}

func (f *Finalizer) Retryable(err error) bool {
	return services.Retryable(err)
}

func (f *Finalizer) HealthCheck(ctx context.Context) stage.Health {
	if f.store == nil {
		return stage.Unhealthy("finalize", "document store not configured")
	}
	if _, err := f.store.Health(ctx); err != nil {
		return stage.Unhealthy("finalize", err.Error())
	}
	return stage.Healthy("finalize")
}
