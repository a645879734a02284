package relations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/resolution"
	"docket/internal/services"
	"docket/internal/stage"
)

// Relationship is one weighted edge between two entities. SourceID always
// sorts before TargetID so the same pair never produces two edges.
type Relationship struct {
	SourceID string   `json:"source_id"`
	TargetID string   `json:"target_id"`
	Type     string   `json:"type"`
	Weight   int      `json:"weight"`
	ChunkIDs []string `json:"chunk_ids"`
}

// Result is the payload this stage emits.
type Result struct {
	Entities      []resolution.Entity `json:"entities"`
	Relationships []Relationship      `json:"relationships"`
}

// Builder is the relationship-building stage executor.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder constructs the relationship-building stage executor.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logging.NewComponentLogger(logger, "relations")}
}

func (b *Builder) Stage() pipeline.Stage {
	return pipeline.StageBuildRelationships
}

// Execute derives co-occurrence relationships from resolved entities. The
// entity list passes through unchanged so the finalize stage sees the whole
// graph in one payload.
func (b *Builder) Execute(ctx context.Context, req stage.Request) (*stage.Result, error) {
	logger := logging.WithContext(ctx, b.logger)

	var resolved resolution.Result
	if err := json.Unmarshal(req.Content, &resolved); err != nil {
		return nil, services.Wrap(services.ErrValidation, "build_relationships", "parse input",
			"resolution payload missing or invalid", err)
	}

	relationships := Build(resolved.Entities)

	payload, err := json.Marshal(Result{
		Entities:      resolved.Entities,
		Relationships: relationships,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal relationship result: %w", err)
	}

	logger.Info("relationships built",
		logging.Int("entities", len(resolved.Entities)),
		logging.Int("relationships", len(relationships)))

	return &stage.Result{
		Payload: payload,
		Summary: fmt.Sprintf("%d relationships among %d entities", len(relationships), len(resolved.Entities)),
	}, nil
}

// Build pairs up entities that share at least one chunk. Output order is
// deterministic: by source ID, then target ID.
func Build(entities []resolution.Entity) []Relationship {
	byChunk := make(map[string][]int)
	for i, entity := range entities {
		for _, chunkID := range entity.ChunkIDs {
			byChunk[chunkID] = append(byChunk[chunkID], i)
		}
	}

	type pairKey struct{ a, b int }
	shared := make(map[pairKey]map[string]struct{})
	for chunkID, members := range byChunk {
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if entities[a].ID > entities[b].ID {
					a, b = b, a
				}
				key := pairKey{a, b}
				if shared[key] == nil {
					shared[key] = make(map[string]struct{})
				}
				shared[key][chunkID] = struct{}{}
			}
		}
	}

	relationships := make([]Relationship, 0, len(shared))
	for key, chunkSet := range shared {
		chunkIDs := make([]string, 0, len(chunkSet))
		for chunkID := range chunkSet {
			chunkIDs = append(chunkIDs, chunkID)
		}
		sort.Strings(chunkIDs)
		relationships = append(relationships, Relationship{
			SourceID: entities[key.a].ID,
			TargetID: entities[key.b].ID,
			Type:     relationType(entities[key.a].Type, entities[key.b].Type),
			Weight:   len(chunkIDs),
			ChunkIDs: chunkIDs,
		})
	}
	sort.Slice(relationships, func(i, j int) bool {
		if relationships[i].SourceID != relationships[j].SourceID {
			return relationships[i].SourceID < relationships[j].SourceID
		}
		return relationships[i].TargetID < relationships[j].TargetID
	})
	return relationships
}

// relationType labels an edge by the entity types it connects, with the
// types in sorted order so person/organization and organization/person
// produce the same label.
func relationType(a, b string) string {
	if a > b {
		a, b = b, a
	}
	if a == b {
		return "co_mentioned_" + a
	}
	return "co_mentioned_" + a + "_" + b
}

func (b *Builder) Retryable(err error) bool {
	return services.Retryable(err)
}

func (b *Builder) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("relations")
}
