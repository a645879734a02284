package resolution

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"docket/internal/extraction"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
	"docket/internal/stage"
	"docket/internal/textutil"
)

// entityNamespace seeds deterministic entity identifiers.
var entityNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Entity is one canonical entity with every surface form that resolved to it.
type Entity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Aliases  []string `json:"aliases,omitempty"`
	Mentions int      `json:"mentions"`
	ChunkIDs []string `json:"chunk_ids"`
}

// Result is the payload this stage emits.
type Result struct {
	Entities []Entity `json:"entities"`
}

// Resolver is the entity-resolution stage executor.
type Resolver struct {
	threshold float64
	logger    *slog.Logger
}

// NewResolver constructs the resolution stage executor. threshold is the
// minimum cosine similarity for two normalized names to merge.
func NewResolver(threshold float64, logger *slog.Logger) *Resolver {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.82
	}
	return &Resolver{
		threshold: threshold,
		logger:    logging.NewComponentLogger(logger, "resolution"),
	}
}

func (r *Resolver) Stage() pipeline.Stage {
	return pipeline.StageResolveEntities
}

// Execute collapses extracted mentions into canonical entities.
func (r *Resolver) Execute(ctx context.Context, req stage.Request) (*stage.Result, error) {
	logger := logging.WithContext(ctx, r.logger)

	var extracted extraction.Result
	if err := json.Unmarshal(req.Content, &extracted); err != nil {
		return nil, services.Wrap(services.ErrValidation, "resolve_entities", "parse input",
			"extraction payload missing or invalid", err)
	}

	entities := r.Resolve(extracted.Mentions)

	payload, err := json.Marshal(Result{Entities: entities})
	if err != nil {
		return nil, fmt.Errorf("marshal resolution result: %w", err)
	}

	logger.Info("entities resolved",
		logging.Int("mentions", len(extracted.Mentions)),
		logging.Int("entities", len(entities)))

	return &stage.Result{
		Payload: payload,
		Summary: fmt.Sprintf("%d entities from %d mentions", len(entities), len(extracted.Mentions)),
	}, nil
}

// cluster accumulates mentions resolving to one entity.
type cluster struct {
	normalized  string
	entityType  string
	fingerprint *textutil.Fingerprint
	surfaces    map[string]int
	chunkIDs    map[string]struct{}
	mentions    int
}

// Resolve groups mentions by normalized name within a type, then merges
// clusters whose names are near-duplicates. Output order is deterministic:
// by type, then canonical name.
func (r *Resolver) Resolve(mentions []extraction.Mention) []Entity {
	byKey := make(map[string]*cluster)
	var order []string
	for _, mention := range mentions {
		normalized := textutil.NormalizeEntityName(mention.Text)
		if normalized == "" {
			continue
		}
		key := mention.Type + "\x00" + normalized
		group, ok := byKey[key]
		if !ok {
			group = &cluster{
				normalized:  normalized,
				entityType:  mention.Type,
				fingerprint: textutil.NewFingerprint(normalized),
				surfaces:    make(map[string]int),
				chunkIDs:    make(map[string]struct{}),
			}
			byKey[key] = group
			order = append(order, key)
		}
		group.surfaces[mention.Text]++
		group.chunkIDs[mention.ChunkID] = struct{}{}
		group.mentions++
	}

	clusters := make([]*cluster, 0, len(byKey))
	sort.Strings(order)
	for _, key := range order {
		clusters = append(clusters, byKey[key])
	}
	clusters = r.mergeSimilar(clusters)

	entities := make([]Entity, 0, len(clusters))
	for _, group := range clusters {
		entities = append(entities, group.toEntity())
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Type != entities[j].Type {
			return entities[i].Type < entities[j].Type
		}
		return entities[i].Name < entities[j].Name
	})
	return entities
}

// mergeSimilar folds each cluster into an earlier same-type cluster when
// their normalized names are similar enough. Earlier clusters absorb later
// ones, so merge results do not depend on map iteration order.
func (r *Resolver) mergeSimilar(clusters []*cluster) []*cluster {
	merged := make([]*cluster, 0, len(clusters))
	for _, candidate := range clusters {
		var target *cluster
		for _, existing := range merged {
			if existing.entityType != candidate.entityType {
				continue
			}
			if textutil.CosineSimilarity(existing.fingerprint, candidate.fingerprint) >= r.threshold {
				target = existing
				break
			}
		}
		if target == nil {
			merged = append(merged, candidate)
			continue
		}
		target.absorb(candidate)
	}
	return merged
}

func (c *cluster) absorb(other *cluster) {
	for surface, count := range other.surfaces {
		c.surfaces[surface] += count
	}
	for chunkID := range other.chunkIDs {
		c.chunkIDs[chunkID] = struct{}{}
	}
	c.mentions += other.mentions
	// The shorter normalized form wins as canonical; it is usually the
	// name with suffixes and honorifics already absent.
	if len(other.normalized) < len(c.normalized) {
		c.normalized = other.normalized
		c.fingerprint = textutil.NewFingerprint(other.normalized)
	}
}

func (c *cluster) toEntity() Entity {
	name, aliases := c.canonicalName()
	chunkIDs := make([]string, 0, len(c.chunkIDs))
	for chunkID := range c.chunkIDs {
		if chunkID != "" {
			chunkIDs = append(chunkIDs, chunkID)
		}
	}
	sort.Strings(chunkIDs)
	return Entity{
		ID:       uuid.NewSHA1(entityNamespace, []byte(c.entityType+":"+c.normalized)).String(),
		Name:     name,
		Type:     c.entityType,
		Aliases:  aliases,
		Mentions: c.mentions,
		ChunkIDs: chunkIDs,
	}
}

// canonicalName picks the most frequent surface form as the display name,
// breaking ties alphabetically; the rest become aliases.
func (c *cluster) canonicalName() (string, []string) {
	surfaces := make([]string, 0, len(c.surfaces))
	for surface := range c.surfaces {
		surfaces = append(surfaces, surface)
	}
	sort.Slice(surfaces, func(i, j int) bool {
		if c.surfaces[surfaces[i]] != c.surfaces[surfaces[j]] {
			return c.surfaces[surfaces[i]] > c.surfaces[surfaces[j]]
		}
		return surfaces[i] < surfaces[j]
	})
	name := strings.TrimSpace(surfaces[0])
	var aliases []string
	for _, surface := range surfaces[1:] {
		if trimmed := strings.TrimSpace(surface); trimmed != "" && trimmed != name {
			aliases = append(aliases, trimmed)
		}
	}
	return name, aliases
}

func (r *Resolver) Retryable(err error) bool {
	return services.Retryable(err)
}

func (r *Resolver) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("resolution")
}
