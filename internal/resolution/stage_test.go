package resolution_test

import (
	"encoding/json"
	"errors"
	"testing"

	"docket/internal/extraction"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/resolution"
	"docket/internal/services"
	"docket/internal/stage"
)

func newResolver() *resolution.Resolver {
	return resolution.NewResolver(0.82, logging.NewNop())
}

func TestResolveMergesSuffixVariants(t *testing.T) {
	resolver := newResolver()

	entities := resolver.Resolve([]extraction.Mention{
		{Text: "Acme Holdings LLC", Type: "organization", ChunkID: "c1", Confidence: 0.9},
		{Text: "Acme Holdings, L.L.C.", Type: "organization", ChunkID: "c2", Confidence: 0.8},
		{Text: "Acme Holdings LLC", Type: "organization", ChunkID: "c3", Confidence: 0.9},
	})
	if len(entities) != 1 {
		t.Fatalf("expected one merged entity, got %d: %+v", len(entities), entities)
	}
	entity := entities[0]
	if entity.Mentions != 3 {
		t.Fatalf("expected 3 mentions, got %d", entity.Mentions)
	}
	if entity.Name != "Acme Holdings LLC" {
		t.Fatalf("expected most frequent surface as name, got %q", entity.Name)
	}
	if len(entity.Aliases) != 1 || entity.Aliases[0] != "Acme Holdings, L.L.C." {
		t.Fatalf("unexpected aliases: %v", entity.Aliases)
	}
	if len(entity.ChunkIDs) != 3 {
		t.Fatalf("expected 3 chunk ids, got %v", entity.ChunkIDs)
	}
}

func TestResolveMergesNearDuplicateNames(t *testing.T) {
	resolver := newResolver()

	entities := resolver.Resolve([]extraction.Mention{
		{Text: "First National Bank of Springfield", Type: "organization", ChunkID: "c1"},
		{Text: "First National Bank Springfield", Type: "organization", ChunkID: "c2"},
	})
	if len(entities) != 1 {
		t.Fatalf("expected near-duplicates merged, got %d entities", len(entities))
	}
}

func TestResolveKeepsTypesSeparate(t *testing.T) {
	resolver := newResolver()

	entities := resolver.Resolve([]extraction.Mention{
		{Text: "Springfield", Type: "location", ChunkID: "c1"},
		{Text: "Springfield", Type: "organization", ChunkID: "c1"},
	})
	if len(entities) != 2 {
		t.Fatalf("expected same name with different types to stay apart, got %d", len(entities))
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	resolver := newResolver()
	mentions := []extraction.Mention{
		{Text: "Jane Doe", Type: "person", ChunkID: "c1"},
		{Text: "Acme Holdings LLC", Type: "organization", ChunkID: "c1"},
		{Text: "Mr. John Smith", Type: "person", ChunkID: "c2"},
	}

	first := resolver.Resolve(mentions)
	second := resolver.Resolve(mentions)
	if len(first) != len(second) {
		t.Fatalf("nondeterministic entity count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Name != second[i].Name {
			t.Fatalf("entity %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestResolveEntityIDsAreStableAcrossDocuments(t *testing.T) {
	resolver := newResolver()

	a := resolver.Resolve([]extraction.Mention{{Text: "Acme Holdings LLC", Type: "organization", ChunkID: "x"}})
	b := resolver.Resolve([]extraction.Mention{{Text: "Acme Holdings, L.L.C.", Type: "organization", ChunkID: "y"}})
	if a[0].ID != b[0].ID {
		t.Fatalf("expected equivalent names to share an id: %s vs %s", a[0].ID, b[0].ID)
	}
}

func TestExecuteRoundTrip(t *testing.T) {
	resolver := newResolver()

	payload, err := json.Marshal(extraction.Result{Mentions: []extraction.Mention{
		{Text: "Jane Doe", Type: "person", ChunkID: "c1", Confidence: 0.9},
	}})
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}

	result, err := resolver.Execute(t.Context(), stage.Request{
		DocumentID: "doc-1",
		Stage:      pipeline.StageResolveEntities,
		Content:    payload,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var resolved resolution.Result
	if err := json.Unmarshal(result.Payload, &resolved); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(resolved.Entities) != 1 || resolved.Entities[0].Name != "Jane Doe" {
		t.Fatalf("unexpected entities: %+v", resolved.Entities)
	}
}

func TestExecuteRejectsBadInput(t *testing.T) {
	resolver := newResolver()
	if _, err := resolver.Execute(t.Context(), stage.Request{Content: []byte("nope")}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
