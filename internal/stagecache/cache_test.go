package stagecache_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"docket/internal/kv"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/stage"
	"docket/internal/stagecache"
)

func newMemoizer(t *testing.T, version int) *stagecache.Memoizer {
	t.Helper()
	return stagecache.New(kv.NewMemoryStore(), version, time.Hour, logging.NewNop())
}

func TestDoComputesOnceThenServesFromCache(t *testing.T) {
	memoizer := newMemoizer(t, 1)
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context, content []byte) (*stage.Result, error) {
		calls++
		return &stage.Result{Payload: json.RawMessage(`{"ok":true}`), Summary: "done"}, nil
	}

	first, err := memoizer.Do(ctx, pipeline.StageOCR, "doc-1", []byte("content"), compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if first.FromCache {
		t.Fatal("first computation must not report from-cache")
	}

	second, err := memoizer.Do(ctx, pipeline.StageOCR, "doc-1", []byte("content"), compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second call must hit the cache")
	}
	if string(second.Payload) != `{"ok":true}` || second.Summary != "done" {
		t.Fatalf("cached result mismatch: %+v", second)
	}
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}
}

func TestDoIsSensitiveToContentStageAndDocument(t *testing.T) {
	memoizer := newMemoizer(t, 1)
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context, content []byte) (*stage.Result, error) {
		calls++
		return &stage.Result{Payload: json.RawMessage(`{}`)}, nil
	}

	variants := []struct {
		stg     pipeline.Stage
		doc     string
		content string
	}{
		{pipeline.StageOCR, "doc-1", "alpha"},
		{pipeline.StageOCR, "doc-1", "beta"},
		{pipeline.StageOCR, "doc-2", "alpha"},
		{pipeline.StageChunk, "doc-1", "alpha"},
	}
	for _, v := range variants {
		if _, err := memoizer.Do(ctx, v.stg, v.doc, []byte(v.content), compute); err != nil {
			t.Fatalf("Do(%v): %v", v, err)
		}
	}
	if calls != len(variants) {
		t.Fatalf("expected %d distinct computations, got %d", len(variants), calls)
	}
}

func TestVersionBumpInvalidatesCache(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context, content []byte) (*stage.Result, error) {
		calls++
		return &stage.Result{Payload: json.RawMessage(`{}`)}, nil
	}

	v1 := stagecache.New(store, 1, time.Hour, logging.NewNop())
	if _, err := v1.Do(ctx, pipeline.StageOCR, "doc-1", []byte("content"), compute); err != nil {
		t.Fatalf("Do v1: %v", err)
	}

	v2 := stagecache.New(store, 2, time.Hour, logging.NewNop())
	if _, err := v2.Do(ctx, pipeline.StageOCR, "doc-1", []byte("content"), compute); err != nil {
		t.Fatalf("Do v2: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected version bump to force recomputation, got %d calls", calls)
	}
}

func TestDoDoesNotCacheFailures(t *testing.T) {
	memoizer := newMemoizer(t, 1)
	ctx := context.Background()

	calls := 0
	boom := errors.New("boom")
	failing := func(ctx context.Context, content []byte) (*stage.Result, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &stage.Result{Payload: json.RawMessage(`{}`)}, nil
	}

	if _, err := memoizer.Do(ctx, pipeline.StageOCR, "doc-1", []byte("x"), failing); !errors.Is(err, boom) {
		t.Fatalf("expected compute error surfaced, got %v", err)
	}
	result, err := memoizer.Do(ctx, pipeline.StageOCR, "doc-1", []byte("x"), failing)
	if err != nil {
		t.Fatalf("Do after failure: %v", err)
	}
	if result.FromCache {
		t.Fatal("failure must not have been cached")
	}
	if calls != 2 {
		t.Fatalf("expected recomputation after failure, got %d calls", calls)
	}
}

func TestDoNormalizesEmptyContent(t *testing.T) {
	memoizer := newMemoizer(t, 1)
	ctx := context.Background()

	calls := 0
	compute := func(ctx context.Context, content []byte) (*stage.Result, error) {
		calls++
		return &stage.Result{Payload: json.RawMessage(`{}`)}, nil
	}

	if _, err := memoizer.Do(ctx, pipeline.StageOCR, "doc-1", nil, compute); err != nil {
		t.Fatalf("Do: %v", err)
	}
	result, err := memoizer.Do(ctx, pipeline.StageOCR, "doc-1", []byte("   "), compute)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !result.FromCache || calls != 1 {
		t.Fatalf("expected empty inputs to share one cache entry: fromCache=%v calls=%d", result.FromCache, calls)
	}
}

func TestDoBatchComputesOnlyMisses(t *testing.T) {
	memoizer := newMemoizer(t, 1)
	ctx := context.Background()

	items := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	var computedCounts []int
	compute := func(ctx context.Context, missing [][]byte) ([]json.RawMessage, error) {
		computedCounts = append(computedCounts, len(missing))
		payloads := make([]json.RawMessage, len(missing))
		for i, item := range missing {
			payloads[i] = json.RawMessage(fmt.Sprintf("%q", string(item)))
		}
		return payloads, nil
	}

	// Warm one item through the single-item path so the batch sees a hit.
	if _, err := memoizer.DoBatch(ctx, pipeline.StageExtractEntities, "doc-1", items[:1], compute); err != nil {
		t.Fatalf("warm DoBatch: %v", err)
	}

	results, err := memoizer.DoBatch(ctx, pipeline.StageExtractEntities, "doc-1", items, compute)
	if err != nil {
		t.Fatalf("DoBatch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].FromCache || results[1].FromCache || results[2].FromCache {
		t.Fatalf("unexpected cache flags: %+v", results)
	}
	for i, item := range items {
		if string(results[i].Payload) != fmt.Sprintf("%q", string(item)) {
			t.Fatalf("result %d out of order: %s", i, results[i].Payload)
		}
	}
	if len(computedCounts) != 2 || computedCounts[0] != 1 || computedCounts[1] != 2 {
		t.Fatalf("unexpected compute batch sizes: %v", computedCounts)
	}
}

func TestDoBatchDeduplicatesIdenticalItems(t *testing.T) {
	memoizer := newMemoizer(t, 1)
	ctx := context.Background()

	items := [][]byte{[]byte("same"), []byte("same"), []byte("other")}
	compute := func(ctx context.Context, missing [][]byte) ([]json.RawMessage, error) {
		if len(missing) != 2 {
			t.Fatalf("expected duplicates collapsed to 2 computations, got %d", len(missing))
		}
		payloads := make([]json.RawMessage, len(missing))
		for i, item := range missing {
			payloads[i] = json.RawMessage(fmt.Sprintf("%q", string(item)))
		}
		return payloads, nil
	}

	results, err := memoizer.DoBatch(ctx, pipeline.StageExtractEntities, "doc-1", items, compute)
	if err != nil {
		t.Fatalf("DoBatch: %v", err)
	}
	if string(results[0].Payload) != string(results[1].Payload) {
		t.Fatal("duplicate items must share a payload")
	}
}

func TestDoBatchRejectsShortComputeResults(t *testing.T) {
	memoizer := newMemoizer(t, 1)
	compute := func(ctx context.Context, missing [][]byte) ([]json.RawMessage, error) {
		return nil, nil
	}
	_, err := memoizer.DoBatch(context.Background(), pipeline.StageExtractEntities, "doc-1",
		[][]byte{[]byte("a")}, compute)
	if err == nil {
		t.Fatal("expected error for mismatched compute result count")
	}
}
