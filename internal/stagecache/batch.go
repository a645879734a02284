package stagecache

import (
	"context"
	"encoding/json"
	"fmt"

	"docket/internal/fingerprint"
	"docket/internal/logging"
	"docket/internal/pipeline"
	"docket/internal/services"
	"docket/internal/stage"
)

// BatchResult is one item's outcome from a batched computation.
type BatchResult struct {
	Payload   json.RawMessage
	FromCache bool
}

// BatchComputeFunc processes only the items that missed the cache, in the
// order given, and must return exactly one payload per input item.
type BatchComputeFunc func(ctx context.Context, missing [][]byte) ([]json.RawMessage, error)

// DoBatch partitions items into cached and needs-compute, invokes compute on
// the needs-compute subset only, and merges results preserving input order.
// Duplicate contents within a batch are computed once. A failed computation
// caches nothing.
func (m *Memoizer) DoBatch(ctx context.Context, stg pipeline.Stage, documentID string, items [][]byte, compute BatchComputeFunc) ([]BatchResult, error) {
	results := make([]BatchResult, len(items))
	keys := make([]string, len(items))

	// Partition. Items sharing a hash share one cache slot and one compute.
	missingOrder := make([]string, 0, len(items))
	missingContent := make([][]byte, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		normalized := fingerprint.Normalize(item)
		key := fingerprint.Key(string(stg), documentID, m.version, normalized)
		keys[i] = key
		if result, ok := m.lookup(ctx, key); ok {
			results[i] = BatchResult{Payload: result.Payload, FromCache: true}
			continue
		}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			missingOrder = append(missingOrder, key)
			missingContent = append(missingContent, normalized)
		}
	}

	if len(missingContent) == 0 {
		return results, nil
	}

	payloads, err := compute(ctx, missingContent)
	if err != nil {
		return nil, err
	}
	if len(payloads) != len(missingContent) {
		return nil, services.Wrap(services.ErrValidation, string(stg), "batch compute",
			fmt.Sprintf("expected %d results, got %d", len(missingContent), len(payloads)), nil)
	}

	computed := make(map[string]json.RawMessage, len(payloads))
	for i, key := range missingOrder {
		computed[key] = payloads[i]
		m.save(ctx, key, &stage.Result{Payload: payloads[i]})
	}

	for i := range items {
		if results[i].Payload != nil || results[i].FromCache {
			continue
		}
		payload, ok := computed[keys[i]]
		if !ok {
			return nil, services.Wrap(services.ErrValidation, string(stg), "batch merge",
				"computed result missing for item", nil)
		}
		results[i] = BatchResult{Payload: payload}
	}

	m.logger.Debug("batch computed",
		logging.String(logging.FieldStage, string(stg)),
		logging.String(logging.FieldDocumentID, documentID),
		logging.Int("items", len(items)),
		logging.Int("computed", len(missingContent)))

	return results, nil
}
