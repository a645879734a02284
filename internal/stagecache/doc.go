// Package stagecache is the idempotency layer: a content-hash check before
// compute wrapper around stage executors. Identical (stage, document,
// content, version) inputs invoke the executor at most once; cached results
// come back flagged from_cache. Concurrent identical computations are
// collapsed with singleflight.
package stagecache
