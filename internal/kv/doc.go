// Package kv abstracts the key-value store used for memoized stage results,
// tracker state, and ephemeral coordination data. The Redis implementation is
// the production path; the memory implementation backs tests and single
// process runs without Redis.
//
// The cache is an optimization, never a correctness requirement: callers must
// treat every error as a miss and recompute.
package kv
