// Package fingerprint computes the deterministic content hashes and cache key
// names used by the idempotency layer. The key layout
// {stage}:{document_id}:v{version}:{hash} is shared with external monitoring
// tools and must stay stable.
package fingerprint
