// Package lock provides the advisory lock primitive the orchestrator uses to
// enforce at most one in-flight attempt per (document, stage). Locks carry a
// TTL so a crashed holder cannot wedge a document, and release is idempotent:
// releasing a lease that already expired or was taken over is a no-op.
package lock
