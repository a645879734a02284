package stage

import (
	"context"
	"encoding/json"

	"docket/internal/pipeline"
)

// Request carries one stage invocation. Content is the semantically relevant
// input the fingerprint is computed over; for every stage after OCR it is the
// previous stage's payload.
type Request struct {
	DocumentID string
	Stage      pipeline.Stage
	Content    []byte
	Attempt    int
}

// Result is the typed outcome of a successful stage execution. Payload feeds
// the next stage; Summary lands in state metadata for dashboards.
type Result struct {
	Payload   json.RawMessage
	Summary   string
	FromCache bool
}

// Executor is implemented once per pipeline stage. Execute returns a result
// or an error; Retryable classifies a failure as transient (retry with
// backoff) or terminal (fail the document).
type Executor interface {
	Stage() pipeline.Stage
	Execute(ctx context.Context, req Request) (*Result, error)
	Retryable(err error) bool
	HealthCheck(ctx context.Context) Health
}
