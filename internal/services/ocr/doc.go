// Package ocr wraps the HTTP document-recognition service. The client is a
// single-shot caller: it maps HTTP failures onto the shared error markers and
// leaves retry scheduling to the orchestrator.
package ocr
