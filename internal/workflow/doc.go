// Package workflow orchestrates the document pipeline: it walks each
// document through the stage sequence, memoizing stage results, recording
// progress in the state tracker, and persisting payloads as artifacts.
//
// Concurrency rules:
//   - At most one worker runs a given (document, stage) at a time, enforced
//     by an advisory lock with a TTL. Lock contention is not an error; the
//     loser backs off and the document is retried later.
//   - Retry classification happens here and only here. Stage executors
//     return typed errors; the manager decides whether to back off and
//     retry or to fail the document.
//   - A completed stage is never re-executed. Resuming a document replays
//     persisted artifacts up to the first unfinished stage.
package workflow
