// Package pipeline defines the stage vocabulary and per-document state model
// shared by the orchestrator, the state tracker, and the CLI. It carries no
// behavior beyond ordering and validation; persistence lives in the state and
// docstore packages.
package pipeline
