// Package finalize runs the last pipeline stage: it distills the
// relationship graph into a document report and records the counts a status
// query surfaces without loading the full graph.
package finalize
