// Package extraction runs the entity-extraction stage. Chunks of document
// text go to the language model with a legal-entity prompt; the mentions that
// come back carry the chunk they were found in so later stages can trace
// entities to their source text.
//
// Chunk results are memoized individually: when a document is reprocessed,
// only chunks whose text changed are sent to the model again.
package extraction
