// Package resolution runs the entity-resolution stage: raw mentions from
// extraction collapse into canonical entities. Exact matches on normalized
// names merge first, then near-duplicates merge by token-vector similarity,
// so "Acme Holdings LLC" and "Acme Holdings, L.L.C." resolve to one entity.
//
// Resolution is deterministic. Entity identifiers derive from the canonical
// name and type, so reprocessing a document yields the same entity IDs.
package resolution
