// Package textutil provides text normalization and similarity primitives
// used by entity resolution: token fingerprints, cosine similarity, and
// legal-name cleanup.
package textutil
