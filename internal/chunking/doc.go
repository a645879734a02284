// Package chunking splits recognized document text into bounded, overlapping
// chunks for entity extraction. Chunk identifiers are content-derived so the
// same text always chunks the same way regardless of which document or
// attempt produced it.
package chunking
