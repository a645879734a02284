package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// EmptyPlaceholder is substituted for empty or whitespace-only content so a
// zero-length input still yields a valid, deterministic fingerprint. The
// substitution also flows through to the executor unchanged.
const EmptyPlaceholder = "[empty-content]"

// Normalize returns the content that is both hashed and handed to executors.
func Normalize(content []byte) []byte {
	if len(strings.TrimSpace(string(content))) == 0 {
		return []byte(EmptyPlaceholder)
	}
	return content
}

// Content returns the hex SHA-256 digest of the normalized content.
func Content(content []byte) string {
	sum := sha256.Sum256(Normalize(content))
	return hex.EncodeToString(sum[:])
}

// Key builds the cache key for a stage result:
// {stage}:{document_id}:v{version}:{content_hash}. Results are scoped to a
// document; identical content in two documents occupies two cache slots.
func Key(stage, documentID string, version int, content []byte) string {
	return fmt.Sprintf("%s:%s:v%d:%s", stage, documentID, version, Content(content))
}
