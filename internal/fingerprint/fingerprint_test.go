package fingerprint_test

import (
	"strings"
	"testing"

	"docket/internal/fingerprint"
)

func TestNormalizeSubstitutesPlaceholderForEmptyContent(t *testing.T) {
	for _, content := range [][]byte{nil, {}, []byte("   \n\t ")} {
		got := fingerprint.Normalize(content)
		if string(got) != fingerprint.EmptyPlaceholder {
			t.Fatalf("expected placeholder for %q, got %q", content, got)
		}
	}
	if got := fingerprint.Normalize([]byte("text")); string(got) != "text" {
		t.Fatalf("expected non-empty content unchanged, got %q", got)
	}
}

func TestContentIsDeterministic(t *testing.T) {
	a := fingerprint.Content([]byte("same bytes"))
	b := fingerprint.Content([]byte("same bytes"))
	if a != b {
		t.Fatalf("same content produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 digest, got %q", a)
	}
	if c := fingerprint.Content([]byte("other bytes")); c == a {
		t.Fatal("different content produced the same digest")
	}
}

func TestEmptyContentSharesOneFingerprint(t *testing.T) {
	if fingerprint.Content(nil) != fingerprint.Content([]byte("  ")) {
		t.Fatal("expected all empty inputs to share the placeholder digest")
	}
}

func TestKeyLayout(t *testing.T) {
	key := fingerprint.Key("ocr", "doc-1", 3, []byte("content"))
	if !strings.HasPrefix(key, "ocr:doc-1:v3:") {
		t.Fatalf("unexpected key prefix: %s", key)
	}
	if key == fingerprint.Key("ocr", "doc-1", 4, []byte("content")) {
		t.Fatal("expected version bump to change the key")
	}
	if key == fingerprint.Key("ocr", "doc-1", 3, []byte("changed")) {
		t.Fatal("expected content change to change the key")
	}
	if key == fingerprint.Key("chunk", "doc-1", 3, []byte("content")) {
		t.Fatal("expected stage change to change the key")
	}
}
