package testsupport

import (
	"context"
	"testing"

	"docket/internal/config"
	"docket/internal/docstore"
)

// MustOpenStore opens a docstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(cfg)
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustInsertDocument creates a pending document record for tests.
func MustInsertDocument(t testing.TB, store *docstore.Store, id, title string) *docstore.Document {
	t.Helper()

	doc := &docstore.Document{ID: id, Title: title}
	if err := store.Insert(context.Background(), doc); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return doc
}
