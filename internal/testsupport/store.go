package testsupport

import (
	"context"
	"testing"

	"photoscan/internal/config"
	"photoscan/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// CommitPhoto persists a minimal enrichment result for tests.
func CommitPhoto(t testing.TB, s *store.Store, path, hash, model string) int64 {
	t.Helper()

	id, err := s.CommitEnrichment(context.Background(), store.EnrichmentCommit{
		Filepath:    path,
		ContentHash: hash,
		FileSize:    1,
		Description: "test photo",
		AIModel:     model,
	})
	if err != nil {
		t.Fatalf("CommitEnrichment: %v", err)
	}
	return id
}
