package store_test

import (
	"context"
	"testing"

	"photoscan/internal/store"
	"photoscan/internal/testsupport"
)

func TestNextUnknownIndexDerivedFromTable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	n, err := s.NextUnknownIndex(ctx, store.EntityPerson)
	if err != nil {
		t.Fatalf("NextUnknownIndex: %v", err)
	}
	if n != 1 {
		t.Fatalf("empty table should yield 1, got %d", n)
	}

	for _, name := range []string{"Unknown Person 1", "Unknown Person 3"} {
		if _, err := s.CreateEntity(ctx, store.EntityPerson, name, ""); err != nil {
			t.Fatalf("CreateEntity: %v", err)
		}
	}
	// Renamed entities no longer count toward the prefix.
	named, err := s.CreateEntity(ctx, store.EntityPerson, "Unknown Person 7", "")
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	if err := s.RenameEntity(ctx, named.ID, "Alice"); err != nil {
		t.Fatalf("RenameEntity: %v", err)
	}

	n, err = s.NextUnknownIndex(ctx, store.EntityPerson)
	if err != nil {
		t.Fatalf("NextUnknownIndex: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected max suffix + 1 = 4, got %d", n)
	}

	// Pets count independently.
	n, err = s.NextUnknownIndex(ctx, store.EntityPet)
	if err != nil {
		t.Fatalf("NextUnknownIndex pet: %v", err)
	}
	if n != 1 {
		t.Fatalf("pet counter should be independent, got %d", n)
	}
}

func TestRenameKeepsIDsDistinct(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a, _ := s.CreateEntity(ctx, store.EntityPerson, "Unknown Person 1", "")
	b, _ := s.CreateEntity(ctx, store.EntityPerson, "Unknown Person 2", "")

	if err := s.RenameEntity(ctx, a.ID, "Alice"); err != nil {
		t.Fatalf("RenameEntity: %v", err)
	}
	if err := s.RenameEntity(ctx, b.ID, "Alice"); err != nil {
		t.Fatalf("RenameEntity: %v", err)
	}

	summaries, err := s.EntitySummaries(ctx)
	if err != nil {
		t.Fatalf("EntitySummaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("same-name entities must stay distinct, got %d", len(summaries))
	}
}

func TestRenameMissingEntity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	if err := s.RenameEntity(context.Background(), 999, "Nobody"); err == nil {
		t.Fatal("expected error renaming a missing entity")
	}
}

func TestDeleteEntityCascadesLinks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	keep, _ := s.CreateEntity(ctx, store.EntityPerson, "Alice", "")
	doomed, _ := s.CreateEntity(ctx, store.EntityPet, "Unknown Pet 1", "")

	photoID, err := s.CommitEnrichment(ctx, store.EnrichmentCommit{
		Filepath:    "/photos/a.jpg",
		ContentHash: "hash-a",
		Description: "alice with a dog",
		AIModel:     "llava:13b",
		Links: []store.LinkInsert{
			{EntityID: keep.ID},
			{EntityID: doomed.ID},
		},
	})
	if err != nil {
		t.Fatalf("CommitEnrichment: %v", err)
	}

	removed, err := s.DeleteEntity(ctx, doomed.ID)
	if err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}
	if !removed {
		t.Fatal("expected entity to be removed")
	}

	links, err := s.LinksForPhoto(ctx, photoID)
	if err != nil {
		t.Fatalf("LinksForPhoto: %v", err)
	}
	if len(links) != 1 || links[0].EntityID != keep.ID {
		t.Fatalf("expected only the surviving link, got %#v", links)
	}

	photo, err := s.PhotoByID(ctx, photoID)
	if err != nil {
		t.Fatalf("PhotoByID: %v", err)
	}
	if photo == nil || photo.Description != "alice with a dog" {
		t.Fatal("photo and its description must survive entity deletion")
	}
}

func TestDeleteEntitiesByName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a, _ := s.CreateEntity(ctx, store.EntityPerson, "Alice", "")
	b, _ := s.CreateEntity(ctx, store.EntityPerson, "Alice", "")
	c, _ := s.CreateEntity(ctx, store.EntityPerson, "Bob", "")

	count, err := s.DeleteEntitiesByName(ctx, "Alice")
	if err != nil {
		t.Fatalf("DeleteEntitiesByName: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 deletions, got %d", count)
	}
	for _, id := range []int64{a.ID, b.ID} {
		if e, _ := s.EntityByID(ctx, id); e != nil {
			t.Fatalf("entity %d should be deleted", id)
		}
	}
	if e, _ := s.EntityByID(ctx, c.ID); e == nil {
		t.Fatal("unrelated entity must survive")
	}
}
