package store

import (
	"context"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"
)

func TestUpsertRecent_OneRowPerTool(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	s.UpsertRecent(ctx, "base64", 100, 10)
	s.UpsertRecent(ctx, "base64", 200, 10)

	recents, err := s.ListRecent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recents) != 1 {
		t.Fatalf("count = %d, want 1", len(recents))
	}
	if recents[0].LastUsed != 200 {
		t.Errorf("last_used = %d, want 200", recents[0].LastUsed)
	}
}

func TestUpsertRecent_CapTruncates(t *testing.T) {
	// WHAT: The recency list is truncated to cap on every upsert, keeping
	// the most recently used tools.
	s := OpenMemory(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		s.UpsertRecent(ctx, fmt.Sprintf("tool-%02d", i), int64(i), 10)
	}

	recents, err := s.ListRecent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recents) != 10 {
		t.Fatalf("count = %d, want 10", len(recents))
	}
	if recents[0].ToolID != "tool-14" {
		t.Errorf("newest = %q, want tool-14", recents[0].ToolID)
	}
	if recents[9].ToolID != "tool-05" {
		t.Errorf("oldest kept = %q, want tool-05", recents[9].ToolID)
	}
}

func TestFavorites_ToggleSemantics(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	if err := s.AddFavorite(ctx, "uuid-gen", 100); err != nil {
		t.Fatal(err)
	}
	// Idempotent add keeps the original added_at.
	if err := s.AddFavorite(ctx, "uuid-gen", 999); err != nil {
		t.Fatal(err)
	}

	ok, err := s.IsFavorite(ctx, "uuid-gen")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected favorite")
	}

	favs, _ := s.ListFavorites(ctx)
	if len(favs) != 1 || favs[0].AddedAt != 100 {
		t.Errorf("favorites = %+v, want one row with added_at 100", favs)
	}

	if err := s.RemoveFavorite(ctx, "uuid-gen"); err != nil {
		t.Fatal(err)
	}
	ok, _ = s.IsFavorite(ctx, "uuid-gen")
	if ok {
		t.Fatal("expected removed")
	}
}
