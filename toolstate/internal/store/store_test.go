package store

import (
	"context"
	"testing"

	_ "modernc.org/sqlite"
)

func TestApplySchema(t *testing.T) {
	// WHAT: Verify schema creates all three tables.
	// WHY: Schema is the foundation — if it fails, nothing works.
	s := OpenMemory(t)
	for _, table := range []string{"history", "recent_tools", "favorites"} {
		var name string
		err := s.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestInsertAndGetEntry(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	e := &Entry{
		ID:        "e-001",
		ToolID:    "base64",
		CreatedAt: 1000,
		UpdatedAt: 1000,
		Inputs:    map[string]string{"text": "hello"},
		Params:    map[string]any{"url_safe": true},
		Preview:   "hello",
	}
	if err := s.InsertEntry(ctx, e); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetEntry(ctx, "e-001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("entry not found")
	}
	if got.ToolID != "base64" {
		t.Errorf("tool_id = %q", got.ToolID)
	}
	if got.Inputs["text"] != "hello" {
		t.Errorf("inputs.text = %q", got.Inputs["text"])
	}
	if got.Params["url_safe"] != true {
		t.Errorf("params.url_safe = %v", got.Params["url_safe"])
	}
}

func TestGetEntry_Missing(t *testing.T) {
	s := OpenMemory(t)
	got, err := s.GetEntry(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing entry")
	}
}

func TestInsertEntry_MonotonicCreatedAt(t *testing.T) {
	// WHAT: An entry whose clock reads earlier than the tool's latest is
	// clamped forward.
	// WHY: createdAt must be non-decreasing per tool; wall-clock can jump.
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertEntry(ctx, &Entry{ID: "e1", ToolID: "t", CreatedAt: 2000, UpdatedAt: 2000})
	late := &Entry{ID: "e2", ToolID: "t", CreatedAt: 1500, UpdatedAt: 1500}
	if err := s.InsertEntry(ctx, late); err != nil {
		t.Fatal(err)
	}
	if late.CreatedAt != 2000 {
		t.Errorf("created_at = %d, want clamped to 2000", late.CreatedAt)
	}

	// Tie: insertion order decides recency.
	latest, err := s.LatestByTool(ctx, "t")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "e2" {
		t.Errorf("latest = %q, want e2 (insertion order breaks the tie)", latest.ID)
	}
}

func TestListByTool_RecencyOrderAndFilter(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertEntry(ctx, &Entry{ID: "a1", ToolID: "a", CreatedAt: 1, UpdatedAt: 1})
	s.InsertEntry(ctx, &Entry{ID: "a2", ToolID: "a", CreatedAt: 2, UpdatedAt: 2})
	s.InsertEntry(ctx, &Entry{ID: "b1", ToolID: "b", CreatedAt: 3, UpdatedAt: 3})

	entries, err := s.ListByTool(ctx, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("count = %d, want 2", len(entries))
	}
	if entries[0].ID != "a2" || entries[1].ID != "a1" {
		t.Errorf("order = %s, %s; want a2, a1", entries[0].ID, entries[1].ID)
	}

	limited, _ := s.ListByTool(ctx, "a", 1)
	if len(limited) != 1 || limited[0].ID != "a2" {
		t.Errorf("limit 1 should return only the newest")
	}
}

func TestAmendLatest(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	// No entry yet: report false, touch nothing.
	ok, err := s.AmendLatest(ctx, "t", map[string]any{"x": 1}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("amend with no entry should report false")
	}

	s.InsertEntry(ctx, &Entry{ID: "e1", ToolID: "t", CreatedAt: 10, UpdatedAt: 10})
	s.InsertEntry(ctx, &Entry{ID: "e2", ToolID: "t", CreatedAt: 20, UpdatedAt: 20})

	ok, err = s.AmendLatest(ctx, "t", map[string]any{"mode": "decode"}, 30)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected amend to hit the latest entry")
	}

	e2, _ := s.GetEntry(ctx, "e2")
	if e2.Params["mode"] != "decode" {
		t.Errorf("e2 params not amended: %v", e2.Params)
	}
	if e2.UpdatedAt != 30 {
		t.Errorf("updated_at = %d, want 30", e2.UpdatedAt)
	}

	// Older entry untouched.
	e1, _ := s.GetEntry(ctx, "e1")
	if len(e1.Params) != 0 {
		t.Errorf("e1 params should be empty, got %v", e1.Params)
	}
}

func TestAmendLatest_Idempotent(t *testing.T) {
	// WHAT: Two amends with the same params leave one entry; updated_at
	// reflects only the last call.
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertEntry(ctx, &Entry{ID: "e1", ToolID: "t", CreatedAt: 10, UpdatedAt: 10})
	params := map[string]any{"mode": "decode"}
	s.AmendLatest(ctx, "t", params, 20)
	s.AmendLatest(ctx, "t", params, 30)

	count, _ := s.CountEntries(ctx, "t")
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	e, _ := s.GetEntry(ctx, "e1")
	if e.UpdatedAt != 30 {
		t.Errorf("updated_at = %d, want 30", e.UpdatedAt)
	}
}

func TestDeleteAndClear(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertEntry(ctx, &Entry{ID: "a1", ToolID: "a", CreatedAt: 1, UpdatedAt: 1})
	s.InsertEntry(ctx, &Entry{ID: "a2", ToolID: "a", CreatedAt: 2, UpdatedAt: 2})
	s.InsertEntry(ctx, &Entry{ID: "b1", ToolID: "b", CreatedAt: 3, UpdatedAt: 3})

	if err := s.DeleteEntry(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountEntries(ctx, ""); n != 2 {
		t.Fatalf("after delete: %d, want 2", n)
	}

	if err := s.ClearTool(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountEntries(ctx, "a"); n != 0 {
		t.Fatalf("tool a not cleared")
	}
	if n, _ := s.CountEntries(ctx, "b"); n != 1 {
		t.Fatalf("tool b should survive a tool-scoped clear")
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.CountEntries(ctx, ""); n != 0 {
		t.Fatalf("clear all left %d entries", n)
	}
}

func TestMalformedJSONDecodesEmpty(t *testing.T) {
	// WHAT: A corrupt row reads back with empty maps, not an error.
	// WHY: Bad JSON in a persisted entry is a validation error, recovered
	// locally, never fatal.
	s := OpenMemory(t)
	ctx := context.Background()

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO history (id, tool_id, created_at, updated_at, inputs_json, params_json)
		VALUES ('bad', 't', 1, 1, '{not json', '[oops')`)
	if err != nil {
		t.Fatal(err)
	}

	e, err := s.GetEntry(ctx, "bad")
	if err != nil {
		t.Fatalf("get should not fail on malformed JSON: %v", err)
	}
	if len(e.Inputs) != 0 || len(e.Params) != 0 {
		t.Errorf("expected empty maps, got %v / %v", e.Inputs, e.Params)
	}
}
