package toolstate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testImpl = &mcp.Implementation{Name: "toolstate-test", Version: "0.1.0"}

// mcpSession registers the engine's MCP tools and returns a connected
// client session that can call them end-to-end.
func mcpSession(t *testing.T) (*Engine, *mcp.ClientSession) {
	t.Helper()
	e := testEngine(t, 0)

	srv := mcp.NewServer(testImpl, nil)
	e.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()

	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	return e, session
}

// callTool invokes a tool and returns the JSON text from the first TextContent.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text
}

func seedEntries(t *testing.T, e *Engine, toolID string, texts ...string) {
	t.Helper()
	for _, text := range texts {
		if _, err := e.History().AddEntry(context.Background(), toolID,
			map[string]string{"text": text}, nil, ""); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMCP_History(t *testing.T) {
	e, session := mcpSession(t)
	seedEntries(t, e, "case-converter", "first", "second")

	text := callTool(t, session, "toolstate_history", map[string]any{
		"tool_id": "case-converter",
	})

	var entries []Entry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
	if entries[0].Preview != "second" {
		t.Fatalf("newest first: got %q", entries[0].Preview)
	}
}

func TestMCP_HistoryDelete(t *testing.T) {
	e, session := mcpSession(t)
	seedEntries(t, e, "case-converter", "doomed")

	entries, err := e.History().List(context.Background(), "case-converter", 0)
	if err != nil {
		t.Fatal(err)
	}

	callTool(t, session, "toolstate_history_delete", map[string]any{
		"entry_id": entries[0].ID,
	})

	if n := entryCount(t, e, "case-converter"); n != 0 {
		t.Fatalf("entries after delete: got %d", n)
	}
}

func TestMCP_HistoryClear(t *testing.T) {
	e, session := mcpSession(t)
	seedEntries(t, e, "tool-a", "x")
	seedEntries(t, e, "tool-b", "y")

	callTool(t, session, "toolstate_history_clear", map[string]any{
		"scope":   "tool",
		"tool_id": "tool-a",
	})
	if n := entryCount(t, e, "tool-a"); n != 0 {
		t.Fatalf("tool-a: got %d", n)
	}
	if n := entryCount(t, e, "tool-b"); n != 1 {
		t.Fatalf("tool-b: got %d", n)
	}

	callTool(t, session, "toolstate_history_clear", map[string]any{"scope": "all"})
	if n := entryCount(t, e, "tool-b"); n != 0 {
		t.Fatalf("tool-b after clear all: got %d", n)
	}
}

func TestMCP_HistoryClear_BadScope(t *testing.T) {
	_, session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "toolstate_history_clear",
		Arguments: map[string]any{"scope": "everything"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for an invalid scope")
	}
}

func TestMCP_FavoritesToggle(t *testing.T) {
	_, session := mcpSession(t)

	text := callTool(t, session, "toolstate_favorites_toggle", map[string]any{
		"tool_id": "case-converter",
	})
	var resp struct {
		ToolID string `json:"tool_id"`
		Pinned bool   `json:"pinned"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Pinned {
		t.Fatal("first toggle must pin")
	}

	text = callTool(t, session, "toolstate_favorites_toggle", map[string]any{
		"tool_id": "case-converter",
	})
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Pinned {
		t.Fatal("second toggle must unpin")
	}
}

func TestMCP_FavoritesAndRecents(t *testing.T) {
	e, session := mcpSession(t)
	ctx := context.Background()

	if _, err := e.Favorites().Toggle(ctx, "json-formatter"); err != nil {
		t.Fatal(err)
	}
	if err := e.Recents().Touch(ctx, "case-converter"); err != nil {
		t.Fatal(err)
	}

	var favs []Favorite
	if err := json.Unmarshal([]byte(callTool(t, session, "toolstate_favorites", nil)), &favs); err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 || favs[0].ToolID != "json-formatter" {
		t.Fatalf("favorites: %#v", favs)
	}

	var recents []RecentTool
	if err := json.Unmarshal([]byte(callTool(t, session, "toolstate_recent_tools", nil)), &recents); err != nil {
		t.Fatal(err)
	}
	if len(recents) != 1 || recents[0].ToolID != "case-converter" {
		t.Fatalf("recents: %#v", recents)
	}
}

func TestMCP_Stats(t *testing.T) {
	e, session := mcpSession(t)
	seedEntries(t, e, "case-converter", "x")

	var stats Stats
	if err := json.Unmarshal([]byte(callTool(t, session, "toolstate_stats", nil)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 || stats.RecentTools != 1 {
		t.Fatalf("stats: %+v", stats)
	}
}
