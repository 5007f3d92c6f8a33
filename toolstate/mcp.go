package toolstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the engine's maintenance operations as MCP tools.
// The synchronizer itself is page-local and is not exposed here.
func (e *Engine) RegisterMCP(srv *mcp.Server) {
	e.registerHistoryTool(srv)
	e.registerHistoryDeleteTool(srv)
	e.registerHistoryClearTool(srv)
	e.registerFavoritesToggleTool(srv)
	e.registerFavoritesTool(srv)
	e.registerRecentToolsTool(srv)
	e.registerStatsTool(srv)
}

// endpoint is a transport-agnostic operation handler.
type endpoint func(ctx context.Context, req any) (any, error)

// registerTool adapts an endpoint onto the MCP server: decode arguments,
// run, marshal the response as a single text content block. Handler errors
// become tool errors, not protocol errors.
func registerTool(srv *mcp.Server, tool *mcp.Tool, ep endpoint, decode func(*mcp.CallToolRequest) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := decode(req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}

		resp, err := ep(ctx, decoded)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- history ---

type historyRequest struct {
	ToolID string `json:"tool_id"`
	Limit  int    `json:"limit,omitempty"`
}

func (e *Engine) registerHistoryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "toolstate_history",
		Description: "List a tool's history entries, newest first.",
		InputSchema: inputSchema(map[string]any{
			"tool_id": map[string]any{"type": "string", "description": "Tool identifier"},
			"limit":   map[string]any{"type": "integer", "description": "Max entries (default: all)"},
		}, []string{"tool_id"}),
	}

	ep := func(ctx context.Context, req any) (any, error) {
		r := req.(*historyRequest)
		return e.history.List(ctx, r.ToolID, r.Limit)
	}

	registerTool(srv, tool, ep, func(req *mcp.CallToolRequest) (any, error) {
		var r historyRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// --- history_delete ---

func (e *Engine) registerHistoryDeleteTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "toolstate_history_delete",
		Description: "Delete a single history entry by id.",
		InputSchema: inputSchema(map[string]any{
			"entry_id": map[string]any{"type": "string", "description": "Entry ID to delete"},
		}, []string{"entry_id"}),
	}

	type delReq struct {
		EntryID string `json:"entry_id"`
	}

	ep := func(ctx context.Context, req any) (any, error) {
		r := req.(*delReq)
		if err := e.history.DeleteEntry(ctx, r.EntryID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted", "entry_id": r.EntryID}, nil
	}

	registerTool(srv, tool, ep, func(req *mcp.CallToolRequest) (any, error) {
		var r delReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// --- history_clear ---

func (e *Engine) registerHistoryClearTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "toolstate_history_clear",
		Description: "Clear history for one tool, or for all tools.",
		InputSchema: inputSchema(map[string]any{
			"scope":   map[string]any{"type": "string", "enum": []any{"tool", "all"}, "description": "Clear scope"},
			"tool_id": map[string]any{"type": "string", "description": "Tool identifier (scope=tool)"},
		}, []string{"scope"}),
	}

	type clearReq struct {
		ScopeName string `json:"scope"`
		ToolID    string `json:"tool_id"`
	}

	ep := func(ctx context.Context, req any) (any, error) {
		r := req.(*clearReq)
		if err := e.history.Clear(ctx, Scope(r.ScopeName), r.ToolID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "cleared", "scope": r.ScopeName}, nil
	}

	registerTool(srv, tool, ep, func(req *mcp.CallToolRequest) (any, error) {
		var r clearReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// --- favorites_toggle ---

type toggleRequest struct {
	ToolID string `json:"tool_id"`
}

func (e *Engine) registerFavoritesToggleTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "toolstate_favorites_toggle",
		Description: "Toggle a tool's pinned state. Returns the new state.",
		InputSchema: inputSchema(map[string]any{
			"tool_id": map[string]any{"type": "string", "description": "Tool identifier"},
		}, []string{"tool_id"}),
	}

	ep := func(ctx context.Context, req any) (any, error) {
		r := req.(*toggleRequest)
		pinned, err := e.favorites.Toggle(ctx, r.ToolID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"tool_id": r.ToolID, "pinned": pinned}, nil
	}

	registerTool(srv, tool, ep, func(req *mcp.CallToolRequest) (any, error) {
		var r toggleRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// --- favorites ---

func (e *Engine) registerFavoritesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "toolstate_favorites",
		Description: "List pinned tools, most recently added first.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	ep := func(ctx context.Context, _ any) (any, error) {
		return e.favorites.List(ctx)
	}

	registerTool(srv, tool, ep, func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	})
}

// --- recent_tools ---

func (e *Engine) registerRecentToolsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "toolstate_recent_tools",
		Description: "List recently used tools, most recent first.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	ep := func(ctx context.Context, _ any) (any, error) {
		return e.recents.List(ctx)
	}

	registerTool(srv, tool, ep, func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	})
}

// --- stats ---

func (e *Engine) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "toolstate_stats",
		Description: "Get store-wide counts: history entries, recent tools, favorites.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	ep := func(ctx context.Context, _ any) (any, error) {
		return e.Stats(ctx)
	}

	registerTool(srv, tool, ep, func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	})
}
