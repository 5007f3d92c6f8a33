package store

import (
	"encoding/json"
	"log/slog"
)

// Entry is one persisted history record for a tool.
//
// Inputs holds the free-text input values at commit time; Params holds the
// discrete parameter values. Both are stored as JSON columns. CreatedAt and
// UpdatedAt are unix milliseconds.
type Entry struct {
	ID        string            `json:"id"`
	ToolID    string            `json:"tool_id"`
	CreatedAt int64             `json:"created_at"`
	UpdatedAt int64             `json:"updated_at"`
	InputSide string            `json:"input_side,omitempty"`
	Inputs    map[string]string `json:"inputs"`
	Params    map[string]any    `json:"params"`
	Preview   string            `json:"preview"`
}

// RecentTool records the last time a tool was activated.
type RecentTool struct {
	ToolID   string `json:"tool_id"`
	LastUsed int64  `json:"last_used"`
}

// Favorite records a pinned tool.
type Favorite struct {
	ToolID  string `json:"tool_id"`
	AddedAt int64  `json:"added_at"`
}

// decodeInputs parses an inputs_json column. Malformed JSON decodes to an
// empty map; a corrupt row must never fail a read path.
func decodeInputs(raw string) map[string]string {
	m := map[string]string{}
	if raw == "" {
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		slog.Warn("store: malformed inputs_json, using empty", "error", err)
		return map[string]string{}
	}
	return m
}

// decodeParams parses a params_json column with the same recovery rule.
func decodeParams(raw string) map[string]any {
	m := map[string]any{}
	if raw == "" {
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		slog.Warn("store: malformed params_json, using empty", "error", err)
		return map[string]any{}
	}
	return m
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
