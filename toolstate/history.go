package toolstate

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AutelysZ/toolstate/toolstate/internal/store"
)

// Scope selects what a Clear call removes.
type Scope string

const (
	ScopeTool Scope = "tool"
	ScopeAll  Scope = "all"
)

// History is the append-only per-tool log of past inputs.
//
// Entries are created only by committed input changes; parameter-only
// changes amend the latest entry in place, so the log is bounded by
// meaningful input events rather than by every keystroke. Parameter edits
// made before any input exists are held as a pending marker and folded into
// the first real entry.
type History struct {
	store      *store.Store
	newID      func() string
	now        func() time.Time
	previewLen int
	recentCap  int
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]map[string]any // per-tool params awaiting a first entry
}

// AddEntry appends a new history entry for the tool and upserts its
// recent-tool record. Pending parameters stashed by earlier amend calls are
// folded in underneath the explicit params.
func (h *History) AddEntry(ctx context.Context, toolID string, inputs map[string]string, params map[string]any, side string) (*Entry, error) {
	merged := map[string]any{}
	h.mu.Lock()
	for k, v := range h.pending[toolID] {
		merged[k] = v
	}
	delete(h.pending, toolID)
	h.mu.Unlock()
	for k, v := range params {
		merged[k] = v
	}

	now := h.now().UnixMilli()
	e := &Entry{
		ID:        h.newID(),
		ToolID:    toolID,
		CreatedAt: now,
		UpdatedAt: now,
		InputSide: side,
		Inputs:    inputs,
		Params:    merged,
		Preview:   derivePreview(inputs, h.previewLen),
	}
	if err := h.store.InsertEntry(ctx, e); err != nil {
		return nil, err
	}

	if err := h.store.UpsertRecent(ctx, toolID, now, h.recentCap); err != nil {
		h.logger.Warn("toolstate: recent-tool upsert failed", "error", err, "tool", toolID)
	}
	return e, nil
}

// AmendLatestParams rewrites only params and updatedAt on the tool's most
// recent entry. With no entry yet, the params are retained as a pending
// marker instead, so parameter edits before the first input are never lost.
func (h *History) AmendLatestParams(ctx context.Context, toolID string, params map[string]any) error {
	ok, err := h.store.AmendLatest(ctx, toolID, params, h.now().UnixMilli())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending[toolID] == nil {
		h.pending[toolID] = map[string]any{}
	}
	for k, v := range params {
		h.pending[toolID][k] = v
	}
	return nil
}

// DeleteEntry removes a single entry by id.
func (h *History) DeleteEntry(ctx context.Context, id string) error {
	return h.store.DeleteEntry(ctx, id)
}

// Clear removes entries per scope: one tool's, or everything.
func (h *History) Clear(ctx context.Context, scope Scope, toolID string) error {
	switch scope {
	case ScopeTool:
		if toolID == "" {
			return ErrInvalidScope
		}
		h.mu.Lock()
		delete(h.pending, toolID)
		h.mu.Unlock()
		return h.store.ClearTool(ctx, toolID)
	case ScopeAll:
		h.mu.Lock()
		clear(h.pending)
		h.mu.Unlock()
		return h.store.ClearAll(ctx)
	}
	return ErrInvalidScope
}

// List returns a tool's entries newest first. limit <= 0 means all.
func (h *History) List(ctx context.Context, toolID string, limit int) ([]*Entry, error) {
	return h.store.ListByTool(ctx, toolID, limit)
}

// Latest returns the tool's most recent entry, or nil.
func (h *History) Latest(ctx context.Context, toolID string) (*Entry, error) {
	return h.store.LatestByTool(ctx, toolID)
}

// derivePreview builds a short excerpt from the first non-empty input,
// scanning field names in sorted order for determinism.
func derivePreview(inputs map[string]string, maxRunes int) string {
	names := make([]string, 0, len(inputs))
	for k := range inputs {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		v := inputs[k]
		if v == "" {
			continue
		}
		r := []rune(v)
		if len(r) <= maxRunes {
			return v
		}
		// No room for the ellipsis at tiny limits; hard-cut instead.
		if maxRunes <= 3 {
			return string(r[:maxRunes])
		}
		return string(r[:maxRunes-3]) + "..."
	}
	return ""
}
