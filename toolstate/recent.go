package toolstate

import (
	"context"
	"time"

	"github.com/AutelysZ/toolstate/toolstate/internal/store"
)

// RecentTools tracks last-used tool identifiers, capped by truncation.
type RecentTools struct {
	store *store.Store
	cap   int
	now   func() time.Time
}

// Touch upserts the tool's last-used timestamp and truncates the list.
func (r *RecentTools) Touch(ctx context.Context, toolID string) error {
	return r.store.UpsertRecent(ctx, toolID, r.now().UnixMilli(), r.cap)
}

// List returns recent tools, most recently used first.
func (r *RecentTools) List(ctx context.Context) ([]RecentTool, error) {
	return r.store.ListRecent(ctx)
}
