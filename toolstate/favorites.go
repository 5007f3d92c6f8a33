package toolstate

import (
	"context"
	"time"

	"github.com/AutelysZ/toolstate/toolstate/internal/store"
)

// Favorites tracks pinned tools; row existence is membership.
type Favorites struct {
	store *store.Store
	now   func() time.Time
}

// Toggle flips a tool's pinned state. Reports whether it is now pinned.
func (f *Favorites) Toggle(ctx context.Context, toolID string) (bool, error) {
	pinned, err := f.store.IsFavorite(ctx, toolID)
	if err != nil {
		return false, err
	}
	if pinned {
		return false, f.store.RemoveFavorite(ctx, toolID)
	}
	return true, f.store.AddFavorite(ctx, toolID, f.now().UnixMilli())
}

// Contains reports whether a tool is pinned.
func (f *Favorites) Contains(ctx context.Context, toolID string) (bool, error) {
	return f.store.IsFavorite(ctx, toolID)
}

// List returns pinned tools, most recently added first.
func (f *Favorites) List(ctx context.Context) ([]Favorite, error) {
	return f.store.ListFavorites(ctx)
}
