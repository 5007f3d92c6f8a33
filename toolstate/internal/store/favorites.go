package store

import "context"

// AddFavorite pins a tool. Idempotent: pinning twice keeps the original
// added_at.
func (s *Store) AddFavorite(ctx context.Context, toolID string, addedAt int64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO favorites (tool_id, added_at) VALUES (?, ?)
		ON CONFLICT(tool_id) DO NOTHING`,
		toolID, addedAt,
	)
	return err
}

// RemoveFavorite unpins a tool.
func (s *Store) RemoveFavorite(ctx context.Context, toolID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM favorites WHERE tool_id = ?`, toolID)
	return err
}

// IsFavorite reports whether a tool is pinned.
func (s *Store) IsFavorite(ctx context.Context, toolID string) (bool, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE tool_id = ?`, toolID).Scan(&count)
	return count > 0, err
}

// ListFavorites returns pinned tools, most recently added first.
func (s *Store) ListFavorites(ctx context.Context) ([]Favorite, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT tool_id, added_at FROM favorites ORDER BY added_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ToolID, &f.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountFavorites returns the number of pinned tools.
func (s *Store) CountFavorites(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites`).Scan(&count)
	return count, err
}
