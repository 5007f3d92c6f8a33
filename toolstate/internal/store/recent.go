package store

import "context"

// UpsertRecent records a tool visit and truncates the recency list to cap.
// One row per tool; a revisit only advances last_used.
func (s *Store) UpsertRecent(ctx context.Context, toolID string, lastUsed int64, cap int) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO recent_tools (tool_id, last_used) VALUES (?, ?)
		ON CONFLICT(tool_id) DO UPDATE SET last_used = excluded.last_used`,
		toolID, lastUsed,
	)
	if err != nil {
		return err
	}
	if cap <= 0 {
		return nil
	}
	_, err = s.DB.ExecContext(ctx,
		`DELETE FROM recent_tools WHERE tool_id NOT IN (
			SELECT tool_id FROM recent_tools ORDER BY last_used DESC LIMIT ?
		)`, cap,
	)
	return err
}

// ListRecent returns recent tools sorted descending by last_used.
func (s *Store) ListRecent(ctx context.Context) ([]RecentTool, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT tool_id, last_used FROM recent_tools ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentTool
	for rows.Next() {
		var r RecentTool
		if err := rows.Scan(&r.ToolID, &r.LastUsed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountRecent returns the number of recent-tool rows.
func (s *Store) CountRecent(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM recent_tools`).Scan(&count)
	return count, err
}
