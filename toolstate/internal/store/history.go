package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertEntry writes a new history entry. CreatedAt is clamped so it never
// moves backwards relative to the tool's latest entry; recency ties are
// broken by insertion order (rowid) on the read path, not by re-sorting.
func (s *Store) InsertEntry(ctx context.Context, e *Entry) error {
	if e.Inputs == nil {
		e.Inputs = map[string]string{}
	}
	if e.Params == nil {
		e.Params = map[string]any{}
	}

	var latest sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT MAX(created_at) FROM history WHERE tool_id = ?`, e.ToolID).Scan(&latest)
	if err != nil {
		return fmt.Errorf("latest created_at: %w", err)
	}
	if latest.Valid && e.CreatedAt < latest.Int64 {
		e.CreatedAt = latest.Int64
	}
	if e.UpdatedAt < e.CreatedAt {
		e.UpdatedAt = e.CreatedAt
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO history (id, tool_id, created_at, updated_at, input_side,
		inputs_json, params_json, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ToolID, e.CreatedAt, e.UpdatedAt, e.InputSide,
		encodeJSON(e.Inputs), encodeJSON(e.Params), e.Preview,
	)
	return err
}

// AmendLatest rewrites params and updated_at on the most recent entry for
// the tool. Reports whether an entry existed to amend.
func (s *Store) AmendLatest(ctx context.Context, toolID string, params map[string]any, updatedAt int64) (bool, error) {
	if params == nil {
		params = map[string]any{}
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE history SET params_json = ?, updated_at = ?
		WHERE id = (
			SELECT id FROM history WHERE tool_id = ?
			ORDER BY created_at DESC, rowid DESC LIMIT 1
		)`,
		encodeJSON(params), updatedAt, toolID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetEntry retrieves an entry by ID, or nil if absent.
func (s *Store) GetEntry(ctx context.Context, id string) (*Entry, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, tool_id, created_at, updated_at, input_side,
		inputs_json, params_json, preview
		FROM history WHERE id = ?`, id)
	return scanEntry(row.Scan)
}

// LatestByTool returns the most recent entry for a tool, or nil.
func (s *Store) LatestByTool(ctx context.Context, toolID string) (*Entry, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, tool_id, created_at, updated_at, input_side,
		inputs_json, params_json, preview
		FROM history WHERE tool_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, toolID)
	return scanEntry(row.Scan)
}

// ListByTool returns a tool's entries newest first. limit <= 0 means no limit.
func (s *Store) ListByTool(ctx context.Context, toolID string, limit int) ([]*Entry, error) {
	q := `SELECT id, tool_id, created_at, updated_at, input_side,
		inputs_json, params_json, preview
		FROM history WHERE tool_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []any{toolID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes a single entry.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	return err
}

// ClearTool removes every entry for one tool.
func (s *Store) ClearTool(ctx context.Context, toolID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM history WHERE tool_id = ?`, toolID)
	return err
}

// ClearAll removes every entry.
func (s *Store) ClearAll(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM history`)
	return err
}

// CountEntries returns the number of entries, optionally scoped to a tool.
func (s *Store) CountEntries(ctx context.Context, toolID string) (int, error) {
	var count int
	var err error
	if toolID == "" {
		err = s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&count)
	} else {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM history WHERE tool_id = ?`, toolID).Scan(&count)
	}
	return count, err
}

func scanEntry(scan func(...any) error) (*Entry, error) {
	var e Entry
	var inputsJSON, paramsJSON string
	err := scan(&e.ID, &e.ToolID, &e.CreatedAt, &e.UpdatedAt, &e.InputSide,
		&inputsJSON, &paramsJSON, &e.Preview)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	e.Inputs = decodeInputs(inputsJSON)
	e.Params = decodeParams(paramsJSON)
	return &e, nil
}
