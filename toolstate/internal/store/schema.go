package store

import "database/sql"

// Schema is the complete engine schema: the history log plus the two
// satellite tables keyed by tool identifier.
const Schema = `
-- Per-tool history of past inputs
CREATE TABLE IF NOT EXISTS history (
    id          TEXT PRIMARY KEY,
    tool_id     TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    input_side  TEXT NOT NULL DEFAULT '',
    inputs_json TEXT NOT NULL DEFAULT '{}',
    params_json TEXT NOT NULL DEFAULT '{}',
    preview     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_history_tool_recency ON history(tool_id, created_at DESC);

-- Last-used timestamps, one row per tool
CREATE TABLE IF NOT EXISTS recent_tools (
    tool_id   TEXT PRIMARY KEY,
    last_used INTEGER NOT NULL
);

-- Pinned tools; row existence is membership
CREATE TABLE IF NOT EXISTS favorites (
    tool_id  TEXT PRIMARY KEY,
    added_at INTEGER NOT NULL
);
`

// ApplySchema creates all tables and indexes on the given database.
// Exported for callers that manage their own connection.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
