package toolstate

import (
	"github.com/AutelysZ/toolstate/schema"
	"github.com/AutelysZ/toolstate/toolstate/internal/store"
)

// Entry is a persisted history record. See the store package for field
// semantics; re-exported here so callers never import internal packages.
type Entry = store.Entry

// RecentTool is a last-used record, one per tool.
type RecentTool = store.RecentTool

// Favorite is a pinned-tool record.
type Favorite = store.Favorite

// Tool binds one catalogue page into the engine.
//
// Transform is the page's pure derive function; the engine never calls it
// on its own, it only threads it through for consumers. OnLoadHistory, when
// set, maps a history entry back into the tool's current raw field values —
// the single place where history-schema drift between tool versions is
// reconciled.
type Tool struct {
	Schema        *schema.Schema
	Transform     func(schema.State) (string, error)
	OnLoadHistory func(*Entry) map[string]string
}

// ID returns the tool identifier declared by the schema.
func (t *Tool) ID() string { return t.Schema.ToolID() }
