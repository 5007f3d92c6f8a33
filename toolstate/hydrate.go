package toolstate

import (
	"context"
	"net/url"

	"github.com/AutelysZ/toolstate/schema"
)

// Source identifies which of the three competing sources seeded the state
// on activation.
type Source string

const (
	SourceURL     Source = "url"
	SourceHistory Source = "history"
	SourceDefault Source = "default"
)

// Hydration is the one-time resolution result for a page activation.
// Entry is set only for SourceHistory. Consumers use Source to seed their
// last-committed markers, so state that was just loaded from history never
// re-triggers a history write.
type Hydration struct {
	Source Source
	State  schema.State
	Entry  *Entry
}

// hydrate chooses the authoritative state source in fixed precedence order:
// address-bar query, then latest history entry, then schema defaults.
// Storage failures on the history read degrade to defaults; they are never
// surfaced to the page load.
func (e *Engine) hydrate(ctx context.Context, tool *Tool, query url.Values) Hydration {
	sch := tool.Schema

	if raw, found := queryRaw(sch, query); found {
		return Hydration{Source: SourceURL, State: sch.Bind(raw)}
	}

	entry, err := e.history.Latest(ctx, tool.ID())
	if err != nil {
		e.logger.Warn("toolstate: history read failed during hydration, using defaults",
			"error", err, "tool", tool.ID())
		entry = nil
	}
	if entry != nil {
		return Hydration{Source: SourceHistory, State: sch.Bind(entryRaw(tool, entry)), Entry: entry}
	}

	return Hydration{Source: SourceDefault, State: sch.Defaults()}
}

// entryRaw maps a history entry back into raw field values. A tool with an
// OnLoadHistory callback owns that mapping entirely; otherwise inputs map
// by name and params are re-encoded through the schema, skipping anything
// the current schema no longer declares.
func entryRaw(tool *Tool, entry *Entry) map[string]string {
	if tool.OnLoadHistory != nil {
		return tool.OnLoadHistory(entry)
	}

	raw := make(map[string]string, len(entry.Inputs)+len(entry.Params))
	for k, v := range entry.Inputs {
		raw[k] = v
	}
	for k, v := range entry.Params {
		cv, err := tool.Schema.Coerce(k, v)
		if err != nil {
			continue
		}
		enc, err := tool.Schema.Encode(k, cv)
		if err != nil {
			continue
		}
		raw[k] = enc
	}
	return raw
}
