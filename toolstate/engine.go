// Package toolstate keeps a utility tool's working state mirrored into a
// shareable address-bar representation, persists a navigable history of
// past inputs in a local SQLite database, and resolves on every activation
// which source seeds the in-memory state.
//
// Per-tool transform functions, rendering, and routing are external
// collaborators; the engine only moves state.
//
// Usage:
//
//	eng, err := toolstate.New(cfg, logger)
//	defer eng.Close()
//	syn, err := eng.Activate(ctx, tool, rawQuery)
//	defer syn.Close()
//	syn.SetField("text", "hello", false)
package toolstate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/AutelysZ/toolstate/debounce"
	"github.com/AutelysZ/toolstate/toolstate/internal/store"
)

// Engine owns the persistent stores and the shared debounce scheduler.
// One Engine serves every tool page in the catalogue.
type Engine struct {
	cfg       *Config
	logger    *slog.Logger
	store     *store.Store
	history   *History
	recents   *RecentTools
	favorites *Favorites
	sched     *debounce.Scheduler
}

// Option configures an Engine during creation.
type Option func(*engineDeps)

type engineDeps struct {
	newID     func() string
	now       func() time.Time
	storeOpts []store.Option
}

// WithIDGenerator overrides entry ID generation (tests inject fixed IDs).
func WithIDGenerator(gen func() string) Option {
	return func(d *engineDeps) { d.newID = gen }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *engineDeps) { d.now = now }
}

// WithStoreOptions forwards options to the store opener.
func WithStoreOptions(opts ...store.Option) Option {
	return func(d *engineDeps) { d.storeOpts = append(d.storeOpts, opts...) }
}

// New opens the database and builds an Engine. The caller must blank-import
// a SQLite driver:
//
//	import _ "modernc.org/sqlite"
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("toolstate: config: db_path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	deps := engineDeps{
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
		now:   time.Now,
	}
	for _, o := range opts {
		o(&deps)
	}

	s, err := store.Open(cfg.DBPath, deps.storeOpts...)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
		store:  s,
		sched:  debounce.New(cfg.Debounce),
	}
	e.history = &History{
		store:      s,
		newID:      deps.newID,
		now:        deps.now,
		previewLen: cfg.PreviewLen,
		recentCap:  cfg.RecentCap,
		logger:     logger,
		pending:    map[string]map[string]any{},
	}
	e.recents = &RecentTools{store: s, cap: cfg.RecentCap, now: deps.now}
	e.favorites = &Favorites{store: s, now: deps.now}
	return e, nil
}

// Activate runs hydration for a tool page and returns a seeded
// Synchronizer. rawQuery is the page's query string; a malformed query is
// treated as absent, never fatal. The tool's recent-use record is upserted
// as a side effect.
func (e *Engine) Activate(ctx context.Context, tool *Tool, rawQuery string) (*Synchronizer, error) {
	if tool == nil || tool.Schema == nil {
		return nil, fmt.Errorf("toolstate: activate: tool schema is required")
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		e.logger.Warn("toolstate: malformed query, hydrating without it",
			"error", err, "tool", tool.ID())
		query = url.Values{}
	}

	h := e.hydrate(ctx, tool, query)

	if err := e.recents.Touch(ctx, tool.ID()); err != nil {
		e.logger.Warn("toolstate: recent-tool upsert failed", "error", err, "tool", tool.ID())
	}

	e.logger.Debug("toolstate: activated", "tool", tool.ID(), "source", h.Source)
	return newSynchronizer(ctx, tool, h, e.history, e.sched,
		e.cfg.debounceFor(tool.ID()), e.cfg.OversizeLimit, e.logger), nil
}

// History returns the history log.
func (e *Engine) History() *History { return e.history }

// Recents returns the recent-tools tracker.
func (e *Engine) Recents() *RecentTools { return e.recents }

// Favorites returns the favorites store.
func (e *Engine) Favorites() *Favorites { return e.favorites }

// Stats holds store-wide counters.
type Stats struct {
	Entries     int `json:"entries"`
	RecentTools int `json:"recent_tools"`
	Favorites   int `json:"favorites"`
}

// Stats returns current counts across the three tables.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	entries, err := e.store.CountEntries(ctx, "")
	if err != nil {
		return nil, err
	}
	recents, err := e.store.CountRecent(ctx)
	if err != nil {
		return nil, err
	}
	favs, err := e.store.CountFavorites(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Entries: entries, RecentTools: recents, Favorites: favs}, nil
}

// Close cancels all outstanding debounce timers and closes the database.
func (e *Engine) Close() error {
	e.sched.Close()
	return e.store.Close()
}
