package toolstate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/AutelysZ/toolstate/debounce"
	"github.com/AutelysZ/toolstate/schema"
)

// commitPhase is the per-input commit state machine. Transitions are driven
// by edit, timer, and hydration events; there are no ad hoc "has hydrated"
// flags anywhere else.
type commitPhase int

const (
	phaseIdle commitPhase = iota
	phasePending
	phaseCommitted
)

// fieldCommit tracks one input field's commit state. value is the last
// committed serialized form; it is seeded from the hydration value before
// any change arrives, which is what keeps hydration from looping straight
// back into a history write.
type fieldCommit struct {
	phase commitPhase
	value string
}

// Synchronizer owns one active page's typed state. Every mutation flows
// through SetField: the address-bar mirror is rewritten synchronously on
// each call, while history commits for text inputs are deferred behind the
// debounce window. Parameter changes amend the latest history entry.
type Synchronizer struct {
	tool    *Tool
	history *History
	sched   *debounce.Scheduler
	logger  *slog.Logger
	window  time.Duration
	limit   int
	ctx     context.Context

	mu       sync.Mutex
	state    schema.State
	mirror   url.Values
	oversize map[string]bool
	commits  map[string]*fieldCommit
	source   Source
	closed   bool
}

func newSynchronizer(ctx context.Context, tool *Tool, h Hydration, hist *History, sched *debounce.Scheduler, window time.Duration, limit int, logger *slog.Logger) *Synchronizer {
	s := &Synchronizer{
		tool:    tool,
		history: hist,
		sched:   sched,
		logger:  logger,
		window:  window,
		limit:   limit,
		ctx:     ctx,
		state:   h.State.Clone(),
		commits: map[string]*fieldCommit{},
		source:  h.Source,
	}
	s.mirror, s.oversize = encodeMirror(tool.Schema, s.state, limit, logger)

	// Seed last-committed markers from the hydration value so loaded data
	// is not treated as a user edit.
	for _, f := range tool.Schema.Fields() {
		if !f.Input {
			continue
		}
		encoded, err := tool.Schema.Encode(f.Name, s.state[f.Name])
		if err != nil {
			encoded = ""
		}
		s.commits[f.Name] = &fieldCommit{phase: phaseCommitted, value: encoded}
	}
	return s
}

// Source reports which source seeded the initial state.
func (s *Synchronizer) Source() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// State returns a snapshot of the current typed state.
func (s *Synchronizer) State() schema.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// MirrorQuery returns the current address-bar representation as an encoded
// query string. Oversize fields are absent; absent keys decode to defaults.
func (s *Synchronizer) MirrorQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Encode()
}

// MirrorValues returns a copy of the current mirror key/value pairs.
func (s *Synchronizer) MirrorValues() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := url.Values{}
	for k, vs := range s.mirror {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out
}

// OversizeKeys returns the fields currently excluded from the mirror for
// exceeding the size budget, sorted for stable display.
func (s *Synchronizer) OversizeKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.oversize))
	for k := range s.oversize {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Derive runs the tool's pure transform over a state snapshot.
func (s *Synchronizer) Derive() (string, error) {
	if s.tool.Transform == nil {
		return "", fmt.Errorf("toolstate: tool %s has no transform", s.tool.ID())
	}
	return s.tool.Transform(s.State())
}

// SetField updates one field and rewrites the mirror synchronously.
//
// For text inputs the history commit is deferred behind the debounce window
// unless immediate is true; each further edit to the same field restarts
// the window and the eventual commit uses the latest value. For parameter
// fields the latest history entry is amended, immediately or deferred per
// the same flag. Only the history side is ever deferred — the mirror write
// is synchronous in all cases.
func (s *Synchronizer) SetField(name string, value any, immediate bool) error {
	var action func()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	f, ok := s.tool.Schema.Field(name)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v, err := s.tool.Schema.Coerce(name, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state[name] = v

	encoded, encErr := s.tool.Schema.Encode(name, v)
	if encErr != nil || len(encoded) > s.limit {
		if encErr != nil {
			s.logger.Warn("toolstate: field serialization failed, excluding from mirror",
				"tool", s.tool.ID(), "field", name, "error", encErr)
		}
		s.oversize[name] = true
		s.mirror.Del(name)
	} else {
		delete(s.oversize, name)
		s.mirror.Set(name, encoded)
	}

	if f.Input {
		action = s.inputChangedLocked(name, encoded, immediate)
	} else {
		action = s.paramChangedLocked(immediate)
	}
	s.mu.Unlock()

	if action != nil {
		action()
	}
	return nil
}

// inputChangedLocked advances the field's commit state machine for an edit.
// Returns the action to run outside the lock for immediate commits.
func (s *Synchronizer) inputChangedLocked(name, encoded string, immediate bool) func() {
	cur := s.commits[name]
	key := s.inputKey(name)

	// Unchanged relative to the last commit: a pending timer from an
	// intermediate edit is stale, drop it.
	if encoded == cur.value {
		if cur.phase == phasePending {
			s.sched.Cancel(key)
		}
		cur.phase = phaseCommitted
		return nil
	}

	// Cleared input: nothing to append, cancel any pending commit. The
	// last-committed marker survives so re-typing the same text is still
	// recognized as unchanged.
	if encoded == "" {
		s.sched.Cancel(key)
		cur.phase = phaseIdle
		return nil
	}

	cur.phase = phasePending
	if immediate {
		s.sched.Cancel(key)
		return func() { s.commitInput(name) }
	}
	s.sched.ScheduleAfter(key, s.window, func() { s.commitInput(name) })
	return nil
}

// paramChangedLocked queues (or returns) the latest-entry amend.
func (s *Synchronizer) paramChangedLocked(immediate bool) func() {
	key := s.paramsKey()
	if immediate {
		s.sched.Cancel(key)
		return s.amendParams
	}
	s.sched.ScheduleAfter(key, s.window, s.amendParams)
	return nil
}

// commitInput appends a history entry using the latest accumulated
// snapshot, not the value at the moment the timer started.
func (s *Synchronizer) commitInput(name string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	f, ok := s.tool.Schema.Field(name)
	if !ok {
		s.mu.Unlock()
		return
	}
	cur := s.commits[name]
	encoded, err := s.tool.Schema.Encode(name, s.state[name])
	if err != nil || encoded == "" || encoded == cur.value {
		if encoded == cur.value {
			cur.phase = phaseCommitted
		} else {
			cur.phase = phaseIdle
		}
		s.mu.Unlock()
		return
	}
	inputs := s.inputSnapshotLocked()
	params := s.paramSnapshotLocked()
	side := f.Side
	toolID := s.tool.ID()
	s.mu.Unlock()

	if _, err := s.history.AddEntry(s.ctx, toolID, inputs, params, side); err != nil {
		// History is a convenience path: log, stay on in-memory state, and
		// let the next edit try again.
		s.logger.Error("toolstate: history commit failed", "error", err, "tool", toolID)
		s.mu.Lock()
		cur.phase = phaseIdle
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	cur.phase = phaseCommitted
	cur.value = encoded
	s.mu.Unlock()
}

// amendParams folds the current parameter values into the latest entry.
func (s *Synchronizer) amendParams() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	params := s.paramSnapshotLocked()
	toolID := s.tool.ID()
	s.mu.Unlock()

	if err := s.history.AmendLatestParams(s.ctx, toolID, params); err != nil {
		s.logger.Error("toolstate: history amend failed", "error", err, "tool", toolID)
	}
}

func (s *Synchronizer) inputSnapshotLocked() map[string]string {
	out := map[string]string{}
	for _, f := range s.tool.Schema.Fields() {
		if !f.Input {
			continue
		}
		encoded, err := s.tool.Schema.Encode(f.Name, s.state[f.Name])
		if err != nil {
			continue
		}
		out[f.Name] = encoded
	}
	return out
}

func (s *Synchronizer) paramSnapshotLocked() map[string]any {
	out := map[string]any{}
	for _, f := range s.tool.Schema.Fields() {
		if f.Input {
			continue
		}
		out[f.Name] = s.state[f.Name]
	}
	return out
}

func (s *Synchronizer) inputKey(name string) string {
	return "input/" + s.tool.ID() + "/" + name
}

func (s *Synchronizer) paramsKey() string {
	return "params/" + s.tool.ID()
}

// Close cancels this page's outstanding debounce timers without flushing:
// navigating away must not commit history after the page is gone.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, f := range s.tool.Schema.Fields() {
		if f.Input {
			s.sched.Cancel(s.inputKey(f.Name))
		}
	}
	s.sched.Cancel(s.paramsKey())
}
