// Package registry owns the open sessions in tab order, the recent-files
// list, and the persisted page/zoom state that follows every change.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jask/tabreader/internal/document"
	"github.com/jask/tabreader/internal/persist"
	"github.com/jask/tabreader/internal/session"
)

// ErrUnknownSession is returned for ids that are not open.
var ErrUnknownSession = errors.New("registry: unknown session")

// KeyMode selects how persisted state is keyed.
type KeyMode string

const (
	// KeyBySession keys state by session id; reopening a file starts fresh.
	KeyBySession KeyMode = "session"
	// KeyByPath keys state by absolute path; reopening a file restores it.
	KeyByPath KeyMode = "path"
)

// ParseKeyMode accepts "session" (or empty) and "path".
func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyBySession:
		return KeyBySession, nil
	case KeyByPath:
		return KeyByPath, nil
	default:
		return "", fmt.Errorf("registry: unknown key mode %q", s)
	}
}

// Registry maps session ids to sessions in insertion (tab) order.
type Registry struct {
	backend document.Backend
	persist *persist.Persistence
	keyMode KeyMode
	logger  *slog.Logger

	nextID   session.ID
	order    []session.ID
	sessions map[session.ID]*session.Session
	state    persist.State
	recent   *RecentFiles

	onChange  func(session.Change)
	onWarning func(error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithKeyMode sets the persisted state key mode.
func WithKeyMode(m KeyMode) Option {
	return func(r *Registry) {
		if m != "" {
			r.keyMode = m
		}
	}
}

// WithLogger sets the logger handed to sessions as well.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithChangeHook is called after every committed session change, once the
// new state has been persisted. The terminal UI turns it into a render
// request.
func WithChangeHook(fn func(session.Change)) Option {
	return func(r *Registry) { r.onChange = fn }
}

// WithWarningHook receives non-fatal persistence failures.
func WithWarningHook(fn func(error)) Option {
	return func(r *Registry) { r.onWarning = fn }
}

// New loads persisted state and recent files through p.
func New(backend document.Backend, p *persist.Persistence, opts ...Option) *Registry {
	r := &Registry{
		backend:  backend,
		persist:  p,
		keyMode:  KeyBySession,
		logger:   slog.Default(),
		sessions: make(map[session.ID]*session.Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state = p.LoadState()
	r.recent = NewRecentFiles(p.RecentLimit(), p.LoadRecent())
	r.logger.Debug("registry loaded", "entries", len(r.state), "recent", r.recent.Len(), "key_mode", r.keyMode)
	return r
}

// SetChangeHook replaces the change hook.
func (r *Registry) SetChangeHook(fn func(session.Change)) { r.onChange = fn }

// SetWarningHook replaces the warning hook.
func (r *Registry) SetWarningHook(fn func(error)) { r.onWarning = fn }

// Open opens path in a new session and returns its id. A fresh id is
// allocated on every call, also for a path that is already open.
func (r *Registry) Open(path string) (session.ID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, &document.OpenError{Path: path, Err: err}
	}
	h, err := r.backend.Open(abs)
	if err != nil {
		r.logger.Warn("open failed", "path", abs, "err", err)
		return 0, err
	}

	id := r.nextID
	r.nextID++
	s := session.New(id, session.WithLogger(r.logger), session.WithObserver(r.observe))
	r.sessions[id] = s
	r.order = append(r.order, id)

	if err := s.Open(h, r.restore(id, abs)); err != nil {
		r.remove(id)
		_ = h.Close()
		return 0, err
	}
	r.logger.Info("session opened", "session", id, "path", abs, "pages", s.PageCount())

	if r.recent.Touch(abs) {
		r.warn(r.persist.SaveRecent(r.recent.Paths()), "save recent files")
	}
	return id, nil
}

// OpenRecent opens the i-th recent file.
func (r *Registry) OpenRecent(i int) (session.ID, error) {
	paths := r.recent.Paths()
	if i < 0 || i >= len(paths) {
		return 0, fmt.Errorf("registry: no recent file %d", i)
	}
	return r.Open(paths[i])
}

// Close closes and forgets id. empty reports that no session remains open,
// the caller's cue to shut down.
func (r *Registry) Close(id session.ID) (empty bool, err error) {
	s, ok := r.sessions[id]
	if !ok {
		return len(r.order) == 0, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	r.remove(id)
	if r.keyMode == KeyBySession {
		delete(r.state, id.String())
		r.warn(r.persist.SaveState(r.state), "save state")
	}
	err = s.Close()
	r.logger.Info("session closed", "session", id, "remaining", len(r.order))
	return len(r.order) == 0, err
}

// Shutdown closes every session. Persisted state is left as last written so
// the next run can restore it.
func (r *Registry) Shutdown() error {
	var errs []error
	for _, id := range r.order {
		if err := r.sessions[id].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	r.order = nil
	r.sessions = make(map[session.ID]*session.Session)
	return errors.Join(errs...)
}

// CycleNext returns the session after current in tab order, wrapping to the
// first. With a single session it returns current.
func (r *Registry) CycleNext(current session.ID) (session.ID, error) {
	return r.cycle(current, 1)
}

// CyclePrev is CycleNext in the other direction.
func (r *Registry) CyclePrev(current session.ID) (session.ID, error) {
	return r.cycle(current, -1)
}

func (r *Registry) cycle(current session.ID, delta int) (session.ID, error) {
	idx := r.index(current)
	if idx < 0 {
		return current, fmt.Errorf("%w: %s", ErrUnknownSession, current)
	}
	n := len(r.order)
	return r.order[(idx+delta+n)%n], nil
}

// Get returns the session for id.
func (r *Registry) Get(id session.ID) (*session.Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Sessions returns the open sessions in tab order.
func (r *Registry) Sessions() []*session.Session {
	out := make([]*session.Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// IDs returns the open session ids in tab order.
func (r *Registry) IDs() []session.ID {
	return append([]session.ID(nil), r.order...)
}

func (r *Registry) Len() int { return len(r.order) }

// Index returns the tab position of id, or -1.
func (r *Registry) Index(id session.ID) int { return r.index(id) }

// Recent returns the recent files, most recent first.
func (r *Registry) Recent() []string { return r.recent.Paths() }

// MatchRecent ranks the recent files against query.
func (r *Registry) MatchRecent(query string) []string { return r.recent.Match(query) }

// State returns a copy of the persisted state as last written.
func (r *Registry) State() persist.State { return r.state.Clone() }

func (r *Registry) key(id session.ID, path string) string {
	if r.keyMode == KeyByPath {
		return persist.PathKey(path)
	}
	return id.String()
}

func (r *Registry) restore(id session.ID, path string) *persist.Entry {
	e, ok := r.state[r.key(id, path)]
	if !ok {
		return nil
	}
	if e.Path != "" && e.Path != path {
		r.logger.Debug("ignoring state recorded for another file", "session", id, "recorded", e.Path, "path", path)
		return nil
	}
	return &e
}

func (r *Registry) observe(c session.Change) {
	r.state[r.key(c.ID, c.Path)] = persist.Entry{CurrentPage: c.Page, ZoomFactor: c.Zoom, Path: c.Path}
	r.warn(r.persist.SaveState(r.state), "save state")
	if r.onChange != nil {
		r.onChange(c)
	}
}

func (r *Registry) warn(err error, what string) {
	if err == nil {
		return
	}
	err = fmt.Errorf("%s: %w", what, err)
	r.logger.Warn("persistence write failed", "err", err)
	if r.onWarning != nil {
		r.onWarning(err)
	}
}

func (r *Registry) index(id session.ID) int {
	for i, v := range r.order {
		if v == id {
			return i
		}
	}
	return -1
}

func (r *Registry) remove(id session.ID) {
	delete(r.sessions, id)
	if i := r.index(id); i >= 0 {
		r.order = append(r.order[:i], r.order[i+1:]...)
	}
}
