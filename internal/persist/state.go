package persist

import (
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/tabreader/internal/zoom"
)

// Keys of the two independent documents.
const (
	StateKey  = "state"
	RecentKey = "recent_files"
)

// DefaultRecentLimit bounds the recent-files list.
const DefaultRecentLimit = 10

// Entry is the persisted view state of one document.
type Entry struct {
	CurrentPage int     `json:"currentPage"`
	ZoomFactor  float64 `json:"zoomFactor"`
	// Path is the absolute path the entry was recorded for. Entries written
	// by older versions have none.
	Path string `json:"path,omitempty"`
}

// State maps a session key to its entry.
type State map[string]Entry

// Clone returns an independent copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// PathKey derives a stable state key from an absolute path, for callers that
// remember documents across runs rather than per session.
func PathKey(absPath string) string {
	return "doc-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+absPath)).String()
}

// Persistence reads and writes reader state through a Store. Loads never
// fail: a missing or unreadable document means "no saved state".
type Persistence struct {
	store       Store
	recentLimit int
	logger      *slog.Logger
}

// Option configures a Persistence.
type Option func(*Persistence)

// WithRecentLimit overrides DefaultRecentLimit.
func WithRecentLimit(n int) Option {
	return func(p *Persistence) {
		if n > 0 {
			p.recentLimit = n
		}
	}
}

// WithLogger sets the logger used to report fail-soft loads.
func WithLogger(l *slog.Logger) Option {
	return func(p *Persistence) {
		if l != nil {
			p.logger = l
		}
	}
}

// New wraps store.
func New(store Store, opts ...Option) *Persistence {
	p := &Persistence{store: store, recentLimit: DefaultRecentLimit, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecentLimit reports the configured recent-files bound.
func (p *Persistence) RecentLimit() int { return p.recentLimit }

// SaveState overwrites the stored state with s.
func (p *Persistence) SaveState(s State) error {
	if s == nil {
		s = State{}
	}
	return p.store.WriteJSON(StateKey, s)
}

// LoadState returns the stored state with invalid entries dropped and zoom
// raised to the minimum. It returns an empty state when nothing usable is
// stored.
func (p *Persistence) LoadState() State {
	var raw State
	found, err := p.store.ReadJSON(StateKey, &raw)
	if err != nil {
		p.logger.Warn("state unreadable, starting fresh", "err", err)
		return State{}
	}
	if !found {
		return State{}
	}
	out := make(State, len(raw))
	for key, e := range raw {
		if strings.TrimSpace(key) == "" || e.CurrentPage < 0 {
			p.logger.Debug("dropping persisted entry", "key", key, "page", e.CurrentPage)
			continue
		}
		if math.IsNaN(e.ZoomFactor) || math.IsInf(e.ZoomFactor, 0) || e.ZoomFactor <= 0 {
			p.logger.Debug("dropping persisted entry", "key", key, "zoom", e.ZoomFactor)
			continue
		}
		e.ZoomFactor = zoom.Clamp(e.ZoomFactor)
		out[key] = e
	}
	return out
}

// SaveRecent overwrites the stored recent-files list.
func (p *Persistence) SaveRecent(paths []string) error {
	if paths == nil {
		paths = []string{}
	}
	return p.store.WriteJSON(RecentKey, paths)
}

// LoadRecent returns the stored recent-files list, de-duplicated and
// truncated to the limit.
func (p *Persistence) LoadRecent() []string {
	var raw []string
	found, err := p.store.ReadJSON(RecentKey, &raw)
	if err != nil {
		p.logger.Warn("recent files unreadable, starting fresh", "err", err)
		return nil
	}
	if !found {
		return nil
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, path := range raw {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
		if len(out) == p.recentLimit {
			break
		}
	}
	return out
}

// Close closes the underlying store.
func (p *Persistence) Close() error { return p.store.Close() }
