package registry

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/tabreader/internal/persist"
)

// RecentFiles is a most-recent-first list of absolute paths without
// duplicates.
type RecentFiles struct {
	paths []string
	limit int
}

// NewRecentFiles seeds the list with initial, which is assumed to be
// most-recent-first already.
func NewRecentFiles(limit int, initial []string) *RecentFiles {
	if limit <= 0 {
		limit = persist.DefaultRecentLimit
	}
	r := &RecentFiles{limit: limit}
	for i := len(initial) - 1; i >= 0; i-- {
		r.Touch(initial[i])
	}
	return r
}

// Touch moves path to the front, inserting it if new and evicting the
// oldest entry past the limit. It reports whether the list changed.
func (r *RecentFiles) Touch(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	if len(r.paths) > 0 && r.paths[0] == path {
		return false
	}
	out := make([]string, 0, len(r.paths)+1)
	out = append(out, path)
	for _, p := range r.paths {
		if p != path {
			out = append(out, p)
		}
	}
	if len(out) > r.limit {
		out = out[:r.limit]
	}
	r.paths = out
	return true
}

// Paths returns a copy of the list.
func (r *RecentFiles) Paths() []string {
	return append([]string(nil), r.paths...)
}

func (r *RecentFiles) Len() int { return len(r.paths) }

// Match ranks the list against query: substring hits on the file name come
// first, then everything else by edit distance to the file name. An empty
// query returns the list unchanged.
func (r *RecentFiles) Match(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return r.Paths()
	}
	type scored struct {
		path  string
		hit   bool
		dist  int
		order int
	}
	items := make([]scored, 0, len(r.paths))
	for i, p := range r.paths {
		name := strings.ToLower(filepath.Base(p))
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		items = append(items, scored{
			path:  p,
			hit:   strings.Contains(name, q),
			dist:  levenshtein.ComputeDistance(q, stem),
			order: i,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].hit != items[j].hit {
			return items[i].hit
		}
		if items[i].hit {
			return items[i].order < items[j].order
		}
		return items[i].dist < items[j].dist
	})
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.path)
	}
	return out
}
