package tui

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/key"
)

type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scope  string
}

// KeyRegistry resolves key names to actions per input scope. Lookups that
// miss in a scope fall back to scopeGlobal.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal    = "global"
	scopeReader    = "reader"
	scopePageInput = "page_input"
	scopeOpenInput = "open_input"
	scopeRecent    = "recent_picker"
	scopeAreaZoom  = "area_zoom"
)

const (
	actionQuit        Action = "quit"
	actionNextPage    Action = "next_page"
	actionPrevPage    Action = "prev_page"
	actionFirstPage   Action = "first_page"
	actionLastPage    Action = "last_page"
	actionGoToPage    Action = "goto_page"
	actionZoomIn      Action = "zoom_in"
	actionZoomOut     Action = "zoom_out"
	actionResetZoom   Action = "reset_zoom"
	actionFitWidth    Action = "fit_width"
	actionFitHeight   Action = "fit_height"
	actionSliderUp    Action = "slider_up"
	actionSliderDown  Action = "slider_down"
	actionAreaZoom    Action = "area_zoom"
	actionScrollUp    Action = "scroll_up"
	actionScrollDown  Action = "scroll_down"
	actionScrollLeft  Action = "scroll_left"
	actionScrollRight Action = "scroll_right"
	actionOpen        Action = "open"
	actionRecent      Action = "recent"
	actionCloseTab    Action = "close_tab"
	actionNextTab     Action = "next_tab"
	actionPrevTab     Action = "prev_tab"
	actionConfirm     Action = "confirm"
	actionCancel      Action = "cancel"
	actionMoveUp      Action = "move_up"
	actionMoveDown    Action = "move_down"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scope: scope})
	}

	reg(scopeGlobal, actionQuit, []string{"ctrl+c"}, "quit")

	// Reader footer.
	reg(scopeReader, actionNextPage, []string{"pgdown", "n", "space"}, "next")
	reg(scopeReader, actionPrevPage, []string{"pgup", "p"}, "prev")
	reg(scopeReader, actionGoToPage, []string{"g"}, "page")
	reg(scopeReader, actionFirstPage, []string{"home"}, "first")
	reg(scopeReader, actionLastPage, []string{"end", "G"}, "last")
	reg(scopeReader, actionZoomIn, []string{"+", "="}, "zoom in")
	reg(scopeReader, actionZoomOut, []string{"-"}, "zoom out")
	reg(scopeReader, actionResetZoom, []string{"0"}, "100%")
	reg(scopeReader, actionFitWidth, []string{"w"}, "fit width")
	reg(scopeReader, actionFitHeight, []string{"h"}, "fit height")
	reg(scopeReader, actionSliderDown, []string{"["}, "slider -")
	reg(scopeReader, actionSliderUp, []string{"]"}, "slider +")
	reg(scopeReader, actionAreaZoom, []string{"a"}, "area zoom")
	reg(scopeReader, actionScrollUp, []string{"up", "k"}, "scroll")
	reg(scopeReader, actionScrollDown, []string{"down", "j"}, "scroll")
	reg(scopeReader, actionScrollLeft, []string{"left"}, "scroll")
	reg(scopeReader, actionScrollRight, []string{"right", "l"}, "scroll")
	reg(scopeReader, actionOpen, []string{"o"}, "open")
	reg(scopeReader, actionRecent, []string{"r"}, "recent")
	reg(scopeReader, actionCloseTab, []string{"x"}, "close tab")
	reg(scopeReader, actionNextTab, []string{"tab"}, "next tab")
	reg(scopeReader, actionPrevTab, []string{"shift+tab"}, "prev tab")
	reg(scopeReader, actionQuit, []string{"q"}, "quit")

	reg(scopePageInput, actionConfirm, []string{"enter"}, "go")
	reg(scopePageInput, actionCancel, []string{"esc"}, "cancel")
	reg(scopeOpenInput, actionConfirm, []string{"enter"}, "open")
	reg(scopeOpenInput, actionCancel, []string{"esc"}, "cancel")

	reg(scopeRecent, actionMoveUp, []string{"up", "ctrl+p"}, "up")
	reg(scopeRecent, actionMoveDown, []string{"down", "ctrl+n"}, "down")
	reg(scopeRecent, actionConfirm, []string{"enter"}, "open")
	reg(scopeRecent, actionCancel, []string{"esc"}, "cancel")

	reg(scopeAreaZoom, actionCancel, []string{"esc", "a"}, "cancel")

	return r
}

func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	scope := strings.TrimSpace(b.Scope)
	if scope == "" {
		return
	}
	keys := normalizeKeyList(b.Keys)
	if len(keys) == 0 || r.scopeHasAnyKey(scope, keys) {
		return
	}
	if _, ok := r.indexByScope[scope]; !ok {
		r.indexByScope[scope] = make(map[string]*Binding)
	}
	copyBinding := b
	copyBinding.Keys = keys
	copyBinding.Scope = scope
	r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
	for _, k := range keys {
		r.indexByScope[scope][k] = &copyBinding
	}
}

func (r *KeyRegistry) BindingsForScope(scope string) []Binding {
	if r == nil {
		return nil
	}
	items := r.bindingsByScope[scope]
	out := make([]Binding, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out
}

func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.indexByScope[scope][keyName]; b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.indexByScope[scopeGlobal][keyName]
	}
	return nil
}

// HelpBindings returns the scope's bindings for the footer, collapsing
// bindings that share a help label.
func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.BindingsForScope(scope)
	out := make([]key.Binding, 0, len(items))
	seen := make(map[string]bool)
	for _, b := range items {
		if seen[b.Help] {
			continue
		}
		seen[b.Help] = true
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	lookup := r.indexByScope[scope]
	for _, k := range keys {
		if _, exists := lookup[k]; exists {
			return true
		}
	}
	return false
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	trimmed := strings.TrimSpace(k)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) == 1 {
		// single runes keep their case so "g" and "G" stay distinct
		return trimmed
	}
	s := strings.ToLower(trimmed)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "ctl+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	s = strings.ReplaceAll(s, "spacebar", "space")
	s = strings.ReplaceAll(s, "pagedown", "pgdown")
	s = strings.ReplaceAll(s, "pageup", "pgup")
	return s
}

// KeybindingConfig is one [[binding]] entry of the key-binding file. An
// empty scope means the reader scope.
type KeybindingConfig struct {
	Scope  string   `toml:"scope"`
	Action string   `toml:"action"`
	Keys   []string `toml:"keys"`
}

type keybindingFile struct {
	Binding []KeybindingConfig `toml:"binding"`
}

// LoadKeybindings reads overrides from path. A missing file yields none.
func LoadKeybindings(path string) ([]KeybindingConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	var f keybindingFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Binding, nil
}

// ApplyKeybindingConfig replaces the keys of existing bindings. Unknown
// scopes or actions, duplicate entries and key conflicts within a scope are
// errors; on error the registry is left unchanged.
func (r *KeyRegistry) ApplyKeybindingConfig(items []KeybindingConfig) error {
	if r == nil || len(items) == 0 {
		return nil
	}
	type pair struct {
		scope  string
		action Action
	}
	updates := make(map[*Binding][]string)
	seenPair := make(map[pair]bool)
	for _, o := range items {
		scope := strings.TrimSpace(o.Scope)
		if scope == "" {
			scope = scopeReader
		}
		action := Action(strings.TrimSpace(o.Action))
		if action == "" {
			return fmt.Errorf("keybinding scope=%q: action is required", scope)
		}
		keys := normalizeKeyList(o.Keys)
		if len(keys) == 0 {
			return fmt.Errorf("keybinding scope=%q action=%q: keys are required", scope, action)
		}
		bindings := r.bindingsByScope[scope]
		if len(bindings) == 0 {
			return fmt.Errorf("keybinding scope=%q action=%q: unknown scope", scope, action)
		}
		var target *Binding
		for _, b := range bindings {
			if b.Action == action {
				target = b
				break
			}
		}
		if target == nil {
			return fmt.Errorf("keybinding scope=%q action=%q: unknown action in scope", scope, action)
		}
		p := pair{scope: scope, action: action}
		if seenPair[p] {
			return fmt.Errorf("keybinding scope=%q action=%q: duplicated entry", scope, action)
		}
		seenPair[p] = true
		updates[target] = keys
	}

	for scope, bindings := range r.bindingsByScope {
		seen := make(map[string]Action)
		for _, b := range bindings {
			keys := b.Keys
			if k, ok := updates[b]; ok {
				keys = k
			}
			for _, k := range keys {
				if prev, ok := seen[k]; ok {
					return fmt.Errorf("keybinding conflict in scope=%q: key %q used by both %q and %q", scope, k, prev, b.Action)
				}
				seen[k] = b.Action
			}
		}
	}
	for b, keys := range updates {
		b.Keys = keys
	}
	r.rebuildIndex()
	return nil
}

// ExportKeybindingConfig lists every binding, sorted by scope and action.
func (r *KeyRegistry) ExportKeybindingConfig() []KeybindingConfig {
	if r == nil {
		return nil
	}
	var out []KeybindingConfig
	for scope, bindings := range r.bindingsByScope {
		for _, b := range bindings {
			out = append(out, KeybindingConfig{
				Scope:  scope,
				Action: string(b.Action),
				Keys:   append([]string(nil), b.Keys...),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Action < out[j].Action
	})
	return out
}

func (r *KeyRegistry) rebuildIndex() {
	r.indexByScope = make(map[string]map[string]*Binding, len(r.bindingsByScope))
	for scope, bindings := range r.bindingsByScope {
		r.indexByScope[scope] = make(map[string]*Binding)
		for _, b := range bindings {
			for _, k := range b.Keys {
				r.indexByScope[scope][k] = b
			}
		}
	}
}
