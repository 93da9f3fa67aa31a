package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("TABREADER_CONFIG", "")
	return home
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := isolate(t)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.State.Backend != "file" {
		t.Errorf("backend = %q, want file", c.State.Backend)
	}
	if c.State.KeyMode != "session" {
		t.Errorf("key_mode = %q, want session", c.State.KeyMode)
	}
	if c.Recent.Limit != 10 {
		t.Errorf("recent.limit = %d, want 10", c.Recent.Limit)
	}
	if c.Render.ResizeDebounce != 200*time.Millisecond {
		t.Errorf("resize_debounce = %v, want 200ms", c.Render.ResizeDebounce)
	}
	want := filepath.Join(home, ".config", "tabreader")
	if c.State.Dir != want {
		t.Errorf("state.dir = %q, want %q", c.State.Dir, want)
	}
	if c.Log.Path != filepath.Join(want, "tabreader.log") {
		t.Errorf("log.path = %q", c.Log.Path)
	}
	if c.UI.Keybindings != filepath.Join(want, "keybindings.toml") {
		t.Errorf("ui.keybindings = %q", c.UI.Keybindings)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "reader.toml")
	data := `
[state]
dir = "` + filepath.ToSlash(dir) + `"
backend = "sqlite"
key_mode = "path"

[recent]
limit = 3

[render]
resize_debounce = "50ms"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.State.Backend != "sqlite" || c.State.KeyMode != "path" {
		t.Errorf("state = %+v", c.State)
	}
	if c.Recent.Limit != 3 {
		t.Errorf("recent.limit = %d, want 3", c.Recent.Limit)
	}
	if c.Render.ResizeDebounce != 50*time.Millisecond {
		t.Errorf("resize_debounce = %v, want 50ms", c.Render.ResizeDebounce)
	}
	if c.Log.Path != filepath.Join(dir, "tabreader.log") {
		t.Errorf("log.path = %q", c.Log.Path)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("TABREADER_STATE_BACKEND", "sqlite")
	t.Setenv("TABREADER_RECENT_LIMIT", "4")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.State.Backend != "sqlite" {
		t.Errorf("backend = %q, want sqlite", c.State.Backend)
	}
	if c.Recent.Limit != 4 {
		t.Errorf("recent.limit = %d, want 4", c.Recent.Limit)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("TABREADER_STATE_BACKEND", "redis")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	if err := base.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cases := map[string]func(*Config){
		"backend":  func(c *Config) { c.State.Backend = "" },
		"key mode": func(c *Config) { c.State.KeyMode = "inode" },
		"limit":    func(c *Config) { c.Recent.Limit = 0 },
		"cell":     func(c *Config) { c.UI.CellHeightPx = -1 },
	}
	for name, mutate := range cases {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := Default()
	cfg.State.Dir = dir
	cfg.State.Backend = "sqlite"
	cfg.Recent.Limit = 7

	path, err := Save(cfg, filepath.Join(dir, "nested", "config.toml"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.State.Backend != "sqlite" || got.Recent.Limit != 7 || got.State.Dir != dir {
		t.Errorf("round trip = %+v", got)
	}
	if got.Render.ResizeDebounce != cfg.Render.ResizeDebounce {
		t.Errorf("resize_debounce = %v, want %v", got.Render.ResizeDebounce, cfg.Render.ResizeDebounce)
	}
}

func TestLoadOptionalMissingExplicitFile(t *testing.T) {
	home := isolate(t)
	t.Setenv("TABREADER_RECENT_LIMIT", "6")

	c, err := LoadOptional(filepath.Join(t.TempDir(), "fresh.toml"))
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if c.Recent.Limit != 6 {
		t.Errorf("recent.limit = %d, want 6", c.Recent.Limit)
	}
	if c.State.Dir != filepath.Join(home, ".config", "tabreader") {
		t.Errorf("state.dir = %q", c.State.Dir)
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[state\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOptional(bad); err == nil {
		t.Fatal("a malformed file is still an error")
	}
}

func TestDefaultConfigLivesWithState(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Recent.Limit = 3

	path, err := Save(cfg, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != DefaultPath() {
		t.Errorf("path = %q, want %q", path, DefaultPath())
	}
	if filepath.Dir(path) != cfg.State.Dir {
		t.Errorf("config dir %q differs from state dir %q", filepath.Dir(path), cfg.State.Dir)
	}
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Recent.Limit != 3 {
		t.Errorf("default file not picked up: recent.limit = %d", got.Recent.Limit)
	}
}
