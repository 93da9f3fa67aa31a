package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	State  StateConfig
	Recent RecentConfig
	Render RenderConfig
	UI     UIConfig
	Log    LogConfig
}

// StateConfig selects where and how reader state is persisted.
type StateConfig struct {
	Dir     string
	Backend string
	KeyMode string `mapstructure:"key_mode"`
}

// RecentConfig bounds the recent-files list.
type RecentConfig struct {
	Limit int
}

// RenderConfig holds rendering policy.
type RenderConfig struct {
	ResizeDebounce time.Duration `mapstructure:"resize_debounce"`
}

// UIConfig holds terminal presentation settings.
type UIConfig struct {
	CellWidthPx  int `mapstructure:"cell_width_px"`
	CellHeightPx int `mapstructure:"cell_height_px"`
	Keybindings  string
}

// LogConfig holds log file settings.
type LogConfig struct {
	Path  string
	Level string
}

// DefaultDir is <user config dir>/tabreader, falling back to
// ~/.config/tabreader. It holds the config file and, unless state.dir says
// otherwise, the state files and log.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tabreader")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "tabreader")
}

// DefaultPath is the config file used when neither -config nor
// $TABREADER_CONFIG names one.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

func newViper() *viper.Viper {
	v := viper.New()

	// default values
	v.SetDefault("state.dir", DefaultDir())
	v.SetDefault("state.backend", "file")
	v.SetDefault("state.key_mode", "session")
	v.SetDefault("recent.limit", 10)
	v.SetDefault("render.resize_debounce", 200*time.Millisecond)
	v.SetDefault("ui.cell_width_px", 8)
	v.SetDefault("ui.cell_height_px", 16)
	v.SetDefault("ui.keybindings", "")
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")
	v.SetEnvPrefix("TABREADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads configuration from file and env. Env var overrides use prefix
// TABREADER_. path, when non-empty, wins over $TABREADER_CONFIG and the
// default location. The default file is optional; an explicitly named one
// must exist.
func Load(path string) (Config, error) {
	return load(path, false)
}

// LoadOptional is Load without the requirement that an explicitly named file
// exists. A missing file yields defaults plus env.
func LoadOptional(path string) (Config, error) {
	return load(path, true)
}

func load(path string, optional bool) (Config, error) {
	v := newViper()

	cfgPath := path
	if cfgPath == "" {
		cfgPath = os.Getenv("TABREADER_CONFIG")
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(DefaultDir())
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case optional && errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.fillDerived()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Default returns the configuration used when no file or env is present.
func Default() Config {
	var c Config
	_ = newViper().Unmarshal(&c)
	c.fillDerived()
	return c
}

func (c *Config) fillDerived() {
	if c.State.Dir == "" {
		c.State.Dir = DefaultDir()
	}
	if c.UI.Keybindings == "" {
		c.UI.Keybindings = filepath.Join(c.State.Dir, "keybindings.toml")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(c.State.Dir, "tabreader.log")
	}
}

// Validate rejects values the rest of the program cannot work with.
func (c Config) Validate() error {
	switch c.State.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("config: state.backend must be file or sqlite, got %q", c.State.Backend)
	}
	switch c.State.KeyMode {
	case "session", "path":
	default:
		return fmt.Errorf("config: state.key_mode must be session or path, got %q", c.State.KeyMode)
	}
	if c.Recent.Limit <= 0 {
		return fmt.Errorf("config: recent.limit must be positive, got %d", c.Recent.Limit)
	}
	if c.UI.CellWidthPx <= 0 || c.UI.CellHeightPx <= 0 {
		return fmt.Errorf("config: cell size must be positive, got %dx%d", c.UI.CellWidthPx, c.UI.CellHeightPx)
	}
	return nil
}

// Save writes the provided config to path (or the default location),
// creating the directory if needed.
func Save(cfg Config, path string) (string, error) {
	if path == "" {
		path = os.Getenv("TABREADER_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("state.dir", cfg.State.Dir)
	v.Set("state.backend", cfg.State.Backend)
	v.Set("state.key_mode", cfg.State.KeyMode)
	v.Set("recent.limit", cfg.Recent.Limit)
	v.Set("render.resize_debounce", cfg.Render.ResizeDebounce.String())
	v.Set("ui.cell_width_px", cfg.UI.CellWidthPx)
	v.Set("ui.cell_height_px", cfg.UI.CellHeightPx)
	v.Set("ui.keybindings", cfg.UI.Keybindings)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
