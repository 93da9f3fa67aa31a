package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/tabreader/internal/config"
	"github.com/jask/tabreader/internal/document"
	"github.com/jask/tabreader/internal/persist"
	"github.com/jask/tabreader/internal/registry"
	"github.com/jask/tabreader/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default $TABREADER_CONFIG or <user config dir>/tabreader/config.toml)")
	writeConfig := flag.Bool("write-config", false, "write the effective config and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file.pdf ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *writeConfig {
		path, err := writeConfigFile(*configPath)
		if err != nil {
			log.Fatalf("write config: %v", err)
		}
		fmt.Println(path)
		return
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, logFile, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	keys := tui.NewKeyRegistry()
	overrides, err := tui.LoadKeybindings(cfg.UI.Keybindings)
	if err != nil {
		log.Fatalf("keybindings: %v", err)
	}
	if err := keys.ApplyKeybindingConfig(overrides); err != nil {
		log.Fatalf("keybindings %s: %v", cfg.UI.Keybindings, err)
	}

	reg, p, err := setup(cfg, document.NewFitzBackend(), logger)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	defer p.Close()

	model := tui.New(reg, tui.Options{
		Paths:        flag.Args(),
		CellWidthPx:  cfg.UI.CellWidthPx,
		CellHeightPx: cfg.UI.CellHeightPx,
		ResizeDelay:  cfg.Render.ResizeDebounce,
		Keys:         keys,
		Logger:       logger,
	})
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := prog.Run()
	if err := reg.Shutdown(); err != nil {
		logger.Warn("shutdown", "err", err)
	}
	if runErr != nil {
		fmt.Printf("error: %v\n", runErr)
	}
}

// writeConfigFile saves the effective config to path. The file may not exist
// yet; creating it is the point.
func writeConfigFile(path string) (string, error) {
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return "", err
	}
	return config.Save(cfg, path)
}

// setup opens the state store and loads the registry from it.
func setup(cfg config.Config, backend document.Backend, logger *slog.Logger) (*registry.Registry, *persist.Persistence, error) {
	keyMode, err := registry.ParseKeyMode(cfg.State.KeyMode)
	if err != nil {
		return nil, nil, err
	}
	store, err := persist.Open(cfg.State.Backend, cfg.State.Dir)
	if err != nil {
		return nil, nil, err
	}
	p := persist.New(store, persist.WithRecentLimit(cfg.Recent.Limit), persist.WithLogger(logger))
	reg := registry.New(backend, p, registry.WithKeyMode(keyMode), registry.WithLogger(logger))
	logger.Info("state loaded", "backend", cfg.State.Backend, "dir", cfg.State.Dir, "key_mode", keyMode)
	return reg, p, nil
}

// newLogger logs to cfg.Path; the terminal belongs to the UI.
func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	return slog.New(h), f, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
