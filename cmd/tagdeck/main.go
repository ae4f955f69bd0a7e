package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"tagdeck/internal/execx"
	"tagdeck/internal/exiftool"
	"tagdeck/internal/logging"
	"tagdeck/internal/nav"
	"tagdeck/internal/query"
	"tagdeck/internal/selection"
	"tagdeck/internal/store"
	"tagdeck/internal/tmsu"
	"tagdeck/internal/ui"
	"tagdeck/internal/watch"
)

func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	configDir := configDir()
	if err := logging.Init(filepath.Join(configDir, "tagdeck.log"), *debug); err != nil {
		logging.InitDiscard()
	}
	defer logging.Sync()

	db := store.NewDB()
	if err := db.Open(filepath.Join(configDir, "tagdeck.db")); err != nil {
		zap.S().Warnw("settings store unavailable", "err", err)
	}
	defer db.Close()

	runner := &execx.Runner{Timeout: execx.DefaultTimeout}
	tags := tmsu.NewClient(runner)
	meta := exiftool.NewClient(runner)

	// Stored overrides beat PATH discovery; stale ones are dropped.
	if path, ok := db.Setting(store.KeyTmsuPath); ok {
		if err := tags.SetPath(path); err != nil {
			zap.S().Warnw("stored tmsu path no longer valid", "path", path)
		}
	}
	if path, ok := db.Setting(store.KeyExiftoolPath); ok {
		if err := meta.SetPath(path); err != nil {
			zap.S().Warnw("stored exiftool path no longer valid", "path", path)
		}
	}

	watcher, err := watch.NewDirectoryWatcher(200 * time.Millisecond)
	if err != nil {
		zap.S().Warnw("directory watcher unavailable", "err", err)
		watcher = nil
	} else {
		defer watcher.Close()
	}

	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()

	model := ui.New(ui.Deps{
		Tags:      tags,
		Meta:      meta,
		Resolver:  query.NewResolver(tags),
		Selection: selection.NewController(meta, tags),
		Tree:      nav.New(home, cwd),
		Store:     db,
		Watcher:   watcher,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		zap.S().Errorw("fatal error", "err", err)
		fmt.Fprintf(os.Stderr, "tagdeck: %v\n", err)
		os.Exit(1)
	}
}

// configDir is where the log and settings database live.
func configDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "tagdeck")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tagdeck")
}
