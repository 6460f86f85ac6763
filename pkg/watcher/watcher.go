// Package watcher waits for the ModAPI installer's payload to appear inside
// a Wine prefix. The guest installer finishes out of band, under the user's
// control; watching the candidate install locations bridges that external
// completion signal back into the CLI.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/sporeforge/sporeforge/pkg/prefix"
)

// InstallWatcher blocks until a prefix contains a discovered installation.
type InstallWatcher struct {
	logger zerolog.Logger
}

// New creates an InstallWatcher.
func New(logger zerolog.Logger) *InstallWatcher {
	return &InstallWatcher{
		logger: logger.With().Str("component", "install-watcher").Logger(),
	}
}

// Wait returns the discovered installation as soon as one of the candidate
// install locations contains the launcher executable, or when ctx is done.
// fsnotify watches are not recursive, so the watch set is re-derived from
// the candidate directories' deepest existing ancestors after every event.
func (w *InstallWatcher) Wait(ctx context.Context, p prefix.Prefix) (*prefix.DiscoveredInstall, error) {
	if found := p.Locate(); found != nil {
		return found, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	watched := make(map[string]bool)
	if err := w.refreshWatches(fsw, p, watched); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil, fmt.Errorf("watcher closed unexpectedly")
			}
			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("filesystem event")
			if found := p.Locate(); found != nil {
				return found, nil
			}
			if err := w.refreshWatches(fsw, p, watched); err != nil {
				return nil, err
			}
			// Directories can appear between Locate and refresh; check again
			// so a burst of installer writes cannot slip past the watch set.
			if found := p.Locate(); found != nil {
				return found, nil
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil, fmt.Errorf("watcher closed unexpectedly")
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

// refreshWatches watches the deepest existing ancestor of every candidate
// install directory, adding directories as the installer creates them.
func (w *InstallWatcher) refreshWatches(fsw *fsnotify.Watcher, p prefix.Prefix, watched map[string]bool) error {
	for _, dir := range p.CandidateInstallDirs() {
		target := deepestExisting(dir)
		if target == "" || watched[target] {
			continue
		}
		if err := fsw.Add(target); err != nil {
			return fmt.Errorf("failed to watch %s: %w", target, err)
		}
		watched[target] = true
		w.logger.Debug().Str("path", target).Msg("watching")
	}
	return nil
}

// deepestExisting walks up from dir to the first path that exists.
func deepestExisting(dir string) string {
	for cur := dir; ; cur = filepath.Dir(cur) {
		if _, err := os.Stat(cur); err == nil {
			return cur
		}
		if cur == filepath.Dir(cur) {
			return ""
		}
	}
}
