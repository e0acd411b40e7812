// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/trackgate/internal/log"
)

// Watcher invalidates cached sizes when files under a local media root
// change. Directories created after Start are picked up as they appear.
type Watcher struct {
	root       string
	invalidate func(key string)
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger
	done       chan struct{}
}

// NewWatcher returns a watcher for root calling invalidate with the
// slash-separated key of every changed file.
func NewWatcher(root string, invalidate func(key string)) *Watcher {
	return &Watcher{
		root:       root,
		invalidate: invalidate,
		logger:     xglog.WithComponent("storage.watcher"),
		done:       make(chan struct{}),
	}
}

// Start registers the tree and runs the event loop until ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	w.watcher = fw

	if err := w.addTree(w.root); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch media root: %w", err)
	}

	w.logger.Info().
		Str(xglog.FieldEvent, "watcher.started").
		Str(xglog.FieldPath, w.root).
		Msg("watching media root for changes")

	go w.loop(ctx)
	return nil
}

// Done is closed once the event loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(p)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(xglog.FieldEvent, "watcher.stopped").Msg("media root watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Str(xglog.FieldEvent, "watcher.error").Msg("fsnotify watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if event.Has(fsnotify.Create) {
		if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn().Err(err).Str(xglog.FieldPath, event.Name).Msg("failed to watch new directory")
			}
			return
		}
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	key := filepath.ToSlash(rel)
	w.invalidate(key)
	w.logger.Debug().
		Str(xglog.FieldEvent, "watcher.invalidate").
		Str(xglog.FieldFileKey, key).
		Msg("cached size invalidated")
}
