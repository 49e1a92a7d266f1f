// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/jeranaias/council-tui/internal/logging"
	"github.com/jeranaias/council-tui/internal/model"
)

// DefaultDebounce is how long a file must stay quiet before it is reloaded.
const DefaultDebounce = 150 * time.Millisecond

// ErrEmptyFile is returned by Load for a zero-length file, which usually
// means a writer truncated it and has not finished yet.
var ErrEmptyFile = errors.New("conversation file is empty")

// Load reads and decodes a conversation JSON file.
func Load(path string) (*model.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &conv, nil
}

// =============================================================================
// WATCHER
// =============================================================================

// Watcher follows one conversation file.
type Watcher struct {
	path     string
	debounce time.Duration
	fn       func(*model.Conversation)
	log      zerolog.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending time.Time // last change not yet reloaded; zero when idle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates a watcher for path. fn receives every successfully decoded
// snapshot; it runs on the watcher's goroutine.
func New(path string, debounce time.Duration, fn func(*model.Conversation), log zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		debounce: debounce,
		fn:       fn,
		log:      logging.Component(log, "watch").With().Str("file", filepath.Base(abs)).Logger(),
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins watching. Changes made before Start are not reported.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and waits for the watcher goroutines to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.cancel()
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// processPending reloads the file once it has been quiet for the debounce
// interval.
func (w *Watcher) processPending() {
	defer w.wg.Done()

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	conv, err := Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msg("skipping unreadable snapshot")
		return
	}
	w.log.Debug().Str("conversation", conv.ID).Int("messages", conv.MessageCount()).Msg("snapshot reloaded")
	if w.fn != nil {
		w.fn(conv)
	}
}
