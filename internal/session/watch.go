/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"quickbox/internal/editor"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the document whenever its file changes on disk. Bursts of
// events are debounced; writes made by the session itself are ignored.
func (s *Session) Watch() error {
	path, err := s.Path(context.Background())
	if err != nil {
		return err
	}
	if path == "" {
		return ErrNoPath
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so atomic replace-by-rename is seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.closed || s.watcher != nil {
		closed := s.closed
		s.mu.Unlock()
		cancel()
		_ = watcher.Close()
		if closed {
			return ErrClosed
		}
		return fmt.Errorf("already watching %s", path)
	}
	s.watcher, s.watchCancel = watcher, cancel
	s.mu.Unlock()

	go s.watchLoop(ctx, watcher, path)
	s.log.Info("watching", slog.String("path", path))
	return nil
}

func (s *Session) watchLoop(ctx context.Context, w *fsnotify.Watcher, path string) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != path {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.opts.WatchDebounce, func() {
				_ = s.Post(func(*editor.Engine) { _ = s.reload(false) })
			})
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", slog.Any("err", err))
		}
	}
}
