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

	"quickbox/internal/editor"
	"quickbox/internal/storage"

	"github.com/robfig/cron/v3"
)

// StartAutosave writes the unsaved document to the sidecar autosave file on
// the given cron schedule (e.g. "@every 1m"). Clean documents are skipped.
func (s *Session) StartAutosave(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		_ = s.Post(func(*editor.Engine) { _, _ = s.autosave() })
	}); err != nil {
		return fmt.Errorf("autosave schedule %q: %w", spec, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = c
	c.Start()
	s.log.Debug("autosave scheduled", slog.String("spec", spec))
	return nil
}

// AutosaveNow performs one autosave immediately. It reports whether a file
// was written.
func (s *Session) AutosaveNow(ctx context.Context) (bool, error) {
	var wrote bool
	err := s.Do(ctx, func(*editor.Engine) error {
		var err error
		wrote, err = s.autosave()
		return err
	})
	return wrote, err
}

func (s *Session) autosave() (bool, error) {
	if !s.dirty() {
		return false, nil
	}
	p, err := storage.WriteAutosave(s.path, s.eng.Document(), s.themes)
	if err != nil {
		s.log.ErrorContext(s.ctx, "autosave failed", slog.Any("err", err))
		return false, err
	}
	s.log.DebugContext(s.ctx, "autosaved", slog.String("file", p))
	s.emit(Event{Kind: EventAutosaved, Path: p})
	return true, nil
}

// Snapshot writes the live document to the autosave file regardless of
// whether it changed. The crash handler uses it.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	var p string
	err := s.Do(ctx, func(e *editor.Engine) error {
		var err error
		p, err = storage.WriteAutosave(s.path, e.Document(), s.themes)
		return err
	})
	return p, err
}
