/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session runs one editor engine on a single goroutine. Commands,
// coalescing timers, file-watch reloads and scheduled autosaves are all
// posted onto that loop, so the engine itself needs no locks.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"quickbox/internal/config"
	"quickbox/internal/editor"
	applog "quickbox/internal/log"
	"quickbox/internal/model"
	"quickbox/internal/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
)

// ErrClosed is returned for work posted to a closed session.
var ErrClosed = errors.New("session closed")

// ErrNoPath is returned when saving or watching a document that has never been saved.
var ErrNoPath = errors.New("document has no file path")

// EventKind classifies session notifications.
type EventKind string

const (
	EventSaved        EventKind = "saved"
	EventAutosaved    EventKind = "autosaved"
	EventReloaded     EventKind = "reloaded"
	EventReloadFailed EventKind = "reload-failed"
	EventRestored     EventKind = "restored"
)

// Event is delivered to Options.OnEvent on the loop goroutine.
type Event struct {
	Kind EventKind
	Path string
	Err  error
}

// Options configure a session.
type Options struct {
	Editor editor.Options
	// Index records a revision and refreshes the search index on every save.
	Index         bool
	KeepRevisions int
	KeepBackups   int
	WatchDebounce time.Duration
	OnEvent       func(Event)
	Logger        *slog.Logger
}

// OptionsFromConfig maps the user configuration onto session options.
func OptionsFromConfig(cfg config.AppConfig) Options {
	e := cfg.Editor
	opts := Options{
		Editor: editor.Options{
			MinBoxSize:          e.MinBoxSize,
			MinRegionHeight:     e.MinRegionHeight,
			DefaultRegionHeight: e.DefaultRegionHeight,
			DefaultCanvas:       model.CanvasSize(e.DefaultCanvas),
		},
		Index:         true,
		KeepRevisions: 100,
		KeepBackups:   20,
		WatchDebounce: cfg.Watch.Debounce(),
	}
	opts.Editor.History.MaxDepth = e.HistoryDepth
	opts.Editor.History.CoalesceWindow = e.CoalesceWindow()
	return opts
}

// Session owns one engine and the file it was loaded from.
type Session struct {
	id   string
	opts Options
	log  *slog.Logger
	ctx  context.Context

	mu     sync.Mutex
	closed bool
	ops    chan func()
	done   chan struct{}

	// guarded by mu
	watcher     *fsnotify.Watcher
	watchCancel context.CancelFunc
	cron        *cron.Cron

	// loop-owned
	eng       *editor.Engine
	path      string
	themes    json.RawMessage
	saved     model.Document
	lastBytes []byte
	ix        *storage.Index
}

// New starts a session holding a fresh document that has no file yet.
func New(opts Options) *Session {
	s := start(opts)
	_ = s.Do(context.Background(), func(e *editor.Engine) error {
		s.saved = e.Document()
		return nil
	})
	return s
}

// Open starts a session on the document at path. A missing file yields a
// new document that will be created on the first save.
func Open(path string, opts Options) (*Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var h *storage.Handle
	if _, statErr := os.Stat(abs); statErr == nil {
		if h, err = storage.Open(abs); err != nil {
			return nil, err
		}
	}
	s := start(opts)
	err = s.Do(context.Background(), func(e *editor.Engine) error {
		s.setPath(abs)
		if h == nil {
			s.saved = e.Document()
			return nil
		}
		if err := e.Load(h.Doc); err != nil {
			return err
		}
		s.themes = h.Themes
		s.saved = e.Document()
		if !h.Recovered {
			s.lastBytes, _ = os.ReadFile(abs)
		}
		return nil
	})
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if h != nil && h.Recovered {
		s.log.WarnContext(s.ctx, "opened from backup", slog.String("path", abs))
	}
	return s, nil
}

func start(opts Options) *Session {
	id := uuid.NewString()
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("session")
	}
	if opts.WatchDebounce <= 0 {
		opts.WatchDebounce = 500 * time.Millisecond
	}
	s := &Session{
		id:   id,
		opts: opts,
		log:  opts.Logger,
		ctx:  applog.WithSession(context.Background(), id),
		ops:  make(chan func(), 64),
		done: make(chan struct{}),
	}
	eo := opts.Editor
	eo.History.Scheduler = loopScheduler{post: s.post}
	s.eng = editor.New(eo)
	go s.run()
	s.log.DebugContext(s.ctx, "session started")
	return s
}

func (s *Session) run() {
	defer close(s.done)
	for fn := range s.ops {
		fn()
	}
}

func (s *Session) post(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.ops <- fn
	return nil
}

// ID returns the session id used in log records.
func (s *Session) ID() string { return s.id }

// Post queues fn on the loop without waiting for it.
func (s *Session) Post(fn func(e *editor.Engine)) error {
	return s.post(func() { fn(s.eng) })
}

// Do runs fn on the loop and waits for its result. It must not be called
// from the loop itself.
func (s *Session) Do(ctx context.Context, fn func(e *editor.Engine) error) error {
	res := make(chan error, 1)
	if err := s.post(func() { res <- fn(s.eng) }); err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
}

// Document returns a copy of the live document.
func (s *Session) Document(ctx context.Context) (model.Document, error) {
	var d model.Document
	err := s.Do(ctx, func(e *editor.Engine) error {
		d = e.Document()
		return nil
	})
	return d, err
}

// Path returns the document's file path, empty for unsaved documents.
func (s *Session) Path(ctx context.Context) (string, error) {
	var p string
	err := s.Do(ctx, func(*editor.Engine) error {
		p = s.path
		return nil
	})
	return p, err
}

// Dirty reports whether the live document differs from the last saved or loaded one.
func (s *Session) Dirty(ctx context.Context) (bool, error) {
	var dirty bool
	err := s.Do(ctx, func(*editor.Engine) error {
		dirty = s.dirty()
		return nil
	})
	return dirty, err
}

func (s *Session) dirty() bool {
	d := s.eng.Document()
	return !reflect.DeepEqual(d, s.saved)
}

func (s *Session) setPath(p string) {
	s.path = p
	s.ctx = applog.WithDocument(s.ctx, p)
}

func (s *Session) emit(ev Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}

// Save writes the document to its file.
func (s *Session) Save(ctx context.Context, label string) error {
	return s.Do(ctx, func(*editor.Engine) error { return s.save(ctx, label) })
}

// SaveAs writes the document to path and makes it the session's file.
func (s *Session) SaveAs(ctx context.Context, path, label string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return s.Do(ctx, func(*editor.Engine) error {
		prev := s.path
		s.setPath(abs)
		if err := s.save(ctx, label); err != nil {
			s.setPath(prev)
			return err
		}
		if s.ix != nil && filepath.Dir(prev) != filepath.Dir(abs) {
			_ = s.ix.Close()
			s.ix = nil
		}
		return nil
	})
}

func (s *Session) save(ctx context.Context, label string) error {
	if s.path == "" {
		return ErrNoPath
	}
	d := s.eng.Document()
	h := &storage.Handle{Path: s.path, Doc: d, Themes: s.themes}
	if err := storage.Save(h); err != nil {
		s.log.ErrorContext(s.ctx, "save failed", slog.Any("err", err))
		return err
	}
	s.saved = d
	s.lastBytes, _ = os.ReadFile(s.path)
	var errs error
	if s.opts.Index {
		errs = multierr.Append(errs, s.record(ctx, d, label))
	}
	if s.opts.KeepBackups > 0 {
		_, err := storage.PruneBackups(s.path, s.opts.KeepBackups)
		errs = multierr.Append(errs, err)
	}
	errs = multierr.Append(errs, storage.ClearAutosave(s.path))
	if errs != nil {
		// the document itself is on disk
		s.log.WarnContext(s.ctx, "post-save housekeeping failed", slog.Any("err", errs))
	}
	s.log.InfoContext(s.ctx, "saved", slog.String("label", label))
	s.emit(Event{Kind: EventSaved, Path: s.path})
	return nil
}

func (s *Session) index() (*storage.Index, error) {
	if s.ix != nil {
		return s.ix, nil
	}
	if s.path == "" {
		return nil, ErrNoPath
	}
	ix, err := storage.OpenIndexFor(s.path)
	if err != nil {
		return nil, err
	}
	s.ix = ix
	return ix, nil
}

func (s *Session) record(ctx context.Context, d model.Document, label string) error {
	ix, err := s.index()
	if err != nil {
		return err
	}
	if label == "" {
		label = "save"
	}
	if _, err := ix.Record(ctx, s.path, d, s.themes, label, time.Now()); err != nil {
		return err
	}
	if s.opts.KeepRevisions > 0 {
		if _, err := ix.PruneRevisions(ctx, s.path, s.opts.KeepRevisions); err != nil {
			return err
		}
	}
	return nil
}

// Revisions lists the saved revisions of the session's document, newest first.
func (s *Session) Revisions(ctx context.Context, limit int) ([]storage.Revision, error) {
	var out []storage.Revision
	err := s.Do(ctx, func(*editor.Engine) error {
		ix, err := s.index()
		if err != nil {
			return err
		}
		out, err = ix.Revisions(ctx, s.path, limit)
		return err
	})
	return out, err
}

// Restore replaces the live document with a saved revision. History is
// cleared and the document becomes dirty until saved.
func (s *Session) Restore(ctx context.Context, id int64) error {
	return s.Do(ctx, func(e *editor.Engine) error {
		ix, err := s.index()
		if err != nil {
			return err
		}
		_, dec, err := ix.Revision(ctx, id)
		if err != nil {
			return err
		}
		if err := e.Load(dec.Doc); err != nil {
			return err
		}
		s.themes = dec.Themes
		s.log.InfoContext(s.ctx, "revision restored", slog.Int64("revision", id))
		s.emit(Event{Kind: EventRestored, Path: s.path})
		return nil
	})
}

// Search runs a box search against the index of the session's directory.
func (s *Session) Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var out []storage.SearchResult
	err := s.Do(ctx, func(*editor.Engine) error {
		ix, err := s.index()
		if err != nil {
			return err
		}
		out, err = ix.Search(ctx, q)
		return err
	})
	return out, err
}

// Reload re-reads the document file. A malformed file leaves the live
// document untouched and returns storage.ErrMalformedDocument.
func (s *Session) Reload(ctx context.Context) error {
	return s.Do(ctx, func(*editor.Engine) error { return s.reload(true) })
}

func (s *Session) reload(force bool) error {
	if s.path == "" {
		return ErrNoPath
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	if !force && bytes.Equal(data, s.lastBytes) {
		return nil
	}
	dec, err := storage.Decode(data)
	if err == nil {
		err = s.eng.Load(dec.Doc)
	}
	if err != nil {
		s.log.WarnContext(s.ctx, "reload rejected", slog.Any("err", err))
		s.emit(Event{Kind: EventReloadFailed, Path: s.path, Err: err})
		return err
	}
	s.themes = dec.Themes
	s.saved = s.eng.Document()
	s.lastBytes = data
	s.log.InfoContext(s.ctx, "reloaded from disk")
	s.emit(Event{Kind: EventReloaded, Path: s.path})
	return nil
}

// Close stops watchers and the autosave schedule, drains the loop and
// releases the index.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ops)
	watchCancel, watcher, sched := s.watchCancel, s.watcher, s.cron
	s.mu.Unlock()

	var err error
	if watchCancel != nil {
		watchCancel()
	}
	if watcher != nil {
		err = multierr.Append(err, watcher.Close())
	}
	if sched != nil {
		<-sched.Stop().Done()
	}
	<-s.done
	if s.ix != nil {
		err = multierr.Append(err, s.ix.Close())
	}
	s.log.DebugContext(s.ctx, "session closed")
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
