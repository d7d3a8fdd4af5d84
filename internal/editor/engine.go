/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the document state engine of QuickBox. An Engine owns the
// live document, id counters, selection, temp group, history and the active
// transform. It is not safe for concurrent use: exactly one goroutine (see
// package session) may call into it.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	applog "quickbox/internal/log"
	"quickbox/internal/model"
	"quickbox/internal/undo"
)

// Renderer is asked to redraw after every state change.
type Renderer interface {
	RequestRender(reason string)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(reason string)

func (f RenderFunc) RequestRender(reason string) { f(reason) }

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	MinBoxSize          float64 // resize floor for width and height
	MinRegionHeight     float64 // header/footer divider floor
	DefaultRegionHeight float64
	DefaultCanvas       model.CanvasSize
	History             undo.Config
	Layout              Layout
	Renderer            Renderer
	Logger              *slog.Logger
}

const (
	DefaultMinBoxSize      = 30.0
	DefaultMinRegionHeight = 40.0
	MinCanvasWidth         = 320.0
	MinCanvasHeight        = 200.0
)

// State is the complete engine state. Only Doc is captured by history;
// counters are derived and selection is transient.
type State struct {
	Doc      model.Document
	Counters model.Counters
	Selected string   // single selection, "" for none
	Group    []string // temp group, in insertion order
}

// Selection is a read-only view of the selection state.
type Selection struct {
	Single string
	Group  []string
}

// Stats summarizes engine state for diagnostics and listings.
type Stats struct {
	Pages     int
	Boxes     int
	Counters  model.Counters
	History   undo.Stats
	Transform undo.OpKind
}

type Engine struct {
	opts Options
	st   State
	hist *undo.History
	tr   *transform
	log  *slog.Logger
}

// New returns an engine holding a fresh default document.
func New(opts Options) *Engine {
	if opts.MinBoxSize <= 0 {
		opts.MinBoxSize = DefaultMinBoxSize
	}
	if opts.MinRegionHeight <= 0 {
		opts.MinRegionHeight = DefaultMinRegionHeight
	}
	if opts.DefaultRegionHeight <= 0 {
		opts.DefaultRegionHeight = model.DefaultRegionHeight
	}
	if _, ok := opts.DefaultCanvas.Width(); !ok {
		opts.DefaultCanvas = model.CanvasDesktop
	}
	if opts.Layout == nil {
		opts.Layout = StackedLayout{}
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("editor")
	}
	e := &Engine{opts: opts, log: opts.Logger}
	hc := opts.History
	userCommit := hc.OnCommit
	hc.OnCommit = func() {
		e.render("history")
		if userCommit != nil {
			userCommit()
		}
	}
	e.hist = undo.New(hc)
	e.st.Doc = e.blankDocument()
	e.st.Counters = model.RecomputeCounters(&e.st.Doc)
	return e
}

func (e *Engine) blankDocument() model.Document {
	d := model.NewDocument()
	d.Header.Height = e.opts.DefaultRegionHeight
	d.Footer.Height = e.opts.DefaultRegionHeight
	d.Pages[0].CanvasSize = e.opts.DefaultCanvas
	return d
}

// Document returns a deep copy of the live document.
func (e *Engine) Document() model.Document { return e.st.Doc.Clone() }

// Counters returns the current id and z generators.
func (e *Engine) Counters() model.Counters { return e.st.Counters }

// Selection returns the single selection and the temp group.
func (e *Engine) Selection() Selection {
	return Selection{Single: e.st.Selected, Group: append([]string(nil), e.st.Group...)}
}

// History exposes the history engine for diagnostics.
func (e *Engine) History() *undo.History { return e.hist }

// Bounds returns the region bounds of the live document.
func (e *Engine) Bounds() Bounds { return e.opts.Layout.Bounds(&e.st.Doc) }

func (e *Engine) Stats() Stats {
	s := Stats{Pages: len(e.st.Doc.Pages), Counters: e.st.Counters, History: e.hist.Stats()}
	e.st.Doc.EachBox(func(model.RegionID, string, *model.Box) { s.Boxes++ })
	if e.tr != nil {
		s.Transform = e.tr.op
	}
	return s
}

// Load replaces the document wholesale. The document is normalized and
// validated first; on error the live state is untouched.
func (e *Engine) Load(d model.Document) error {
	if e.tr != nil {
		return ErrTransformActive
	}
	d = d.Clone()
	e.normalize(&d)
	if err := model.Validate(&d); err != nil {
		e.log.Warn("load rejected", slog.Any("err", err))
		return fmt.Errorf("load: %w", err)
	}
	e.install(d, "load")
	e.hist.Clear()
	return nil
}

// Reset starts over with a single empty page.
func (e *Engine) Reset() {
	e.tr = nil
	e.install(e.blankDocument(), "reset")
	e.hist.Clear()
}

func (e *Engine) normalize(d *model.Document) {
	if d.Header.Height <= 0 {
		d.Header.Height = e.opts.DefaultRegionHeight
	}
	if d.Footer.Height <= 0 {
		d.Footer.Height = e.opts.DefaultRegionHeight
	}
	if d.Header.Boxes == nil {
		d.Header.Boxes = []model.Box{}
	}
	if d.Footer.Boxes == nil {
		d.Footer.Boxes = []model.Box{}
	}
	for i := range d.Pages {
		if d.Pages[i].Boxes == nil {
			d.Pages[i].Boxes = []model.Box{}
		}
		if d.Pages[i].CanvasSize == "" {
			d.Pages[i].CanvasSize = e.opts.DefaultCanvas
		}
	}
	if d.CurrentPage() == nil && len(d.Pages) > 0 {
		d.CurrentPageID = d.Pages[0].ID
	}
	d.EachBox(func(_ model.RegionID, _ string, b *model.Box) { b.NormalizeItems() })
}

// install adopts d as the live document and derives everything else from it.
func (e *Engine) install(d model.Document, reason string) {
	e.st.Doc = d
	if e.st.Doc.CurrentPage() == nil && len(e.st.Doc.Pages) > 0 {
		e.st.Doc.CurrentPageID = e.st.Doc.Pages[0].ID
	}
	e.st.Selected = ""
	e.st.Group = nil
	e.st.Counters = model.RecomputeCounters(&e.st.Doc)
	e.render(reason)
}

// Undo restores the state before the most recent history entry.
func (e *Engine) Undo() error { return e.travel("undo", e.hist.Undo) }

// Redo reapplies the most recently undone entry.
func (e *Engine) Redo() error { return e.travel("redo", e.hist.Redo) }

func (e *Engine) travel(op string, step func(undo.Snapshot) (undo.Snapshot, error)) error {
	if e.tr != nil {
		return ErrTransformActive
	}
	s, err := step(e.hist.Capture(&e.st.Doc, op))
	if err != nil {
		if errors.Is(err, undo.ErrEmptyHistory) {
			e.log.Debug("history empty", slog.String("op", op))
		}
		return err
	}
	e.install(s.Doc, op)
	e.log.Debug(op, slog.String("entry", s.Label))
	return nil
}

// edit runs a discrete mutation. On error the document, counters and
// selection are rolled back and nothing is recorded.
func (e *Engine) edit(label string, fn func(d *model.Document) error) error {
	if e.tr != nil {
		return ErrTransformActive
	}
	before := e.hist.Capture(&e.st.Doc, label)
	counters, selected, group := e.st.Counters, e.st.Selected, append([]string(nil), e.st.Group...)
	if err := fn(&e.st.Doc); err != nil {
		e.st.Doc = before.Doc
		e.st.Counters, e.st.Selected, e.st.Group = counters, selected, group
		e.report(label, err)
		return err
	}
	e.hist.Push(undo.Discrete, before)
	e.render(label)
	return nil
}

func (e *Engine) report(op string, err error) {
	switch {
	case errors.Is(err, ErrPolicyViolation):
		e.log.Warn("rejected", slog.String("op", op), slog.Any("err", err))
	default:
		e.log.Debug("failed", slog.String("op", op), slog.Any("err", err))
	}
}

func (e *Engine) render(reason string) {
	if e.opts.Renderer != nil {
		e.opts.Renderer.RequestRender(reason)
	}
}
