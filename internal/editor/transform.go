/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"log/slog"
	"strings"

	"quickbox/internal/geom"
	"quickbox/internal/model"
	"quickbox/internal/undo"
)

// Handle is one of the 8 resize handles, named by compass direction.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

var handles = []Handle{HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW}

func (h Handle) Valid() bool {
	for _, k := range handles {
		if k == h {
			return true
		}
	}
	return false
}

func (h Handle) has(edge byte) bool { return strings.IndexByte(string(h), edge) >= 0 }

// transform is the baseline of a continuous operation.
type transform struct {
	op      undo.OpKind
	before  undo.Snapshot
	target  string
	members []memberStart
	handle  Handle
	region  model.RegionID
	start   geom.Rect
}

type memberStart struct {
	id   string
	x, y float64
}

// Transform returns the continuous operation in progress.
func (e *Engine) Transform() undo.OpKind {
	if e.tr == nil {
		return undo.OpNone
	}
	return e.tr.op
}

func (e *Engine) begin(tr *transform) {
	tr.before = e.hist.Capture(&e.st.Doc, string(tr.op))
	e.hist.Begin(tr.op)
	e.tr = tr
}

func (e *Engine) current(op undo.OpKind) (*transform, error) {
	if e.tr == nil || e.tr.op != op {
		return nil, fmt.Errorf("%w: %s", ErrNoTransform, op)
	}
	return e.tr, nil
}

// finish commits the transform as one coalesced history entry.
func (e *Engine) finish(tr *transform) {
	e.tr = nil
	e.hist.Push(undo.ContinuousEnd, tr.before)
	e.render(string(tr.op) + " end")
}

// rollback restores the baseline and records nothing.
func (e *Engine) rollback(tr *transform, err error) error {
	e.tr = nil
	e.st.Doc = tr.before.Doc
	e.hist.Abort()
	e.report(string(tr.op), err)
	e.render(string(tr.op) + " rollback")
	return err
}

// CancelTransform abandons the transform in progress and restores the
// geometry it started from.
func (e *Engine) CancelTransform() error {
	if e.tr == nil {
		return ErrNoTransform
	}
	tr := e.tr
	e.tr = nil
	e.st.Doc = tr.before.Doc
	e.hist.Abort()
	e.render("cancel")
	return nil
}

// StartDrag begins moving a box. When the box is a member of a temp group
// with more than one member, the whole group moves.
func (e *Engine) StartDrag(id string) error {
	if e.tr != nil {
		return ErrTransformActive
	}
	if _, ok := e.st.Doc.Locate(id); !ok {
		return fmt.Errorf("%w: box %q", ErrDanglingReference, id)
	}
	ids := []string{id}
	if e.InGroup(id) {
		if g := e.groupMembers(); len(g) > 1 {
			ids = g
		}
	}
	if err := e.guardAll(&e.st.Doc, ids); err != nil {
		e.report("drag", err)
		return err
	}
	if len(ids) == 1 {
		e.st.Selected = id
	}
	tr := &transform{op: undo.OpDrag, target: id}
	for _, mid := range ids {
		b, _, _ := e.st.Doc.Find(mid)
		tr.members = append(tr.members, memberStart{id: mid, x: b.X, y: b.Y})
	}
	e.begin(tr)
	return nil
}

// UpdateDrag moves every dragged box by dx,dy from where the drag started.
func (e *Engine) UpdateDrag(dx, dy float64) error {
	tr, err := e.current(undo.OpDrag)
	if err != nil {
		return err
	}
	for _, m := range tr.members {
		if b, _, ok := e.st.Doc.Find(m.id); ok {
			b.X = m.x + dx
			b.Y = m.y + dy
		}
	}
	e.render("drag")
	return nil
}

// EndDrag finishes a drag. The region under the center of the dragged box
// decides where the boxes land; all of them transfer or none does.
// A transfer that crosses header or footer off page 1 is rolled back.
func (e *Engine) EndDrag() error {
	tr, err := e.current(undo.OpDrag)
	if err != nil {
		return err
	}
	bounds := e.opts.Layout.Bounds(&tr.before.Doc)
	b, from, ok := e.st.Doc.Find(tr.target)
	if !ok {
		return e.rollback(tr, fmt.Errorf("%w: box %q", ErrDanglingReference, tr.target))
	}
	to := bounds.Detect(bounds.Band(from).Top + b.Y + b.Height/2)
	if to != from {
		regions := []model.RegionID{to}
		for _, m := range tr.members {
			r, _ := e.ResolveRegion(m.id)
			regions = append(regions, r)
		}
		if err := e.guard(regions...); err != nil {
			return e.rollback(tr, err)
		}
		for _, m := range tr.members {
			if err := transfer(&e.st.Doc, bounds, m.id, to); err != nil {
				return e.rollback(tr, err)
			}
		}
		e.log.Debug("region transfer", slog.String("from", string(from)), slog.String("to", string(to)), slog.Int("boxes", len(tr.members)))
	}
	e.finish(tr)
	return nil
}

// StartResize begins resizing a box from handle h.
func (e *Engine) StartResize(id string, h Handle) error {
	if e.tr != nil {
		return ErrTransformActive
	}
	if !h.Valid() {
		return fmt.Errorf("%w: handle %q", ErrInvalidValue, h)
	}
	b, _, err := e.lookup(&e.st.Doc, id)
	if err != nil {
		e.report("resize", err)
		return err
	}
	e.st.Selected = id
	e.begin(&transform{op: undo.OpResize, target: id, handle: h, start: geom.R(b.X, b.Y, b.Width, b.Height)})
	return nil
}

// UpdateResize applies the pointer offset dx,dy from where the resize
// started. Width and height never go below the minimum box size; a west or
// north handle that hits the floor leaves both size and position as they were.
func (e *Engine) UpdateResize(dx, dy float64) error {
	tr, err := e.current(undo.OpResize)
	if err != nil {
		return err
	}
	b, _, ok := e.st.Doc.Find(tr.target)
	if !ok {
		return fmt.Errorf("%w: box %q", ErrDanglingReference, tr.target)
	}
	floor, s := e.opts.MinBoxSize, tr.start
	if tr.handle.has('e') {
		b.Width = max(floor, s.W+dx)
	}
	if tr.handle.has('w') {
		if w := s.W - dx; w >= floor {
			b.Width = w
			b.X = s.X + dx
		}
	}
	if tr.handle.has('s') {
		b.Height = max(floor, s.H+dy)
	}
	if tr.handle.has('n') {
		if h := s.H - dy; h >= floor {
			b.Height = h
			b.Y = s.Y + dy
		}
	}
	e.render("resize")
	return nil
}

func (e *Engine) EndResize() error {
	tr, err := e.current(undo.OpResize)
	if err != nil {
		return err
	}
	e.finish(tr)
	return nil
}

// StartRegionResize begins dragging the divider of the header or footer.
func (e *Engine) StartRegionResize(r model.RegionID) error {
	if e.tr != nil {
		return ErrTransformActive
	}
	if !r.Shared() {
		return fmt.Errorf("%w: region %q has no divider", ErrInvalidValue, r)
	}
	if err := e.guard(r); err != nil {
		e.report("region resize", err)
		return err
	}
	e.begin(&transform{op: undo.OpRegionResize, region: r, start: geom.R(0, 0, 0, e.st.Doc.Region(r).Height)})
	return nil
}

// UpdateRegionResize moves the divider by dy. The header grows downward,
// the footer grows upward.
func (e *Engine) UpdateRegionResize(dy float64) error {
	tr, err := e.current(undo.OpRegionResize)
	if err != nil {
		return err
	}
	h := tr.start.H + dy
	if tr.region == model.RegionFooter {
		h = tr.start.H - dy
	}
	e.st.Doc.Region(tr.region).Height = max(e.opts.MinRegionHeight, h)
	e.render("region resize")
	return nil
}

func (e *Engine) EndRegionResize() error {
	tr, err := e.current(undo.OpRegionResize)
	if err != nil {
		return err
	}
	e.finish(tr)
	return nil
}

// StartCanvasResize begins resizing the current page's canvas.
func (e *Engine) StartCanvasResize() error {
	if e.tr != nil {
		return ErrTransformActive
	}
	p := e.st.Doc.CurrentPage()
	if p == nil {
		return fmt.Errorf("%w: current page", ErrDanglingReference)
	}
	e.begin(&transform{op: undo.OpCanvasResize, start: geom.R(0, 0, p.Width(), p.MainHeight())})
	return nil
}

// UpdateCanvasResize switches the page to a custom size grown by dw,dh.
func (e *Engine) UpdateCanvasResize(dw, dh float64) error {
	tr, err := e.current(undo.OpCanvasResize)
	if err != nil {
		return err
	}
	p := e.st.Doc.CurrentPage()
	if p == nil {
		return fmt.Errorf("%w: current page", ErrDanglingReference)
	}
	p.CanvasSize = model.CanvasCustom
	p.CustomWidth = max(MinCanvasWidth, tr.start.W+dw)
	p.CustomHeight = max(MinCanvasHeight, tr.start.H+dh)
	e.render("canvas resize")
	return nil
}

func (e *Engine) EndCanvasResize() error {
	tr, err := e.current(undo.OpCanvasResize)
	if err != nil {
		return err
	}
	e.finish(tr)
	return nil
}
