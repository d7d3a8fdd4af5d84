/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"errors"
	"sync"
	"time"

	"quickbox/internal/model"
)

// ErrEmptyHistory is returned by Undo and Redo when the relevant stack is empty.
var ErrEmptyHistory = errors.New("nothing to undo or redo")

// Snapshot is a fully independent copy of the document taken before an edit.
type Snapshot struct {
	Doc   model.Document
	TS    time.Time
	Label string
}

// Kind selects how Push records a snapshot.
type Kind int

const (
	// Discrete commits immediately.
	Discrete Kind = iota
	// ContinuousEnd closes a continuous operation and (re)starts the coalescing window.
	ContinuousEnd
)

// OpKind names the continuous operation in progress.
type OpKind string

const (
	OpNone         OpKind = ""
	OpDrag         OpKind = "drag"
	OpResize       OpKind = "resize"
	OpRegionResize OpKind = "region-resize"
	OpCanvasResize OpKind = "canvas-resize"
)

// Config controls depth cap and coalescing.
type Config struct {
	// MaxDepth bounds the undo stack; the oldest entries are evicted first.
	MaxDepth int
	// CoalesceWindow is how long a continuous-end push waits for a follow-up
	// before it is committed.
	CoalesceWindow time.Duration
	// Scheduler arms the coalescing timer. Defaults to SystemScheduler.
	Scheduler Scheduler
	// Now stamps snapshots. Defaults to time.Now.
	Now func() time.Time
	// OnCommit is called, outside the lock, after a pending coalesced entry
	// has been committed by the timer.
	OnCommit func()
}

// History keeps bounded undo and unbounded redo stacks of document snapshots
// and merges closely spaced continuous operations into one entry.
// It is safe for concurrent use.
type History struct {
	cfg Config
	mu  sync.Mutex

	undo []Snapshot
	redo []Snapshot

	active  OpKind    // continuous op between start and end
	pending *Snapshot // earliest baseline of a coalescing series
	timer   Timer
	gen     uint64 // invalidates timers that fire after being superseded

	coalesced int
	evicted   int
}

// Stats is a diagnostic view of the stacks.
type Stats struct {
	UndoDepth int
	RedoDepth int
	Active    OpKind
	Pending   bool
	Coalesced int
	Evicted   int
}

func New(cfg Config) *History {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 50
	}
	if cfg.CoalesceWindow <= 0 {
		cfg.CoalesceWindow = 300 * time.Millisecond
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &History{cfg: cfg}
}

// Capture deep-copies d into a snapshot.
func (h *History) Capture(d *model.Document, label string) Snapshot {
	return Snapshot{Doc: d.Clone(), TS: h.cfg.Now(), Label: label}
}

// Begin marks the start of a continuous operation. Discrete pushes are
// ignored until the matching ContinuousEnd push.
func (h *History) Begin(op OpKind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = op
}

// Abort clears the continuous marker without recording anything.
func (h *History) Abort() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = OpNone
}

// Active returns the continuous operation in progress, if any.
func (h *History) Active() OpKind {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Push records s, the state before the edit being committed.
// A Discrete push during a continuous operation is a no-op and returns false.
// A Discrete push while a coalesced entry is pending commits that entry first.
// A ContinuousEnd push keeps the earliest pending baseline and restarts the
// coalescing timer; the entry reaches the undo stack when the timer fires.
func (h *History) Push(kind Kind, s Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch kind {
	case ContinuousEnd:
		// The marker clears here; a later discrete edit ends the coalescing window.
		h.active = OpNone
		if h.pending == nil {
			h.pending = &s
		} else {
			h.coalesced++
		}
		h.armLocked()
		return true
	default:
		if h.active != OpNone {
			return false
		}
		h.flushLocked()
		h.commitLocked(s)
		return true
	}
}

// Pending reports whether a coalesced entry is waiting for its timer.
func (h *History) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

// Flush commits a pending coalesced entry immediately.
func (h *History) Flush() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushLocked()
}

// Undo moves current onto the redo stack and returns the most recent undo
// entry, which the caller installs as the live document.
func (h *History) Undo(current Snapshot) (Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
	if len(h.undo) == 0 {
		return Snapshot{}, ErrEmptyHistory
	}
	s := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return s, nil
}

// Redo is the inverse of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushLocked()
	if len(h.redo) == 0 {
		return Snapshot{}, ErrEmptyHistory
	}
	s := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	h.enforceCapLocked()
	return s, nil
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0 || h.pending != nil
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Clear drops both stacks, any pending entry and the continuous marker.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopTimerLocked()
	h.pending = nil
	h.active = OpNone
	h.undo = nil
	h.redo = nil
}

// Labels lists undo entry labels, oldest first.
func (h *History) Labels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.undo))
	for _, s := range h.undo {
		out = append(out, s.Label)
	}
	return out
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		UndoDepth: len(h.undo),
		RedoDepth: len(h.redo),
		Active:    h.active,
		Pending:   h.pending != nil,
		Coalesced: h.coalesced,
		Evicted:   h.evicted,
	}
}

func (h *History) armLocked() {
	h.stopTimerLocked()
	h.gen++
	gen := h.gen
	h.timer = h.cfg.Scheduler.AfterFunc(h.cfg.CoalesceWindow, func() { h.fire(gen) })
}

func (h *History) fire(gen uint64) {
	h.mu.Lock()
	if gen != h.gen || h.pending == nil {
		h.mu.Unlock()
		return
	}
	h.timer = nil
	h.flushLocked()
	cb := h.cfg.OnCommit
	h.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (h *History) stopTimerLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.gen++
}

func (h *History) flushLocked() bool {
	if h.pending == nil {
		return false
	}
	h.stopTimerLocked()
	s := *h.pending
	h.pending = nil
	h.commitLocked(s)
	return true
}

func (h *History) commitLocked(s Snapshot) {
	h.undo = append(h.undo, s)
	h.redo = nil
	h.enforceCapLocked()
}

func (h *History) enforceCapLocked() {
	if extra := len(h.undo) - h.cfg.MaxDepth; extra > 0 {
		h.evicted += extra
		h.undo = append([]Snapshot(nil), h.undo[extra:]...)
	}
}
