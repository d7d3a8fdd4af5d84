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
	"testing"
	"time"

	"quickbox/internal/model"
)

func snap(name string) Snapshot {
	d := model.NewDocument()
	d.Pages[0].Name = name
	return Snapshot{Doc: d, Label: name}
}

func name(s Snapshot) string { return s.Doc.Pages[0].Name }

func newTestHistory(depth int) (*History, *ManualScheduler) {
	sch := NewManualScheduler()
	return New(Config{MaxDepth: depth, CoalesceWindow: 300 * time.Millisecond, Scheduler: sch}), sch
}

func TestUndoRedoBasic(t *testing.T) {
	h, _ := newTestHistory(10)
	h.Push(Discrete, snap("a"))
	h.Push(Discrete, snap("b"))
	if st := h.Stats(); st.UndoDepth != 2 || st.RedoDepth != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	s, err := h.Undo(snap("c"))
	if err != nil || name(s) != "b" {
		t.Fatalf("undo expected 'b', got err=%v name=%q", err, name(s))
	}
	s, err = h.Redo(snap("b"))
	if err != nil || name(s) != "c" {
		t.Fatalf("redo expected 'c', got err=%v name=%q", err, name(s))
	}
}

func TestEmptyHistory(t *testing.T) {
	h, _ := newTestHistory(10)
	if _, err := h.Undo(snap("x")); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
	if _, err := h.Redo(snap("x")); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
	if st := h.Stats(); st.UndoDepth != 0 || st.RedoDepth != 0 {
		t.Fatalf("failed undo must not touch stacks: %+v", st)
	}
}

func TestDiscretePushClearsRedo(t *testing.T) {
	h, _ := newTestHistory(10)
	h.Push(Discrete, snap("a"))
	if _, err := h.Undo(snap("b")); err != nil {
		t.Fatalf("undo: %v", err)
	}
	h.Push(Discrete, snap("a"))
	if h.CanRedo() {
		t.Fatalf("expected redo to be invalidated")
	}
}

func TestDepthCapEvictsOldest(t *testing.T) {
	h, _ := newTestHistory(2)
	for _, n := range []string{"1", "2", "3", "4"} {
		h.Push(Discrete, snap(n))
	}
	st := h.Stats()
	if st.UndoDepth != 2 || st.Evicted != 2 {
		t.Fatalf("expected depth 2 with 2 evicted, got %+v", st)
	}
	s, _ := h.Undo(snap("5"))
	if name(s) != "4" {
		t.Fatalf("expected newest entry kept, got %q", name(s))
	}
}

func TestDiscreteIgnoredDuringContinuousOp(t *testing.T) {
	h, _ := newTestHistory(10)
	h.Begin(OpDrag)
	if h.Push(Discrete, snap("x")) {
		t.Fatalf("discrete push during drag must be a no-op")
	}
	if h.Stats().UndoDepth != 0 {
		t.Fatalf("nothing should have been recorded")
	}
}

func TestCoalesceWithinWindow(t *testing.T) {
	h, sch := newTestHistory(10)
	for i, n := range []string{"1", "2", "3"} {
		h.Begin(OpDrag)
		h.Push(ContinuousEnd, snap(n))
		if i < 2 {
			sch.Advance(100 * time.Millisecond)
		}
	}
	if h.Stats().UndoDepth != 0 || !h.Pending() {
		t.Fatalf("entry must stay pending until the window closes")
	}
	sch.Advance(300 * time.Millisecond)
	st := h.Stats()
	if st.UndoDepth != 1 || st.Pending || st.Coalesced != 2 {
		t.Fatalf("expected exactly one coalesced entry, got %+v", st)
	}
	s, _ := h.Undo(snap("now"))
	if name(s) != "1" {
		t.Fatalf("coalesced entry must keep the earliest baseline, got %q", name(s))
	}
}

func TestSeparatedContinuousOpsStaySeparate(t *testing.T) {
	h, sch := newTestHistory(10)
	for _, n := range []string{"1", "2", "3"} {
		h.Begin(OpResize)
		h.Push(ContinuousEnd, snap(n))
		sch.Advance(400 * time.Millisecond)
	}
	if d := h.Stats().UndoDepth; d != 3 {
		t.Fatalf("expected 3 entries, got %d", d)
	}
}

func TestSupersededTimerNeverCommits(t *testing.T) {
	h, sch := newTestHistory(10)
	h.Push(ContinuousEnd, snap("1"))
	h.Push(ContinuousEnd, snap("2"))
	if n := sch.Armed(); n != 1 {
		t.Fatalf("expected a single armed timer, got %d", n)
	}
	if fired := sch.Advance(time.Second); fired != 1 {
		t.Fatalf("expected one firing, got %d", fired)
	}
	if d := h.Stats().UndoDepth; d != 1 {
		t.Fatalf("expected 1 entry, got %d", d)
	}
}

func TestUndoFlushesPending(t *testing.T) {
	h, sch := newTestHistory(10)
	h.Push(Discrete, snap("a"))
	h.Push(ContinuousEnd, snap("b"))
	s, err := h.Undo(snap("c"))
	if err != nil || name(s) != "b" {
		t.Fatalf("undo must see the pending entry, got %v %q", err, name(s))
	}
	if sch.Advance(time.Second) != 0 {
		t.Fatalf("flushed timer must not fire")
	}
	if d := h.Stats().UndoDepth; d != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", d)
	}
}

func TestOnCommitCallback(t *testing.T) {
	sch := NewManualScheduler()
	calls := 0
	h := New(Config{Scheduler: sch, OnCommit: func() { calls++ }})
	h.Push(ContinuousEnd, snap("a"))
	sch.Advance(time.Second)
	if calls != 1 {
		t.Fatalf("expected one commit callback, got %d", calls)
	}
}

func TestClearDropsEverything(t *testing.T) {
	h, sch := newTestHistory(10)
	h.Push(Discrete, snap("a"))
	h.Begin(OpDrag)
	h.Push(ContinuousEnd, snap("b"))
	h.Clear()
	sch.Advance(time.Second)
	st := h.Stats()
	if st.UndoDepth != 0 || st.RedoDepth != 0 || st.Pending || st.Active != OpNone {
		t.Fatalf("expected empty history, got %+v", st)
	}
}
