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
	"os"
	"path/filepath"
	"testing"
	"time"

	"quickbox/internal/config"
	"quickbox/internal/editor"
	"quickbox/internal/model"
	"quickbox/internal/storage"

	"github.com/stretchr/testify/require"
)

func testOptions(events chan Event) Options {
	opts := Options{Index: true, WatchDebounce: 20 * time.Millisecond}
	opts.Editor.History.CoalesceWindow = 200 * time.Millisecond
	if events != nil {
		opts.OnEvent = func(ev Event) {
			select {
			case events <- ev:
			default:
			}
		}
	}
	return opts
}

func openTemp(t *testing.T, events chan Event) (*Session, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mock.json")
	s, err := Open(path, testOptions(events))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func addBox(t *testing.T, s *Session, typ model.BoxType) string {
	t.Helper()
	var id string
	require.NoError(t, s.Do(context.Background(), func(e *editor.Engine) error {
		var err error
		id, err = e.AddBox(typ)
		return err
	}))
	return id
}

func waitEvent(t *testing.T, events chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", kind)
		}
	}
}

func TestDoRunsCommandsInOrder(t *testing.T) {
	s := New(testOptions(nil))
	defer s.Close()
	ctx := context.Background()
	first := addBox(t, s, model.TypeText)
	second := addBox(t, s, model.TypeButton)
	require.Equal(t, "box-1", first)
	require.Equal(t, "box-2", second)

	d, err := s.Document(ctx)
	require.NoError(t, err)
	require.Len(t, d.Pages[0].Boxes, 2)
	require.Equal(t, model.TypeButton, d.Pages[0].Boxes[1].Type)

	dirty, err := s.Dirty(ctx)
	require.NoError(t, err)
	require.True(t, dirty)

	require.ErrorIs(t, s.Save(ctx, ""), ErrNoPath)
}

func TestCoalescedDragCommitsOnLoop(t *testing.T) {
	s := New(testOptions(nil))
	defer s.Close()
	ctx := context.Background()
	id := addBox(t, s, model.TypeText)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Do(ctx, func(e *editor.Engine) error {
			if err := e.StartDrag(id); err != nil {
				return err
			}
			if err := e.UpdateDrag(10, 0); err != nil {
				return err
			}
			return e.EndDrag()
		}))
	}

	require.Eventually(t, func() bool {
		var st editor.Stats
		_ = s.Do(ctx, func(e *editor.Engine) error { st = e.Stats(); return nil })
		return !st.History.Pending && st.History.UndoDepth == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Do(ctx, func(e *editor.Engine) error { return e.Undo() }))
	d, err := s.Document(ctx)
	require.NoError(t, err)
	require.Equal(t, 70.0, d.Pages[0].Boxes[0].X, "one undo reverts both drags")
}

func TestSaveOpenRoundTripRecordsRevision(t *testing.T) {
	events := make(chan Event, 16)
	s, path := openTemp(t, events)
	ctx := context.Background()
	id := addBox(t, s, model.TypeText)
	require.NoError(t, s.Do(ctx, func(e *editor.Engine) error { return e.SetContent(id, "Quarterly pricing overview") }))

	require.NoError(t, s.Save(ctx, "first"))
	waitEvent(t, events, EventSaved)
	dirty, err := s.Dirty(ctx)
	require.NoError(t, err)
	require.False(t, dirty)

	revs, err := s.Revisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	require.Equal(t, "first", revs[0].Label)

	res, err := s.Search(ctx, storage.SearchQuery{Text: "pricing"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, id, res[0].BoxID)
	require.NoError(t, s.Close())

	s2, err := Open(path, testOptions(nil))
	require.NoError(t, err)
	defer s2.Close()
	d, err := s2.Document(ctx)
	require.NoError(t, err)
	require.Len(t, d.Pages[0].Boxes, 1)
	require.Equal(t, "Quarterly pricing overview", d.Pages[0].Boxes[0].Content)
	var c model.Counters
	require.NoError(t, s2.Do(ctx, func(e *editor.Engine) error { c = e.Counters(); return nil }))
	require.Equal(t, 1, c.Box)
}

func TestRestoreRevision(t *testing.T) {
	s, _ := openTemp(t, nil)
	ctx := context.Background()
	id := addBox(t, s, model.TypeImage)
	require.NoError(t, s.Save(ctx, "with image"))
	require.NoError(t, s.Do(ctx, func(e *editor.Engine) error { return e.Delete(id) }))
	require.NoError(t, s.Save(ctx, "empty"))

	revs, err := s.Revisions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	require.Equal(t, "with image", revs[1].Label)

	require.NoError(t, s.Restore(ctx, revs[1].ID))
	d, err := s.Document(ctx)
	require.NoError(t, err)
	require.Len(t, d.Pages[0].Boxes, 1)
	dirty, err := s.Dirty(ctx)
	require.NoError(t, err)
	require.True(t, dirty)
	var canUndo bool
	require.NoError(t, s.Do(ctx, func(e *editor.Engine) error { canUndo = e.History().CanUndo(); return nil }))
	require.False(t, canUndo, "restore starts a fresh history")
}

func TestReloadRejectsMalformedFile(t *testing.T) {
	s, path := openTemp(t, nil)
	ctx := context.Background()
	addBox(t, s, model.TypeText)
	require.NoError(t, s.Save(ctx, ""))
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "0.3"}`), 0o644))

	require.ErrorIs(t, s.Reload(ctx), storage.ErrMalformedDocument)
	d, err := s.Document(ctx)
	require.NoError(t, err)
	require.Len(t, d.Pages[0].Boxes, 1, "live document untouched")
}

func TestWatchReloadsExternalChange(t *testing.T) {
	events := make(chan Event, 16)
	s, path := openTemp(t, events)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, ""))
	require.NoError(t, s.Watch())
	require.Error(t, s.Watch(), "second watch is rejected")

	ext := model.NewDocument()
	ext.Pages[0].Boxes = []model.Box{{ID: "box-7", Name: "External", Type: model.TypeText, Width: 10, Height: 10, ZIndex: 3}}
	data, err := storage.Encode(ext, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	waitEvent(t, events, EventReloaded)
	d, err := s.Document(ctx)
	require.NoError(t, err)
	require.Len(t, d.Pages[0].Boxes, 1)
	require.Equal(t, "External", d.Pages[0].Boxes[0].Name)
	var c model.Counters
	require.NoError(t, s.Do(ctx, func(e *editor.Engine) error { c = e.Counters(); return nil }))
	require.Equal(t, model.Counters{Box: 7, Page: 1, ZIndex: 4}, c)
}

func TestAutosaveSkipsCleanDocument(t *testing.T) {
	s, path := openTemp(t, nil)
	ctx := context.Background()
	wrote, err := s.AutosaveNow(ctx)
	require.NoError(t, err)
	require.False(t, wrote)

	addBox(t, s, model.TypeMenu)
	wrote, err = s.AutosaveNow(ctx)
	require.NoError(t, err)
	require.True(t, wrote)
	h, ok, err := storage.ReadAutosave(path)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, h.Doc.Pages[0].Boxes, 1)

	require.NoError(t, s.Save(ctx, ""))
	_, ok, err = storage.ReadAutosave(path)
	require.NoError(t, err)
	require.False(t, ok, "save clears the autosave")

	require.Error(t, s.StartAutosave("every now and then"))
	require.NoError(t, s.StartAutosave("@every 1h"))
}

func TestClosedSessionRejectsWork(t *testing.T) {
	s := New(testOptions(nil))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Do(context.Background(), func(*editor.Engine) error { return nil }), ErrClosed)
	require.ErrorIs(t, s.StartAutosave("@every 1m"), ErrClosed)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Editor.HistoryDepth = 12
	opts := OptionsFromConfig(cfg)
	require.Equal(t, 12, opts.Editor.History.MaxDepth)
	require.Equal(t, 300*time.Millisecond, opts.Editor.History.CoalesceWindow)
	require.Equal(t, model.CanvasDesktop, opts.Editor.DefaultCanvas)
	require.Equal(t, 500*time.Millisecond, opts.WatchDebounce)
}
