/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quickbox/internal/geom"
	"quickbox/internal/model"
	"quickbox/internal/undo"
)

func (h *harness) drag(t *testing.T, id string, dx, dy float64) error {
	t.Helper()
	require.NoError(t, h.StartDrag(id))
	require.NoError(t, h.UpdateDrag(dx/2, dy/2))
	require.NoError(t, h.UpdateDrag(dx, dy))
	return h.EndDrag()
}

func (h *harness) box(t *testing.T, id string) (model.Box, model.RegionID) {
	t.Helper()
	b, r, ok := h.st.Doc.Find(id)
	require.True(t, ok, "box %s", id)
	return *b, r
}

func TestDragWithinRegion(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBox(model.TypeText)
	require.NoError(t, h.drag(t, id, 30, 40))
	b, r := h.box(t, id)
	require.Equal(t, model.RegionMain, r)
	require.Equal(t, 100.0, b.X)
	require.Equal(t, 110.0, b.Y)

	require.True(t, h.History().Pending())
	h.sch.Advance(time.Second)
	require.Equal(t, 2, h.Stats().History.UndoDepth)
	require.NoError(t, h.Undo())
	b, _ = h.box(t, id)
	require.Equal(t, 70.0, b.X)
}

func TestDragIntoHeaderRenormalizes(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBox(model.TypeText) // y=70 in main, main starts at 80
	require.NoError(t, h.drag(t, id, 0, -150))
	b, r := h.box(t, id)
	require.Equal(t, model.RegionHeader, r)
	require.Equal(t, 0.0, b.Y, "absolute 0 is header-relative 0")
	require.Empty(t, h.st.Doc.Pages[0].Boxes)
}

func TestRegionRoundTripKeepsAbsolutePosition(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBoxTo(model.RegionHeader, model.TypeButton)
	start, _ := h.box(t, id)
	abs := h.Bounds().Header.Top + start.Y

	require.NoError(t, h.TransferOrRejectRegion(id, model.RegionMain))
	mid, r := h.box(t, id)
	require.Equal(t, model.RegionMain, r)
	require.InDelta(t, abs, h.Bounds().Main.Top+mid.Y, 1e-9)

	require.NoError(t, h.TransferOrRejectRegion(id, model.RegionHeader))
	end, r := h.box(t, id)
	require.Equal(t, model.RegionHeader, r)
	require.InDelta(t, start.Y, end.Y, 1e-9)
}

func TestDragIntoHeaderOffPageOneRollsBack(t *testing.T) {
	h, _ := onSecondPage(t)
	id, _ := h.AddBox(model.TypeText)
	h.sch.Advance(time.Second)
	before := h.Document()
	depth := h.Stats().History.UndoDepth

	require.ErrorIs(t, h.drag(t, id, 0, -500), ErrPolicyViolation)
	require.Equal(t, before, h.Document())
	require.False(t, h.History().Pending())
	h.sch.Advance(time.Second)
	require.Equal(t, depth, h.Stats().History.UndoDepth)
	require.Equal(t, undo.OpNone, h.Transform())

	require.ErrorIs(t, h.TransferOrRejectRegion(id, model.RegionFooter), ErrPolicyViolation)
}

func TestGroupDragTransfersTogether(t *testing.T) {
	h := newHarness(t)
	a, _ := h.AddBox(model.TypeText) // y=70
	b, _ := h.AddBox(model.TypeText) // y=90
	require.NoError(t, h.ToggleGroupMember(a))
	require.NoError(t, h.ToggleGroupMember(b))

	require.NoError(t, h.drag(t, a, 10, -150))
	ba, ra := h.box(t, a)
	bb, rb := h.box(t, b)
	require.Equal(t, model.RegionHeader, ra)
	require.Equal(t, model.RegionHeader, rb, "decision of the dragged box applies to the group")
	require.Equal(t, 80.0, ba.X)
	require.Equal(t, 100.0, bb.X)
	require.Equal(t, 20.0, bb.Y-ba.Y)
}

func TestSingleMemberGroupUsesSingleDrag(t *testing.T) {
	h := newHarness(t)
	a, _ := h.AddBox(model.TypeText)
	b, _ := h.AddBox(model.TypeText)
	require.NoError(t, h.ToggleGroupMember(a))
	require.NoError(t, h.drag(t, b, 5, 5))
	ba, _ := h.box(t, a)
	require.Equal(t, 70.0, ba.X, "non-member drag leaves the group alone")
	require.Equal(t, b, h.Selection().Single)
}

func TestCoalescingThroughEngine(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBox(model.TypeText)
	for i := 0; i < 3; i++ {
		require.NoError(t, h.drag(t, id, 10, 0))
		h.sch.Advance(100 * time.Millisecond)
	}
	h.sch.Advance(time.Second)
	require.Equal(t, 2, h.Stats().History.UndoDepth, "three quick drags are one entry")
	require.NoError(t, h.Undo())
	b, _ := h.box(t, id)
	require.Equal(t, 70.0, b.X)

	h2 := newHarness(t)
	id2, _ := h2.AddBox(model.TypeText)
	for i := 0; i < 3; i++ {
		require.NoError(t, h2.drag(t, id2, 10, 0))
		h2.sch.Advance(time.Second)
	}
	require.Equal(t, 4, h2.Stats().History.UndoDepth, "separated drags stay separate")
}

func TestDiscreteEditAfterDragKeepsBothEntries(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBox(model.TypeText)
	require.NoError(t, h.drag(t, id, 10, 0))
	require.NoError(t, h.Rename(id, "Hero"))
	require.Equal(t, 3, h.Stats().History.UndoDepth)
	require.NoError(t, h.Undo())
	b, _ := h.box(t, id)
	require.Equal(t, "Text 1", b.Name)
	require.Equal(t, 80.0, b.X)
}

func TestPointerUpWithoutMoveCommitsOneEntry(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBox(model.TypeText)
	before := h.Document()
	require.NoError(t, h.StartDrag(id))
	require.NoError(t, h.EndDrag())
	h.sch.Advance(time.Second)
	require.Equal(t, before, h.Document())
	require.Equal(t, 2, h.Stats().History.UndoDepth)
}

func TestTransformGuards(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBox(model.TypeText)
	require.ErrorIs(t, h.UpdateDrag(1, 1), ErrNoTransform)
	require.ErrorIs(t, h.EndResize(), ErrNoTransform)
	require.NoError(t, h.StartDrag(id))
	require.ErrorIs(t, h.StartResize(id, HandleE), ErrTransformActive)
	require.ErrorIs(t, h.Rename(id, "x"), ErrTransformActive)
	require.ErrorIs(t, h.Undo(), ErrTransformActive)
	require.ErrorIs(t, h.UpdateResize(1, 1), ErrNoTransform)
	require.NoError(t, h.UpdateDrag(50, 50))
	require.NoError(t, h.CancelTransform())
	b, _ := h.box(t, id)
	require.Equal(t, 70.0, b.X)
	require.False(t, h.History().Pending())
}

func TestResizeHandles(t *testing.T) {
	cases := []struct {
		handle     Handle
		dx, dy     float64
		x, y, w, h float64
	}{
		{HandleE, 50, 0, 70, 70, 250, 150},
		{HandleS, 0, 20, 70, 70, 200, 170},
		{HandleW, 20, 0, 90, 70, 180, 150},
		{HandleN, 0, -30, 70, 40, 200, 180},
		{HandleSE, -500, -500, 70, 70, 30, 30},
		{HandleNW, 10, 10, 80, 80, 190, 140},
	}
	for _, c := range cases {
		t.Run(string(c.handle), func(t *testing.T) {
			h := newHarness(t)
			id, _ := h.AddBox(model.TypeText)
			require.NoError(t, h.StartResize(id, c.handle))
			require.NoError(t, h.UpdateResize(c.dx, c.dy))
			require.NoError(t, h.EndResize())
			b, _ := h.box(t, id)
			require.Equal(t, []float64{c.x, c.y, c.w, c.h}, []float64{b.X, b.Y, b.Width, b.Height})
		})
	}
}

func TestResizeClampDoesNotDrift(t *testing.T) {
	h := newHarness(t)
	id, _ := h.AddBox(model.TypeText) // 70,70 200x150
	require.NoError(t, h.StartResize(id, HandleW))
	require.NoError(t, h.UpdateResize(100, 0))
	b, _ := h.box(t, id)
	require.Equal(t, 170.0, b.X)
	require.Equal(t, 100.0, b.Width)
	require.NoError(t, h.UpdateResize(400, 0))
	b, _ = h.box(t, id)
	require.Equal(t, 170.0, b.X, "x must not move once the floor is hit")
	require.Equal(t, 100.0, b.Width)
	require.NoError(t, h.EndResize())
}

func TestRegionResize(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.StartRegionResize(model.RegionHeader))
	require.NoError(t, h.UpdateRegionResize(40))
	require.NoError(t, h.EndRegionResize())
	require.Equal(t, 120.0, h.st.Doc.Header.Height)

	require.NoError(t, h.StartRegionResize(model.RegionFooter))
	require.NoError(t, h.UpdateRegionResize(500))
	require.NoError(t, h.EndRegionResize())
	require.Equal(t, DefaultMinRegionHeight, h.st.Doc.Footer.Height)
	require.ErrorIs(t, h.StartRegionResize(model.RegionMain), ErrInvalidValue)
}

func TestCanvasResize(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.StartCanvasResize())
	require.NoError(t, h.UpdateCanvasResize(-1000, 100))
	require.NoError(t, h.EndCanvasResize())
	p := h.st.Doc.Pages[0]
	require.Equal(t, model.CanvasCustom, p.CanvasSize)
	require.Equal(t, MinCanvasWidth, p.CustomWidth)
	require.Equal(t, 700.0, p.CustomHeight)
}

func TestRectangleSelectUsesCanvasCoordinates(t *testing.T) {
	h := newHarness(t)
	hdr, _ := h.AddBoxTo(model.RegionHeader, model.TypeButton) // header y=10..50
	body, _ := h.AddBox(model.TypeText)                         // canvas y 80+90=170..320
	foot, _ := h.AddBoxTo(model.RegionFooter, model.TypeButton) // canvas y 680+10=690..730

	got := h.RectangleSelect(geom.FromCorners(geom.Pt{X: 0, Y: 0}, geom.Pt{X: 2000, Y: 60}))
	require.Equal(t, []string{hdr}, got)

	got = h.RectangleSelect(geom.R(0, 300, 2000, 400))
	require.ElementsMatch(t, []string{body, foot}, got)

	got = h.RectangleSelect(geom.R(0, 330, 2000, 300))
	require.Empty(t, got)
	require.Empty(t, h.Selection().Group)
}

func TestDetectRegionForPoint(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, model.RegionHeader, h.DetectRegionForPoint(-5))
	require.Equal(t, model.RegionHeader, h.DetectRegionForPoint(79))
	require.Equal(t, model.RegionMain, h.DetectRegionForPoint(80))
	require.Equal(t, model.RegionFooter, h.DetectRegionForPoint(680))
	require.Equal(t, model.RegionFooter, h.DetectRegionForPoint(5000))
}
