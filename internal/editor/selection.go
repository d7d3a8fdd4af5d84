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
	"slices"

	"quickbox/internal/geom"
	"quickbox/internal/model"
)

// SelectSingle clears the temp group and selects one box. An empty id deselects.
func (e *Engine) SelectSingle(id string) error {
	if id != "" {
		if _, ok := e.st.Doc.Locate(id); !ok {
			return fmt.Errorf("%w: box %q", ErrDanglingReference, id)
		}
	}
	e.st.Group = nil
	e.st.Selected = id
	e.render("select")
	return nil
}

// ToggleGroupMember adds the box to the temp group or removes it. The single
// selection is left alone.
func (e *Engine) ToggleGroupMember(id string) error {
	if i := slices.Index(e.st.Group, id); i >= 0 {
		e.st.Group = slices.Delete(e.st.Group, i, i+1)
		e.render("group")
		return nil
	}
	if _, ok := e.st.Doc.Locate(id); !ok {
		return fmt.Errorf("%w: box %q", ErrDanglingReference, id)
	}
	e.st.Group = append(e.st.Group, id)
	e.render("group")
	return nil
}

// InGroup reports whether the box is a temp group member.
func (e *Engine) InGroup(id string) bool { return slices.Contains(e.st.Group, id) }

// ClearGroup empties the temp group.
func (e *Engine) ClearGroup() {
	if len(e.st.Group) == 0 {
		return
	}
	e.st.Group = nil
	e.render("group")
}

// RectangleSelect replaces the temp group with every box of header, footer
// and the current page whose canvas rectangle intersects r.
func (e *Engine) RectangleSelect(r geom.Rect) []string {
	b := e.Bounds()
	var hits []string
	e.eachVisible(func(region model.RegionID, box *model.Box) {
		if canvasRect(b, region, box).Intersects(r) {
			hits = append(hits, box.ID)
		}
	})
	e.st.Group = hits
	e.render("group")
	return append([]string(nil), hits...)
}

// eachVisible visits header, footer and current page boxes.
func (e *Engine) eachVisible(fn func(region model.RegionID, box *model.Box)) {
	for _, region := range []model.RegionID{model.RegionHeader, model.RegionMain, model.RegionFooter} {
		c := e.st.Doc.Container(region)
		if c == nil {
			continue
		}
		for i := range *c {
			fn(region, &(*c)[i])
		}
	}
}

// canvasRect returns the box rectangle in canvas coordinates.
func canvasRect(b Bounds, region model.RegionID, box *model.Box) geom.Rect {
	return geom.R(box.X, box.Y+b.Band(region).Top, box.Width, box.Height)
}

// groupMembers returns the ids of group members that still resolve and
// drops the stale ones from the group.
func (e *Engine) groupMembers() []string {
	live := e.st.Group[:0:0]
	for _, id := range e.st.Group {
		if _, ok := e.st.Doc.Locate(id); ok {
			live = append(live, id)
		}
	}
	if len(live) != len(e.st.Group) {
		e.log.Debug("dropped stale group members", "n", len(e.st.Group)-len(live))
	}
	e.st.Group = live
	return append([]string(nil), live...)
}

// guardAll checks every id against the page-1 rule before any of them is touched.
func (e *Engine) guardAll(d *model.Document, ids []string) error {
	for _, id := range ids {
		if _, _, err := e.lookup(d, id); err != nil {
			return err
		}
	}
	return nil
}
