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
	"slices"

	"quickbox/internal/model"
)

const (
	DefaultFontSize   model.FontSize = "16"
	DefaultFontFamily                = "'Architects Daughter', cursive"

	// duplicateOffset shifts copies so they do not hide the original.
	duplicateOffset = 20.0
	// sharedRegionTop is where new header/footer boxes are placed.
	sharedRegionTop = 10.0
)

func defaultSize(t model.BoxType) (w, h float64) {
	switch t {
	case model.TypeMenu:
		return 400, 50
	case model.TypeButton:
		return 120, 40
	case model.TypeAccordion:
		return 300, 200
	default:
		return 200, 150
	}
}

func newBox(t model.BoxType, n, z int) model.Box {
	w, h := defaultSize(t)
	b := model.Box{
		ID:         model.BoxID(n),
		Name:       fmt.Sprintf("%s %d", t.Label(), n),
		Type:       t,
		X:          50 + float64(n)*20,
		Y:          50 + float64(n)*20,
		Width:      w,
		Height:     h,
		ZIndex:     z,
		FontSize:   DefaultFontSize,
		FontFamily: DefaultFontFamily,
	}
	switch t {
	case model.TypeMenu:
		b.Orientation = model.Horizontal
		b.MenuItems = model.DefaultMenuItems()
	case model.TypeAccordion:
		b.AccordionItems = model.DefaultAccordionItems()
	case model.TypeButton:
		b.Content = "Button"
	}
	return b
}

// AddBox creates a box of type t on the current page and selects it.
func (e *Engine) AddBox(t model.BoxType) (string, error) {
	return e.AddBoxTo(model.RegionMain, t)
}

// AddBoxTo creates a box directly in region r.
func (e *Engine) AddBoxTo(r model.RegionID, t model.BoxType) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBoxType, t)
	}
	if !r.Valid() {
		return "", fmt.Errorf("%w: region %q", ErrInvalidValue, r)
	}
	var id string
	err := e.edit("add "+string(t), func(d *model.Document) error {
		if err := e.guard(r); err != nil {
			return err
		}
		c := d.Container(r)
		if c == nil {
			return fmt.Errorf("%w: current page %q", ErrDanglingReference, d.CurrentPageID)
		}
		b := newBox(t, e.st.Counters.NextBox(), e.st.Counters.NextZ())
		if r.Shared() {
			b.Y = sharedRegionTop
		}
		*c = append(*c, b)
		id = b.ID
		e.st.Selected = id
		e.st.Group = nil
		return nil
	})
	if err != nil {
		return "", err
	}
	e.log.Debug("box added", slog.String("id", id), slog.String("region", string(r)))
	return id, nil
}

// Delete removes one box.
func (e *Engine) Delete(id string) error {
	return e.edit("delete", func(d *model.Document) error {
		return e.deleteBoxes(d, []string{id})
	})
}

// DeleteSelected deletes the temp group if it has members, otherwise the
// single selection. A group delete is all-or-nothing and empties the group.
func (e *Engine) DeleteSelected() error {
	if ids := e.groupMembers(); len(ids) > 0 {
		return e.edit("delete group", func(d *model.Document) error {
			if err := e.deleteBoxes(d, ids); err != nil {
				return err
			}
			e.st.Group = nil
			return nil
		})
	}
	if e.st.Selected == "" {
		return ErrNoSelection
	}
	return e.Delete(e.st.Selected)
}

func (e *Engine) deleteBoxes(d *model.Document, ids []string) error {
	if err := e.guardAll(d, ids); err != nil {
		return err
	}
	for _, id := range ids {
		ref, _ := d.Locate(id)
		model.RemoveBox(d.Container(ref.Region), ref.Index)
		if e.st.Selected == id {
			e.st.Selected = ""
		}
		if i := slices.Index(e.st.Group, id); i >= 0 {
			e.st.Group = slices.Delete(e.st.Group, i, i+1)
		}
	}
	return nil
}

// Duplicate copies one box into the same region and selects the copy.
func (e *Engine) Duplicate(id string) (string, error) {
	var out string
	err := e.edit("duplicate", func(d *model.Document) error {
		copies, err := e.duplicateBoxes(d, []string{id})
		if err != nil {
			return err
		}
		out = copies[0]
		e.st.Selected = out
		return nil
	})
	return out, err
}

// DuplicateSelected duplicates the temp group, replacing it with the
// copies, or the single selection when there is no group.
func (e *Engine) DuplicateSelected() ([]string, error) {
	ids := e.groupMembers()
	if len(ids) == 0 {
		if e.st.Selected == "" {
			return nil, ErrNoSelection
		}
		id, err := e.Duplicate(e.st.Selected)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}
	var out []string
	err := e.edit("duplicate group", func(d *model.Document) error {
		copies, err := e.duplicateBoxes(d, ids)
		if err != nil {
			return err
		}
		out = copies
		e.st.Group = append([]string(nil), copies...)
		return nil
	})
	return out, err
}

func (e *Engine) duplicateBoxes(d *model.Document, ids []string) ([]string, error) {
	if err := e.guardAll(d, ids); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		ref, _ := d.Locate(id)
		cp := d.Box(ref).Clone()
		cp.ID = model.BoxID(e.st.Counters.NextBox())
		cp.Name = cp.Name + " copy"
		cp.X += duplicateOffset
		cp.Y += duplicateOffset
		cp.ZIndex = e.st.Counters.NextZ()
		cp.RegenerateItemIDs()
		c := d.Container(ref.Region)
		*c = append(*c, cp)
		out = append(out, cp.ID)
	}
	return out, nil
}

// BringToFront raises the box above every other box in the document.
func (e *Engine) BringToFront(id string) error {
	return e.edit("bring to front", func(d *model.Document) error {
		b, _, err := e.lookup(d, id)
		if err != nil {
			return err
		}
		if _, hi, ok := d.ZRange(id); ok {
			b.ZIndex = hi + 1
		}
		e.st.Counters.Bump(b.ZIndex)
		return nil
	})
}

// SendToBack lowers the box below every other box. z order never goes
// below 0; when the lowest box already sits at 0 the others move up by one.
func (e *Engine) SendToBack(id string) error {
	return e.edit("send to back", func(d *model.Document) error {
		b, _, err := e.lookup(d, id)
		if err != nil {
			return err
		}
		lo, _, ok := d.ZRange(id)
		if !ok {
			return nil
		}
		if lo > 0 {
			b.ZIndex = lo - 1
			return nil
		}
		shift := 1 - lo
		d.EachBox(func(_ model.RegionID, _ string, o *model.Box) {
			if o.ID != id {
				o.ZIndex += shift
				e.st.Counters.Bump(o.ZIndex)
			}
		})
		b.ZIndex = 0
		return nil
	})
}

// SetLink attaches a link to the box, or removes it when target is nil.
// Page links must name an existing page, anchor links a box on the current page.
func (e *Engine) SetLink(id string, target *model.LinkTarget) error {
	return e.edit("link", func(d *model.Document) error {
		b, _, err := e.lookup(d, id)
		if err != nil {
			return err
		}
		if err := validateLink(d, target); err != nil {
			return err
		}
		b.LinkTo = cloneLink(target)
		return nil
	})
}

func validateLink(d *model.Document, target *model.LinkTarget) error {
	if target == nil {
		return nil
	}
	switch target.Type {
	case model.LinkPage:
		if d.Page(target.Target) == nil {
			return fmt.Errorf("%w: page %q", ErrDanglingReference, target.Target)
		}
	case model.LinkAnchor:
		if !onCurrentPage(d, target.Target) {
			return fmt.Errorf("%w: anchor %q", ErrDanglingReference, target.Target)
		}
	default:
		return fmt.Errorf("%w: link type %q", ErrInvalidValue, target.Type)
	}
	return nil
}

func onCurrentPage(d *model.Document, id string) bool {
	p := d.CurrentPage()
	if p == nil {
		return false
	}
	return slices.ContainsFunc(p.Boxes, func(b model.Box) bool { return b.ID == id })
}

func cloneLink(l *model.LinkTarget) *model.LinkTarget {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// FollowLink navigates the box's link: page links switch page, anchor links
// select the anchor box. Targets that no longer resolve are ignored.
func (e *Engine) FollowLink(id string) error {
	b, _, ok := e.st.Doc.Find(id)
	if !ok {
		return fmt.Errorf("%w: box %q", ErrDanglingReference, id)
	}
	return e.follow(b.LinkTo)
}

// FollowMenuLink navigates the link of a menu item.
func (e *Engine) FollowMenuLink(boxID, itemID string) error {
	b, _, ok := e.st.Doc.Find(boxID)
	if !ok {
		return fmt.Errorf("%w: box %q", ErrDanglingReference, boxID)
	}
	it := b.MenuItem(itemID)
	if it == nil {
		return fmt.Errorf("%w: menu item %q", ErrDanglingReference, itemID)
	}
	return e.follow(it.LinkTo)
}

func (e *Engine) follow(l *model.LinkTarget) error {
	if l == nil {
		return nil
	}
	switch l.Type {
	case model.LinkPage:
		if e.st.Doc.Page(l.Target) == nil {
			e.log.Debug("link target gone", slog.String("page", l.Target))
			return nil
		}
		return e.SwitchPage(l.Target)
	case model.LinkAnchor:
		if !onCurrentPage(&e.st.Doc, l.Target) {
			e.log.Debug("link target gone", slog.String("anchor", l.Target))
			return nil
		}
		return e.SelectSingle(l.Target)
	}
	return nil
}
