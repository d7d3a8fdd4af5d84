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
	"strconv"
	"strings"

	"quickbox/internal/model"
)

// editBox runs fn on one editable box as a discrete history entry.
func (e *Engine) editBox(label, id string, fn func(b *model.Box) error) error {
	return e.edit(label, func(d *model.Document) error {
		b, _, err := e.lookup(d, id)
		if err != nil {
			return err
		}
		return fn(b)
	})
}

func (e *Engine) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidValue)
	}
	return e.editBox("rename", id, func(b *model.Box) error {
		b.Name = name
		return nil
	})
}

// SetContent replaces the text (or image data URL) of a box.
func (e *Engine) SetContent(id, content string) error {
	return e.editBox("content", id, func(b *model.Box) error {
		b.Content = content
		return nil
	})
}

func textBearing(b *model.Box) error {
	if b.Type == model.TypeImage {
		return fmt.Errorf("%w: %s boxes have no text", ErrInvalidValue, b.Type)
	}
	return nil
}

func (e *Engine) SetFont(id, family string) error {
	return e.editBox("font", id, func(b *model.Box) error {
		if err := textBearing(b); err != nil {
			return err
		}
		b.FontFamily = family
		return nil
	})
}

func (e *Engine) SetFontSize(id string, size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: font size %d", ErrInvalidValue, size)
	}
	return e.editBox("font size", id, func(b *model.Box) error {
		if err := textBearing(b); err != nil {
			return err
		}
		b.FontSize = model.FontSize(strconv.Itoa(size))
		return nil
	})
}

// SetOrientation lays a menu out horizontally or vertically.
func (e *Engine) SetOrientation(id string, o model.Orientation) error {
	if o != model.Horizontal && o != model.Vertical {
		return fmt.Errorf("%w: orientation %q", ErrInvalidValue, o)
	}
	return e.editBox("orientation", id, func(b *model.Box) error {
		if b.Type != model.TypeMenu {
			return fmt.Errorf("%w: %s is not a menu", ErrInvalidValue, b.ID)
		}
		b.Orientation = o
		return nil
	})
}

// SetStyle replaces the box's style override. An empty override clears it.
func (e *Engine) SetStyle(id string, s model.StyleOverride) error {
	return e.editBox("style", id, func(b *model.Box) error {
		applyStyle(b, s)
		return nil
	})
}

func (e *Engine) ClearStyle(id string) error {
	return e.SetStyle(id, model.StyleOverride{})
}

// RestyleGroup applies s to every temp group member, all or nothing.
func (e *Engine) RestyleGroup(s model.StyleOverride) error {
	ids := e.groupMembers()
	if len(ids) == 0 {
		return ErrNoSelection
	}
	return e.edit("restyle group", func(d *model.Document) error {
		if err := e.guardAll(d, ids); err != nil {
			return err
		}
		for _, id := range ids {
			b, _, _ := d.Find(id)
			applyStyle(b, s)
		}
		return nil
	})
}

func applyStyle(b *model.Box, s model.StyleOverride) {
	if s.Empty() {
		b.StyleOverrides = nil
		return
	}
	b.StyleOverrides = &s
}

// SetRegionColor overrides the background of the header or footer band.
// An empty color restores the palette default.
func (e *Engine) SetRegionColor(r model.RegionID, color string) error {
	if !r.Shared() {
		return fmt.Errorf("%w: region %q has no color", ErrInvalidValue, r)
	}
	return e.edit("region color", func(d *model.Document) error {
		if err := e.guard(r); err != nil {
			return err
		}
		d.Region(r).ColorOverride = color
		return nil
	})
}

// AddMenuItem appends an item to a menu, under parentID when it is not empty.
func (e *Engine) AddMenuItem(boxID, parentID, text string) (string, error) {
	id := model.ItemID()
	err := e.editBox("add menu item", boxID, func(b *model.Box) error {
		if b.Type != model.TypeMenu {
			return fmt.Errorf("%w: %s is not a menu", ErrInvalidValue, b.ID)
		}
		it := model.MenuItem{ID: id, Text: text}
		if parentID == "" {
			b.MenuItems = append(b.MenuItems, it)
			return nil
		}
		parent := b.MenuItem(parentID)
		if parent == nil {
			return fmt.Errorf("%w: menu item %q", ErrDanglingReference, parentID)
		}
		parent.Children = append(parent.Children, it)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (e *Engine) editMenuItem(label, boxID, itemID string, fn func(d *model.Document, it *model.MenuItem) error) error {
	return e.edit(label, func(d *model.Document) error {
		b, _, err := e.lookup(d, boxID)
		if err != nil {
			return err
		}
		it := b.MenuItem(itemID)
		if it == nil {
			return fmt.Errorf("%w: menu item %q", ErrDanglingReference, itemID)
		}
		return fn(d, it)
	})
}

func (e *Engine) RenameMenuItem(boxID, itemID, text string) error {
	return e.editMenuItem("rename menu item", boxID, itemID, func(_ *model.Document, it *model.MenuItem) error {
		it.Text = text
		return nil
	})
}

// SetMenuItemLink links a menu item the same way SetLink links a box.
func (e *Engine) SetMenuItemLink(boxID, itemID string, target *model.LinkTarget) error {
	return e.editMenuItem("link menu item", boxID, itemID, func(d *model.Document, it *model.MenuItem) error {
		if err := validateLink(d, target); err != nil {
			return err
		}
		it.LinkTo = cloneLink(target)
		return nil
	})
}

// RemoveMenuItem deletes an item and its children.
func (e *Engine) RemoveMenuItem(boxID, itemID string) error {
	return e.editBox("remove menu item", boxID, func(b *model.Box) error {
		if !model.RemoveMenuItem(&b.MenuItems, itemID) {
			return fmt.Errorf("%w: menu item %q", ErrDanglingReference, itemID)
		}
		return nil
	})
}

func accordionItem(b *model.Box, itemID string) (int, error) {
	for i := range b.AccordionItems {
		if b.AccordionItems[i].ID == itemID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: accordion item %q", ErrDanglingReference, itemID)
}

func (e *Engine) AddAccordionItem(boxID, title, body string) (string, error) {
	id := model.ItemID()
	err := e.editBox("add section", boxID, func(b *model.Box) error {
		if b.Type != model.TypeAccordion {
			return fmt.Errorf("%w: %s is not an accordion", ErrInvalidValue, b.ID)
		}
		b.AccordionItems = append(b.AccordionItems, model.AccordionItem{ID: id, Title: title, Body: body})
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (e *Engine) EditAccordionItem(boxID, itemID, title, body string) error {
	return e.editBox("edit section", boxID, func(b *model.Box) error {
		i, err := accordionItem(b, itemID)
		if err != nil {
			return err
		}
		b.AccordionItems[i].Title = title
		b.AccordionItems[i].Body = body
		return nil
	})
}

// ToggleAccordionItem flips the expanded state of a section.
func (e *Engine) ToggleAccordionItem(boxID, itemID string) error {
	return e.editBox("toggle section", boxID, func(b *model.Box) error {
		i, err := accordionItem(b, itemID)
		if err != nil {
			return err
		}
		b.AccordionItems[i].IsExpanded = !b.AccordionItems[i].IsExpanded
		return nil
	})
}

func (e *Engine) RemoveAccordionItem(boxID, itemID string) error {
	return e.editBox("remove section", boxID, func(b *model.Box) error {
		i, err := accordionItem(b, itemID)
		if err != nil {
			return err
		}
		b.AccordionItems = append(b.AccordionItems[:i], b.AccordionItems[i+1:]...)
		return nil
	})
}
