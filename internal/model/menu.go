/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

// Menu item trees can be nested arbitrarily deep. All traversals below use an
// explicit stack.

type menuFrame struct {
	list   *[]MenuItem
	parent *MenuItem
}

// FindMenuItem returns the item with the given id together with the slice
// holding it and its index there. parent is nil for top-level items.
func FindMenuItem(items *[]MenuItem, id string) (list *[]MenuItem, index int, parent *MenuItem, ok bool) {
	stack := []menuFrame{{list: items}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := range *f.list {
			it := &(*f.list)[i]
			if it.ID == id {
				return f.list, i, f.parent, true
			}
			if len(it.Children) > 0 {
				stack = append(stack, menuFrame{list: &it.Children, parent: it})
			}
		}
	}
	return nil, -1, nil, false
}

// MenuItem returns a pointer to the item with the given id.
func (b *Box) MenuItem(id string) *MenuItem {
	list, i, _, ok := FindMenuItem(&b.MenuItems, id)
	if !ok {
		return nil
	}
	return &(*list)[i]
}

// RemoveMenuItem deletes the item and its whole subtree.
func RemoveMenuItem(items *[]MenuItem, id string) bool {
	list, i, _, ok := FindMenuItem(items, id)
	if !ok {
		return false
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	return true
}

// WalkMenu visits every item depth-first in document order. depth is 0 for
// top-level items. Returning false from fn stops the walk.
func WalkMenu(items []MenuItem, fn func(it *MenuItem, depth int) bool) {
	type frame struct {
		list  []MenuItem
		i     int
		depth int
	}
	stack := []frame{{list: items}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.i >= len(top.list) {
			stack = stack[:len(stack)-1]
			continue
		}
		it := &top.list[top.i]
		top.i++
		if !fn(it, top.depth) {
			return
		}
		if len(it.Children) > 0 {
			stack = append(stack, frame{list: it.Children, depth: top.depth + 1})
		}
	}
}

// DefaultMenuItems is the item list of a freshly created menu box.
func DefaultMenuItems() []MenuItem {
	out := make([]MenuItem, 0, 3)
	for _, text := range []string{"Home", "About", "Contact"} {
		out = append(out, MenuItem{ID: ItemID(), Text: text})
	}
	return out
}

// DefaultAccordionItems is the item list of a freshly created accordion box.
func DefaultAccordionItems() []AccordionItem {
	return []AccordionItem{
		{ID: ItemID(), Title: "Section 1", Body: "Content for section 1"},
		{ID: ItemID(), Title: "Section 2", Body: "Content for section 2"},
	}
}

// RegenerateItemIDs gives every menu and accordion item of b a fresh id.
// Used when a box is duplicated so copies never share item ids.
func (b *Box) RegenerateItemIDs() {
	WalkMenu(b.MenuItems, func(it *MenuItem, _ int) bool {
		it.ID = ItemID()
		return true
	})
	for i := range b.AccordionItems {
		b.AccordionItems[i].ID = ItemID()
	}
}

// NormalizeItems assigns ids to items loaded without one and reports how
// many were filled in.
func (b *Box) NormalizeItems() int {
	n := 0
	WalkMenu(b.MenuItems, func(it *MenuItem, _ int) bool {
		if it.ID == "" {
			it.ID = ItemID()
			n++
		}
		return true
	})
	for i := range b.AccordionItems {
		if b.AccordionItems[i].ID == "" {
			b.AccordionItems[i].ID = ItemID()
			n++
		}
	}
	return n
}
