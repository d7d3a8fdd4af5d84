/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

// Clone returns a deep copy of the document. Snapshots taken for history
// must not share any slice or pointer with the live document.
func (d Document) Clone() Document {
	out := Document{
		Header:        d.Header.Clone(),
		Footer:        d.Footer.Clone(),
		CurrentPageID: d.CurrentPageID,
	}
	if d.Pages != nil {
		out.Pages = make([]Page, len(d.Pages))
		for i := range d.Pages {
			out.Pages[i] = d.Pages[i].Clone()
		}
	}
	return out
}

func (r Region) Clone() Region {
	r.Boxes = cloneBoxes(r.Boxes)
	return r
}

func (p Page) Clone() Page {
	p.Boxes = cloneBoxes(p.Boxes)
	return p
}

// Clone deep-copies a box including its link, style and item trees.
func (b Box) Clone() Box {
	if b.LinkTo != nil {
		l := *b.LinkTo
		b.LinkTo = &l
	}
	if b.StyleOverrides != nil {
		s := *b.StyleOverrides
		b.StyleOverrides = &s
	}
	b.MenuItems = cloneMenuItems(b.MenuItems)
	if b.AccordionItems != nil {
		b.AccordionItems = append([]AccordionItem(nil), b.AccordionItems...)
	}
	return b
}

func cloneBoxes(in []Box) []Box {
	if in == nil {
		return nil
	}
	out := make([]Box, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneMenuItems(in []MenuItem) []MenuItem {
	if in == nil {
		return nil
	}
	out := make([]MenuItem, len(in))
	for i, it := range in {
		if it.LinkTo != nil {
			l := *it.LinkTo
			it.LinkTo = &l
		}
		it.Children = cloneMenuItems(it.Children)
		out[i] = it
	}
	return out
}
