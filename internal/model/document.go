/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

const (
	// DefaultRegionHeight is used for header/footer bands of new or legacy documents.
	DefaultRegionHeight = 80.0
	// MinMainHeight and MainPadding derive the main region height from its content.
	MinMainHeight = 600.0
	MainPadding   = 100.0
)

// NewDocument returns a document with a single empty desktop page.
func NewDocument() Document {
	return Document{
		Header:        Region{Boxes: []Box{}, Height: DefaultRegionHeight},
		Footer:        Region{Boxes: []Box{}, Height: DefaultRegionHeight},
		Pages:         []Page{NewPage(1)},
		CurrentPageID: PageID(1),
	}
}

// NewPage returns an empty desktop page numbered n.
func NewPage(n int) Page {
	return Page{ID: PageID(n), Name: PageName(n), CanvasSize: CanvasDesktop, Boxes: []Box{}}
}

// Page returns the page with the given id or nil.
func (d *Document) Page(id string) *Page {
	for i := range d.Pages {
		if d.Pages[i].ID == id {
			return &d.Pages[i]
		}
	}
	return nil
}

// PageIndex returns the position of the page or -1.
func (d *Document) PageIndex(id string) int {
	for i := range d.Pages {
		if d.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

// CurrentPage returns the current page or nil when currentPageId is dangling.
func (d *Document) CurrentPage() *Page { return d.Page(d.CurrentPageID) }

// OnFirstPage reports whether the current page is page 1, the only page on
// which header and footer content may be edited.
func (d *Document) OnFirstPage() bool {
	return len(d.Pages) > 0 && d.Pages[0].ID == d.CurrentPageID
}

// Region returns the header or footer region; nil for main.
func (d *Document) Region(r RegionID) *Region {
	switch r {
	case RegionHeader:
		return &d.Header
	case RegionFooter:
		return &d.Footer
	}
	return nil
}

// Container returns the box slice backing a region. Main resolves to the
// current page. It returns nil when the current page does not exist.
func (d *Document) Container(r RegionID) *[]Box {
	switch r {
	case RegionHeader:
		return &d.Header.Boxes
	case RegionFooter:
		return &d.Footer.Boxes
	case RegionMain:
		if p := d.CurrentPage(); p != nil {
			return &p.Boxes
		}
	}
	return nil
}

// BoxRef locates a box inside its container.
type BoxRef struct {
	Region RegionID
	PageID string // set for main-region boxes
	Index  int
}

// Locate searches header, footer and the current page, in that order.
func (d *Document) Locate(id string) (BoxRef, bool) {
	for _, r := range []RegionID{RegionHeader, RegionFooter, RegionMain} {
		c := d.Container(r)
		if c == nil {
			continue
		}
		for i := range *c {
			if (*c)[i].ID == id {
				ref := BoxRef{Region: r, Index: i}
				if r == RegionMain {
					ref.PageID = d.CurrentPageID
				}
				return ref, true
			}
		}
	}
	return BoxRef{}, false
}

// Box returns a pointer to the referenced box. The pointer is invalidated by
// any insertion or removal in the same container.
func (d *Document) Box(ref BoxRef) *Box {
	var c *[]Box
	if ref.Region == RegionMain {
		p := d.Page(ref.PageID)
		if p == nil {
			return nil
		}
		c = &p.Boxes
	} else {
		c = d.Container(ref.Region)
	}
	if c == nil || ref.Index < 0 || ref.Index >= len(*c) {
		return nil
	}
	return &(*c)[ref.Index]
}

// Find is Locate followed by Box.
func (d *Document) Find(id string) (*Box, RegionID, bool) {
	ref, ok := d.Locate(id)
	if !ok {
		return nil, "", false
	}
	return d.Box(ref), ref.Region, true
}

// EachBox visits every top-level box of the document: header, footer, then
// every page in order. pageID is empty for header and footer boxes.
func (d *Document) EachBox(fn func(region RegionID, pageID string, b *Box)) {
	for i := range d.Header.Boxes {
		fn(RegionHeader, "", &d.Header.Boxes[i])
	}
	for i := range d.Footer.Boxes {
		fn(RegionFooter, "", &d.Footer.Boxes[i])
	}
	for pi := range d.Pages {
		p := &d.Pages[pi]
		for i := range p.Boxes {
			fn(RegionMain, p.ID, &p.Boxes[i])
		}
	}
}

// ZRange returns the minimum and maximum zIndex over all boxes except skip.
// ok is false when there are no other boxes.
func (d *Document) ZRange(skip string) (lo, hi int, ok bool) {
	d.EachBox(func(_ RegionID, _ string, b *Box) {
		if b.ID == skip {
			return
		}
		if !ok {
			lo, hi, ok = b.ZIndex, b.ZIndex, true
			return
		}
		lo = min(lo, b.ZIndex)
		hi = max(hi, b.ZIndex)
	})
	return lo, hi, ok
}

// MainHeight derives the height of a page's main region from its content
// unless the page has a custom height.
func (p *Page) MainHeight() float64 {
	if p.CanvasSize == CanvasCustom && p.CustomHeight > 0 {
		return p.CustomHeight
	}
	maxBottom := 0.0
	for i := range p.Boxes {
		maxBottom = max(maxBottom, p.Boxes[i].Bottom())
	}
	return max(MinMainHeight, maxBottom+MainPadding)
}

// Width returns the canvas width in pixels.
func (p *Page) Width() float64 {
	if w, ok := p.CanvasSize.Width(); ok {
		return w
	}
	if p.CustomWidth > 0 {
		return p.CustomWidth
	}
	w, _ := CanvasDesktop.Width()
	return w
}

// RemoveBox deletes the element at index i, preserving order.
func RemoveBox(c *[]Box, i int) Box {
	b := (*c)[i]
	*c = append((*c)[:i], (*c)[i+1:]...)
	return b
}
