/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders QuickBox documents as static wireframes: one
// multi-page PDF, or one PNG or SVG file per page.
//
// Every exporter works from the same Frame, which places the shared header,
// the page's main area and the shared footer on top of each other and lists
// the boxes of all three regions in paint order.
package export

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"quickbox/internal/editor"
	"quickbox/internal/geom"
	"quickbox/internal/model"
)

// Palette holds the colors used where a document does not override them.
type Palette struct {
	Background color.RGBA
	Header     color.RGBA
	Main       color.RGBA
	Footer     color.RGBA
	Divider    color.RGBA
	BoxFill    color.RGBA
	BoxBorder  color.RGBA
	Text       color.RGBA
	Label      color.RGBA
}

// DefaultPalette is a light sketch palette.
func DefaultPalette() Palette {
	return Palette{
		Background: color.RGBA{255, 255, 255, 255},
		Header:     color.RGBA{243, 244, 246, 255},
		Main:       color.RGBA{255, 255, 255, 255},
		Footer:     color.RGBA{243, 244, 246, 255},
		Divider:    color.RGBA{156, 163, 175, 255},
		BoxFill:    color.RGBA{255, 255, 255, 255},
		BoxBorder:  color.RGBA{51, 51, 51, 255},
		Text:       color.RGBA{17, 17, 17, 255},
		Label:      color.RGBA{107, 114, 128, 255},
	}
}

// Band is one region drawn across the full page width.
type Band struct {
	Region model.RegionID
	Rect   geom.Rect
	Fill   color.RGBA
}

// Item is a box placed in page coordinates.
type Item struct {
	ID     string
	Type   model.BoxType
	Region model.RegionID
	Rect   geom.Rect
	Fill   color.RGBA
	Border color.RGBA
	Text   color.RGBA
	Label  string
	Lines  []string

	// FontSize is the box font size in pixels.
	FontSize float64
	// LinkPage is the target page id of a page link, empty otherwise.
	LinkPage string
}

// Frame is the flattened drawing of one page.
type Frame struct {
	PageID string
	Name   string
	Width  float64
	Height float64
	Bands  []Band
	Items  []Item
}

// BuildFrames lays out the requested pages in document order. An empty ids
// list selects every page. Unknown ids are an error.
func BuildFrames(d *model.Document, ids []string, pal Palette) ([]Frame, error) {
	pages, err := selectPages(d, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Frame, 0, len(pages))
	for _, p := range pages {
		out = append(out, BuildFrame(d, p, pal))
	}
	return out, nil
}

// BuildFrame lays out a single page together with the shared regions.
func BuildFrame(d *model.Document, p *model.Page, pal Palette) Frame {
	b := editor.PageBounds(d, p)
	w := p.Width()
	f := Frame{PageID: p.ID, Name: p.Name, Width: w, Height: b.Footer.Bottom()}

	f.Bands = []Band{
		{Region: model.RegionHeader, Rect: geom.R(0, b.Header.Top, w, b.Header.Height), Fill: regionFill(&d.Header, pal.Header)},
		{Region: model.RegionMain, Rect: geom.R(0, b.Main.Top, w, b.Main.Height), Fill: pal.Main},
		{Region: model.RegionFooter, Rect: geom.R(0, b.Footer.Top, w, b.Footer.Height), Fill: regionFill(&d.Footer, pal.Footer)},
	}

	add := func(r model.RegionID, boxes []model.Box) {
		top := b.Band(r).Top
		for i := range boxes {
			f.Items = append(f.Items, item(&boxes[i], r, top, pal))
		}
	}
	add(model.RegionHeader, d.Header.Boxes)
	add(model.RegionMain, p.Boxes)
	add(model.RegionFooter, d.Footer.Boxes)

	z := make(map[string]int, len(f.Items))
	d.EachBox(func(_ model.RegionID, _ string, bx *model.Box) { z[bx.ID] = bx.ZIndex })
	sort.SliceStable(f.Items, func(i, j int) bool { return z[f.Items[i].ID] < z[f.Items[j].ID] })
	return f
}

func selectPages(d *model.Document, ids []string) ([]*model.Page, error) {
	if len(ids) == 0 {
		out := make([]*model.Page, 0, len(d.Pages))
		for i := range d.Pages {
			out = append(out, &d.Pages[i])
		}
		return out, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if d.Page(id) == nil {
			return nil, fmt.Errorf("unknown page %q", id)
		}
		want[id] = true
	}
	var out []*model.Page
	for i := range d.Pages {
		if want[d.Pages[i].ID] {
			out = append(out, &d.Pages[i])
		}
	}
	return out, nil
}

func regionFill(r *model.Region, def color.RGBA) color.RGBA {
	if c, ok := ParseColor(r.ColorOverride); ok {
		return c
	}
	return def
}

func item(b *model.Box, r model.RegionID, top float64, pal Palette) Item {
	it := Item{
		ID:     b.ID,
		Type:   b.Type,
		Region: r,
		Rect:   geom.R(b.X, top+b.Y, b.Width, b.Height),
		Fill:   pal.BoxFill,
		Border: pal.BoxBorder,
		Text:   pal.Text,
		Label:  b.Name,
		Lines:  boxLines(b),

		FontSize: fontPx(b.FontSize, defaultFontPx),
	}
	if it.Label == "" {
		it.Label = b.ID
	}
	if s := b.StyleOverrides; !s.Empty() {
		if c, ok := ParseColor(s.Fill); ok {
			it.Fill = c
		}
		if c, ok := ParseColor(s.Border); ok {
			it.Border = c
		}
		if c, ok := ParseColor(s.TextColor); ok {
			it.Text = c
		}
	}
	if b.LinkTo != nil && b.LinkTo.Type == model.LinkPage {
		it.LinkPage = b.LinkTo.Target
	}
	return it
}

// boxLines is the text drawn inside a box. Only ASCII markers are used so
// the built-in PDF and bitmap fonts can render them.
func boxLines(b *model.Box) []string {
	var out []string
	switch b.Type {
	case model.TypeImage:
		out = append(out, "[image]")
		if b.Content != "" {
			out = append(out, b.Content)
		}
	case model.TypeMenu:
		model.WalkMenu(b.MenuItems, func(it *model.MenuItem, depth int) bool {
			out = append(out, strings.Repeat("  ", depth)+"- "+it.Text)
			return true
		})
	case model.TypeAccordion:
		for _, it := range b.AccordionItems {
			if it.IsExpanded {
				out = append(out, "v "+it.Title)
				out = append(out, splitLines(it.Body)...)
			} else {
				out = append(out, "> "+it.Title)
			}
		}
	case model.TypeButton:
		out = append(out, "[ "+b.Content+" ]")
	default:
		out = append(out, splitLines(b.Content)...)
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// ParseColor reads CSS hex colors in the #rgb and #rrggbb forms.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

const defaultFontPx = 16.0

// fontPx parses a box font size, falling back to def.
func fontPx(s model.FontSize, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(string(s), "px"), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
