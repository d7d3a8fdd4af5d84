/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"quickbox/internal/geom"
	"quickbox/internal/model"
)

// Bounds are the vertical extents of the three regions in canvas coordinates.
type Bounds struct {
	Header geom.Band
	Main   geom.Band
	Footer geom.Band
}

// Band returns the extent of region r.
func (b Bounds) Band(r model.RegionID) geom.Band {
	switch r {
	case model.RegionHeader:
		return b.Header
	case model.RegionFooter:
		return b.Footer
	default:
		return b.Main
	}
}

// Detect maps a vertical canvas position to a region. Positions above the
// main band belong to the header, positions at or below the footer's top
// edge to the footer.
func (b Bounds) Detect(y float64) model.RegionID {
	switch {
	case y < b.Main.Top:
		return model.RegionHeader
	case y >= b.Footer.Top:
		return model.RegionFooter
	default:
		return model.RegionMain
	}
}

// Layout supplies region bounds for the document as currently laid out.
// A presentation layer with live measurements can provide its own.
type Layout interface {
	Bounds(d *model.Document) Bounds
}

// LayoutFunc adapts a function to Layout.
type LayoutFunc func(d *model.Document) Bounds

func (f LayoutFunc) Bounds(d *model.Document) Bounds { return f(d) }

// StackedLayout stacks header, current page main area and footer without gaps.
type StackedLayout struct{}

func (StackedLayout) Bounds(d *model.Document) Bounds { return PageBounds(d, d.CurrentPage()) }

// PageBounds stacks the shared regions around page p's main area. A nil page
// gets the minimum main height.
func PageBounds(d *model.Document, p *model.Page) Bounds {
	mainH := model.MinMainHeight
	if p != nil {
		mainH = p.MainHeight()
	}
	h := geom.Band{Top: 0, Height: d.Header.Height}
	m := geom.Band{Top: h.Bottom(), Height: mainH}
	f := geom.Band{Top: m.Bottom(), Height: d.Footer.Height}
	return Bounds{Header: h, Main: m, Footer: f}
}
