/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package model defines the QuickBox document: a shared header and footer,
// an ordered list of pages and the typed boxes placed on them.
// It serializes to the human-readable JSON document format written by storage.
package model

import (
	"encoding/json"
	"fmt"
)

// BoxType discriminates the Box variants.
type BoxType string

const (
	TypeText      BoxType = "text"
	TypeImage     BoxType = "image"
	TypeMenu      BoxType = "menu"
	TypeButton    BoxType = "button"
	TypeAccordion BoxType = "accordion"
)

// BoxTypes lists every known variant in toolbar order.
var BoxTypes = []BoxType{TypeText, TypeImage, TypeMenu, TypeButton, TypeAccordion}

// Valid reports whether t is a known variant.
func (t BoxType) Valid() bool {
	for _, k := range BoxTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Label is the display prefix used for default box names ("Text 3").
func (t BoxType) Label() string {
	switch t {
	case TypeText:
		return "Text"
	case TypeImage:
		return "Image"
	case TypeMenu:
		return "Menu"
	case TypeButton:
		return "Button"
	case TypeAccordion:
		return "Accordion"
	default:
		return string(t)
	}
}

// RegionID names one of the three logical regions a box can live in.
type RegionID string

const (
	RegionHeader RegionID = "header"
	RegionMain   RegionID = "main"
	RegionFooter RegionID = "footer"
)

// Shared reports whether the region is document-global (header or footer).
func (r RegionID) Shared() bool { return r == RegionHeader || r == RegionFooter }

func (r RegionID) Valid() bool {
	return r == RegionHeader || r == RegionMain || r == RegionFooter
}

// CanvasSize is a page width preset or "custom".
type CanvasSize string

const (
	CanvasDesktop CanvasSize = "desktop"
	CanvasTablet  CanvasSize = "tablet"
	CanvasMobile  CanvasSize = "mobile"
	CanvasCustom  CanvasSize = "custom"
)

// Width returns the preset pixel width; ok is false for custom or unknown sizes.
func (c CanvasSize) Width() (float64, bool) {
	switch c {
	case CanvasDesktop:
		return 1200, true
	case CanvasTablet:
		return 768, true
	case CanvasMobile:
		return 375, true
	}
	return 0, false
}

// Orientation of a menu box.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// LinkKind is the kind of a LinkTarget.
type LinkKind string

const (
	LinkPage   LinkKind = "page"
	LinkAnchor LinkKind = "anchor"
)

// Document is the whole editable state.
// Header and footer are shared by all pages; their boxes may only be edited
// while the first page is current.
type Document struct {
	Header        Region `json:"header"`
	Footer        Region `json:"footer"`
	Pages         []Page `json:"pages"`
	CurrentPageID string `json:"currentPageId"`
}

// Region holds the boxes of the header or footer band.
// Box Y coordinates are relative to the region's top edge.
type Region struct {
	Boxes         []Box   `json:"boxes"`
	Height        float64 `json:"height"`
	ColorOverride string  `json:"colorOverride,omitempty"`
}

// Page is one mockup page. Its boxes form the implicit main region.
type Page struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	CanvasSize   CanvasSize `json:"canvasSize"`
	CustomWidth  float64    `json:"customWidth,omitempty"`
	CustomHeight float64    `json:"customHeight,omitempty"`
	Boxes        []Box      `json:"boxes"`
}

// Box is a positioned, typed element. Variant-only fields are left empty
// for types that do not use them.
type Box struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           BoxType        `json:"type"`
	X              float64        `json:"x"`
	Y              float64        `json:"y"`
	Width          float64        `json:"width"`
	Height         float64        `json:"height"`
	ZIndex         int            `json:"zIndex"`
	Content        string         `json:"content"`
	FontSize       FontSize       `json:"fontSize"`
	FontFamily     string         `json:"fontFamily"`
	LinkTo         *LinkTarget    `json:"linkTo"`
	StyleOverrides *StyleOverride `json:"styleOverrides,omitempty"`

	// menu
	Orientation Orientation `json:"orientation,omitempty"`
	MenuItems   []MenuItem  `json:"menuItems,omitempty"`

	// accordion
	AccordionItems []AccordionItem `json:"accordionItems,omitempty"`
}

// Bottom is the y coordinate of the lower edge.
func (b *Box) Bottom() float64 { return b.Y + b.Height }

// MenuItem is a node of a menu box's item tree. Nesting depth is unbounded.
type MenuItem struct {
	ID       string      `json:"id"`
	Text     string      `json:"text"`
	LinkTo   *LinkTarget `json:"linkTo"`
	Children []MenuItem  `json:"children,omitempty"`
}

// AccordionItem is one collapsible section of an accordion box.
type AccordionItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	IsExpanded bool   `json:"isExpanded"`
}

// LinkTarget points at a page (by page id) or an anchor box on the current page.
type LinkTarget struct {
	Type   LinkKind `json:"type"`
	Target string   `json:"target"`
}

// StyleOverride replaces palette defaults for a single box. Empty fields fall back to the palette.
type StyleOverride struct {
	Fill      string `json:"fill,omitempty"`
	Border    string `json:"border,omitempty"`
	TextColor string `json:"textColor,omitempty"`
}

// Empty reports whether no field is overridden.
func (s *StyleOverride) Empty() bool {
	return s == nil || (s.Fill == "" && s.Border == "" && s.TextColor == "")
}

// FontSize is stored as a string ("16"). Older documents may carry a number.
type FontSize string

func (f *FontSize) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FontSize(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("fontSize: %w", err)
	}
	*f = FontSize(n.String())
	return nil
}
