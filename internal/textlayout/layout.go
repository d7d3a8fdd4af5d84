/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout breaks box text into lines that fit a box width.
// Measurement goes through a Provider so raster and vector exports can
// share the same line breaks.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePx float64
}

// Metrics are font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// LineHeight is the baseline-to-baseline distance.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Provider maps a FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider always resolves to the 7x13 bitmap face.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// WordWrapLayouter breaks on spaces. Words wider than the line are split
// between runes. No shaping or hyphenation.
type WordWrapLayouter struct {
	Provider Provider
	Font     FontSpec
}

func NewWordWrap(provider Provider) *WordWrapLayouter {
	if provider == nil {
		provider = BasicProvider{}
	}
	return &WordWrapLayouter{Provider: provider}
}

// Wrap lays out each paragraph into lines no wider than maxWidth pixels.
// Empty paragraphs are kept as empty lines. maxWidth <= 0 disables wrapping.
func (l *WordWrapLayouter) Wrap(paragraphs []string, maxWidth float64) []string {
	if maxWidth <= 0 {
		return paragraphs
	}
	face, _ := l.Provider.Resolve(l.Font)
	d := &font.Drawer{Face: face}
	space := advance(d, " ")

	var out []string
	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var cur strings.Builder
		width := 0.0
		for _, w := range words {
			ww := advance(d, w)
			if cur.Len() > 0 && width+space+ww > maxWidth {
				out = append(out, cur.String())
				cur.Reset()
				width = 0
			}
			if ww > maxWidth {
				pieces := splitWord(d, w, maxWidth)
				for _, piece := range pieces[:len(pieces)-1] {
					out = append(out, piece)
				}
				w = pieces[len(pieces)-1]
				ww = advance(d, w)
			}
			if cur.Len() > 0 {
				cur.WriteByte(' ')
				width += space
			}
			cur.WriteString(w)
			width += ww
		}
		out = append(out, cur.String())
	}
	return out
}

// splitWord cuts w into pieces that fit maxWidth; every piece holds at least
// one rune.
func splitWord(d *font.Drawer, w string, maxWidth float64) []string {
	var pieces []string
	start, width := 0, 0.0
	for i, r := range w {
		rw := advance(d, string(r))
		if i > start && width+rw > maxWidth {
			pieces = append(pieces, w[start:i])
			start, width = i, 0
		}
		width += rw
	}
	return append(pieces, w[start:])
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64
}

// Measure returns the width of the widest line and the height of all lines.
func Measure(provider Provider, spec FontSpec, lines []string) (w, h float64) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	for _, s := range lines {
		w = max(w, advance(d, s))
	}
	return w, float64(len(lines)) * met.LineHeight()
}
