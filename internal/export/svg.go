/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	applog "quickbox/internal/log"
	"quickbox/internal/model"
)

// SVGOptions controls SVG export. The coordinate system is canvas pixels.
type SVGOptions struct {
	Pages   []string
	Palette *Palette
	Labels  bool
}

// ExportSVG writes one SVG per page into outDir. Page links become
// references to the sibling file of the target page.
func ExportSVG(d *model.Document, outDir string, opt SVGOptions) ([]string, error) {
	if d == nil {
		return nil, fmt.Errorf("document is nil")
	}
	pal := DefaultPalette()
	if opt.Palette != nil {
		pal = *opt.Palette
	}
	frames, err := BuildFrames(d, opt.Pages, pal)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(outDir); err != nil {
		return nil, err
	}

	files := make(map[string]string, len(frames))
	for i, f := range frames {
		files[f.PageID] = PageFileName(i+1, f, "svg")
	}
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		data, err := RenderSVG(f, pal, opt.Labels, files)
		if err != nil {
			return out, err
		}
		name := filepath.Join(outDir, files[f.PageID])
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return out, fmt.Errorf("write svg: %w", err)
		}
		out = append(out, name)
	}
	applog.WithOperation(applog.WithComponent("export"), "svg").Info("svg export done",
		slog.String("dir", outDir), slog.Int("pages", len(out)))
	return out, nil
}

// RenderSVG serializes a frame. links maps page ids to hrefs; boxes linking
// to pages missing from it are drawn without a link.
func RenderSVG(f Frame, pal Palette, labels bool, links map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%g\" height=\"%g\" viewBox=\"0 0 %g %g\">\n", f.Width, f.Height, f.Width, f.Height)
	wf("  <title>%s</title>\n", escText(f.Name))
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", f.Width, f.Height, svgColor(pal.Background))
	for _, b := range f.Bands {
		r := b.Rect
		wf("  <rect class=\"region-%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", b.Region, r.X, r.Y, r.W, r.H, svgColor(b.Fill))
	}
	for _, b := range f.Bands[1:] {
		wf("  <line x1=\"0\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"0.5\"/>\n", b.Rect.Y, f.Width, b.Rect.Y, svgColor(pal.Divider))
	}

	for _, it := range f.Items {
		r := it.Rect
		href, linked := links[it.LinkPage]
		if linked && it.LinkPage != f.PageID {
			wf("  <a xlink:href=\"%s\">\n", escAttr(href))
		} else {
			linked = false
		}
		wf("  <g id=\"%s\" class=\"box-%s\">\n", escAttr(it.ID), it.Type)
		wf("    <clipPath id=\"clip-%s\"><rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"/></clipPath>\n", escAttr(it.ID), r.X, r.Y, r.W, r.H)
		wf("    <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"1\"/>\n", r.X, r.Y, r.W, r.H, svgColor(it.Fill), svgColor(it.Border))
		y := r.Y + textPad
		if labels {
			y += labelPt
			wf("    <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" fill=\"%s\" clip-path=\"url(#clip-%s)\">%s</text>\n", r.X+textPad, y, labelPt, svgColor(pal.Label), escAttr(it.ID), escText(it.Label))
		}
		for _, line := range it.Lines {
			y += it.FontSize * lineSpacing
			if y > r.Bottom() {
				break
			}
			wf("    <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" fill=\"%s\" xml:space=\"preserve\" clip-path=\"url(#clip-%s)\">%s</text>\n", r.X+textPad, y, it.FontSize, svgColor(it.Text), escAttr(it.ID), escText(line))
		}
		wf("  </g>\n")
		if linked {
			wf("  </a>\n")
		}
	}
	wf("</svg>\n")

	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "\n", " ", "\r", "")
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

func escAttr(s string) string { return attrEscaper.Replace(s) }
func escText(s string) string { return textEscaper.Replace(s) }
