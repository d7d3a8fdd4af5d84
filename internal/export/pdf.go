/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	applog "quickbox/internal/log"
	"quickbox/internal/model"
)

// PDFOptions controls PDF export. Units are points; one canvas pixel maps to
// one point so pages keep their on-screen proportions.
type PDFOptions struct {
	// Pages selects page ids to export; empty exports all pages.
	Pages []string

	// Palette overrides DefaultPalette when non-nil.
	Palette *Palette

	// Labels draws each box name in its top-left corner.
	Labels bool
	Title  string
}

// PDFResult summarizes a written PDF.
type PDFResult struct {
	Path  string
	Pages int

	// Links counts boxes whose page link became a clickable PDF link.
	Links int
}

// ExportPDF writes the document as a single multi-page PDF to outPath.
// Boxes linking to another exported page become internal links.
func ExportPDF(d *model.Document, outPath string, opt PDFOptions) (PDFResult, error) {
	if d == nil {
		return PDFResult{}, fmt.Errorf("document is nil")
	}
	pal := DefaultPalette()
	if opt.Palette != nil {
		pal = *opt.Palette
	}
	frames, err := BuildFrames(d, opt.Pages, pal)
	if err != nil {
		return PDFResult{}, err
	}
	if len(frames) == 0 {
		return PDFResult{}, fmt.Errorf("no pages to export")
	}

	first := frames[0]
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: first.Width, Ht: first.Height},
		OrientationStr: "P",
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("QuickBox", false)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	anchors := make(map[string]int, len(frames))
	for _, f := range frames {
		anchors[f.PageID] = pdf.AddLink()
	}

	res := PDFResult{Path: outPath, Pages: len(frames)}
	for _, f := range frames {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: f.Width, Ht: f.Height})
		pdf.SetLink(anchors[f.PageID], 0, -1)

		for _, b := range f.Bands {
			setFillColor(pdf, b.Fill)
			pdf.Rect(b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H, "F")
		}
		setDrawColor(pdf, pal.Divider)
		pdf.SetLineWidth(0.5)
		for _, b := range f.Bands[1:] {
			pdf.Line(0, b.Rect.Y, f.Width, b.Rect.Y)
		}

		for _, it := range f.Items {
			r := it.Rect
			setFillColor(pdf, it.Fill)
			setDrawColor(pdf, it.Border)
			pdf.SetLineWidth(1)
			pdf.Rect(r.X, r.Y, r.W, r.H, "FD")

			pdf.ClipRect(r.X, r.Y, r.W, r.H, false)
			y := r.Y + textPad
			if opt.Labels {
				setTextColor(pdf, pal.Label)
				pdf.SetFont("Helvetica", "", labelPt)
				y += labelPt
				pdf.Text(r.X+textPad, y, tr(it.Label))
			}
			setTextColor(pdf, it.Text)
			pdf.SetFont("Helvetica", "", it.FontSize)
			var lines []string
			for _, line := range it.Lines {
				wrapped := pdf.SplitLines([]byte(tr(line)), r.W-2*textPad)
				if len(wrapped) == 0 {
					lines = append(lines, "")
				}
				for _, w := range wrapped {
					lines = append(lines, string(w))
				}
			}
			for _, line := range lines {
				y += it.FontSize * lineSpacing
				if y > r.Bottom() {
					break
				}
				pdf.Text(r.X+textPad, y, line)
			}
			pdf.ClipEnd()

			if id, ok := anchors[it.LinkPage]; ok && it.LinkPage != f.PageID {
				pdf.Link(r.X, r.Y, r.W, r.H, id)
				res.Links++
			}
		}
	}

	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return PDFResult{}, err
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return PDFResult{}, fmt.Errorf("write pdf: %w", err)
	}
	applog.WithOperation(applog.WithComponent("export"), "pdf").Info("pdf written",
		slog.String("path", outPath), slog.Int("pages", res.Pages), slog.Int("links", res.Links))
	return res, nil
}

const (
	textPad     = 4.0
	labelPt     = 8.0
	lineSpacing = 1.2
)

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
