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
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quickbox/internal/model"
)

func sampleDocument() model.Document {
	d := model.NewDocument()
	d.Footer.ColorOverride = "#0af"
	d.Header.Boxes = []model.Box{{ID: "box-1", Name: "Logo", Type: model.TypeImage, X: 10, Y: 10, Width: 120, Height: 50, ZIndex: 5}}
	d.Pages[0].Name = "Home"
	d.Pages[0].Boxes = []model.Box{
		{ID: "box-2", Name: "Hero", Type: model.TypeText, X: 100, Y: 100, Width: 200, Height: 100, ZIndex: 2,
			Content: "Hi <b>", FontSize: "14", StyleOverrides: &model.StyleOverride{Fill: "#ff0000"}},
		{ID: "box-3", Name: "Nav", Type: model.TypeMenu, X: 10, Y: 10, Width: 400, Height: 50, ZIndex: 1,
			LinkTo:    &model.LinkTarget{Type: model.LinkPage, Target: "page-2"},
			MenuItems: []model.MenuItem{{ID: "m1", Text: "Products", Children: []model.MenuItem{{ID: "m2", Text: "Boxes"}}}}},
	}
	p2 := model.NewPage(2)
	p2.Name = "Pricing Details"
	p2.Boxes = []model.Box{{ID: "box-4", Name: "FAQ", Type: model.TypeAccordion, X: 20, Y: 20, Width: 300, Height: 200, ZIndex: 3,
		AccordionItems: []model.AccordionItem{
			{ID: "a1", Title: "Refunds", Body: "Within 30 days", IsExpanded: true},
			{ID: "a2", Title: "Shipping"},
		}}}
	d.Pages = append(d.Pages, p2)
	return d
}

func TestBuildFrame_StacksRegions(t *testing.T) {
	d := sampleDocument()
	f := BuildFrame(&d, &d.Pages[0], DefaultPalette())
	if f.Width != 1200 || f.Height != 80+600+80 {
		t.Fatalf("unexpected frame size %vx%v", f.Width, f.Height)
	}
	if got := f.Bands[2].Fill; got != (color.RGBA{0, 170, 255, 255}) {
		t.Fatalf("footer override ignored: %v", got)
	}
	var ids []string
	for _, it := range f.Items {
		ids = append(ids, it.ID)
	}
	if strings.Join(ids, ",") != "box-3,box-2,box-1" {
		t.Fatalf("items not in z order: %v", ids)
	}
	hero := f.Items[1]
	if hero.Rect.Y != 180 || hero.Region != model.RegionMain {
		t.Fatalf("main box not offset by header: %+v", hero.Rect)
	}
	if hero.Fill != (color.RGBA{255, 0, 0, 255}) || hero.FontSize != 14 {
		t.Fatalf("style not applied: %+v", hero)
	}
	if f.Items[0].LinkPage != "page-2" {
		t.Fatalf("page link lost")
	}
}

func TestBuildFrames_SelectsPages(t *testing.T) {
	d := sampleDocument()
	frames, err := BuildFrames(&d, []string{"page-2"}, DefaultPalette())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(frames) != 1 || frames[0].PageID != "page-2" {
		t.Fatalf("unexpected frames %+v", frames)
	}
	if _, err := BuildFrames(&d, []string{"page-9"}, DefaultPalette()); err == nil {
		t.Fatalf("expected error for unknown page")
	}
}

func TestBoxLines(t *testing.T) {
	d := sampleDocument()
	menu := boxLines(&d.Pages[0].Boxes[1])
	if strings.Join(menu, "|") != "- Products|  - Boxes" {
		t.Fatalf("menu lines %q", menu)
	}
	acc := boxLines(&d.Pages[1].Boxes[0])
	if strings.Join(acc, "|") != "v Refunds|Within 30 days|> Shipping" {
		t.Fatalf("accordion lines %q", acc)
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#ffffff", color.RGBA{255, 255, 255, 255}, true},
		{"#0af", color.RGBA{0, 170, 255, 255}, true},
		{"112233", color.RGBA{17, 34, 51, 255}, true},
		{"red", color.RGBA{}, false},
		{"#12345", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, c := range cases {
		got, ok := ParseColor(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseColor(%q) = %v %v, want %v %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFileNames(t *testing.T) {
	if got := PageFileName(2, Frame{PageID: "page-2", Name: "Pricing Details"}, "png"); got != "02-pricing-details.png" {
		t.Fatalf("unexpected name %s", got)
	}
	if got := PageFileName(3, Frame{PageID: "page-3", Name: "!!!"}, "svg"); got != "03-page-3.svg" {
		t.Fatalf("unexpected fallback name %s", got)
	}
	if got := DocumentFileName("/tmp/Shop Mockup.json", "pdf"); got != "shop-mockup.pdf" {
		t.Fatalf("unexpected document name %s", got)
	}
}

func TestExportPDF(t *testing.T) {
	d := sampleDocument()
	out := filepath.Join(t.TempDir(), "out", "mockup.pdf")
	res, err := ExportPDF(&d, out, PDFOptions{Labels: true, Title: "Mockup"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 2 || res.Links != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}

	res, err = ExportPDF(&d, out, PDFOptions{Pages: []string{"page-1"}})
	if err != nil {
		t.Fatalf("export single page: %v", err)
	}
	if res.Pages != 1 || res.Links != 0 {
		t.Fatalf("link to a page outside the export must be dropped: %+v", res)
	}
}

func TestExportPNG(t *testing.T) {
	d := sampleDocument()
	dir := t.TempDir()
	files, err := ExportPNG(&d, dir, PNGOptions{Labels: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "01-home.png" || filepath.Base(files[1]) != "02-pricing-details.png" {
		t.Fatalf("unexpected files %v", files)
	}
	fh, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fh.Close()
	img, err := png.Decode(fh)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 760 {
		t.Fatalf("unexpected image size %v", b)
	}
	r, g, b, _ := img.At(290, 270).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Fatalf("box fill not painted: %d %d %d", r>>8, g>>8, b>>8)
	}

	small, err := ExportPNG(&d, t.TempDir(), PNGOptions{Scale: 0.5, Pages: []string{"page-2"}})
	if err != nil || len(small) != 1 {
		t.Fatalf("scaled export: %v %v", small, err)
	}
}

func TestExportSVG(t *testing.T) {
	d := sampleDocument()
	files, err := ExportSVG(&d, t.TempDir(), SVGOptions{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s := string(data)
	for _, want := range []string{`xlink:href="02-pricing-details.svg"`, "Hi &lt;b&gt;", `fill="#00aaff"`, `class="box-menu"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("svg missing %s", want)
		}
	}
}

func TestBatchExport_HandoffPreset(t *testing.T) {
	d := sampleDocument()
	root := t.TempDir()
	files, err := BatchExport(&d, root, BatchOptions{Preset: PresetHandoff, Name: "shop"})
	if err != nil {
		t.Fatalf("batch export: %v", err)
	}
	checks := []string{
		filepath.Join(root, "handoff", "pdf", "shop.pdf"),
		filepath.Join(root, "handoff", "png", "01-home.png"),
		filepath.Join(root, "handoff", "svg", "02-pricing-details.svg"),
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
	if len(files) != 5 {
		t.Fatalf("expected 5 files, got %d", len(files))
	}
}

func TestBatchExport_RejectsUnknown(t *testing.T) {
	d := sampleDocument()
	if _, err := BatchExport(&d, t.TempDir(), BatchOptions{Preset: "poster"}); err == nil {
		t.Fatalf("expected unknown preset error")
	}
	if _, err := BatchExport(&d, t.TempDir(), BatchOptions{Formats: []string{"cbz"}}); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
