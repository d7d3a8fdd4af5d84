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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	applog "quickbox/internal/log"
	"quickbox/internal/model"
	"quickbox/internal/textlayout"
)

// PNGOptions controls PNG export.
// - Scale multiplies canvas pixels; zero means 1.
// - Pages selects page ids; empty exports all pages.
// Text is drawn with the fixed 7x13 bitmap face at every scale.
type PNGOptions struct {
	Scale   float64
	Pages   []string
	Palette *Palette
	Labels  bool
}

// ExportPNG writes one PNG per page into outDir and returns the written paths
// in page order.
func ExportPNG(d *model.Document, outDir string, opt PNGOptions) ([]string, error) {
	if d == nil {
		return nil, fmt.Errorf("document is nil")
	}
	pal := DefaultPalette()
	if opt.Palette != nil {
		pal = *opt.Palette
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	frames, err := BuildFrames(d, opt.Pages, pal)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(outDir); err != nil {
		return nil, err
	}

	l := applog.WithOperation(applog.WithComponent("export"), "png")
	out := make([]string, 0, len(frames))
	for i, f := range frames {
		img := RenderImage(f, scale, pal, opt.Labels)
		name := filepath.Join(outDir, PageFileName(i+1, f, "png"))
		if err := writePNG(name, img); err != nil {
			return out, err
		}
		l.Debug("page written", slog.String("page", f.PageID), slog.String("path", name))
		out = append(out, name)
	}
	l.Info("png export done", slog.String("dir", outDir), slog.Int("pages", len(out)))
	return out, nil
}

// RenderImage rasterizes a frame.
func RenderImage(f Frame, scale float64, pal Palette, labels bool) *image.RGBA {
	px := func(v float64) int { return int(math.Round(v * scale)) }
	img := image.NewRGBA(image.Rect(0, 0, max(1, px(f.Width)), max(1, px(f.Height))))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: pal.Background}, image.Point{}, draw.Src)

	for _, b := range f.Bands {
		r := b.Rect
		fillRect(img, px(r.X), px(r.Y), px(r.Right())-1, px(r.Bottom())-1, b.Fill)
	}
	for _, b := range f.Bands[1:] {
		y := px(b.Rect.Y)
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.SetRGBA(x, y, pal.Divider)
		}
	}

	face := basicfont.Face7x13
	lineH := face.Height + 2
	wrap := textlayout.NewWordWrap(textlayout.BasicProvider{})
	for _, it := range f.Items {
		r := it.Rect
		x0, y0, x1, y1 := px(r.X), px(r.Y), px(r.Right())-1, px(r.Bottom())-1
		fillRect(img, x0, y0, x1, y1, it.Fill)
		strokeRect(img, x0, y0, x1, y1, it.Border)

		clip, ok := img.SubImage(image.Rect(x0+1, y0+1, x1, y1)).(*image.RGBA)
		if !ok || clip.Bounds().Empty() {
			continue
		}
		y := y0 + int(textPad)
		if labels {
			y += lineH
			drawText(clip, face, x0+int(textPad), y, it.Label, pal.Label)
		}
		for _, line := range wrap.Wrap(it.Lines, float64(x1-x0)-2*textPad) {
			y += lineH
			if y > y1 {
				break
			}
			drawText(clip, face, x0+int(textPad), y, line, it.Text)
		}
	}
	return img
}

func drawText(dst draw.Image, face font.Face, x, y int, s string, c color.RGBA) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1), &image.Uniform{C: col}, image.Point{}, draw.Src)
}
