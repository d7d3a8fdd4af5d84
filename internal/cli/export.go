/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"quickbox/internal/export"
	"quickbox/internal/storage"

	"github.com/spf13/cobra"
)

type exportResult struct {
	Files []string `json:"files"`
	Links int      `json:"links,omitempty"`
}

func (r exportResult) WriteText(w io.Writer) error {
	for _, f := range r.Files {
		if _, err := fmt.Fprintln(w, f); err != nil {
			return err
		}
	}
	return nil
}

func newExportCmd(app *App) *cobra.Command {
	var (
		format string
		preset string
		out    string
		pages  []string
		labels bool
		scale  float64
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export pages as PDF, PNG or SVG",
		Example: strings.TrimSpace(`
  quickbox export shop.json                       # exports/shop.pdf
  quickbox export shop.json -f png --scale 2 -o out
  quickbox export shop.json --preset web --pages page-1,page-3
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := storage.Open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			l := app.log.With(slog.String("path", h.Path))
			if out == "" {
				out = filepath.Join(filepath.Dir(h.Path), "exports")
			}

			if preset != "" {
				opt := export.BatchOptions{
					Preset: export.PresetName(preset),
					Pages:  pages,
					Scale:  scale,
					Name:   strings.TrimSuffix(export.DocumentFileName(h.Path, "pdf"), ".pdf"),
				}
				if cmd.Flags().Changed("format") {
					opt.Formats = strings.Split(format, ",")
				}
				if cmd.Flags().Changed("labels") {
					opt.Labels = &labels
				}
				files, err := export.BatchExport(&h.Doc, out, opt)
				if err != nil {
					return writeErr(cmd, err)
				}
				l.Info("batch export done", slog.String("preset", preset), slog.Int("files", len(files)))
				return writeOut(cmd, app, exportResult{Files: files})
			}

			var res exportResult
			switch strings.ToLower(format) {
			case "pdf":
				target := out
				if filepath.Ext(target) != ".pdf" {
					target = filepath.Join(out, export.DocumentFileName(h.Path, "pdf"))
				}
				pr, err := export.ExportPDF(&h.Doc, target, export.PDFOptions{Pages: pages, Labels: labels, Title: filepath.Base(h.Path)})
				if err != nil {
					return writeErr(cmd, err)
				}
				res = exportResult{Files: []string{pr.Path}, Links: pr.Links}
			case "png":
				files, err := export.ExportPNG(&h.Doc, out, export.PNGOptions{Pages: pages, Labels: labels, Scale: scale})
				if err != nil {
					return writeErr(cmd, err)
				}
				res.Files = files
			case "svg":
				files, err := export.ExportSVG(&h.Doc, out, export.SVGOptions{Pages: pages, Labels: labels})
				if err != nil {
					return writeErr(cmd, err)
				}
				res.Files = files
			default:
				return writeErr(cmd, fmt.Errorf("unknown format %q (want pdf, png or svg)", format))
			}
			l.Info("export done", slog.String("format", format), slog.Int("files", len(res.Files)))
			return writeOut(cmd, app, res)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Output format: pdf, png or svg (comma separated with --preset)")
	cmd.Flags().StringVar(&preset, "preset", "", "Batch preset: review, web or handoff")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory, or .pdf file (default <docdir>/exports)")
	cmd.Flags().StringSliceVar(&pages, "pages", nil, "Page ids to export (default all)")
	cmd.Flags().BoolVar(&labels, "labels", true, "Draw box names")
	cmd.Flags().Float64Var(&scale, "scale", 1, "PNG pixel scale")
	return cmd
}
