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
	"os"
	"path/filepath"
	"sort"

	"quickbox/internal/model"
	"quickbox/internal/storage"

	"github.com/maruel/natural"
	"github.com/spf13/cobra"
)

func newNewCmd(app *App) *cobra.Command {
	var canvas string
	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create an empty document with one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size := model.CanvasSize(canvas)
			if size == "" {
				size = model.CanvasSize(app.Config.Editor.DefaultCanvas)
			}
			if _, ok := size.Width(); !ok {
				return writeErr(cmd, fmt.Errorf("canvas %q: want desktop, tablet or mobile", size))
			}
			d := model.NewDocument()
			d.Pages[0].CanvasSize = size
			h, err := storage.Create(args[0], d)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("document created", slog.String("path", h.Path), slog.String("canvas", string(size)))
			return writeOut(cmd, app, pathResult{Action: "created", Path: h.Path})
		},
	}
	cmd.Flags().StringVar(&canvas, "canvas", "", "Canvas preset of the first page (default from config)")
	return cmd
}

type pathResult struct {
	Action string `json:"action"`
	Path   string `json:"path"`
}

func (r pathResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s %s\n", r.Action, r.Path)
	return err
}

type regionInfo struct {
	Height float64  `json:"height"`
	Color  string   `json:"color,omitempty"`
	Boxes  []string `json:"boxes"`
}

type pageInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Canvas  string   `json:"canvas"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Current bool     `json:"current"`
	Boxes   []string `json:"boxes"`
}

type docInfo struct {
	Path      string         `json:"path"`
	Format    storage.Format `json:"format"`
	Recovered bool           `json:"recovered,omitempty"`
	Header    regionInfo     `json:"header"`
	Footer    regionInfo     `json:"footer"`
	Pages     []pageInfo     `json:"pages"`
	Counters  model.Counters `json:"counters"`
}

func (i docInfo) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Document: %s\n", i.Path)
	fmt.Fprintf(w, "Format:   %s\n", i.Format)
	if i.Recovered {
		fmt.Fprintln(w, "Recovered from backup")
	}
	fmt.Fprintf(w, "Header:   %d boxes, height %g\n", len(i.Header.Boxes), i.Header.Height)
	fmt.Fprintf(w, "Footer:   %d boxes, height %g\n", len(i.Footer.Boxes), i.Footer.Height)
	fmt.Fprintf(w, "Pages:    %d\n", len(i.Pages))
	for _, p := range i.Pages {
		mark := " "
		if p.Current {
			mark = "*"
		}
		fmt.Fprintf(w, " %s %-10s %-24q %-8s %gx%g  %d boxes\n", mark, p.ID, p.Name, p.Canvas, p.Width, p.Height, len(p.Boxes))
	}
	_, err := fmt.Fprintf(w, "Next ids: box-%d page-%d z=%d\n", i.Counters.Box+1, i.Counters.Page+1, i.Counters.ZIndex)
	return err
}

func newInfoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Summarize a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := storage.Open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if h.Recovered {
				app.log.Warn("document recovered from backup", slog.String("path", h.Path))
			}
			return writeOut(cmd, app, describe(h))
		},
	}
}

func describe(h *storage.Handle) docInfo {
	d := &h.Doc
	out := docInfo{
		Path:      h.Path,
		Format:    h.Format,
		Recovered: h.Recovered,
		Header:    regionInfo{Height: d.Header.Height, Color: d.Header.ColorOverride, Boxes: boxIDs(d.Header.Boxes)},
		Footer:    regionInfo{Height: d.Footer.Height, Color: d.Footer.ColorOverride, Boxes: boxIDs(d.Footer.Boxes)},
		Pages:     make([]pageInfo, 0, len(d.Pages)),
		Counters:  h.Counters,
	}
	for i := range d.Pages {
		p := &d.Pages[i]
		out.Pages = append(out.Pages, pageInfo{
			ID:      p.ID,
			Name:    p.Name,
			Canvas:  string(p.CanvasSize),
			Width:   p.Width(),
			Height:  p.MainHeight(),
			Current: p.ID == d.CurrentPageID,
			Boxes:   boxIDs(p.Boxes),
		})
	}
	return out
}

// boxIDs lists ids in natural order so box-10 follows box-9.
func boxIDs(boxes []model.Box) []string {
	ids := make([]string, 0, len(boxes))
	for i := range boxes {
		ids = append(ids, boxes[i].ID)
	}
	sort.Sort(natural.StringSlice(ids))
	return ids
}

type validateResult struct {
	Path     string         `json:"path"`
	Valid    bool           `json:"valid"`
	Format   storage.Format `json:"format,omitempty"`
	Problems []string       `json:"problems,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (r validateResult) WriteText(w io.Writer) error {
	if r.Valid {
		fmt.Fprintf(w, "%s: ok (%s)\n", r.Path, r.Format)
	} else {
		fmt.Fprintf(w, "%s: invalid\n", r.Path)
	}
	for _, p := range r.Problems {
		fmt.Fprintf(w, "  error: %s\n", p)
	}
	for _, p := range r.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", p)
	}
	return nil
}

func newValidateCmd(app *App) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a document for structural problems and dangling links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			res := validateResult{Path: args[0]}
			dec, err := storage.Decode(data)
			if err != nil {
				res.Problems = []string{err.Error()}
			} else {
				res.Valid = true
				res.Format = dec.Format
				res.Warnings = linkWarnings(&dec.Doc)
			}
			if werr := writeOut(cmd, app, res); werr != nil {
				return werr
			}
			switch {
			case !res.Valid:
				return fmt.Errorf("%s is not a valid document", args[0])
			case strict && len(res.Warnings) > 0:
				return fmt.Errorf("%s has %d warning(s)", args[0], len(res.Warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat dangling links as errors")
	return cmd
}

// linkWarnings reports page links to missing pages and anchor links to
// boxes that do not exist. Both are tolerated at runtime.
func linkWarnings(d *model.Document) []string {
	var out []string
	anchors := make(map[string]bool)
	d.EachBox(func(_ model.RegionID, _ string, b *model.Box) { anchors[b.ID] = true })
	check := func(owner string, l *model.LinkTarget) {
		if l == nil || l.Target == "" {
			return
		}
		switch l.Type {
		case model.LinkPage:
			if d.Page(l.Target) == nil {
				out = append(out, fmt.Sprintf("%s links to missing page %q", owner, l.Target))
			}
		case model.LinkAnchor:
			if !anchors[l.Target] {
				out = append(out, fmt.Sprintf("%s links to missing box %q", owner, l.Target))
			}
		}
	}
	d.EachBox(func(_ model.RegionID, _ string, b *model.Box) {
		check("box "+b.ID, b.LinkTo)
		model.WalkMenu(b.MenuItems, func(it *model.MenuItem, _ int) bool {
			check(fmt.Sprintf("menu item %q of %s", it.Text, b.ID), it.LinkTo)
			return true
		})
	})
	return out
}

type migrateResult struct {
	Path    string         `json:"path"`
	From    storage.Format `json:"from"`
	Written bool           `json:"written"`
}

func (r migrateResult) WriteText(w io.Writer) error {
	var err error
	if r.Written {
		_, err = fmt.Fprintf(w, "migrated %s (%s -> %s)\n", r.Path, r.From, storage.FormatCurrent)
	} else {
		_, err = fmt.Fprintf(w, "%s is already current\n", r.Path)
	}
	return err
}

func newMigrateCmd(app *App) *cobra.Command {
	var out string
	var force bool
	cmd := &cobra.Command{
		Use:   "migrate <file>",
		Short: "Rewrite a document in the current file format",
		Long:  "Rewrite a single-page or pages-only document in the current format. The old file is kept in the backups directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := storage.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			res := migrateResult{Path: h.Path, From: h.Format}
			if h.Format == storage.FormatCurrent && out == "" && !force {
				return writeOut(cmd, app, res)
			}
			if out != "" {
				abs, aerr := filepath.Abs(out)
				if aerr != nil {
					return writeErr(cmd, aerr)
				}
				err = storage.SaveAs(h, abs)
			} else {
				err = storage.Save(h)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			res.Path, res.Written = h.Path, true
			app.log.Info("document migrated", slog.String("path", h.Path), slog.String("from", string(res.From)))
			return writeOut(cmd, app, res)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the migrated document to this path instead")
	cmd.Flags().BoolVar(&force, "force", false, "Rewrite even when the file is already current")
	return cmd
}
