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
	"strconv"
	"text/tabwriter"
	"time"

	"quickbox/internal/session"
	"quickbox/internal/storage"

	"github.com/spf13/cobra"
)

type revisionView struct {
	ID    int64     `json:"id"`
	TS    time.Time `json:"ts"`
	Label string    `json:"label"`
	Pages int       `json:"pages"`
	Boxes int       `json:"boxes"`
}

type revisionList []revisionView

func (l revisionList) WriteText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "no revisions")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSAVED\tPAGES\tBOXES\tLABEL")
	for _, r := range l {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", r.ID, r.TS.Local().Format(time.DateTime), r.Pages, r.Boxes, r.Label)
	}
	return tw.Flush()
}

func newRevisionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revisions",
		Short: "List, record and restore saved revisions",
	}
	cmd.AddCommand(newRevisionsListCmd(app))
	cmd.AddCommand(newRevisionsCheckpointCmd(app))
	cmd.AddCommand(newRevisionsRestoreCmd(app))
	return cmd
}

// openSession opens path in a session that records revisions on save.
func openSession(app *App, path string) (*session.Session, error) {
	opts := session.OptionsFromConfig(app.Config)
	opts.Index = true
	return session.Open(path, opts)
}

func newRevisionsListCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List saved revisions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			revs, err := s.Revisions(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make(revisionList, 0, len(revs))
			for _, r := range revs {
				out = append(out, revisionView{ID: r.ID, TS: r.TS, Label: r.Label, Pages: r.Pages, Boxes: r.Boxes})
			}
			return writeOut(cmd, app, out)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of revisions")
	return cmd
}

func newRevisionsCheckpointCmd(app *App) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "checkpoint <file>",
		Short: "Record the file's current content as a revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := storage.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ix, err := storage.OpenIndexFor(h.Path)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ix.Close()
			rev, err := ix.Record(cmd.Context(), h.Path, h.Doc, h.Themes, label, time.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, revisionList{{ID: rev.ID, TS: rev.TS, Label: rev.Label, Pages: rev.Pages, Boxes: rev.Boxes}})
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "checkpoint", "Revision label")
	return cmd
}

func newRevisionsRestoreCmd(app *App) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "restore <file> <id>",
		Short: "Replace the document with a saved revision",
		Long:  "Replace the document with a saved revision and save it. The replaced content stays available as a backup and as its own revision.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("revision id %q: %w", args[1], err))
			}
			s, err := openSession(app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			ctx := cmd.Context()
			if err := s.Restore(ctx, id); err != nil {
				return writeErr(cmd, err)
			}
			if label == "" {
				label = fmt.Sprintf("restore %d", id)
			}
			if err := s.Save(ctx, label); err != nil {
				return writeErr(cmd, err)
			}
			path, _ := s.Path(ctx)
			return writeOut(cmd, app, pathResult{Action: fmt.Sprintf("restored revision %d into", id), Path: path})
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "Label of the revision written by the restore")
	return cmd
}
