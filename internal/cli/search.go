/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"quickbox/internal/model"
	"quickbox/internal/storage"

	"github.com/spf13/cobra"
)

type searchHit struct {
	Doc     string         `json:"doc"`
	PageID  string         `json:"pageId,omitempty"`
	Region  model.RegionID `json:"region"`
	BoxID   string         `json:"boxId"`
	Type    model.BoxType  `json:"type"`
	Name    string         `json:"name"`
	Snippet string         `json:"snippet,omitempty"`
}

type searchResult struct {
	Indexed int         `json:"indexed"`
	Skipped []string    `json:"skipped,omitempty"`
	Rebuilt bool        `json:"rebuilt,omitempty"`
	Hits    []searchHit `json:"hits"`
}

func (r searchResult) WriteText(w io.Writer) error {
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "skipped %s\n", s)
	}
	if len(r.Hits) == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, h := range r.Hits {
		where := string(h.Region)
		if h.PageID != "" {
			where = h.PageID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", h.Doc, where, h.BoxID, h.Type, h.Name, h.Snippet)
	}
	return tw.Flush()
}

func newSearchCmd(app *App) *cobra.Command {
	var (
		types   []string
		regions []string
		pageID  string
		limit   int
		offset  int
	)
	cmd := &cobra.Command{
		Use:   "search <dir|file> [query]",
		Short: "Full-text search over box names, content and items",
		Long: strings.TrimSpace(`
Indexes every *.json document in the directory (or the single file given)
into the sidecar index, then searches it. The query uses SQLite FTS5 syntax:
terms, "quoted phrases", AND/OR/NOT. Without a query every box matching the
filters is listed.`),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			dir, docs, err := searchTargets(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := indexDocuments(ctx, app, dir, docs)
			if err != nil {
				return writeErr(cmd, err)
			}

			q := storage.SearchQuery{PageID: pageID, Limit: limit, Offset: offset}
			if len(args) > 1 {
				q.Text = args[1]
			}
			if len(docs) == 1 {
				q.Doc = docs[0]
			}
			for _, t := range types {
				bt := model.BoxType(strings.ToLower(t))
				if !bt.Valid() {
					return writeErr(cmd, fmt.Errorf("unknown box type %q", t))
				}
				q.Types = append(q.Types, bt)
			}
			for _, r := range regions {
				rid := model.RegionID(strings.ToLower(r))
				if !rid.Valid() {
					return writeErr(cmd, fmt.Errorf("unknown region %q", r))
				}
				q.Regions = append(q.Regions, rid)
			}

			ix, err := storage.OpenIndex(dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ix.Close()
			found, err := ix.Search(ctx, q)
			if err != nil {
				return writeErr(cmd, err)
			}
			res.Hits = make([]searchHit, 0, len(found))
			for _, f := range found {
				res.Hits = append(res.Hits, searchHit(f))
			}
			return writeOut(cmd, app, res)
		},
	}
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Only boxes of these types")
	cmd.Flags().StringSliceVarP(&regions, "region", "r", nil, "Only boxes in these regions (header, main, footer)")
	cmd.Flags().StringVar(&pageID, "page", "", "Only boxes on this page")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of hits")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many hits")
	return cmd
}

// searchTargets resolves the index directory and the documents to index.
func searchTargets(arg string) (string, []string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", nil, err
	}
	if !fi.IsDir() {
		return filepath.Dir(abs), []string{abs}, nil
	}
	docs, err := filepath.Glob(filepath.Join(abs, "*.json"))
	if err != nil {
		return "", nil, err
	}
	if len(docs) == 0 {
		return "", nil, errors.New("no *.json documents in " + abs)
	}
	return abs, docs, nil
}

// indexDocuments refreshes the index rows of every readable document. A
// damaged index is rebuilt first; malformed documents are skipped.
func indexDocuments(ctx context.Context, app *App, dir string, paths []string) (searchResult, error) {
	var res searchResult
	loaded := make(map[string]model.Document, len(paths))
	for _, p := range paths {
		h, err := storage.ReadFile(p)
		if err != nil {
			app.log.Warn("skip document", slog.String("path", p), slog.Any("err", err))
			res.Skipped = append(res.Skipped, filepath.Base(p))
			continue
		}
		loaded[p] = h.Doc
	}
	rebuilt, err := storage.DetectAndRebuildIndex(ctx, dir, loaded)
	if err != nil {
		return res, err
	}
	res.Rebuilt = rebuilt
	if rebuilt {
		app.log.Warn("search index rebuilt", slog.String("dir", dir))
		res.Indexed = len(loaded)
		return res, nil
	}
	ix, err := storage.OpenIndex(dir)
	if err != nil {
		return res, err
	}
	defer ix.Close()
	for p, d := range loaded {
		if err := ix.Reindex(ctx, p, d); err != nil {
			return res, fmt.Errorf("index %s: %w", filepath.Base(p), err)
		}
		res.Indexed++
	}
	return res, nil
}
