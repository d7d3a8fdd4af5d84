/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"quickbox/internal/export"
	"quickbox/internal/model"
	"quickbox/internal/storage"
)

func (s *Server) registerFileTools() {
	s.addTool(mcp.NewTool("save",
		mcp.WithDescription("Save the document to its file and record a revision"),
		mcp.WithString("label", mcp.Description("Revision label (optional)")),
	), s.handleSave)

	s.addTool(mcp.NewTool("search_boxes",
		mcp.WithDescription("Full-text search over box names and text of saved documents in the same folder"),
		mcp.WithString("query", mcp.Description("Search text"), mcp.Required()),
		mcp.WithString("types", mcp.Description("Comma-separated box types to keep (optional)")),
		mcp.WithString("regions", mcp.Description("Comma-separated regions to keep (optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 100)")),
	), s.handleSearch)

	s.addTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List saved revisions, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum revisions (default 20)")),
	), s.handleRevisions)

	s.addTool(mcp.NewTool("restore_revision",
		mcp.WithDescription("Replace the document with a saved revision. Undo history is cleared."),
		mcp.WithNumber("id", mcp.Description("Revision ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRestore)

	s.addTool(mcp.NewTool("export",
		mcp.WithDescription("Export the document as wireframes"),
		mcp.WithString("format", mcp.Description("pdf, png or svg"), mcp.Required()),
		mcp.WithString("out", mcp.Description("Output file (pdf) or directory (png, svg); defaults next to the document")),
		mcp.WithBoolean("labels", mcp.Description("Draw box names")),
	), s.handleExport)
}

func (s *Server) handleSave(ctx context.Context, a params) (any, error) {
	if err := s.sess.Save(ctx, a.str("label")); err != nil {
		return nil, err
	}
	path, err := s.sess.Path(ctx)
	if err != nil {
		return nil, err
	}
	return "saved " + path, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleSearch(ctx context.Context, a params) (any, error) {
	text, err := a.requireStr("query")
	if err != nil {
		return nil, err
	}
	q := storage.SearchQuery{Text: text, Limit: int(a.num("limit", 0))}
	for _, t := range splitList(a.str("types")) {
		q.Types = append(q.Types, model.BoxType(t))
	}
	for _, r := range splitList(a.str("regions")) {
		q.Regions = append(q.Regions, model.RegionID(r))
	}
	res, err := s.sess.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []storage.SearchResult{}
	}
	return res, nil
}

func (s *Server) handleRevisions(ctx context.Context, a params) (any, error) {
	revs, err := s.sess.Revisions(ctx, int(a.num("limit", 20)))
	if err != nil {
		return nil, err
	}
	if revs == nil {
		revs = []storage.Revision{}
	}
	return revs, nil
}

func (s *Server) handleRestore(ctx context.Context, a params) (any, error) {
	id, err := a.requireNum("id")
	if err != nil {
		return nil, err
	}
	if err := s.sess.Restore(ctx, int64(id)); err != nil {
		return nil, err
	}
	return fmt.Sprintf("restored revision %d", int64(id)), nil
}

func (s *Server) handleExport(ctx context.Context, a params) (any, error) {
	format := strings.ToLower(a.str("format"))
	d, err := s.sess.Document(ctx)
	if err != nil {
		return nil, err
	}
	out := a.str("out")
	if out == "" {
		path, err := s.sess.Path(ctx)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, fmt.Errorf("out is required for an unsaved document")
		}
		out = filepath.Join(filepath.Dir(path), "exports")
		if format == "pdf" {
			out = filepath.Join(out, export.DocumentFileName(path, "pdf"))
		}
	}
	labels := a.flag("labels")
	switch format {
	case "pdf":
		res, err := export.ExportPDF(&d, out, export.PDFOptions{Labels: labels})
		if err != nil {
			return nil, err
		}
		return res, nil
	case "png":
		return export.ExportPNG(&d, out, export.PNGOptions{Labels: labels})
	case "svg":
		return export.ExportSVG(&d, out, export.SVGOptions{Labels: labels})
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
