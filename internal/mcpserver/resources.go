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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"quickbox/internal/editor"
	"quickbox/internal/model"
)

const (
	documentURI     = "quickbox://document"
	pageURIPrefix   = "quickbox://page/"
	pageURITemplate = pageURIPrefix + "{pageId}"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		documentURI,
		"Current document",
		mcp.WithResourceDescription("The whole mockup: header, footer, pages and boxes"),
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentResource)

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageURITemplate,
			"Page with shared regions",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handlePageResource,
	)
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	d, err := s.sess.Document(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, d)
}

// pageView is a page as it is laid out: the shared regions around its boxes.
type pageView struct {
	Page     model.Page    `json:"page"`
	Header   model.Region  `json:"header"`
	Footer   model.Region  `json:"footer"`
	Bounds   editor.Bounds `json:"bounds"`
	Editable bool          `json:"sharedRegionsEditable"`
}

func (s *Server) handlePageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := strings.TrimPrefix(uri, pageURIPrefix)
	if pageID == "" || pageID == uri {
		return nil, fmt.Errorf("could not extract pageId from URI: %s", uri)
	}
	d, err := s.sess.Document(ctx)
	if err != nil {
		return nil, err
	}
	p := d.Page(pageID)
	if p == nil {
		return nil, fmt.Errorf("%w: page %q", editor.ErrDanglingReference, pageID)
	}
	v := pageView{
		Page:     *p,
		Header:   d.Header,
		Footer:   d.Footer,
		Bounds:   editor.PageBounds(&d, p),
		Editable: len(d.Pages) > 0 && d.Pages[0].ID == pageID,
	}
	return jsonResource(uri, v)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
