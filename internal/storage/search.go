/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"quickbox/internal/model"

	"github.com/maruel/natural"
)

// SearchQuery describes a box search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// An empty Text lists boxes matching the filters.
type SearchQuery struct {
	Text    string
	Doc     string // document path; empty searches every document in the index
	Types   []model.BoxType
	Regions []model.RegionID
	PageID  string
	Limit   int
	Offset  int
}

// SearchResult is a single matching box.
// Snippet marks the matched terms with [ ] when Text was given.
type SearchResult struct {
	Doc     string
	PageID  string
	Region  model.RegionID
	BoxID   string
	Type    model.BoxType
	Name    string
	Snippet string
}

// Search runs q against the index. Results are ordered by document, then
// header, main and footer, then page and box id in natural order.
func (ix *Index) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT b.doc, b.page_id, b.region, b.box_id, b.type, b.name, snippet(fts_boxes, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_boxes JOIN boxes b ON fts_boxes.rowid = b.row_id\n")
		sb.WriteString("WHERE fts_boxes MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT b.doc, b.page_id, b.region, b.box_id, b.type, b.name, ''\n")
		sb.WriteString("FROM boxes b\nWHERE 1=1\n")
	}
	if q.Doc != "" {
		sb.WriteString(" AND b.doc = ?\n")
		args = append(args, docKey(q.Doc))
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND b.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}
	if len(q.Regions) > 0 {
		sb.WriteString(" AND b.region IN (" + placeholders(len(q.Regions)) + ")\n")
		for _, r := range q.Regions {
			args = append(args, string(r))
		}
	}
	if q.PageID != "" {
		sb.WriteString(" AND b.page_id = ?\n")
		args = append(args, q.PageID)
	}
	rows, err := ix.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var region, typ string
		var sn sql.NullString
		if err := rows.Scan(&r.Doc, &r.PageID, &region, &r.BoxID, &typ, &r.Name, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Region, r.Type, r.Snippet = model.RegionID(region), model.BoxType(typ), sn.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortResults(out)
	return page(out, q.Offset, q.Limit), nil
}

var regionOrder = map[model.RegionID]int{model.RegionHeader: 0, model.RegionMain: 1, model.RegionFooter: 2}

// SortResults orders results for display.
func SortResults(rs []SearchResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Doc != b.Doc {
			return natural.Less(a.Doc, b.Doc)
		}
		if regionOrder[a.Region] != regionOrder[b.Region] {
			return regionOrder[a.Region] < regionOrder[b.Region]
		}
		if a.PageID != b.PageID {
			return natural.Less(a.PageID, b.PageID)
		}
		return natural.Less(a.BoxID, b.BoxID)
	})
}

func page(rs []SearchResult, offset, limit int) []SearchResult {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rs) {
		return []SearchResult{}
	}
	return rs[offset:min(len(rs), offset+limit)]
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
