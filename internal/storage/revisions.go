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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quickbox/internal/model"
)

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(doc, ts, label, pages, boxes, blob) VALUES (?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT id, doc, ts, label, pages, boxes FROM revisions WHERE doc = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const selectRevisionSQL = `SELECT id, doc, ts, label, pages, boxes, blob FROM revisions WHERE id = ?`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE doc = ? AND id NOT IN (
	SELECT id FROM revisions WHERE doc = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// tsLayout is fixed width so the ts column sorts as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRevisionNotFound is returned for an unknown revision id.
var ErrRevisionNotFound = errors.New("revision not found")

// Revision describes one saved state of a document.
type Revision struct {
	ID    int64
	Doc   string
	TS    time.Time
	Label string
	Pages int
	Boxes int
}

func countBoxes(d *model.Document) int {
	n := 0
	d.EachBox(func(model.RegionID, string, *model.Box) { n++ })
	return n
}

// Record stores d as a new revision of docPath and refreshes the search rows,
// both in one transaction.
func (ix *Index) Record(ctx context.Context, docPath string, d model.Document, themes json.RawMessage, label string, ts time.Time) (Revision, error) {
	blob, err := Encode(d, themes)
	if err != nil {
		return Revision{}, err
	}
	rev := Revision{Doc: docKey(docPath), TS: ts.UTC(), Label: label, Pages: len(d.Pages), Boxes: countBoxes(&d)}
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, fmt.Errorf("begin tx: %w", err)
	}
	res, err := tx.ExecContext(ctx, insertRevisionSQL, rev.Doc, rev.TS.Format(tsLayout), label, rev.Pages, rev.Boxes, blob)
	if err != nil {
		_ = tx.Rollback()
		return Revision{}, fmt.Errorf("insert revision: %w", err)
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		_ = tx.Rollback()
		return Revision{}, err
	}
	if err := replaceBoxes(ctx, tx, rev.Doc, &d); err != nil {
		_ = tx.Rollback()
		return Revision{}, err
	}
	if err := tx.Commit(); err != nil {
		return Revision{}, fmt.Errorf("commit: %w", err)
	}
	ix.log.Debug("revision recorded", slog.String("doc", rev.Doc), slog.Int64("id", rev.ID), slog.String("label", label))
	return rev, nil
}

// Revisions returns up to limit most recent revisions of docPath.
func (ix *Index) Revisions(ctx context.Context, docPath string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := ix.db.QueryContext(ctx, listRevisionsSQL, docKey(docPath), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var r Revision
		var tsStr string
		if err := rows.Scan(&r.ID, &r.Doc, &tsStr, &r.Label, &r.Pages, &r.Boxes); err != nil {
			return nil, err
		}
		r.TS, _ = time.Parse(tsLayout, tsStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Revision loads and decodes the revision with the given id.
func (ix *Index) Revision(ctx context.Context, id int64) (Revision, Decoded, error) {
	var r Revision
	var tsStr string
	var blob []byte
	err := ix.db.QueryRowContext(ctx, selectRevisionSQL, id).Scan(&r.ID, &r.Doc, &tsStr, &r.Label, &r.Pages, &r.Boxes, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, Decoded{}, fmt.Errorf("%w: %d", ErrRevisionNotFound, id)
	}
	if err != nil {
		return Revision{}, Decoded{}, err
	}
	r.TS, _ = time.Parse(tsLayout, tsStr)
	dec, err := Decode(blob)
	if err != nil {
		return r, Decoded{}, err
	}
	return r, dec, nil
}

// PruneRevisions keeps at most keepLast revisions of docPath.
func (ix *Index) PruneRevisions(ctx context.Context, docPath string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	doc := docKey(docPath)
	res, err := ix.db.ExecContext(ctx, pruneRevisionsSQL, doc, doc, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
