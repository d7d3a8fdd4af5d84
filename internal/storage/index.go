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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "quickbox/internal/log"
	"quickbox/internal/model"
	"quickbox/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// Index is the embedded SQLite database shared by the documents of one directory.
type Index struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// IndexPath returns the index database path for documents stored in dir.
func IndexPath(dir string) string {
	return filepath.Join(dir, SidecarDirName, IndexFileName)
}

// OpenIndexFor opens the index serving docPath.
func OpenIndexFor(docPath string) (*Index, error) { return OpenIndex(filepath.Dir(docPath)) }

// OpenIndex ensures the index for dir exists, enables WAL mode, creates the
// schema and runs pending migrations.
func OpenIndex(dir string) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, SidecarDirName), 0o755); err != nil {
		l.Error("create sidecar dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", SidecarDirName, err)
	}
	path := IndexPath(dir)
	// Use a URI and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return &Index{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

// Close releases the database.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

// Path returns the database file path.
func (ix *Index) Path() string { return ix.path }

// SchemaVersion reports the schema version recorded in the database.
func (ix *Index) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := ix.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the existing schema number for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the revision and search tables if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// One row per explicit save; blob is the encoded document.
		`CREATE TABLE IF NOT EXISTS revisions (
			id     INTEGER PRIMARY KEY,
			doc    TEXT    NOT NULL,
			ts     TEXT    NOT NULL,
			label  TEXT    NOT NULL DEFAULT '',
			pages  INTEGER NOT NULL DEFAULT 0,
			boxes  INTEGER NOT NULL DEFAULT 0,
			blob   BLOB    NOT NULL
		);`,
		// One row per box of the last indexed state of each document.
		`CREATE TABLE IF NOT EXISTS boxes (
			row_id  INTEGER PRIMARY KEY,
			doc     TEXT NOT NULL,
			page_id TEXT NOT NULL DEFAULT '',
			region  TEXT NOT NULL,
			box_id  TEXT NOT NULL,
			type    TEXT NOT NULL,
			name    TEXT NOT NULL DEFAULT '',
			text    TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_doc_ts ON revisions(doc, ts);`,
		`CREATE INDEX IF NOT EXISTS idx_boxes_doc ON boxes(doc);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_boxes USING fts5(
			text,
			content='boxes',
			content_rowid='row_id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS boxes_ai AFTER INSERT ON boxes BEGIN
			INSERT INTO fts_boxes(rowid, text) VALUES (new.row_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS boxes_ad AFTER DELETE ON boxes BEGIN
			INSERT INTO fts_boxes(fts_boxes, rowid, text) VALUES ('delete', old.row_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS boxes_au AFTER UPDATE OF text ON boxes BEGIN
			INSERT INTO fts_boxes(fts_boxes, rowid, text) VALUES ('delete', old.row_id, old.text);
			INSERT INTO fts_boxes(rowid, text) VALUES (new.row_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// Revisions gained labels and a lookup index.
			has, err := hasColumn(ctx, db, "revisions", "label")
			if err != nil {
				return fmt.Errorf("migration %d: %w", next, err)
			}
			if !has {
				stmts = append(stmts, `ALTER TABLE revisions ADD COLUMN label TEXT NOT NULL DEFAULT '';`)
			}
			stmts = append(stmts, `CREATE INDEX IF NOT EXISTS idx_revisions_doc_ts ON revisions(doc, ts);`)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// docKey identifies a document inside its directory's index.
func docKey(docPath string) string { return filepath.Base(docPath) }

type boxRow struct {
	pageID string
	region model.RegionID
	box    *model.Box
}

func collectRows(d *model.Document) []boxRow {
	var rows []boxRow
	d.EachBox(func(r model.RegionID, pageID string, b *model.Box) {
		rows = append(rows, boxRow{pageID: pageID, region: r, box: b})
	})
	return rows
}

// BoxText is the searchable text of a box: its name, content and item texts.
func BoxText(b *model.Box) string {
	parts := []string{b.Name, b.Content}
	model.WalkMenu(b.MenuItems, func(it *model.MenuItem, _ int) bool {
		parts = append(parts, it.Text)
		return true
	})
	for _, a := range b.AccordionItems {
		parts = append(parts, a.Title, a.Body)
	}
	out := parts[:0]
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func replaceBoxes(ctx context.Context, tx execer, doc string, d *model.Document) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM boxes WHERE doc=?;", doc); err != nil {
		return fmt.Errorf("clear boxes: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO boxes(doc, page_id, region, box_id, type, name, text) VALUES(?,?,?,?,?,?,?);")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range collectRows(d) {
		if _, err := ins.ExecContext(ctx, doc, r.pageID, string(r.region), r.box.ID, string(r.box.Type), r.box.Name, BoxText(r.box)); err != nil {
			return fmt.Errorf("insert box: %w", err)
		}
	}
	return nil
}

// Reindex replaces the search rows of docPath with the boxes of d.
func (ix *Index) Reindex(ctx context.Context, docPath string, d model.Document) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := replaceBoxes(ctx, tx, docKey(docPath), &d); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Forget removes every row belonging to docPath.
func (ix *Index) Forget(ctx context.Context, docPath string) error {
	doc := docKey(docPath)
	for _, q := range []string{"DELETE FROM boxes WHERE doc=?;", "DELETE FROM revisions WHERE doc=?;"} {
		if _, err := ix.db.ExecContext(ctx, q, doc); err != nil {
			return err
		}
	}
	return nil
}

// DetectAndRebuildIndex checks the index in dir for corruption and rebuilds it
// from docs (keyed by document path) when needed. Saved revisions do not
// survive a rebuild; the damaged file is kept in the backups directory.
func DetectAndRebuildIndex(ctx context.Context, dir string, docs map[string]model.Document) (bool, error) {
	path := IndexPath(dir)
	ix, err := OpenIndex(dir)
	needs := err != nil
	if err == nil {
		var chk string
		if qerr := ix.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); qerr != nil || !strings.Contains(strings.ToLower(chk), "ok") {
			needs = true
		} else if _, perr := ix.db.ExecContext(ctx, `SELECT 1 FROM boxes LIMIT 1;`); perr != nil {
			needs = true
		}
		_ = ix.Close()
	}
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	ix, oerr := OpenIndex(dir)
	if oerr != nil {
		return false, fmt.Errorf("rebuild after failure: %w (open err: %v)", oerr, err)
	}
	defer ix.Close()
	for p, d := range docs {
		if err := ix.Reindex(ctx, p, d); err != nil {
			return false, err
		}
	}
	return true, nil
}

// backupIndexFile copies the index file into a timestamped backup.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), BackupsDirName)
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format(backupStamp)
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}
