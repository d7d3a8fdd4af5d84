/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	applog "quickbox/internal/log"
	"quickbox/internal/model"
)

const (
	// SidecarDirName holds backups, autosaves and the index next to documents.
	SidecarDirName = ".quickbox"
	BackupsDirName = "backups"
	// DefaultFileName is used when a document is saved without a name.
	DefaultFileName = "quickbox-mockup.json"

	backupStamp = "20060102-150405.000"
)

// Handle tracks a document file loaded from or saved to disk.
type Handle struct {
	Path     string
	Doc      model.Document
	Counters model.Counters
	Themes   json.RawMessage
	Format   Format
	// Recovered is set when Open fell back to a backup.
	Recovered bool
}

// SidecarDir returns the sidecar directory for a document path.
func SidecarDir(docPath string) string {
	return filepath.Join(filepath.Dir(docPath), SidecarDirName)
}

// BackupDir returns the directory holding timestamped backups for docPath.
func BackupDir(docPath string) string {
	return filepath.Join(SidecarDir(docPath), BackupsDirName)
}

// Create writes a new document at path. It fails if the file exists.
func Create(path string, d model.Document) (*Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent dir: %w", err)
	}
	h := &Handle{Path: path, Doc: d, Counters: model.RecomputeCounters(&d), Format: FormatCurrent}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads a document. If the file cannot be read or decoded it falls back
// to the most recent backup and marks the handle as recovered.
func Open(path string) (*Handle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	h, err := readHandle(path)
	if err == nil {
		return h, nil
	}
	bh, berr := openFromLatestBackup(path)
	if berr != nil {
		return nil, fmt.Errorf("open %s: %w; backup attempt: %v", path, err, berr)
	}
	l.Warn("document unreadable, opened latest backup", slog.Any("err", err), slog.String("backup", bh.Path))
	bh.Path = path
	bh.Recovered = true
	return bh, nil
}

// ReadFile decodes a document without any backup fallback.
func ReadFile(path string) (*Handle, error) { return readHandle(path) }

func readHandle(path string) (*Handle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return &Handle{Path: path, Doc: dec.Doc, Counters: dec.Counters, Themes: dec.Themes, Format: dec.Format}, nil
}

// Save writes the handle's document with transactional semantics. The previous
// file, if any, is copied to a timestamped backup first.
func Save(h *Handle) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if h.Path == "" {
		return errors.New("invalid Handle: missing path")
	}
	data, err := Encode(h.Doc, h.Themes)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(h.Path); statErr == nil {
		bdir := BackupDir(h.Path)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(h.Path), time.Now().Format(backupStamp))
		if cerr := copyFile(h.Path, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}
	if err := writeAtomic(h.Path, data); err != nil {
		return err
	}
	h.Format = FormatCurrent
	return nil
}

// SaveAs writes the document to a new path and updates the handle.
func SaveAs(h *Handle, path string) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	h.Path = path
	h.Recovered = false
	return Save(h)
}

// writeAtomic writes to a temp file in the target directory and renames it
// over the destination.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", werr)
	}
	// Windows cannot rename over an existing file.
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), rerr)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// Backups lists the backup files of docPath, oldest first.
func Backups(docPath string) ([]string, error) {
	bdir := BackupDir(docPath)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(docPath) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// PruneBackups keeps the newest keep backups of docPath and removes the rest.
func PruneBackups(docPath string, keep int) (int, error) {
	all, err := Backups(docPath)
	if err != nil || keep <= 0 || len(all) <= keep {
		return 0, err
	}
	n := 0
	for _, p := range all[:len(all)-keep] {
		if err := os.Remove(p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// openFromLatestBackup walks backups newest first and returns the first one
// that decodes.
func openFromLatestBackup(docPath string) (*Handle, error) {
	all, err := Backups(docPath)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.New("no backups found")
	}
	var last error
	for i := len(all) - 1; i >= 0; i-- {
		h, err := readHandle(all[i])
		if err == nil {
			return h, nil
		}
		last = err
	}
	return nil, fmt.Errorf("no readable backup: %w", last)
}
