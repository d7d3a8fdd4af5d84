/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quickbox/internal/model"
)

func sampleDocument() model.Document {
	d := model.NewDocument()
	d.Header.Boxes = append(d.Header.Boxes, model.Box{ID: "box-1", Name: "Logo", Type: model.TypeImage, Width: 120, Height: 40, ZIndex: 1})
	d.Pages[0].Boxes = append(d.Pages[0].Boxes,
		model.Box{ID: "box-2", Name: "Intro", Type: model.TypeText, Content: "Welcome to the pricing page", Width: 200, Height: 150, ZIndex: 2},
		model.Box{ID: "box-3", Name: "Nav", Type: model.TypeMenu, Width: 400, Height: 50, ZIndex: 3,
			MenuItems: []model.MenuItem{{ID: "m1", Text: "Pricing", Children: []model.MenuItem{{ID: "m2", Text: "Enterprise"}}}}},
	)
	p2 := model.NewPage(2)
	p2.Boxes = []model.Box{{ID: "box-4", Name: "FAQ", Type: model.TypeAccordion, Width: 300, Height: 200, ZIndex: 4,
		AccordionItems: []model.AccordionItem{{ID: "a1", Title: "Refunds", Body: "Within thirty days"}}}}
	d.Pages = append(d.Pages, p2)
	return d
}

func TestCreateRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.json")
	if _, err := Create(path, model.NewDocument()); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := Create(path, model.NewDocument()); !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.json")
	h, err := Create(path, model.NewDocument())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if b, _ := Backups(path); len(b) != 0 {
		t.Fatalf("first save must not back up, got %v", b)
	}
	h.Doc = sampleDocument()
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	backups, err := Backups(path)
	if err != nil {
		t.Fatalf("Backups error: %v", err)
	}
	if len(backups) != 1 || !strings.HasPrefix(filepath.Base(backups[0]), "mock.json.") {
		t.Fatalf("expected one backup, got %v", backups)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got.Recovered || len(got.Doc.Pages) != 2 {
		t.Fatalf("unexpected reopened handle: %+v", got)
	}
	if got.Counters.Box != 4 || got.Counters.Page != 2 {
		t.Fatalf("counters not recomputed: %+v", got.Counters)
	}
}

func TestOpenFallsBackToLatestReadableBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.json")
	h, err := Create(path, sampleDocument())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	// second save backs up the sample document
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(path, []byte("{ not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if !got.Recovered || got.Path != path {
		t.Fatalf("expected recovered handle for %s, got %+v", path, got)
	}
	if len(got.Doc.Pages) != 2 {
		t.Fatalf("backup content not loaded")
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("ReadFile must not fall back, got %v", err)
	}
}

func TestOpenWithoutBackupFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for missing document")
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	root := t.TempDir()
	h, err := Create(filepath.Join(root, "a.json"), sampleDocument())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	dst := filepath.Join(root, "nested", "b.json")
	if err := SaveAs(h, dst); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if h.Path != dst {
		t.Fatalf("handle path not updated: %s", h.Path)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("new file missing: %v", err)
	}
}

func TestPruneBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.json")
	bdir := BackupDir(path)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, stamp := range []string{"20250101-000000.000", "20250102-000000.000", "20250103-000000.000"} {
		if err := os.WriteFile(filepath.Join(bdir, "mock.json."+stamp+".bak"), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	n, err := PruneBackups(path, 1)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 removed, got %d (%v)", n, err)
	}
	left, _ := Backups(path)
	if len(left) != 1 || !strings.Contains(left[0], "20250103") {
		t.Fatalf("newest backup not kept: %v", left)
	}
}

func TestAutosaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mock.json")
	if _, ok, err := ReadAutosave(path); ok || err != nil {
		t.Fatalf("expected no autosave, got ok=%v err=%v", ok, err)
	}
	p, err := WriteAutosave(path, sampleDocument(), nil)
	if err != nil {
		t.Fatalf("WriteAutosave error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("autosave must not write the document itself")
	}
	h, ok, err := ReadAutosave(path)
	if err != nil || !ok {
		t.Fatalf("ReadAutosave: ok=%v err=%v", ok, err)
	}
	if h.Path != path || len(h.Doc.Pages) != 2 {
		t.Fatalf("unexpected autosave handle %+v", h)
	}
	if err := ClearAutosave(path); err != nil {
		t.Fatalf("ClearAutosave: %v", err)
	}
	if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("autosave file survived clear")
	}
	if err := ClearAutosave(path); err != nil {
		t.Fatalf("second clear must be a no-op: %v", err)
	}
}

func TestWriteAtomicReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mock.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := writeAtomic(path, []byte("new")); err != nil {
		t.Fatalf("writeAtomic error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "new" {
		t.Fatalf("expected replaced content, got %q (%v)", got, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}
