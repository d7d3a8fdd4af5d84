/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"quickbox/internal/model"
	"quickbox/internal/storage"
)

func runCLI(t *testing.T, args ...string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// isolate points the config at a temp file and returns a temp work dir.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("QB_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("QB_LOG_FILE", "")
	t.Setenv("QB_OUTPUT", "")
	return t.TempDir()
}

func decodeJSON[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

// seedDocument writes a two page document with a few boxes.
func seedDocument(t *testing.T, path string) {
	t.Helper()
	d := model.NewDocument()
	d.Header.Boxes = []model.Box{{ID: "box-1", Name: "Logo", Type: model.TypeImage, Width: 80, Height: 40, ZIndex: 1}}
	d.Pages[0].Boxes = []model.Box{
		{ID: "box-10", Name: "Hero", Type: model.TypeText, X: 20, Y: 20, Width: 300, Height: 100, ZIndex: 2, Content: "Welcome to the shop"},
		{ID: "box-2", Name: "Nav", Type: model.TypeButton, X: 20, Y: 200, Width: 120, Height: 40, ZIndex: 3, Content: "Buy",
			LinkTo: &model.LinkTarget{Type: model.LinkPage, Target: "page-2"}},
	}
	p2 := model.NewPage(2)
	p2.Name = "Checkout"
	p2.Boxes = []model.Box{{ID: "box-3", Name: "Cart", Type: model.TypeText, Width: 200, Height: 80, ZIndex: 4, Content: "Your shop cart"}}
	d.Pages = append(d.Pages, p2)
	if _, err := storage.Create(path, d); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestNewThenInfo(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "mock.json")

	out, errOut, err := runCLI(t, "new", path, "--canvas", "tablet")
	if err != nil {
		t.Fatalf("new: %v\n%s", err, errOut)
	}
	if !strings.Contains(string(out), "created") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, _, err := runCLI(t, "new", path); err == nil {
		t.Fatalf("expected new to refuse an existing file")
	}

	out, errOut, err = runCLI(t, "--json", "info", path)
	if err != nil {
		t.Fatalf("info: %v\n%s", err, errOut)
	}
	info := decodeJSON[docInfo](t, out)
	if len(info.Pages) != 1 || info.Pages[0].Canvas != "tablet" || !info.Pages[0].Current {
		t.Fatalf("unexpected pages %+v", info.Pages)
	}
	if info.Format != storage.FormatCurrent || info.Counters.Page != 1 {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestInfoListsBoxesNaturally(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "shop.json")
	seedDocument(t, path)

	out, _, err := runCLI(t, "--json", "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	info := decodeJSON[docInfo](t, out)
	if got := strings.Join(info.Pages[0].Boxes, ","); got != "box-2,box-10" {
		t.Fatalf("expected natural order, got %s", got)
	}
	if info.Counters.Box != 10 || info.Pages[1].Name != "Checkout" {
		t.Fatalf("unexpected info %+v", info)
	}

	out, _, err = runCLI(t, "info", path)
	if err != nil {
		t.Fatalf("info text: %v", err)
	}
	if !strings.Contains(string(out), "Next ids: box-11 page-3") {
		t.Fatalf("unexpected text output:\n%s", out)
	}
}

func TestValidate(t *testing.T) {
	dir := isolate(t)
	good := filepath.Join(dir, "good.json")
	seedDocument(t, good)
	if _, errOut, err := runCLI(t, "validate", good, "--strict"); err != nil {
		t.Fatalf("validate good: %v\n%s", err, errOut)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"pages": [{"boxes": []}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, "--json", "validate", bad)
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	res := decodeJSON[validateResult](t, out)
	if res.Valid || len(res.Problems) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	dangling := filepath.Join(dir, "dangling.json")
	d := model.NewDocument()
	d.Pages[0].Boxes = []model.Box{{ID: "box-1", Type: model.TypeMenu, ZIndex: 1,
		LinkTo:    &model.LinkTarget{Type: model.LinkAnchor, Target: "box-9"},
		MenuItems: []model.MenuItem{{ID: "m1", Text: "Gone", LinkTo: &model.LinkTarget{Type: model.LinkPage, Target: "page-4"}}}}}
	if _, err := storage.Create(dangling, d); err != nil {
		t.Fatal(err)
	}
	out, _, err = runCLI(t, "--json", "validate", dangling)
	if err != nil {
		t.Fatalf("dangling links are warnings without --strict: %v", err)
	}
	if res := decodeJSON[validateResult](t, out); !res.Valid || len(res.Warnings) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, _, err := runCLI(t, "validate", dangling, "--strict"); err == nil {
		t.Fatalf("expected --strict to fail on warnings")
	}
}

func TestMigrateLegacyDocument(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "old.json")
	legacy := `{"canvasSize": "mobile", "boxes": [{"id": "box-3", "type": "text", "x": 5, "y": 5, "width": 50, "height": 50, "zIndex": 2, "fontSize": 18}]}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := runCLI(t, "--json", "migrate", path)
	if err != nil {
		t.Fatalf("migrate: %v\n%s", err, errOut)
	}
	res := decodeJSON[migrateResult](t, out)
	if !res.Written || res.From != storage.FormatSinglePage {
		t.Fatalf("unexpected result %+v", res)
	}
	h, err := storage.ReadFile(path)
	if err != nil {
		t.Fatalf("read migrated: %v", err)
	}
	if h.Format != storage.FormatCurrent || h.Doc.Pages[0].CanvasSize != model.CanvasMobile || h.Doc.Pages[0].Boxes[0].FontSize != "18" {
		t.Fatalf("unexpected migrated document %+v", h.Doc)
	}
	if bs, _ := storage.Backups(path); len(bs) != 1 {
		t.Fatalf("expected the legacy file in backups, got %v", bs)
	}

	out, _, err = runCLI(t, "--json", "migrate", path)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if res := decodeJSON[migrateResult](t, out); res.Written {
		t.Fatalf("current document must not be rewritten")
	}
}

func TestExportCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "Shop Mockup.json")
	seedDocument(t, path)

	out, errOut, err := runCLI(t, "--json", "export", path)
	if err != nil {
		t.Fatalf("export pdf: %v\n%s", err, errOut)
	}
	res := decodeJSON[exportResult](t, out)
	want := filepath.Join(dir, "exports", "shop-mockup.pdf")
	if len(res.Files) != 1 || res.Files[0] != want || res.Links != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("pdf missing: %v", err)
	}

	svgDir := filepath.Join(dir, "svg")
	out, _, err = runCLI(t, "--json", "export", path, "-f", "svg", "-o", svgDir, "--pages", "page-2")
	if err != nil {
		t.Fatalf("export svg: %v", err)
	}
	res = decodeJSON[exportResult](t, out)
	if len(res.Files) != 1 || filepath.Base(res.Files[0]) != "01-checkout.svg" {
		t.Fatalf("unexpected svg files %v", res.Files)
	}

	out, _, err = runCLI(t, "--json", "export", path, "--preset", "web", "-o", filepath.Join(dir, "batch"))
	if err != nil {
		t.Fatalf("export preset: %v", err)
	}
	if res := decodeJSON[exportResult](t, out); len(res.Files) != 4 {
		t.Fatalf("expected 2 png + 2 svg, got %v", res.Files)
	}

	if _, _, err := runCLI(t, "export", path, "-f", "gif"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestSearchCommand(t *testing.T) {
	dir := isolate(t)
	seedDocument(t, filepath.Join(dir, "shop.json"))
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"nope": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := runCLI(t, "--json", "search", dir, "shop")
	if err != nil {
		t.Fatalf("search: %v\n%s", err, errOut)
	}
	res := decodeJSON[searchResult](t, out)
	if res.Indexed != 1 || len(res.Skipped) != 1 || res.Skipped[0] != "broken.json" {
		t.Fatalf("unexpected indexing %+v", res)
	}
	if len(res.Hits) != 2 || res.Hits[0].BoxID != "box-10" || res.Hits[1].BoxID != "box-3" {
		t.Fatalf("unexpected hits %+v", res.Hits)
	}

	out, _, err = runCLI(t, "--json", "search", filepath.Join(dir, "shop.json"), "--region", "header")
	if err != nil {
		t.Fatalf("search header: %v", err)
	}
	res = decodeJSON[searchResult](t, out)
	if len(res.Hits) != 1 || res.Hits[0].Name != "Logo" || res.Hits[0].Doc != "shop.json" {
		t.Fatalf("unexpected header hits %+v", res.Hits)
	}

	if _, _, err := runCLI(t, "search", dir, "--type", "video"); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestRevisionsCheckpointAndRestore(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "shop.json")
	seedDocument(t, path)

	out, errOut, err := runCLI(t, "--json", "revisions", "checkpoint", path, "-l", "first")
	if err != nil {
		t.Fatalf("checkpoint: %v\n%s", err, errOut)
	}
	first := decodeJSON[revisionList](t, out)[0]
	if first.Label != "first" || first.Boxes != 4 || first.Pages != 2 {
		t.Fatalf("unexpected revision %+v", first)
	}

	h, err := storage.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	h.Doc.Pages = h.Doc.Pages[:1]
	if err := storage.Save(h); err != nil {
		t.Fatal(err)
	}

	out, _, err = runCLI(t, "--json", "revisions", "list", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if revs := decodeJSON[revisionList](t, out); len(revs) != 1 || revs[0].ID != first.ID {
		t.Fatalf("unexpected revisions %+v", revs)
	}

	if _, errOut, err := runCLI(t, "revisions", "restore", path, strconv.FormatInt(first.ID, 10)); err != nil {
		t.Fatalf("restore: %v\n%s", err, errOut)
	}
	h, err = storage.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Doc.Pages) != 2 {
		t.Fatalf("restore did not bring back page 2: %d pages", len(h.Doc.Pages))
	}
	out, _, err = runCLI(t, "--json", "revisions", "list", path)
	if err != nil {
		t.Fatalf("list after restore: %v", err)
	}
	revs := decodeJSON[revisionList](t, out)
	if len(revs) != 2 || revs[0].Label != "restore "+strconv.FormatInt(first.ID, 10) {
		t.Fatalf("restore must be recorded as a revision: %+v", revs)
	}

	if _, _, err := runCLI(t, "revisions", "restore", path, "999"); err == nil {
		t.Fatalf("expected unknown revision error")
	}
}

func TestConfigCommands(t *testing.T) {
	isolate(t)

	if _, errOut, err := runCLI(t, "config", "set", "editor.history_depth", "12"); err != nil {
		t.Fatalf("config set: %v\n%s", err, errOut)
	}
	out, _, err := runCLI(t, "config", "get", "editor.history_depth")
	if err != nil || strings.TrimSpace(string(out)) != "12" {
		t.Fatalf("config get: %q %v", out, err)
	}
	if _, _, err := runCLI(t, "config", "set", "editor.nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}

	t.Setenv("QB_WATCH_DEBOUNCE_MS", "900")
	out, _, err = runCLI(t, "--json", "config", "list")
	if err != nil {
		t.Fatalf("config list: %v", err)
	}
	entries := decodeJSON[configList](t, out)
	found := false
	for _, e := range entries {
		if e.Key == "watch.debounce_ms" {
			found = e.Value == "900" && e.Env == "QB_WATCH_DEBOUNCE_MS"
		}
	}
	if !found || len(entries) != 13 {
		t.Fatalf("unexpected entries %+v", entries)
	}

	out, _, err = runCLI(t, "config", "path")
	if err != nil || strings.TrimSpace(string(out)) != os.Getenv("QB_CONFIG") {
		t.Fatalf("config path: %q %v", out, err)
	}
}

func TestWatchStopsAfterDuration(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "shop.json")
	seedDocument(t, path)
	if _, errOut, err := runCLI(t, "watch", path, "--for", "50ms"); err != nil {
		t.Fatalf("watch: %v\n%s", err, errOut)
	}
	if _, _, err := runCLI(t, "watch", filepath.Join(dir, "missing.json"), "--for", "50ms"); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "--json", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v := decodeJSON[map[string]string](t, out); v["version"] == "" {
		t.Fatalf("empty version in %s", out)
	}
}
