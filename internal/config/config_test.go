/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	useTempConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryDepth != 50 || cfg.Editor.CoalesceWindow() != 300*time.Millisecond {
		t.Fatalf("unexpected editor defaults: %#v", cfg.Editor)
	}
	if cfg.Autosave.Schedule != "@every 1m" || cfg.Watch.Debounce() != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestPartialFileKeepsOtherDefaults(t *testing.T) {
	p := useTempConfig(t)
	if err := os.WriteFile(p, []byte("editor:\n  history_depth: 12\nautosave:\n  enabled: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryDepth != 12 || !cfg.Autosave.Enabled {
		t.Fatalf("file values not applied: %#v", cfg)
	}
	if cfg.Editor.MinBoxSize != 30 || cfg.Autosave.Schedule != "@every 1m" {
		t.Fatalf("defaults lost: %#v", cfg)
	}
}

func TestMalformedFileIsReported(t *testing.T) {
	p := useTempConfig(t)
	if err := os.WriteFile(p, []byte("editor: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	useTempConfig(t)
	t.Setenv(EnvHistoryDepth, "7")
	t.Setenv(EnvAutosave, "yes")
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvCoalesceMs, "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryDepth != 7 || !cfg.Autosave.Enabled || cfg.Logging.Level != "error" || !cfg.Logging.Source {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if cfg.Editor.CoalesceMs != 300 {
		t.Fatalf("invalid env value must be ignored, got %d", cfg.Editor.CoalesceMs)
	}
	if env, ok := EnvOverrideFor("editor.history_depth"); !ok || env != EnvHistoryDepth {
		t.Fatalf("EnvOverrideFor mismatch: %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("editor.min_region_height"); ok {
		t.Fatalf("key without env binding reported as overridden")
	}
}

func TestSaveGetSetRoundTrip(t *testing.T) {
	useTempConfig(t)
	cfg := Defaults()
	if err := Set(&cfg, "watch.debounce_ms", "250"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set(&cfg, "editor.history_depth", "-1"); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := Set(&cfg, "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, _ := Get(got, "watch.debounce_ms"); v != "250" {
		t.Fatalf("expected 250, got %q", v)
	}
	if len(Keys()) != 13 {
		t.Fatalf("unexpected key count %d", len(Keys()))
	}
}

func TestLoadFileIgnoresEnv(t *testing.T) {
	useTempConfig(t)
	t.Setenv(EnvHistoryDepth, "7")
	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Editor.HistoryDepth != 50 {
		t.Fatalf("env override leaked into file config: %d", cfg.Editor.HistoryDepth)
	}
}
