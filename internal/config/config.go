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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted as YAML in the user
// scope. Environment variables are read-only overrides applied after the file.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Editor        EditorConfig   `yaml:"editor"`
	Autosave      AutosaveConfig `yaml:"autosave"`
	Watch         WatchConfig    `yaml:"watch"`
	Logging       LoggingConfig  `yaml:"logging"`
}

type EditorConfig struct {
	HistoryDepth        int     `yaml:"history_depth"`
	CoalesceMs          int     `yaml:"coalesce_ms"`
	MinBoxSize          float64 `yaml:"min_box_size"`
	MinRegionHeight     float64 `yaml:"min_region_height"`
	DefaultRegionHeight float64 `yaml:"default_region_height"`
	DefaultCanvas       string  `yaml:"default_canvas"` // desktop | tablet | mobile
}

// CoalesceWindow returns the debounce window for continuous operations.
func (e EditorConfig) CoalesceWindow() time.Duration {
	return time.Duration(e.CoalesceMs) * time.Millisecond
}

type AutosaveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 1m"
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

func (w WatchConfig) Debounce() time.Duration { return time.Duration(w.DebounceMs) * time.Millisecond }

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			HistoryDepth:        50,
			CoalesceMs:          300,
			MinBoxSize:          30,
			MinRegionHeight:     40,
			DefaultRegionHeight: 80,
			DefaultCanvas:       "desktop",
		},
		Autosave: AutosaveConfig{Enabled: false, Schedule: "@every 1m"},
		Watch:    WatchConfig{DebounceMs: 500},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "QB_CONFIG"
	EnvHistoryDepth     = "QB_HISTORY_DEPTH"
	EnvCoalesceMs       = "QB_COALESCE_MS"
	EnvMinBoxSize       = "QB_MIN_BOX_SIZE"
	EnvDefaultCanvas    = "QB_DEFAULT_CANVAS"
	EnvAutosave         = "QB_AUTOSAVE"
	EnvAutosaveSchedule = "QB_AUTOSAVE_SCHEDULE"
	EnvWatchDebounceMs  = "QB_WATCH_DEBOUNCE_MS"
	EnvLogLevel         = "QB_LOG_LEVEL"
	EnvLogFormat        = "QB_LOG_FORMAT"
	EnvLogSource        = "QB_LOG_SOURCE"
	EnvLogFile          = "QB_LOG_FILE"
)

// ConfigPath returns the per-user config file path. QB_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "QuickBox")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "QuickBox")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "quickbox")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "quickbox")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file if present, layers it over the defaults and
// applies environment overrides. A missing file is not an error.
func Load() (AppConfig, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadFile is Load without environment overrides. Use it before Save so
// overrides are not written back.
func LoadFile() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, err
	}
	normalize(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// normalize replaces out-of-range values with defaults.
func normalize(cfg *AppConfig) {
	def := Defaults()
	if cfg.Editor.HistoryDepth <= 0 {
		cfg.Editor.HistoryDepth = def.Editor.HistoryDepth
	}
	if cfg.Editor.CoalesceMs <= 0 {
		cfg.Editor.CoalesceMs = def.Editor.CoalesceMs
	}
	if cfg.Editor.MinBoxSize <= 0 {
		cfg.Editor.MinBoxSize = def.Editor.MinBoxSize
	}
	if cfg.Editor.MinRegionHeight <= 0 {
		cfg.Editor.MinRegionHeight = def.Editor.MinRegionHeight
	}
	if cfg.Editor.DefaultRegionHeight < cfg.Editor.MinRegionHeight {
		cfg.Editor.DefaultRegionHeight = max(def.Editor.DefaultRegionHeight, cfg.Editor.MinRegionHeight)
	}
	switch cfg.Editor.DefaultCanvas {
	case "desktop", "tablet", "mobile":
	default:
		cfg.Editor.DefaultCanvas = def.Editor.DefaultCanvas
	}
	if strings.TrimSpace(cfg.Autosave.Schedule) == "" {
		cfg.Autosave.Schedule = def.Autosave.Schedule
	}
	if cfg.Watch.DebounceMs <= 0 {
		cfg.Watch.DebounceMs = def.Watch.DebounceMs
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k.env)); v != "" && k.env != "" {
			// Invalid env values are ignored; the file or default value stays.
			_ = k.set(cfg, v)
		}
	}
}

// key binds a dotted config key to its field and env override.
type key struct {
	name string
	env  string
	get  func(*AppConfig) string
	set  func(*AppConfig, string) error
}

func intKey(name, env string, f func(*AppConfig) *int) key {
	return key{name: name, env: env,
		get: func(c *AppConfig) string { return strconv.Itoa(*f(c)) },
		set: func(c *AppConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("%s: want a positive integer, got %q", name, v)
			}
			*f(c) = n
			return nil
		}}
}

func floatKey(name, env string, f func(*AppConfig) *float64) key {
	return key{name: name, env: env,
		get: func(c *AppConfig) string { return strconv.FormatFloat(*f(c), 'f', -1, 64) },
		set: func(c *AppConfig, v string) error {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil || n <= 0 {
				return fmt.Errorf("%s: want a positive number, got %q", name, v)
			}
			*f(c) = n
			return nil
		}}
}

func boolKey(name, env string, f func(*AppConfig) *bool) key {
	return key{name: name, env: env,
		get: func(c *AppConfig) string { return strconv.FormatBool(*f(c)) },
		set: func(c *AppConfig, v string) error { *f(c) = truthy(v); return nil }}
}

func stringKey(name, env string, f func(*AppConfig) *string) key {
	return key{name: name, env: env,
		get: func(c *AppConfig) string { return *f(c) },
		set: func(c *AppConfig, v string) error { *f(c) = strings.TrimSpace(v); return nil }}
}

var keys = []key{
	intKey("editor.history_depth", EnvHistoryDepth, func(c *AppConfig) *int { return &c.Editor.HistoryDepth }),
	intKey("editor.coalesce_ms", EnvCoalesceMs, func(c *AppConfig) *int { return &c.Editor.CoalesceMs }),
	floatKey("editor.min_box_size", EnvMinBoxSize, func(c *AppConfig) *float64 { return &c.Editor.MinBoxSize }),
	floatKey("editor.min_region_height", "", func(c *AppConfig) *float64 { return &c.Editor.MinRegionHeight }),
	floatKey("editor.default_region_height", "", func(c *AppConfig) *float64 { return &c.Editor.DefaultRegionHeight }),
	stringKey("editor.default_canvas", EnvDefaultCanvas, func(c *AppConfig) *string { return &c.Editor.DefaultCanvas }),
	boolKey("autosave.enabled", EnvAutosave, func(c *AppConfig) *bool { return &c.Autosave.Enabled }),
	stringKey("autosave.schedule", EnvAutosaveSchedule, func(c *AppConfig) *string { return &c.Autosave.Schedule }),
	intKey("watch.debounce_ms", EnvWatchDebounceMs, func(c *AppConfig) *int { return &c.Watch.DebounceMs }),
	stringKey("logging.level", EnvLogLevel, func(c *AppConfig) *string { return &c.Logging.Level }),
	stringKey("logging.format", EnvLogFormat, func(c *AppConfig) *string { return &c.Logging.Format }),
	boolKey("logging.source", EnvLogSource, func(c *AppConfig) *bool { return &c.Logging.Source }),
	stringKey("logging.file", EnvLogFile, func(c *AppConfig) *string { return &c.Logging.File }),
}

func lookup(name string) (key, bool) {
	for _, k := range keys {
		if k.name == name {
			return k, true
		}
	}
	return key{}, false
}

// Keys lists every dotted key, sorted.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.name)
	}
	sort.Strings(out)
	return out
}

// Get returns the value of a dotted key such as "editor.history_depth".
func Get(cfg AppConfig, name string) (string, error) {
	k, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown config key %q", name)
	}
	return k.get(&cfg), nil
}

// Set parses value into the field named by a dotted key.
func Set(cfg *AppConfig, name, value string) error {
	k, ok := lookup(name)
	if !ok {
		return fmt.Errorf("unknown config key %q", name)
	}
	return k.set(cfg, value)
}

// EnvOverrideFor returns the env var name if the key is overridden by the environment.
func EnvOverrideFor(name string) (string, bool) {
	k, ok := lookup(name)
	if !ok || k.env == "" || os.Getenv(k.env) == "" {
		return "", false
	}
	return k.env, true
}
