/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func lastJSONLine(t *testing.T, out string) map[string]any {
	t.Helper()
	var last string
	for _, line := range strings.Split(out, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

func TestJSONLoggingCarriesStaticAndContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Writer: &buf})

	ctx := WithSession(WithDocument(context.Background(), "/tmp/site.qbx"), "s-1")
	l := WithOperation(WithComponent("testcomp"), "op1")
	l.InfoContext(ctx, "hello world", slog.String("k", "v"))

	m := lastJSONLine(t, buf.String())
	if m["app"] != "quickbox" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" || m["op"] != "op1" {
		t.Fatalf("component/op mismatch: %v", m)
	}
	if m["doc"] != "/tmp/site.qbx" || m["session"] != "s-1" {
		t.Fatalf("context attrs missing: %v", m)
	}
	if m["msg"] != "hello world" || m["k"] != "v" {
		t.Fatalf("msg mismatch: %v", m)
	}
}

func TestFileSink(t *testing.T) {
	var buf bytes.Buffer
	path := t.TempDir() + "/qb.log"
	Init(Options{Level: "info", Format: "console", File: path, Writer: &buf})
	WithComponent("storage").Warn("disk slow")
	if !strings.Contains(buf.String(), "WRN [storage] disk slow") {
		t.Fatalf("console line malformed: %q", buf.String())
	}
}
