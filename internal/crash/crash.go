/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a crash report and an
// autosave of the open document.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "quickbox/internal/log"
	"quickbox/internal/storage"
	"quickbox/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// snapshotTimeout bounds the autosave attempt; a wedged event loop must not
// keep the process alive.
var snapshotTimeout = 2 * time.Second

// Document is the open document as seen by the crash handler.
// *session.Session implements it.
type Document interface {
	Path(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (string, error)
}

// Recover captures a panic, logs it with its stacktrace, writes a report file
// and attempts an autosave of doc (if provided).
//
// Usage: defer crash.Recover(doc)
func Recover(doc Document) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		docPath := ""
		if doc != nil {
			ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
			docPath, _ = doc.Path(ctx)
			if path, err := doc.Snapshot(ctx); err != nil {
				l.Error("crash autosave failed", slog.Any("err", err))
			} else {
				l.Info("crash autosave written", slog.String("path", path))
			}
			cancel()
		}
		reportPath, err := writeReport(docPath, r, stack)
		if err != nil {
			l.Error("failed to write crash report", slog.Any("err", err))
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

// writeReport stores the report in the document's sidecar directory, or in
// the temp dir when no document path is known.
func writeReport(docPath string, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if docPath != "" {
		dir = storage.SidecarDir(docPath)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "QuickBox Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if docPath != "" {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", docPath)
		_, _ = fmt.Fprintf(&buf, "Autosave: %s\n", storage.AutosavePath(docPath))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
