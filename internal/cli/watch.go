/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"quickbox/internal/crash"
	"quickbox/internal/mcpserver"
	"quickbox/internal/session"

	"github.com/spf13/cobra"
)

type eventView struct {
	Time  time.Time         `json:"time"`
	Kind  session.EventKind `json:"kind"`
	Path  string            `json:"path"`
	Error string            `json:"error,omitempty"`
}

// eventPrinter serializes session events onto w. Events arrive on the
// session loop goroutine.
type eventPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func (p *eventPrinter) print(ev session.Event) {
	v := eventView{Time: time.Now(), Kind: ev.Kind, Path: ev.Path}
	if ev.Err != nil {
		v.Error = ev.Err.Error()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		_ = json.NewEncoder(p.w).Encode(v)
		return
	}
	if v.Error != "" {
		fmt.Fprintf(p.w, "%s %-13s %s: %s\n", v.Time.Format(time.TimeOnly), v.Kind, v.Path, v.Error)
		return
	}
	fmt.Fprintf(p.w, "%s %-13s %s\n", v.Time.Format(time.TimeOnly), v.Kind, v.Path)
}

func newWatchCmd(app *App) *cobra.Command {
	var (
		autosave string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Follow a document: reload on change and autosave on a schedule",
		Long: `Open the document in a session, reload it whenever the file changes on disk
and print one line per session event. Malformed content on disk is reported
and the last good document is kept. Stops on interrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			printer := &eventPrinter{w: cmd.OutOrStdout(), json: app.JSON}
			opts := session.OptionsFromConfig(app.Config)
			opts.OnEvent = printer.print
			s, err := session.Open(args[0], opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			defer crash.Recover(s)

			if err := s.Watch(); err != nil {
				return writeErr(cmd, err)
			}
			if autosave == "" && app.Config.Autosave.Enabled {
				autosave = app.Config.Autosave.Schedule
			}
			if autosave != "" {
				if err := s.StartAutosave(autosave); err != nil {
					return writeErr(cmd, err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			app.log.Info("watching document", slog.String("path", args[0]), slog.String("autosave", autosave))
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&autosave, "autosave", "", "Autosave cron schedule, e.g. \"@every 30s\" (default from config when enabled)")
	cmd.Flags().DurationVar(&timeout, "for", 0, "Stop after this long (default: until interrupted)")
	return cmd
}

func newMCPCmd(app *App) *cobra.Command {
	var (
		watch      bool
		saveOnExit bool
	)
	cmd := &cobra.Command{
		Use:   "mcp <file>",
		Short: "Serve the document to an MCP client over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout. Every editor command is
exposed as a tool and the document as a resource. The file is created on the
first save if it does not exist. Logs go to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := session.OptionsFromConfig(app.Config)
			s, err := session.Open(args[0], opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()
			defer crash.Recover(s)

			if watch {
				if err := s.Watch(); err != nil {
					app.log.Warn("file watch unavailable", slog.Any("err", err))
				}
			}
			if app.Config.Autosave.Enabled {
				if err := s.StartAutosave(app.Config.Autosave.Schedule); err != nil {
					return writeErr(cmd, err)
				}
			}

			srv := mcpserver.New(s)
			serveErr := srv.ServeStdio()

			ctx := context.Background()
			if dirty, _ := s.Dirty(ctx); dirty {
				if saveOnExit {
					if err := s.Save(ctx, "mcp session"); err != nil {
						return writeErr(cmd, err)
					}
				} else if _, err := s.AutosaveNow(ctx); err != nil {
					app.log.Error("autosave on exit failed", slog.Any("err", err))
				}
			}
			if serveErr != nil {
				return writeErr(cmd, serveErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the document when the file changes on disk")
	cmd.Flags().BoolVar(&saveOnExit, "save-on-exit", false, "Save unsaved changes when the client disconnects (default: autosave only)")
	return cmd
}
