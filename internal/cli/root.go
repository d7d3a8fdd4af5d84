/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the quickbox command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"quickbox/internal/config"
	applog "quickbox/internal/log"
	"quickbox/internal/version"

	"github.com/spf13/cobra"
)

// App carries the persistent flags and the loaded configuration.
type App struct {
	JSON    bool
	Pretty  bool
	Verbose bool

	Config config.AppConfig
	log    *slog.Logger
}

// textWriter is implemented by command results that have a human readable form.
type textWriter interface {
	WriteText(w io.Writer) error
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "quickbox",
		Short:        "QuickBox mockup documents: inspect, export, search and edit",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a document and look at it
  quickbox new shop.json
  quickbox info shop.json

  # Export every page as PDF, PNG and SVG
  quickbox export shop.json --preset handoff

  # Let an agent edit the document over MCP (stdio)
  quickbox mcp shop.json
`),
		Version: version.String(),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			// keep going on defaults so `config set` can repair the file
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
		}
		app.Config = cfg
		opts := applog.Options{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.Source,
			File:      cfg.Logging.File,
			Writer:    cmd.ErrOrStderr(),
		}
		if app.Verbose {
			opts.Level = "debug"
		}
		applog.Init(opts)
		app.log = applog.WithComponent("cli").With(slog.String("cmd", cmd.Name()))
		return nil
	}

	cmd.PersistentFlags().BoolVar(&app.JSON, "json", envOr("QB_OUTPUT", "") == "json", "Print results as JSON")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Indent JSON output")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(newNewCmd(app))
	cmd.AddCommand(newInfoCmd(app))
	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newRevisionsCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newMCPCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	return cmd
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.JSON {
				return writeOut(cmd, app, map[string]string{"version": version.Version})
			}
			return writeOut(cmd, app, version.String())
		},
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut prints v as JSON when --json is set, otherwise in its text form.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	w := cmd.OutOrStdout()
	if app.JSON {
		enc := json.NewEncoder(w)
		if app.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	}
	if tw, ok := v.(textWriter); ok {
		return tw.WriteText(w)
	}
	_, err := fmt.Fprintln(w, v)
	return err
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), "error:", err.Error())
	return err
}
