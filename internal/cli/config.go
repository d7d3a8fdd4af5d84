/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"quickbox/internal/config"

	"github.com/spf13/cobra"
)

type configEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Env   string `json:"env,omitempty"`
}

type configList []configEntry

func (l configList) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range l {
		if e.Env != "" {
			fmt.Fprintf(tw, "%s\t%s\t(from %s)\n", e.Key, e.Value, e.Env)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", e.Key, e.Value)
	}
	return tw.Flush()
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change the user configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, p)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every key with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make(configList, 0, len(config.Keys()))
			for _, k := range config.Keys() {
				v, err := config.Get(app.Config, k)
				if err != nil {
					return writeErr(cmd, err)
				}
				env, _ := config.EnvOverrideFor(k)
				out = append(out, configEntry{Key: k, Value: v, Env: env})
			}
			return writeOut(cmd, app, out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.Get(app.Config, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				env, _ := config.EnvOverrideFor(args[0])
				return writeOut(cmd, app, configEntry{Key: args[0], Value: v, Env: env})
			}
			return writeOut(cmd, app, v)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a key to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile()
			if err != nil {
				// rewrite a broken file from defaults
				cfg = config.Defaults()
			}
			if err := config.Set(&cfg, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.Save(cfg); err != nil {
				return writeErr(cmd, err)
			}
			if env, ok := config.EnvOverrideFor(args[0]); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %s is overridden by $%s\n", args[0], env)
			}
			v, _ := config.Get(cfg, args[0])
			return writeOut(cmd, app, configEntry{Key: args[0], Value: v})
		},
	})
	return cmd
}

func (e configEntry) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s = %s\n", e.Key, e.Value)
	return err
}
