/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mcpserver exposes the editor command surface over the Model
// Context Protocol so tool-driven clients can build mockups. Every tool runs
// on the session's event loop.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/maruel/natural"

	"quickbox/internal/editor"
	applog "quickbox/internal/log"
	"quickbox/internal/session"
	"quickbox/internal/version"
)

// Server is the MCP server for one open document.
type Server struct {
	mcp   *server.MCPServer
	sess  *session.Session
	log   *slog.Logger
	tools map[string]server.ToolHandlerFunc
}

// New creates the server and registers all tools and resources.
func New(sess *session.Session) *Server {
	s := &Server{
		sess:  sess,
		log:   applog.WithComponent("mcp"),
		tools: make(map[string]server.ToolHandlerFunc),
	}
	s.mcp = server.NewMCPServer(
		"quickbox",
		version.String(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerBoxTools()
	s.registerItemTools()
	s.registerSelectionTools()
	s.registerPageTools()
	s.registerHistoryTools()
	s.registerFileTools()
	s.registerResources()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// ToolNames lists the registered tools in natural order.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for n := range s.tools {
		names = append(names, n)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// Call invokes a registered tool directly, bypassing the transport.
func (s *Server) Call(ctx context.Context, name string, arguments map[string]any) (*mcp.CallToolResult, error) {
	h, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments
	return h(ctx, req)
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.log.Info("serving mcp on stdio", slog.String("session", s.sess.ID()))
	return server.ServeStdio(s.mcp)
}

// toolFunc computes a tool result. Returned errors are reported to the client
// as tool errors, not protocol errors.
type toolFunc func(ctx context.Context, a params) (any, error)

func (s *Server) addTool(t mcp.Tool, fn toolFunc) {
	name := t.Name
	h := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		l := applog.WithOperation(s.log, name)
		out, err := fn(ctx, params(req.GetArguments()))
		if err != nil {
			level := slog.LevelInfo
			if errors.Is(err, editor.ErrPolicyViolation) {
				level = slog.LevelWarn
			}
			l.Log(ctx, level, "tool failed", slog.Any("err", err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		l.Debug("tool done")
		if text, ok := out.(string); ok {
			return textResult(text), nil
		}
		return jsonResult(out)
	}
	s.tools[name] = h
	s.mcp.AddTool(t, h)
}

// do runs fn on the session loop.
func (s *Server) do(ctx context.Context, fn func(e *editor.Engine) error) error {
	return s.sess.Do(ctx, fn)
}

// mutation runs fn and reports the resulting engine stats.
func (s *Server) mutation(ctx context.Context, fn func(e *editor.Engine) (string, error)) (any, error) {
	var res mutationResult
	err := s.do(ctx, func(e *editor.Engine) error {
		id, err := fn(e)
		if err != nil {
			return err
		}
		res = mutationResult{ID: id, Stats: e.Stats(), CurrentPage: e.Document().CurrentPageID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type mutationResult struct {
	ID          string       `json:"id,omitempty"`
	CurrentPage string       `json:"currentPage"`
	Stats       editor.Stats `json:"stats"`
}

// params wraps raw tool arguments.
type params map[string]any

func (a params) str(key string) string {
	v, _ := a[key].(string)
	return v
}

func (a params) requireStr(key string) (string, error) {
	v, ok := a[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func (a params) num(key string, fallback float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func (a params) requireNum(key string) (float64, error) {
	if _, ok := a[key]; !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch v := a[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%s must be a number", key)
}

func (a params) flag(key string) bool {
	v, _ := a[key].(bool)
	return v
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
