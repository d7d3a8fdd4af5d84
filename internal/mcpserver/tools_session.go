/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"quickbox/internal/editor"
	"quickbox/internal/geom"
	"quickbox/internal/model"
)

func (s *Server) registerSelectionTools() {
	s.addTool(mcp.NewTool("select_box",
		mcp.WithDescription("Select a single box and clear the group. An empty id deselects."),
		mcp.WithString("id", mcp.Description("Box ID")),
	), s.handleSelect)

	s.addTool(mcp.NewTool("toggle_group_member",
		mcp.WithDescription("Add a box to the temporary group, or remove it if already grouped"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
	), s.handleToggleGroup)

	s.addTool(mcp.NewTool("select_rect",
		mcp.WithDescription("Group every editable box intersecting a canvas rectangle"),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
		mcp.WithNumber("width", mcp.Required()),
		mcp.WithNumber("height", mcp.Required()),
	), s.handleSelectRect)

	s.addTool(mcp.NewTool("get_selection",
		mcp.WithDescription("Return the selected box and the group members"),
	), s.handleGetSelection)

	s.addTool(mcp.NewTool("delete_selection",
		mcp.WithDescription("Delete the group, or the selected box when there is no group"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSelection)

	s.addTool(mcp.NewTool("duplicate_selection",
		mcp.WithDescription("Duplicate the group, or the selected box when there is no group"),
	), s.handleDuplicateSelection)
}

func (s *Server) registerPageTools() {
	s.addTool(mcp.NewTool("add_page",
		mcp.WithDescription("Append a new empty page and make it current"),
	), s.handleAddPage)

	s.addTool(mcp.NewTool("switch_page",
		mcp.WithDescription("Make a page current. Header and footer are editable only on the first page."),
		mcp.WithString("id", mcp.Description("Page ID"), mcp.Required()),
	), s.handleSwitchPage)

	s.addTool(mcp.NewTool("rename_page",
		mcp.WithString("id", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenamePage)

	s.addTool(mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page. The last page cannot be deleted."),
		mcp.WithString("id", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeletePage)

	s.addTool(mcp.NewTool("set_canvas",
		mcp.WithDescription("Set the current page width preset, or a custom size"),
		mcp.WithString("size", mcp.Description("desktop, tablet, mobile or custom"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Custom width")),
		mcp.WithNumber("height", mcp.Description("Custom height")),
	), s.handleSetCanvas)

	s.addTool(mcp.NewTool("set_region",
		mcp.WithDescription("Change the background color or the height of the header or footer"),
		mcp.WithString("region", mcp.Description("header or footer"), mcp.Required()),
		mcp.WithString("color", mcp.Description("Background color; empty restores the default")),
		mcp.WithNumber("dy", mcp.Description("Height change in pixels")),
	), s.handleSetRegion)

	s.addTool(mcp.NewTool("follow_link",
		mcp.WithDescription("Follow the link of a box or of one of its menu items"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithString("itemId", mcp.Description("Menu item ID (optional)")),
	), s.handleFollowLink)
}

func (s *Server) registerHistoryTools() {
	s.addTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change"),
	), s.handleUndo)
	s.addTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
	), s.handleRedo)
}

func (s *Server) handleSelect(ctx context.Context, a params) (any, error) {
	id := a.str("id")
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return id, e.SelectSingle(id) })
}

func (s *Server) handleToggleGroup(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	return s.selection(ctx, func(e *editor.Engine) error { return e.ToggleGroupMember(id) })
}

func (s *Server) handleSelectRect(ctx context.Context, a params) (any, error) {
	var v [4]float64
	for i, k := range []string{"x", "y", "width", "height"} {
		n, err := a.requireNum(k)
		if err != nil {
			return nil, err
		}
		v[i] = n
	}
	r := geom.R(v[0], v[1], v[2], v[3])
	return s.selection(ctx, func(e *editor.Engine) error {
		e.RectangleSelect(r)
		return nil
	})
}

func (s *Server) handleGetSelection(ctx context.Context, _ params) (any, error) {
	return s.selection(ctx, func(*editor.Engine) error { return nil })
}

func (s *Server) handleDeleteSelection(ctx context.Context, _ params) (any, error) {
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return "", e.DeleteSelected() })
}

func (s *Server) handleDuplicateSelection(ctx context.Context, _ params) (any, error) {
	var ids []string
	err := s.do(ctx, func(e *editor.Engine) error {
		var err error
		ids, err = e.DuplicateSelected()
		return err
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"ids": ids}, nil
}

type selectionResult struct {
	Selected string   `json:"selected,omitempty"`
	Group    []string `json:"group"`
}

func (s *Server) selection(ctx context.Context, fn func(e *editor.Engine) error) (any, error) {
	var res selectionResult
	err := s.do(ctx, func(e *editor.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		sel := e.Selection()
		res = selectionResult{Selected: sel.Single, Group: append([]string{}, sel.Group...)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Server) handleAddPage(ctx context.Context, _ params) (any, error) {
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return e.AddPage() })
}

func (s *Server) handleSwitchPage(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return id, e.SwitchPage(id) })
}

func (s *Server) handleRenamePage(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	name := a.str("name")
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return id, e.RenamePage(id, name) })
}

func (s *Server) handleDeletePage(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return id, e.DeletePage(id) })
}

func (s *Server) handleSetCanvas(ctx context.Context, a params) (any, error) {
	size := model.CanvasSize(a.str("size"))
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		if size == model.CanvasCustom {
			return "", e.SetCustomCanvas(a.num("width", 0), a.num("height", 0))
		}
		return "", e.SetCanvasSize(size)
	})
}

func (s *Server) handleSetRegion(ctx context.Context, a params) (any, error) {
	r := model.RegionID(a.str("region"))
	if !r.Shared() {
		return nil, fmt.Errorf("%w: region %q", editor.ErrInvalidValue, r)
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		if c, ok := a["color"].(string); ok {
			if err := e.SetRegionColor(r, c); err != nil {
				return "", err
			}
		}
		if dy := a.num("dy", 0); dy != 0 {
			err := continuous(e,
				func() error { return e.StartRegionResize(r) },
				func() error { return e.UpdateRegionResize(dy) },
				e.EndRegionResize)
			if err != nil {
				return "", err
			}
		}
		return string(r), nil
	})
}

func (s *Server) handleFollowLink(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	item := a.str("itemId")
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		if item != "" {
			return id, e.FollowMenuLink(id, item)
		}
		return id, e.FollowLink(id)
	})
}

func (s *Server) handleUndo(ctx context.Context, _ params) (any, error) {
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return "", e.Undo() })
}

func (s *Server) handleRedo(ctx context.Context, _ params) (any, error) {
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return "", e.Redo() })
}
