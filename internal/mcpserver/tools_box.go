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
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"quickbox/internal/editor"
	"quickbox/internal/model"
)

func boolPtr(v bool) *bool { return &v }

func boxTypeList() string {
	names := make([]string, 0, len(model.BoxTypes))
	for _, t := range model.BoxTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func (s *Server) registerBoxTools() {
	s.addTool(mcp.NewTool("add_box",
		mcp.WithDescription("Add a box with default size and content. Without a region it goes to the current page."),
		mcp.WithString("type", mcp.Description("Box type: "+boxTypeList()), mcp.Required()),
		mcp.WithString("region", mcp.Description("Target region: header, main or footer (optional)")),
	), s.handleAddBox)

	s.addTool(mcp.NewTool("delete_box",
		mcp.WithDescription("Delete a box"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBox)

	s.addTool(mcp.NewTool("duplicate_box",
		mcp.WithDescription("Duplicate a box in place with a fresh id"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
	), s.handleDuplicateBox)

	s.addTool(mcp.NewTool("move_box",
		mcp.WithDescription("Move a box (and its group) by an offset. Crossing a region boundary transfers the box when allowed."),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal offset"), mcp.Required()),
		mcp.WithNumber("dy", mcp.Description("Vertical offset"), mcp.Required()),
	), s.handleMoveBox)

	s.addTool(mcp.NewTool("resize_box",
		mcp.WithDescription("Resize a box by dragging one of its handles"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithString("handle", mcp.Description("Handle: n, s, e, w, ne, nw, se, sw"), mcp.Required()),
		mcp.WithNumber("dx", mcp.Description("Horizontal pointer offset")),
		mcp.WithNumber("dy", mcp.Description("Vertical pointer offset")),
	), s.handleResizeBox)

	s.addTool(mcp.NewTool("update_box",
		mcp.WithDescription("Change name, content, font or menu orientation of a box. Only given fields change."),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("content", mcp.Description("New text content")),
		mcp.WithString("fontFamily", mcp.Description("CSS font family")),
		mcp.WithNumber("fontSize", mcp.Description("Font size in pixels")),
		mcp.WithString("orientation", mcp.Description("Menu orientation: horizontal or vertical")),
	), s.handleUpdateBox)

	s.addTool(mcp.NewTool("set_box_link",
		mcp.WithDescription("Link a box to a page or an anchor box. An empty kind removes the link."),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithString("kind", mcp.Description("Link kind: page or anchor")),
		mcp.WithString("target", mcp.Description("Page ID or anchor box ID")),
	), s.handleSetLink)

	s.addTool(mcp.NewTool("set_box_style",
		mcp.WithDescription("Override colors of a box, or of every group member when the box is grouped"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithString("fill", mcp.Description("Fill color, e.g. #ffeecc")),
		mcp.WithString("border", mcp.Description("Border color")),
		mcp.WithString("textColor", mcp.Description("Text color")),
		mcp.WithBoolean("clear", mcp.Description("Remove all overrides instead")),
	), s.handleSetStyle)

	s.addTool(mcp.NewTool("arrange_box",
		mcp.WithDescription("Bring a box to the front or send it to the back"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithString("position", mcp.Description("front or back"), mcp.Required()),
	), s.handleArrange)

	s.addTool(mcp.NewTool("move_box_to_region",
		mcp.WithDescription("Transfer a box to another region, keeping its canvas position"),
		mcp.WithString("id", mcp.Description("Box ID"), mcp.Required()),
		mcp.WithString("region", mcp.Description("header, main or footer"), mcp.Required()),
	), s.handleTransfer)
}

func (s *Server) handleAddBox(ctx context.Context, a params) (any, error) {
	t, err := a.requireStr("type")
	if err != nil {
		return nil, err
	}
	region := model.RegionID(a.str("region"))
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		if region == "" {
			return e.AddBox(model.BoxType(t))
		}
		if !region.Valid() {
			return "", fmt.Errorf("%w: region %q", editor.ErrInvalidValue, region)
		}
		return e.AddBoxTo(region, model.BoxType(t))
	})
}

func (s *Server) handleDeleteBox(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return id, e.Delete(id) })
}

func (s *Server) handleDuplicateBox(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return e.Duplicate(id) })
}

// continuous runs a whole start/update/end transform in one loop turn, so
// the gesture becomes a single history entry. The transform is cancelled if
// any step fails.
func continuous(e *editor.Engine, start func() error, update func() error, end func() error) error {
	if err := start(); err != nil {
		return err
	}
	if err := update(); err != nil {
		_ = e.CancelTransform()
		return err
	}
	return end()
}

func (s *Server) handleMoveBox(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	dx, err := a.requireNum("dx")
	if err != nil {
		return nil, err
	}
	dy, err := a.requireNum("dy")
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		return id, continuous(e,
			func() error { return e.StartDrag(id) },
			func() error { return e.UpdateDrag(dx, dy) },
			e.EndDrag)
	})
}

func (s *Server) handleResizeBox(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	h := editor.Handle(a.str("handle"))
	if !h.Valid() {
		return nil, fmt.Errorf("%w: handle %q", editor.ErrInvalidValue, h)
	}
	dx, dy := a.num("dx", 0), a.num("dy", 0)
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		return id, continuous(e,
			func() error { return e.StartResize(id, h) },
			func() error { return e.UpdateResize(dx, dy) },
			e.EndResize)
	})
}

func (s *Server) handleUpdateBox(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		if v, ok := a["name"].(string); ok {
			if err := e.Rename(id, v); err != nil {
				return "", err
			}
		}
		if v, ok := a["content"].(string); ok {
			if err := e.SetContent(id, v); err != nil {
				return "", err
			}
		}
		if v, ok := a["fontFamily"].(string); ok {
			if err := e.SetFont(id, v); err != nil {
				return "", err
			}
		}
		if v := a.num("fontSize", 0); v > 0 {
			if err := e.SetFontSize(id, int(v)); err != nil {
				return "", err
			}
		}
		if v := a.str("orientation"); v != "" {
			if err := e.SetOrientation(id, model.Orientation(v)); err != nil {
				return "", err
			}
		}
		return id, nil
	})
}

func (s *Server) handleSetLink(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	var target *model.LinkTarget
	if kind := a.str("kind"); kind != "" {
		target = &model.LinkTarget{Type: model.LinkKind(kind), Target: a.str("target")}
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return id, e.SetLink(id, target) })
}

func (s *Server) handleSetStyle(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	style := model.StyleOverride{Fill: a.str("fill"), Border: a.str("border"), TextColor: a.str("textColor")}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		if a.flag("clear") {
			return id, e.ClearStyle(id)
		}
		if e.InGroup(id) {
			return id, e.RestyleGroup(style)
		}
		return id, e.SetStyle(id, style)
	})
}

func (s *Server) handleArrange(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	pos := a.str("position")
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		switch pos {
		case "front":
			return id, e.BringToFront(id)
		case "back":
			return id, e.SendToBack(id)
		default:
			return "", fmt.Errorf("%w: position %q", editor.ErrInvalidValue, pos)
		}
	})
}

func (s *Server) handleTransfer(ctx context.Context, a params) (any, error) {
	id, err := a.requireStr("id")
	if err != nil {
		return nil, err
	}
	to := model.RegionID(a.str("region"))
	if !to.Valid() {
		return nil, fmt.Errorf("%w: region %q", editor.ErrInvalidValue, to)
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) { return id, e.TransferOrRejectRegion(id, to) })
}
