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
	"quickbox/internal/model"
)

func (s *Server) registerItemTools() {
	s.addTool(mcp.NewTool("add_menu_item",
		mcp.WithDescription("Append an item to a menu box, optionally below a parent item"),
		mcp.WithString("boxId", mcp.Description("Menu box ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Item text"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Parent item ID (optional)")),
	), s.handleAddMenuItem)

	s.addTool(mcp.NewTool("update_menu_item",
		mcp.WithDescription("Rename a menu item and/or set its link. linkKind \"none\" removes the link."),
		mcp.WithString("boxId", mcp.Description("Menu box ID"), mcp.Required()),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text")),
		mcp.WithString("linkKind", mcp.Description("page, anchor or none")),
		mcp.WithString("linkTarget", mcp.Description("Page ID or anchor box ID")),
	), s.handleUpdateMenuItem)

	s.addTool(mcp.NewTool("remove_menu_item",
		mcp.WithDescription("Remove a menu item together with its children"),
		mcp.WithString("boxId", mcp.Description("Menu box ID"), mcp.Required()),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
	), s.handleRemoveMenuItem)

	s.addTool(mcp.NewTool("add_accordion_item",
		mcp.WithDescription("Append a section to an accordion box"),
		mcp.WithString("boxId", mcp.Description("Accordion box ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Section title"), mcp.Required()),
		mcp.WithString("body", mcp.Description("Section body")),
	), s.handleAddAccordionItem)

	s.addTool(mcp.NewTool("update_accordion_item",
		mcp.WithDescription("Edit or expand/collapse an accordion section"),
		mcp.WithString("boxId", mcp.Description("Accordion box ID"), mcp.Required()),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("body", mcp.Description("New body")),
		mcp.WithBoolean("toggle", mcp.Description("Flip the expanded state")),
	), s.handleUpdateAccordionItem)

	s.addTool(mcp.NewTool("remove_accordion_item",
		mcp.WithDescription("Remove an accordion section"),
		mcp.WithString("boxId", mcp.Description("Accordion box ID"), mcp.Required()),
		mcp.WithString("itemId", mcp.Description("Item ID"), mcp.Required()),
	), s.handleRemoveAccordionItem)
}

func boxAndItem(a params) (string, string, error) {
	boxID, err := a.requireStr("boxId")
	if err != nil {
		return "", "", err
	}
	itemID, err := a.requireStr("itemId")
	if err != nil {
		return "", "", err
	}
	return boxID, itemID, nil
}

func (s *Server) handleAddMenuItem(ctx context.Context, a params) (any, error) {
	boxID, err := a.requireStr("boxId")
	if err != nil {
		return nil, err
	}
	text := a.str("text")
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		return e.AddMenuItem(boxID, a.str("parentId"), text)
	})
}

func (s *Server) handleUpdateMenuItem(ctx context.Context, a params) (any, error) {
	boxID, itemID, err := boxAndItem(a)
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		if v, ok := a["text"].(string); ok {
			if err := e.RenameMenuItem(boxID, itemID, v); err != nil {
				return "", err
			}
		}
		switch kind := a.str("linkKind"); kind {
		case "":
		case "none":
			if err := e.SetMenuItemLink(boxID, itemID, nil); err != nil {
				return "", err
			}
		default:
			target := &model.LinkTarget{Type: model.LinkKind(kind), Target: a.str("linkTarget")}
			if err := e.SetMenuItemLink(boxID, itemID, target); err != nil {
				return "", err
			}
		}
		return itemID, nil
	})
}

func (s *Server) handleRemoveMenuItem(ctx context.Context, a params) (any, error) {
	boxID, itemID, err := boxAndItem(a)
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		return itemID, e.RemoveMenuItem(boxID, itemID)
	})
}

func (s *Server) handleAddAccordionItem(ctx context.Context, a params) (any, error) {
	boxID, err := a.requireStr("boxId")
	if err != nil {
		return nil, err
	}
	title, body := a.str("title"), a.str("body")
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		return e.AddAccordionItem(boxID, title, body)
	})
}

func (s *Server) handleUpdateAccordionItem(ctx context.Context, a params) (any, error) {
	boxID, itemID, err := boxAndItem(a)
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		_, hasTitle := a["title"]
		_, hasBody := a["body"]
		if hasTitle || hasBody {
			d := e.Document()
			it, err := accordionItem(&d, boxID, itemID)
			if err != nil {
				return "", err
			}
			title, body := it.Title, it.Body
			if hasTitle {
				title = a.str("title")
			}
			if hasBody {
				body = a.str("body")
			}
			if err := e.EditAccordionItem(boxID, itemID, title, body); err != nil {
				return "", err
			}
		}
		if a.flag("toggle") {
			if err := e.ToggleAccordionItem(boxID, itemID); err != nil {
				return "", err
			}
		}
		return itemID, nil
	})
}

func (s *Server) handleRemoveAccordionItem(ctx context.Context, a params) (any, error) {
	boxID, itemID, err := boxAndItem(a)
	if err != nil {
		return nil, err
	}
	return s.mutation(ctx, func(e *editor.Engine) (string, error) {
		return itemID, e.RemoveAccordionItem(boxID, itemID)
	})
}

func accordionItem(d *model.Document, boxID, itemID string) (model.AccordionItem, error) {
	b, _, ok := d.Find(boxID)
	if !ok {
		return model.AccordionItem{}, fmt.Errorf("%w: box %q", editor.ErrDanglingReference, boxID)
	}
	for _, it := range b.AccordionItems {
		if it.ID == itemID {
			return it, nil
		}
	}
	return model.AccordionItem{}, fmt.Errorf("%w: item %q", editor.ErrDanglingReference, itemID)
}
