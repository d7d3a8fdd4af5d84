/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"strings"

	"quickbox/internal/model"
)

// AddPage appends an empty page. The current page does not change.
func (e *Engine) AddPage() (string, error) {
	var id string
	err := e.edit("add page", func(d *model.Document) error {
		p := model.NewPage(e.st.Counters.NextPage())
		p.CanvasSize = e.opts.DefaultCanvas
		d.Pages = append(d.Pages, p)
		id = p.ID
		return nil
	})
	return id, err
}

// SwitchPage makes another page current. It clears the selection and is
// not recorded in history.
func (e *Engine) SwitchPage(id string) error {
	if e.tr != nil {
		return ErrTransformActive
	}
	if e.st.Doc.Page(id) == nil {
		return fmt.Errorf("%w: page %q", ErrDanglingReference, id)
	}
	if e.st.Doc.CurrentPageID == id {
		return nil
	}
	e.st.Doc.CurrentPageID = id
	e.st.Selected = ""
	e.st.Group = nil
	e.render("switch page")
	return nil
}

// RenamePage sets a page's display name.
func (e *Engine) RenamePage(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty page name", ErrInvalidValue)
	}
	return e.edit("rename page", func(d *model.Document) error {
		p := d.Page(id)
		if p == nil {
			return fmt.Errorf("%w: page %q", ErrDanglingReference, id)
		}
		p.Name = name
		return nil
	})
}

// DeletePage removes a page and its boxes. The last page cannot be deleted.
// Deleting the current page makes the first remaining page current.
func (e *Engine) DeletePage(id string) error {
	return e.edit("delete page", func(d *model.Document) error {
		i := d.PageIndex(id)
		if i < 0 {
			return fmt.Errorf("%w: page %q", ErrDanglingReference, id)
		}
		if len(d.Pages) == 1 {
			return ErrLastPage
		}
		d.Pages = append(d.Pages[:i], d.Pages[i+1:]...)
		if d.CurrentPageID == id {
			d.CurrentPageID = d.Pages[0].ID
			e.st.Selected = ""
			e.st.Group = nil
		}
		return nil
	})
}

// SetCanvasSize applies a width preset to the current page.
func (e *Engine) SetCanvasSize(size model.CanvasSize) error {
	if _, ok := size.Width(); !ok {
		return fmt.Errorf("%w: canvas size %q", ErrInvalidValue, size)
	}
	return e.edit("canvas size", func(d *model.Document) error {
		p := d.CurrentPage()
		if p == nil {
			return fmt.Errorf("%w: current page", ErrDanglingReference)
		}
		p.CanvasSize = size
		p.CustomWidth, p.CustomHeight = 0, 0
		return nil
	})
}

// SetCustomCanvas gives the current page an explicit width and height.
func (e *Engine) SetCustomCanvas(w, h float64) error {
	if w < MinCanvasWidth || h < MinCanvasHeight {
		return fmt.Errorf("%w: canvas %vx%v below %vx%v", ErrInvalidValue, w, h, MinCanvasWidth, MinCanvasHeight)
	}
	return e.edit("canvas size", func(d *model.Document) error {
		p := d.CurrentPage()
		if p == nil {
			return fmt.Errorf("%w: current page", ErrDanglingReference)
		}
		p.CanvasSize = model.CanvasCustom
		p.CustomWidth, p.CustomHeight = w, h
		return nil
	})
}
