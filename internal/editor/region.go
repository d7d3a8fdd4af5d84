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

	"quickbox/internal/model"
)

// ResolveRegion reports which region currently holds the box. Header and
// footer are searched before the current page.
func (e *Engine) ResolveRegion(id string) (model.RegionID, error) {
	ref, ok := e.st.Doc.Locate(id)
	if !ok {
		return "", fmt.Errorf("%w: box %q", ErrDanglingReference, id)
	}
	return ref.Region, nil
}

// DetectRegionForPoint maps a vertical canvas position to a region using the
// current layout.
func (e *Engine) DetectRegionForPoint(y float64) model.RegionID {
	return e.Bounds().Detect(y)
}

// CanEditRegion reports whether boxes in r may be changed right now.
func (e *Engine) CanEditRegion(r model.RegionID) bool {
	return !r.Shared() || e.st.Doc.OnFirstPage()
}

func (e *Engine) guard(regions ...model.RegionID) error {
	for _, r := range regions {
		if !e.CanEditRegion(r) {
			return fmt.Errorf("%w (current page %s)", ErrPolicyViolation, e.st.Doc.CurrentPageID)
		}
	}
	return nil
}

// lookup resolves an editable box: it must exist and its region must be
// editable on the current page.
func (e *Engine) lookup(d *model.Document, id string) (*model.Box, model.RegionID, error) {
	b, r, ok := d.Find(id)
	if !ok {
		return nil, "", fmt.Errorf("%w: box %q", ErrDanglingReference, id)
	}
	if err := e.guard(r); err != nil {
		return nil, "", err
	}
	return b, r, nil
}

// transfer moves a box to another region. Its y is re-expressed relative to
// the target region so the absolute position is unchanged under bounds b.
func transfer(d *model.Document, b Bounds, id string, to model.RegionID) error {
	ref, ok := d.Locate(id)
	if !ok {
		return fmt.Errorf("%w: box %q", ErrDanglingReference, id)
	}
	if ref.Region == to {
		return nil
	}
	from := d.Container(ref.Region)
	dst := d.Container(to)
	if from == nil || dst == nil {
		return fmt.Errorf("%w: region %s", ErrDanglingReference, to)
	}
	box := model.RemoveBox(from, ref.Index)
	box.Y = box.Y + b.Band(ref.Region).Top - b.Band(to).Top
	*dst = append(*dst, box)
	return nil
}

// TransferOrRejectRegion moves a box into the target region, keeping its
// canvas position. Moves into or out of header and footer are rejected
// unless page 1 is current.
func (e *Engine) TransferOrRejectRegion(id string, to model.RegionID) error {
	if !to.Valid() {
		return fmt.Errorf("%w: region %q", ErrInvalidValue, to)
	}
	from, err := e.ResolveRegion(id)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := e.guard(from, to); err != nil {
		e.report("transfer", err)
		return err
	}
	bounds := e.Bounds()
	return e.edit("transfer", func(d *model.Document) error {
		return transfer(d, bounds, id, to)
	})
}
