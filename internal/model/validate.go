/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate checks the structural invariants of a document and returns every
// violation found, combined into one error.
func Validate(d *Document) error {
	var err error
	if len(d.Pages) == 0 {
		err = multierr.Append(err, fmt.Errorf("document has no pages"))
	}
	pages := make(map[string]bool, len(d.Pages))
	for i := range d.Pages {
		p := &d.Pages[i]
		if p.ID == "" {
			err = multierr.Append(err, fmt.Errorf("page %d has no id", i))
			continue
		}
		if pages[p.ID] {
			err = multierr.Append(err, fmt.Errorf("duplicate page id %q", p.ID))
		}
		pages[p.ID] = true
	}
	if len(d.Pages) > 0 && !pages[d.CurrentPageID] {
		err = multierr.Append(err, fmt.Errorf("current page %q does not exist", d.CurrentPageID))
	}

	boxes := make(map[string]string)
	d.EachBox(func(r RegionID, pageID string, b *Box) {
		where := string(r)
		if pageID != "" {
			where = pageID
		}
		if b.ID == "" {
			err = multierr.Append(err, fmt.Errorf("box without id in %s", where))
			return
		}
		if prev, dup := boxes[b.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("duplicate box id %q in %s and %s", b.ID, prev, where))
		}
		boxes[b.ID] = where
		if !b.Type.Valid() {
			err = multierr.Append(err, fmt.Errorf("box %q has unknown type %q", b.ID, b.Type))
		}
		if b.Width < 0 || b.Height < 0 {
			err = multierr.Append(err, fmt.Errorf("box %q has negative size", b.ID))
		}
	})
	for _, r := range []*Region{&d.Header, &d.Footer} {
		if r.Height < 0 {
			err = multierr.Append(err, fmt.Errorf("region height %v is negative", r.Height))
		}
	}
	return err
}

// Problems splits a Validate error into its individual messages.
func Problems(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
