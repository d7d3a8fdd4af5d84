/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	boxPrefix  = "box-"
	pagePrefix = "page-"
)

func BoxID(n int) string    { return boxPrefix + strconv.Itoa(n) }
func PageID(n int) string   { return pagePrefix + strconv.Itoa(n) }
func PageName(n int) string { return "Page " + strconv.Itoa(n) }

// ItemID returns a fresh id for menu and accordion items.
func ItemID() string { return uuid.New().String() }

// ParseID extracts the numeric suffix of ids like "box-12". ok is false when
// the id does not carry the prefix or the suffix is not a positive integer.
func ParseID(id, prefix string) (int, bool) {
	s, found := strings.CutPrefix(id, prefix)
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Counters are the monotonic generators for box ids, page ids and z order.
// Box and Page hold the last number handed out; ZIndex holds the next one.
type Counters struct {
	Box    int
	Page   int
	ZIndex int
}

// NextBox advances and returns the next box number.
func (c *Counters) NextBox() int { c.Box++; return c.Box }

// NextPage advances and returns the next page number.
func (c *Counters) NextPage() int { c.Page++; return c.Page }

// NextZ hands out the current z value and advances.
func (c *Counters) NextZ() int { z := c.ZIndex; c.ZIndex++; return z }

// Bump raises ZIndex so that the next handed out value is above z.
func (c *Counters) Bump(z int) {
	if z+1 > c.ZIndex {
		c.ZIndex = z + 1
	}
}

// RecomputeCounters derives counters from a loaded document so newly created
// ids never collide with existing ones. An empty document yields {0, 0, 1}.
func RecomputeCounters(d *Document) Counters {
	c := Counters{ZIndex: 1}
	maxZ := 0
	d.EachBox(func(_ RegionID, _ string, b *Box) {
		if n, ok := ParseID(b.ID, boxPrefix); ok && n > c.Box {
			c.Box = n
		}
		maxZ = max(maxZ, b.ZIndex)
	})
	for i := range d.Pages {
		if n, ok := ParseID(d.Pages[i].ID, pagePrefix); ok && n > c.Page {
			c.Page = n
		}
	}
	c.ZIndex = max(1, maxZ+1)
	return c
}
