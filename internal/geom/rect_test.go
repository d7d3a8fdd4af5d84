/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "testing"

func TestFromCornersNormalizes(t *testing.T) {
	r := FromCorners(Pt{100, 80}, Pt{20, 10})
	if r != R(20, 10, 80, 70) {
		t.Fatalf("unexpected rect: %+v", r)
	}
}

func TestIntersects(t *testing.T) {
	a := R(0, 0, 100, 100)
	cases := []struct {
		name string
		b    Rect
		want bool
	}{
		{"overlap", R(50, 50, 100, 100), true},
		{"inside", R(10, 10, 5, 5), true},
		{"edge touch", R(100, 0, 10, 10), false},
		{"apart", R(200, 200, 10, 10), false},
	}
	for _, c := range cases {
		if got := a.Intersects(c.b); got != c.want {
			t.Fatalf("%s: expected %v got %v", c.name, c.want, got)
		}
	}
}

func TestUnionAndBand(t *testing.T) {
	u := R(0, 0, 10, 10).Union(R(20, 5, 10, 20))
	if u != R(0, 0, 30, 25) {
		t.Fatalf("unexpected union: %+v", u)
	}
	b := Band{Top: 80, Height: 600}
	if !b.Contains(80) || b.Contains(680) || b.Bottom() != 680 {
		t.Fatalf("band bounds wrong: %+v", b)
	}
	if FloatRound(1.23456, 2) != 1.23 {
		t.Fatalf("round failed")
	}
}
