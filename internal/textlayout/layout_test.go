/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"testing"
)

func TestWordWrap_BreaksOnSpaces(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	// Face7x13 advances 7px per rune: "Hello world" is 77px wide.
	got := l.Wrap([]string{"Hello world from Go"}, 50)
	if strings.Join(got, "|") != "Hello|world|from Go" {
		t.Fatalf("unexpected lines %q", got)
	}
	got = l.Wrap([]string{"Hello world from Go"}, 100)
	if strings.Join(got, "|") != "Hello world|from Go" {
		t.Fatalf("unexpected lines %q", got)
	}
}

func TestWordWrap_KeepsEmptyParagraphsAndSplitsLongWords(t *testing.T) {
	l := NewWordWrap(nil)
	got := l.Wrap([]string{"a", "", "abcdefghij"}, 28)
	if strings.Join(got, "|") != "a||abcd|efgh|ij" {
		t.Fatalf("unexpected lines %q", got)
	}
	if got := l.Wrap([]string{"no limit here"}, 0); len(got) != 1 {
		t.Fatalf("zero width must not wrap: %q", got)
	}
}

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, FontSpec{}, []string{"ABC"})
	w2, h2 := Measure(nil, FontSpec{SizePx: 40}, []string{"A", "ABC"})
	if w1 != 21 || w1 != w2 {
		t.Fatalf("unexpected widths %v %v", w1, w2)
	}
	if h2 != 2*h1 || h1 <= 0 {
		t.Fatalf("unexpected heights %v %v", h1, h2)
	}
}
