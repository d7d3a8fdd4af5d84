/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestManualSchedulerOrderAndStop(t *testing.T) {
	s := NewManualScheduler()
	var got []int
	s.AfterFunc(30*time.Millisecond, func() { got = append(got, 3) })
	s.AfterFunc(10*time.Millisecond, func() { got = append(got, 1) })
	stopped := s.AfterFunc(20*time.Millisecond, func() { got = append(got, 2) })
	if !stopped.Stop() {
		t.Fatalf("expected stop to succeed")
	}
	if n := s.Advance(15 * time.Millisecond); n != 1 {
		t.Fatalf("expected 1 firing, got %d", n)
	}
	s.Advance(time.Second)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected firing order: %v", got)
	}
	if stopped.Stop() {
		t.Fatalf("second stop must report false")
	}
}
