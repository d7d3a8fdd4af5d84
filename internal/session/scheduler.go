/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"time"

	"quickbox/internal/undo"
)

// loopScheduler arms wall-clock timers whose expiry is posted onto the
// session loop instead of running on the timer goroutine.
type loopScheduler struct {
	post func(func()) error
}

// loopTimer state is only read and written on the loop goroutine.
type loopTimer struct {
	t       *time.Timer
	stopped bool
}

func (ls loopScheduler) AfterFunc(d time.Duration, f func()) undo.Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		// A closed session drops the callback.
		_ = ls.post(func() {
			if lt.stopped {
				return
			}
			lt.stopped = true
			f()
		})
	})
	return lt
}

// Stop cancels the timer. A firing already queued on the loop is discarded
// when it runs.
func (lt *loopTimer) Stop() bool {
	if lt.stopped {
		return false
	}
	lt.stopped = true
	lt.t.Stop()
	return true
}
