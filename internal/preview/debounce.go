/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import "time"

// debouncer is a resettable timer whose channel is nil while idle, so it can
// sit in a select unconditionally.
type debouncer struct {
	d     time.Duration
	t     *time.Timer
	armed bool
}

func newDebouncer(d time.Duration) *debouncer { return &debouncer{d: d} }

func (b *debouncer) schedule() {
	if b.t == nil {
		b.t = time.NewTimer(b.d)
	} else {
		b.t.Stop()
		b.t.Reset(b.d)
	}
	b.armed = true
}

func (b *debouncer) C() <-chan time.Time {
	if !b.armed {
		return nil
	}
	return b.t.C
}

func (b *debouncer) fired() { b.armed = false }

func (b *debouncer) stop() {
	if b.t != nil {
		b.t.Stop()
	}
}
