/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package anim builds percent-keyed keyframe tracks on one shared timeline.
// Every time value is an absolute millisecond offset into the global
// timeline; Timeline projects it onto [0, 100] percent.
package anim

import (
	"svgif/internal/vector"
)

// Epsilon is the width in percent of a snap between two stops that must
// change value "at the same instant".
const Epsilon = 0.1

// Timeline projects milliseconds onto percent of the total duration.
type Timeline struct {
	TotalMs float64
}

func NewTimeline(totalMs int) Timeline { return Timeline{TotalMs: float64(totalMs)} }

// Percent maps ms to [0, 100], rounded to 4 decimals, then shifts it by eps
// (0, +Epsilon or -Epsilon) and clamps again.
func (t Timeline) Percent(ms float64, eps float64) float64 {
	if t.TotalMs <= 0 {
		return 0
	}
	p := clampPct(vector.FloatRound(ms/t.TotalMs*100, 4))
	if eps == 0 {
		return p
	}
	return Shift(p, eps)
}

// P is Percent without an offset.
func (t Timeline) P(ms float64) float64 { return t.Percent(ms, 0) }

// Shift adds eps to an already projected percent.
func Shift(p, eps float64) float64 { return clampPct(vector.FloatRound(p+eps, 4)) }

func clampPct(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// TimelineCursor is the running position on the global timeline. Builders
// receive its Now and the shared Timeline instead of reading outer state.
type TimelineCursor struct {
	Timeline Timeline
	Now      int
}

func NewTimelineCursor(totalMs int) *TimelineCursor {
	return &TimelineCursor{Timeline: NewTimeline(totalMs)}
}

// Advance moves the cursor past an action and returns the action's start.
func (c *TimelineCursor) Advance(durationMs int) int {
	start := c.Now
	c.Now += durationMs
	return start
}

// Done reports whether the cursor reached the end of the timeline.
func (c *TimelineCursor) Done() bool { return float64(c.Now) >= c.Timeline.TotalMs }
