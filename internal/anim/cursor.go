/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package anim

import (
	"fmt"
	"math"

	"svgif/internal/vector"
)

// Pointer click geometry defaults.
const (
	MaxClickOffsetX = 60.0
	MaxClickOffsetY = 30.0
	// HoverLeadMinMs is the shortest time a hover-revealed element is shown
	// before the click lands.
	HoverLeadMinMs = 300.0
	// HoverMsPerPx estimates pointer travel time from distance.
	HoverMsPerPx = 4.0
)

// Movement is one pointer segment, in percent of the global timeline.
// Linger is nil when the pointer hides right after arriving.
type Movement struct {
	From, To float64
	Linger   *float64
	Target   vector.Pt
}

// ClickTarget is the point the pointer aims at inside box. A nil offset
// uses min(60, w/2), min(30, h/2).
func ClickTarget(box vector.Rect, offset *vector.Pt) vector.Pt {
	if offset != nil {
		return vector.Pt{X: box.X + offset.X, Y: box.Y + offset.Y}
	}
	return vector.Pt{
		X: box.X + math.Min(MaxClickOffsetX, box.W/2),
		Y: box.Y + math.Min(MaxClickOffsetY, box.H/2),
	}
}

// Click describes a click action on the global timeline.
type Click struct {
	StartMs           int
	DurationMs        int
	WaitBeforeClickMs int
	LingerMs          int  // 0 disables the dwell
	ClickFollows      bool // the next action is another click
	Target            vector.Pt
}

// ClickEndMs is when the pointer reaches the target.
func (c Click) ClickEndMs() int { return c.StartMs + c.DurationMs - c.WaitBeforeClickMs }

// CursorTimeline accumulates pointer movements across all scenes and renders
// them into one track.
type CursorTimeline struct {
	tl    Timeline
	entry vector.Pt
	moves []Movement
}

// NewCursorTimeline starts at entry, usually the bottom center of the viewport.
func NewCursorTimeline(tl Timeline, entry vector.Pt) *CursorTimeline {
	return &CursorTimeline{tl: tl, entry: entry}
}

// Position is where the pointer currently rests.
func (c *CursorTimeline) Position() vector.Pt {
	if n := len(c.moves); n > 0 {
		return c.moves[n-1].Target
	}
	return c.entry
}

func (c *CursorTimeline) Movements() []Movement { return c.moves }

// AddMove appends a bare pointer move without dwell.
func (c *CursorTimeline) AddMove(startMs, durationMs int, target vector.Pt) Movement {
	m := Movement{
		From:   c.tl.P(float64(startMs)),
		To:     c.tl.P(float64(startMs + durationMs)),
		Target: target,
	}
	c.moves = append(c.moves, m)
	return m
}

// AddClick appends the movement of a click. The dwell is dropped when
// another click follows so the pointer does not flicker between them.
func (c *CursorTimeline) AddClick(k Click) (Movement, error) {
	if k.DurationMs <= k.WaitBeforeClickMs {
		return Movement{}, fmt.Errorf("click duration %dms must exceed waitBeforeClick %dms", k.DurationMs, k.WaitBeforeClickMs)
	}
	end := k.ClickEndMs()
	m := Movement{
		From:   c.tl.P(float64(k.StartMs)),
		To:     c.tl.P(float64(end)),
		Target: k.Target,
	}
	if k.LingerMs > 0 && !k.ClickFollows {
		l := c.tl.P(math.Min(c.tl.TotalMs, float64(end+k.LingerMs)))
		m.Linger = &l
	}
	c.moves = append(c.moves, m)
	return m, nil
}

// HoverAppearMs is when an element revealed on hover becomes visible: the
// estimated travel time before the click lands, never before the action.
func (c *CursorTimeline) HoverAppearMs(k Click) float64 {
	lead := math.Max(HoverLeadMinMs, vector.Dist(c.Position(), k.Target)*HoverMsPerPx)
	return math.Max(float64(k.StartMs), float64(k.ClickEndMs())-lead)
}

// Track renders the pointer track: for each movement the pointer appears at
// the previous target, travels to the new one, rests until the linger ends
// and disappears. When the next movement starts before that hide could be
// separated from it, the two movements are chained and the pointer stays
// visible in between.
func (c *CursorTimeline) Track(name string, target Target) *Track {
	t := NewTrack(name, target, FamilyPointer)
	if len(c.moves) > 0 && c.moves[0].From == 0 {
		t.Add(0, visibleAt(c.entry)...)
	} else {
		t.Add(0, hiddenAt(c.entry)...)
	}
	prev := c.entry
	for i, m := range c.moves {
		hideBefore := Shift(m.From, -Epsilon)
		if i > 0 {
			rest := c.moves[i-1].rest()
			if hide := Shift(rest, Epsilon); hide >= hideBefore {
				t.Add(math.Min(rest, m.From), visibleAt(prev)...)
			} else {
				t.Add(rest, visibleAt(prev)...)
				t.Add(hide, hiddenAt(prev)...)
				t.Add(hideBefore, hiddenAt(prev)...)
			}
		} else if m.From > 0 {
			t.Add(hideBefore, hiddenAt(prev)...)
		}
		t.Add(m.From, visibleAt(prev)...)
		t.Add(m.To, visibleAt(m.Target)...)
		prev = m.Target
	}
	if n := len(c.moves); n > 0 {
		rest := c.moves[n-1].rest()
		t.Add(rest, visibleAt(prev)...)
		if hide := Shift(rest, Epsilon); hide > rest {
			t.Add(hide, hiddenAt(prev)...)
		}
	}
	if t.Last() < 100 {
		t.Add(100, hiddenAt(prev)...)
	}
	return t
}

// rest is the percent until which the pointer stays at the target.
func (m Movement) rest() float64 {
	if m.Linger != nil && *m.Linger > m.To {
		return *m.Linger
	}
	return m.To
}

func visibleAt(p vector.Pt) []Decl {
	return []Decl{D("opacity", "1"), D("transform", translate(p))}
}

func hiddenAt(p vector.Pt) []Decl {
	return []Decl{D("opacity", "0"), D("transform", translate(p))}
}

func translate(p vector.Pt) string {
	return fmt.Sprintf("translate(%.2fpx, %.2fpx)", p.X, p.Y)
}
