/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package anim

// RevealMode selects how an element appears.
type RevealMode uint8

const (
	RevealOpacity     RevealMode = iota // snap from transparent to opaque
	RevealGrow                          // opacity snap plus scale 0.2 to 1 around the center
	RevealTopToBottom                   // clip-path wipe downwards
	RevealLeftToRight                   // clip-path wipe to the right
)

func (m RevealMode) hidden() []Decl {
	switch m {
	case RevealGrow:
		return []Decl{D("opacity", "0"), D("transform", "scale(0.2)")}
	case RevealTopToBottom:
		return []Decl{D("opacity", "0"), D("clip-path", "inset(0 0 100% 0)")}
	case RevealLeftToRight:
		return []Decl{D("opacity", "0"), D("clip-path", "inset(0 100% 0 0)")}
	}
	return []Decl{D("opacity", "0")}
}

// entering is the state right after the opacity snap, before the wipe or
// growth has progressed.
func (m RevealMode) entering() []Decl {
	h := m.hidden()
	out := make([]Decl, len(h))
	copy(out, h)
	out[0] = D("opacity", "1")
	return out
}

func (m RevealMode) shown() []Decl {
	switch m {
	case RevealGrow:
		return []Decl{D("opacity", "1"), D("transform", "scale(1)")}
	case RevealTopToBottom, RevealLeftToRight:
		return []Decl{D("opacity", "1"), D("clip-path", "inset(0 0 0 0)")}
	}
	return []Decl{D("opacity", "1")}
}

// Reveal builds the appearance track of one element between two projected
// percents: hidden until from, opacity snap across [from, from+Epsilon],
// fully revealed at to, then held to 100%.
func Reveal(name string, target Target, from, to float64, mode RevealMode) *Track {
	t := NewTrack(name, target, FamilyTrack)
	if mode == RevealGrow {
		t.Static = []Decl{D("transform-box", "fill-box"), D("transform-origin", "center")}
	}
	if to < from {
		to = from
	}
	if from > 0 {
		t.Add(0, mode.hidden()...)
	}
	t.Add(from, mode.hidden()...)
	snap := Shift(from, Epsilon)
	if mode != RevealOpacity && to > snap {
		t.Add(snap, mode.entering()...)
		t.Add(to, mode.shown()...)
	} else {
		t.Add(snap, mode.shown()...)
		if to > snap {
			t.Add(to, mode.shown()...)
		}
	}
	if t.Last() < 100 {
		t.Add(100, mode.shown()...)
	}
	return t
}
