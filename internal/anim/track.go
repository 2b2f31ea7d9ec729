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
	"strings"

	"svgif/internal/svgdoc"
)

// Decl is one CSS declaration.
type Decl struct {
	Prop  string
	Value string
}

func D(prop, value string) Decl { return Decl{Prop: prop, Value: value} }

// Stop is one keyframe.
type Stop struct {
	Percent float64
	Decls   []Decl
}

// Family selects the timing function a track is rendered with.
type Family uint8

const (
	FamilyTrack   Family = iota // reveals, visibility, camera
	FamilyPointer               // pointer motion
	FamilyLinear                // progress bars and the scrubber
)

// Target identifies an element by scene index and the ElementID it got when
// its scene was parsed. Overlay elements created for the output document use
// OverlayScene.
type Target struct {
	Scene int
	ID    svgdoc.ElementID
}

const OverlayScene = -1

// Track is a named keyframe list owned by exactly one element. An element
// never carries two tracks; a second effect on the same element goes to a
// wrapper group.
type Track struct {
	Name   string
	Target Target
	Family Family
	Static []Decl // written on the element rule, e.g. transform-origin
	Stops  []Stop
}

func NewTrack(name string, target Target, family Family) *Track {
	return &Track{Name: name, Target: target, Family: family}
}

// Add appends a stop. A stop at the same percent as the previous one with
// the same declarations is dropped; percents are clamped to keep the list
// weakly increasing.
func (t *Track) Add(percent float64, decls ...Decl) {
	if n := len(t.Stops); n > 0 {
		last := t.Stops[n-1]
		if percent < last.Percent {
			percent = last.Percent
		}
		if percent == last.Percent && sameDecls(last.Decls, decls) {
			return
		}
	}
	t.Stops = append(t.Stops, Stop{Percent: percent, Decls: decls})
}

// Last returns the final stop percent, or -1 for an empty track.
func (t *Track) Last() float64 {
	if len(t.Stops) == 0 {
		return -1
	}
	return t.Stops[len(t.Stops)-1].Percent
}

// Check verifies that percents never decrease and that two stops sharing a
// percent never declare different values.
func (t *Track) Check() error {
	for i := 1; i < len(t.Stops); i++ {
		a, b := t.Stops[i-1], t.Stops[i]
		if b.Percent < a.Percent {
			return fmt.Errorf("track %s: stop %d at %.4f%% precedes %.4f%%", t.Name, i, b.Percent, a.Percent)
		}
		if b.Percent == a.Percent && !sameDecls(a.Decls, b.Decls) {
			return fmt.Errorf("track %s: conflicting stops at %.4f%%", t.Name, b.Percent)
		}
	}
	for _, s := range t.Stops {
		if s.Percent < 0 || s.Percent > 100 {
			return fmt.Errorf("track %s: stop at %.4f%% out of range", t.Name, s.Percent)
		}
	}
	return nil
}

// ValueAt returns the value of prop in effect at percent p with step
// semantics: the last stop at or before p that declares prop wins. Before
// the first such stop the first declared value applies, as CSS does.
func (t *Track) ValueAt(prop string, p float64) string {
	val, seen := "", false
	for _, s := range t.Stops {
		for _, d := range s.Decls {
			if d.Prop != prop {
				continue
			}
			if s.Percent <= p || !seen {
				val, seen = d.Value, true
			}
		}
		if s.Percent > p && seen {
			break
		}
	}
	return val
}

func sameDecls(a, b []Decl) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatDecls(ds []Decl) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.Prop + ": " + d.Value + ";"
	}
	return strings.Join(parts, " ")
}
