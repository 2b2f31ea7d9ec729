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
)

// StyleSheet collects tracks by unique name and serializes them to CSS at
// the very end of a build.
type StyleSheet struct {
	tracks []*Track
	names  map[string]bool
	claims map[Target]string
}

func NewStyleSheet() *StyleSheet {
	return &StyleSheet{names: map[string]bool{}, claims: map[Target]string{}}
}

// Add registers a track. Names and targets must both be unused.
func (s *StyleSheet) Add(t *Track) error {
	if t.Name == "" {
		return fmt.Errorf("track without name")
	}
	if s.names[t.Name] {
		return fmt.Errorf("duplicate track name %q", t.Name)
	}
	if owner, ok := s.claims[t.Target]; ok {
		return fmt.Errorf("track %q targets element already animated by %q", t.Name, owner)
	}
	if err := t.Check(); err != nil {
		return err
	}
	s.names[t.Name] = true
	s.claims[t.Target] = t.Name
	s.tracks = append(s.tracks, t)
	return nil
}

// Claimed reports whether an element already owns a track.
func (s *StyleSheet) Claimed(id Target) bool {
	_, ok := s.claims[id]
	return ok
}

// Tracks returns the registered tracks in insertion order.
func (s *StyleSheet) Tracks() []*Track { return s.tracks }

// Track looks a track up by name.
func (s *StyleSheet) Track(name string) *Track {
	for _, t := range s.tracks {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Targets lists every animated element.
func (s *StyleSheet) Targets() map[Target]bool {
	out := make(map[Target]bool, len(s.claims))
	for id := range s.claims {
		out[id] = true
	}
	return out
}

// RenderOptions control the animation shorthand.
type RenderOptions struct {
	TotalMs       int
	Loop          bool
	TrackTiming   string // default "ease-in-out"
	PointerTiming string // default "ease-out"
}

func (o RenderOptions) timing(f Family) string {
	switch f {
	case FamilyPointer:
		if o.PointerTiming != "" {
			return o.PointerTiming
		}
		return "ease-out"
	case FamilyLinear:
		return "linear"
	default:
		if o.TrackTiming != "" {
			return o.TrackTiming
		}
		return "ease-in-out"
	}
}

// Resolver maps an element to the CSS id it carries in the final document.
type Resolver func(Target) (string, bool)

// Render writes one @keyframes block and one element rule per track.
func (s *StyleSheet) Render(opts RenderOptions, resolve Resolver) (string, error) {
	var b strings.Builder
	iter := "infinite"
	if !opts.Loop {
		iter = "1 forwards"
	}
	for _, t := range s.tracks {
		id, ok := resolve(t.Target)
		if !ok {
			return "", fmt.Errorf("track %q: target element is not in the document", t.Name)
		}
		fmt.Fprintf(&b, "@keyframes %s {\n", t.Name)
		for _, st := range t.Stops {
			fmt.Fprintf(&b, "  %s%% { %s }\n", FormatPercent(st.Percent), formatDecls(st.Decls))
		}
		b.WriteString("}\n")
		fmt.Fprintf(&b, "#%s { ", id)
		if len(t.Static) > 0 {
			b.WriteString(formatDecls(t.Static))
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "animation: %s %dms %s %s; }\n", t.Name, opts.TotalMs, opts.timing(t.Family), iter)
	}
	return b.String(), nil
}

// FormatPercent renders a stop with four decimals.
func FormatPercent(p float64) string { return fmt.Sprintf("%.4f", p) }
