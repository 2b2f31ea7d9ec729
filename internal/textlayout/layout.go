/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Abstractions for deterministic text measurement and layout.
// All text measurement sits behind Provider so tests can run against the
// built-in bitmap face while real builds use the configured font files.

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultSizePx is used when a text element carries no font-size.
const DefaultSizePx = 16

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePx float64
	Weight int // 100..900
	Italic bool
}

func (s FontSpec) withDefaults() FontSpec {
	if s.SizePx <= 0 {
		s.SizePx = DefaultSizePx
	}
	return s
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Face is a resolved font face. Scale converts the face's native advance to
// the requested size for faces that only exist at one size.
type Face struct {
	font.Face
	Scale   float64
	Metrics Metrics
}

// Span is a run of text with the same font/style.
type Span struct {
	Text string
	Font FontSpec
}

// Line is a single laid out line with width and ascent/descent.
type Line struct {
	Spans   []Span
	Width   float64
	Ascent  float64
	Descent float64
}

// TextBox is the result of laying out text into a box width.
type TextBox struct {
	Lines   []Line
	Width   float64
	Height  float64
	Metrics Metrics
}

// Provider maps FontSpec to a concrete face.
type Provider interface {
	Resolve(FontSpec) Face
}

// Layouter performs line-breaking and measurement.
type Layouter interface {
	Layout(spans []Span, maxWidth float64) (TextBox, error)
}

// BasicProvider uses x/image/basicfont Face7x13 scaled to the requested size.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) Face {
	spec = spec.withDefaults()
	f := basicfont.Face7x13
	scale := spec.SizePx / float64(f.Height)
	m := f.Metrics()
	return Face{
		Face:  f,
		Scale: scale,
		Metrics: Metrics{
			Ascent:  fixedToPx(m.Ascent) * scale,
			Descent: fixedToPx(m.Descent) * scale,
			LineGap: (fixedToPx(m.Height) - fixedToPx(m.Ascent) - fixedToPx(m.Descent)) * scale,
		},
	}
}

// WordWrapLayouter is a simple layouter that breaks on spaces; it does not
// perform shaping or hyphenation.
type WordWrapLayouter struct{ Provider Provider }

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

func (l *WordWrapLayouter) Layout(spans []Span, maxWidth float64) (TextBox, error) {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	var spec FontSpec
	if len(spans) > 0 {
		spec = spans[0].Font
	}
	met := l.Provider.Resolve(spec).Metrics
	cur := Line{Ascent: met.Ascent, Descent: met.Descent}
	box := TextBox{Metrics: met}
	addLine := func() {
		box.Lines = append(box.Lines, cur)
		if cur.Width > box.Width {
			box.Width = cur.Width
		}
		box.Height += met.Ascent + met.Descent + met.LineGap
		cur = Line{Ascent: met.Ascent, Descent: met.Descent}
	}
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		face := l.Provider.Resolve(sp.Font)
		start := 0
		for i := 0; i <= len(sp.Text); i++ {
			if i == len(sp.Text) || sp.Text[i] == ' ' || sp.Text[i] == '\n' { // word boundary
				word := sp.Text[start:i]
				space := byte(0)
				if i < len(sp.Text) {
					space = sp.Text[i]
				}
				w := advance(face, word)
				// a word that alone exceeds maxWidth still gets its own line
				if cur.Width > 0 && cur.Width+w > maxWidth && maxWidth > 0 {
					addLine()
				}
				if word != "" {
					cur.Spans = append(cur.Spans, Span{Text: word, Font: sp.Font})
					cur.Width += w
				}
				if space == ' ' && cur.Width > 0 {
					cur.Spans = append(cur.Spans, Span{Text: " ", Font: sp.Font})
					cur.Width += advance(face, " ")
				} else if space == '\n' {
					addLine()
				}
				start = i + 1
			}
		}
	}
	// flush last line
	if len(cur.Spans) > 0 || len(box.Lines) == 0 {
		addLine()
	}
	return box, nil
}

// Text returns the line content with trailing spaces removed.
func (l Line) Text() string {
	s := ""
	for _, sp := range l.Spans {
		s += sp.Text
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func advance(f Face, s string) float64 {
	d := &font.Drawer{Face: f.Face}
	return fixedToPx(d.MeasureString(s)) * f.Scale
}

func fixedToPx(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Measure provides a quick way to measure text width/height without line-breaks.
func Measure(provider Provider, spans []Span) (w, h float64) {
	if provider == nil {
		provider = BasicProvider{}
	}
	var lineH float64
	for _, sp := range spans {
		face := provider.Resolve(sp.Font)
		w += advance(face, sp.Text)
		if lh := face.Metrics.Ascent + face.Metrics.Descent; lh > lineH {
			lineH = lh
		}
	}
	if lineH == 0 {
		met := provider.Resolve(FontSpec{}).Metrics
		lineH = met.Ascent + met.Descent
	}
	return w, lineH
}
