/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compiler

import (
	"fmt"
	"strconv"

	"svgif/internal/anim"
	"svgif/internal/apperr"
	"svgif/internal/svgdoc"
	"svgif/internal/textlayout"
)

// Caption box geometry in output units.
const (
	captionPadding = 12.0
	captionMargin  = 24.0
	captionBarH    = 4.0
	captionMaxFrac = 0.8
)

// pointerPath is an arrow with its tip at the origin.
const pointerPath = "M0 0L0 20L5.5 15L9.5 23.5L13 22L9 13.5L16 13.5Z"

// caption adds the scene's caption box with its progress bar to the scene
// group, centered at the bottom of the output viewport. The box is a seek
// target: clicking it jumps to the scene start.
func (b *build) caption(i int, group *svgdoc.Node, text string, startMs, endMs int, w apperr.Where) (*svgdoc.Node, error) {
	font := textlayout.FontSpec{Family: b.opts.CaptionFontFamily, SizePx: b.opts.CaptionFontSize, Weight: 400}
	box, err := textlayout.NewWordWrap(b.cc.Text).Layout([]textlayout.Span{{Text: text, Font: font}}, b.view.W*captionMaxFrac)
	if err != nil {
		return nil, apperr.Measurement(w, "caption layout").Wrap(err)
	}
	if box.Width <= 0 || box.Height <= 0 {
		return nil, apperr.Measurement(w, "caption text has no measurable size")
	}
	b.cc.UseFamily(font.Family)

	bw := box.Width + 2*captionPadding
	bh := box.Height + 2*captionPadding + captionBarH
	x := b.view.X + (b.view.W-bw)/2
	y := b.view.Y + b.view.H - bh - captionMargin
	out := b.out

	g := out.NewElement("g",
		svgdoc.Attr{Name: "class", Value: "svgif-caption svgif-seek"},
		svgdoc.Attr{Name: "data-seek-start", Value: strconv.Itoa(startMs)},
		svgdoc.Attr{Name: "data-seek-duration", Value: strconv.Itoa(endMs - startMs)})
	g.AppendChild(out.NewElement("rect",
		svgdoc.Attr{Name: "x", Value: fx(x)},
		svgdoc.Attr{Name: "y", Value: fx(y)},
		svgdoc.Attr{Name: "width", Value: fx(bw)},
		svgdoc.Attr{Name: "height", Value: fx(bh)},
		svgdoc.Attr{Name: "rx", Value: "8"},
		svgdoc.Attr{Name: "fill", Value: "#111827"},
		svgdoc.Attr{Name: "fill-opacity", Value: "0.85"}))

	lineH := box.Metrics.Ascent + box.Metrics.Descent + box.Metrics.LineGap
	baseline := y + captionPadding + box.Metrics.Ascent
	for k, line := range box.Lines {
		attrs := []svgdoc.Attr{
			{Name: "x", Value: fx(x + bw/2)},
			{Name: "y", Value: fx(baseline + float64(k)*lineH)},
			{Name: "text-anchor", Value: "middle"},
			{Name: "font-size", Value: fx(font.SizePx)},
			{Name: "fill", Value: "#ffffff"},
		}
		if font.Family != "" {
			attrs = append(attrs, svgdoc.Attr{Name: "font-family", Value: font.Family})
		}
		t := out.NewElement("text", attrs...)
		t.AppendChild(svgdoc.NewText(line.Text()))
		g.AppendChild(t)
	}

	bar := out.NewElement("rect",
		svgdoc.Attr{Name: "class", Value: "svgif-progress"},
		svgdoc.Attr{Name: "x", Value: fx(x)},
		svgdoc.Attr{Name: "y", Value: fx(y + bh - captionBarH)},
		svgdoc.Attr{Name: "width", Value: "0"},
		svgdoc.Attr{Name: "height", Value: fx(captionBarH)},
		svgdoc.Attr{Name: "fill", Value: "#60a5fa"})
	g.AppendChild(bar)
	group.AppendChild(g)

	tl := b.cur.Timeline
	if err := b.add(progressTrack(fmt.Sprintf("scene-%d-progress", i), overlay(bar), tl.P(float64(startMs)), tl.P(float64(endMs)), bw), w); err != nil {
		return nil, err
	}
	return g, nil
}

// progressTrack fills a bar linearly across [from, to] and empties it at to.
func progressTrack(name string, target anim.Target, from, to, full float64) *anim.Track {
	empty := anim.D("width", "0px")
	t := anim.NewTrack(name, target, anim.FamilyLinear)
	t.Add(0, empty)
	fill, done := anim.Shift(from, anim.Epsilon), anim.Shift(to, -anim.Epsilon)
	t.Add(fill, empty)
	if done > fill {
		t.Add(done, anim.D("width", fmt.Sprintf("%.2fpx", full)))
	}
	t.Add(to, empty)
	t.Add(100, empty)
	return t
}

// pointer adds the cursor element above every scene and gives it the
// pointer track.
func (b *build) pointer() error {
	g := b.out.NewElement("g",
		svgdoc.Attr{Name: "id", Value: "cursor"},
		svgdoc.Attr{Name: "class", Value: "svgif-cursor"})
	g.AppendChild(b.out.NewElement("path",
		svgdoc.Attr{Name: "d", Value: pointerPath},
		svgdoc.Attr{Name: "fill", Value: "#ffffff"},
		svgdoc.Attr{Name: "stroke", Value: "#000000"},
		svgdoc.Attr{Name: "stroke-width", Value: "1.2"},
		svgdoc.Attr{Name: "stroke-linejoin", Value: "round"}))
	b.out.Root.AppendChild(g)
	t := b.cursor.Track("cursor", overlay(g))
	t.Static = []anim.Decl{anim.D("pointer-events", "none")}
	if err := b.add(t, apperr.Global); err != nil {
		return err
	}
	b.res.Pointer = g
	return nil
}

func fx(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
