/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compiler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"svgif/internal/svgdoc"
	"svgif/internal/textlayout"
	"svgif/internal/vector"
)

const geometryFixture = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
  <defs><rect id="tile" width="5" height="5"/></defs>
  <g id="scaled" transform="translate(10,20) scale(2)"><rect x="1" y="1" width="2" height="3"/></g>
  <rect id="edge" x="-10" y="10" width="50" height="10"/>
  <use id="inst" href="#tile" x="10" y="10"/>
  <circle id="dot" cx="50" cy="50" r="5"/>
  <path id="tri" d="M60 60 L70 60 L65 70 Z"/>
  <g id="mixed"><rect x="0" y="0" width="4" height="4"/><rect x="80" y="80" width="9" height="9" style="display: none"/></g>
  <text id="label" x="10" y="40" font-size="13">abcd</text>
  <text id="centered" x="50" y="40" font-size="13" text-anchor="middle">abcd</text>
  <g font-size="13"><text id="spans" x="0" y="90"><tspan>ab</tspan><tspan>cde</tspan></text></g>
  <g id="empty"/>
</svg>`

func attach(t *testing.T) (*svgdoc.Document, Measurement) {
	t.Helper()
	d := mustDoc(t, geometryFixture)
	m, err := GeometryProbe{Text: textlayout.BasicProvider{}}.Attach(d.Root, vector.R(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	t.Cleanup(m.Release)
	return d, m
}

func TestGeometryProbe_BBox(t *testing.T) {
	d, m := attach(t)
	cases := map[string]vector.Rect{
		"#scaled":   vector.R(12, 22, 4, 6),
		"#edge":     vector.R(0, 10, 40, 10),
		"#inst":     vector.R(10, 10, 5, 5),
		"#dot":      vector.R(45, 45, 10, 10),
		"#tri":      vector.R(60, 60, 10, 10),
		"#mixed":    vector.R(0, 0, 4, 4),
		"#label":    vector.R(10, 29, 28, 13),
		"#centered": vector.R(36, 29, 28, 13),
		"#spans":    vector.R(0, 79, 35, 13),
	}
	for sel, want := range cases {
		n, _ := svgdoc.QueryOne(d.Root, sel)
		got, err := m.BBox(n)
		if err != nil {
			t.Errorf("%s: %v", sel, err)
			continue
		}
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("%s (-want +got):\n%s", sel, d)
		}
	}
}

func TestGeometryProbe_TspanBox(t *testing.T) {
	d, m := attach(t)
	spans, _ := svgdoc.QueryAll(d.Root, "#spans tspan")
	got, err := m.BBox(spans[1])
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	if d := cmp.Diff(vector.R(14, 79, 21, 13), got); d != "" {
		t.Fatalf("(-want +got):\n%s", d)
	}
}

func TestGeometryProbe_TextWidth(t *testing.T) {
	d, m := attach(t)
	label, _ := svgdoc.QueryOne(d.Root, "#label")
	if w, err := m.TextWidth(label); err != nil || w != 28 {
		t.Fatalf("width = %v, %v", w, err)
	}
	spans, _ := svgdoc.QueryAll(d.Root, "#spans tspan")
	if w, _ := m.TextWidth(spans[0]); w != 14 {
		t.Fatalf("inherited font size not applied: %v", w)
	}
}

func TestGeometryProbe_Failures(t *testing.T) {
	d, m := attach(t)
	empty, _ := svgdoc.QueryOne(d.Root, "#empty")
	if _, err := m.BBox(empty); !errors.Is(err, errNoBounds) {
		t.Fatalf("empty group: %v", err)
	}
	other := mustDoc(t, `<svg xmlns="http://www.w3.org/2000/svg"><rect width="1" height="1"/></svg>`)
	if _, err := m.BBox(other.Root.Elements()[0]); err == nil {
		t.Fatalf("foreign element measured")
	}
	m.Release()
	dot, _ := svgdoc.QueryOne(d.Root, "#dot")
	if _, err := m.BBox(dot); !errors.Is(err, errReleased) {
		t.Fatalf("released: %v", err)
	}
}

func TestTextRuns(t *testing.T) {
	d := mustDoc(t, `<svg xmlns="http://www.w3.org/2000/svg"><g id="t">
	  <text>plain</text>
	  <text><tspan>a</tspan><tspan>b</tspan></text>
	</g></svg>`)
	root, _ := svgdoc.QueryOne(d.Root, "#t")
	var names []string
	for _, n := range TextRuns(root) {
		names = append(names, n.Name)
	}
	if d := cmp.Diff([]string{"text", "tspan", "tspan"}, names); d != "" {
		t.Fatalf("(-want +got):\n%s", d)
	}
}

func TestFontFamilies(t *testing.T) {
	d := mustDoc(t, `<svg xmlns="http://www.w3.org/2000/svg">
	  <text font-family="'Inter', sans-serif">a</text>
	  <g style="font-family: Roboto Mono; fill: red"><text font-family="Inter">b</text></g>
	</svg>`)
	if d := cmp.Diff([]string{"Inter", "Roboto Mono"}, FontFamilies(d.Root)); d != "" {
		t.Fatalf("(-want +got):\n%s", d)
	}
}
