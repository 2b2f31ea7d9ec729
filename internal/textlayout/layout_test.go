/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"math"
	"testing"
)

func TestWordWrap_Naive(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box, err := l.Layout([]Span{{Text: "Hello world from Go", Font: FontSpec{SizePx: 13}}}, 50)
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(box.Lines))
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("expected positive box size: %+v", box)
	}
	if got := box.Lines[0].Text(); got != "Hello" {
		t.Fatalf("first line %q", got)
	}
}

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, []Span{{Text: "ABC"}})
	w2, h2 := Measure(BasicProvider{}, []Span{{Text: "A"}, {Text: "BC"}})
	if w1 != w2 || h1 != h2 {
		t.Fatalf("expected same measure, got w1=%v h1=%v vs w2=%v h2=%v", w1, h1, w2, h2)
	}
}

func TestMeasure_ScalesWithSize(t *testing.T) {
	// Face7x13 advances 7px per glyph at its native 13px.
	w13, _ := Measure(BasicProvider{}, []Span{{Text: "abcd", Font: FontSpec{SizePx: 13}}})
	w26, _ := Measure(BasicProvider{}, []Span{{Text: "abcd", Font: FontSpec{SizePx: 26}}})
	if math.Abs(w13-28) > 1e-9 {
		t.Fatalf("native width = %v, want 28", w13)
	}
	if math.Abs(w26-2*w13) > 1e-9 {
		t.Fatalf("double size width = %v, want %v", w26, 2*w13)
	}
}

func TestOTProvider_FallsBackWithoutFonts(t *testing.T) {
	p := OTProvider{Lib: NewFontLibrary()}
	f := p.Resolve(FontSpec{Family: "Missing", SizePx: 13})
	if f.Scale != 1 {
		t.Fatalf("fallback scale at native size = %v, want 1", f.Scale)
	}
	if len(p.Lib.Embedded()) != 0 {
		t.Fatalf("empty library must not embed fonts")
	}
}

func TestFontLibrary_RejectsInvalidData(t *testing.T) {
	fl := NewFontLibrary()
	if err := fl.Add("Broken", 400, false, "truetype", []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := fl.LoadTTF("Missing", 400, false, t.TempDir()+"/none.ttf"); err == nil {
		t.Fatalf("expected read error")
	}
}
