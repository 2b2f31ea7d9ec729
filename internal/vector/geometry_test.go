/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
}

func TestClampToViewport(t *testing.T) {
	r := R(-20, 700, 100, 50).ClampTo(1280, 720)
	if r.X != 0 || r.Y != 700 || r.W != 80 || r.H != 20 {
		t.Fatalf("unexpected clamp: %+v", r)
	}
	out := R(2000, 10, 10, 10).ClampTo(1280, 720)
	if !out.Empty() {
		t.Fatalf("rect outside viewport should collapse: %+v", out)
	}
}

func TestBoundsAccumulatesTransformedRects(t *testing.T) {
	var b Bounds
	if b.IsSet() {
		t.Fatalf("zero bounds should be unset")
	}
	b.AddRect(R(0, 0, 10, 10), Translate(5, 5))
	b.AddRect(R(0, 0, 10, 10), Scale(3, 1))
	got := b.Rect()
	if got.X != 0 || got.Y != 0 || got.W != 30 || got.H != 15 {
		t.Fatalf("unexpected union: %+v", got)
	}
}

func TestFloatRound(t *testing.T) {
	if got := FloatRound(50.123456, 4); got != 50.1235 {
		t.Fatalf("FloatRound = %v", got)
	}
	if got := Dist(Pt{0, 0}, Pt{3, 4}); got != 5 {
		t.Fatalf("Dist = %v", got)
	}
}

func TestClampInAndFitViewBox(t *testing.T) {
	got := R(-10, 5, 50, 50).ClampIn(R(0, 10, 30, 30))
	if got != R(0, 10, 30, 30) {
		t.Fatalf("ClampIn = %+v", got)
	}
	m := FitViewBox(R(0, 0, 100, 50), R(0, 0, 200, 200))
	// scale 2, centered vertically: (200 - 100) / 2 = 50
	if p := m.Apply(Pt{100, 50}); p != (Pt{200, 150}) {
		t.Fatalf("mapped corner = %+v", p)
	}
	if FitViewBox(R(10, 10, 40, 20), R(10, 10, 40, 20)) != (Affine2D{A: 1, D: 1}) {
		t.Fatalf("identical boxes must map to identity")
	}
}
