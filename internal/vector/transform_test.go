/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseTransformComposition(t *testing.T) {
	m, err := ParseTransform("translate(10, 20) scale(2)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := m.Apply(Pt{1, 1})
	if !near(p.X, 12) || !near(p.Y, 22) {
		t.Fatalf("scale must apply before translate, got %+v", p)
	}
}

func TestParseTransformRotateAroundPoint(t *testing.T) {
	m, err := ParseTransform("rotate(90 10 10)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := m.Apply(Pt{20, 10})
	if !near(p.X, 10) || !near(p.Y, 20) {
		t.Fatalf("unexpected rotated point %+v", p)
	}
}

func TestParseTransformMatrixAndEmpty(t *testing.T) {
	m, err := ParseTransform("matrix(1 0 0 1 5 -5)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m != Translate(5, -5) {
		t.Fatalf("unexpected matrix %+v", m)
	}
	id, err := ParseTransform("  ")
	if err != nil || id != Identity {
		t.Fatalf("empty transform should be identity, got %+v %v", id, err)
	}
}

func TestParseTransformErrors(t *testing.T) {
	for _, in := range []string{"translate(1", "wobble(3)", "scale()", "rotate(1 2)"} {
		if _, err := ParseTransform(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
