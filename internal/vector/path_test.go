/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestPathBounds(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.Close()

	b := p.Bounds()
	if b.X != 0 || b.Y != 0 || b.W != 10 || b.H != 10 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	var empty Path
	if got := empty.Bounds(); got != (Rect{}) {
		t.Fatalf("empty path should have zero bounds, got %+v", got)
	}
}

func TestParsePathDataRelativeAndCompact(t *testing.T) {
	p, err := ParsePathData("M10 10h20v5l-5-5.5 .5.5zm1,1 2,2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := p.Bounds()
	if b.X != 10 || b.Y != 9.5 || b.W != 20 || b.H != 5.5 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}

func TestParsePathDataCurves(t *testing.T) {
	p, err := ParsePathData("M0 0 C 0 -10 20 -10 20 0 S 40 10 40 0 Q 50 -20 60 0 T 80 0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := p.Bounds()
	if b.X != 0 || b.W != 80 || b.Y != -20 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
}

func TestParsePathDataErrors(t *testing.T) {
	if _, err := ParsePathData("10 10"); err == nil {
		t.Fatalf("expected error for missing command")
	}
	if _, err := ParsePathData("M 10"); err == nil {
		t.Fatalf("expected error for truncated coordinates")
	}
}
