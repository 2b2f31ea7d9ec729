/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"math"
	"strings"
)

// ParseTransform parses an SVG transform list such as
// "translate(10 20) rotate(45 5 5) scale(2)". Transforms compose left to
// right, so the rightmost one is applied to the point first.
func ParseTransform(s string) (Affine2D, error) {
	m := Identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			return Identity, fmt.Errorf("transform: missing '(' in %q", rest)
		}
		name := strings.TrimSpace(rest[:open])
		closeIdx := strings.IndexByte(rest[open:], ')')
		if closeIdx < 0 {
			return Identity, fmt.Errorf("transform: missing ')' after %s", name)
		}
		args, err := transformArgs(rest[open+1 : open+closeIdx])
		if err != nil {
			return Identity, fmt.Errorf("transform %s: %w", name, err)
		}
		t, err := transformFor(name, args)
		if err != nil {
			return Identity, err
		}
		m = m.Mul(t)
		rest = strings.TrimLeft(rest[open+closeIdx+1:], " \t\r\n,")
	}
	return m, nil
}

func transformArgs(s string) ([]float64, error) {
	sc := &pathScanner{src: s}
	var out []float64
	for {
		sc.skipSep()
		if sc.eof() {
			return out, nil
		}
		v, err := sc.number()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func transformFor(name string, a []float64) (Affine2D, error) {
	deg := func(v float64) float64 { return v * math.Pi / 180 }
	switch name {
	case "matrix":
		if len(a) != 6 {
			break
		}
		return Affine2D{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]}, nil
	case "translate":
		switch len(a) {
		case 1:
			return Translate(a[0], 0), nil
		case 2:
			return Translate(a[0], a[1]), nil
		}
	case "scale":
		switch len(a) {
		case 1:
			return Scale(a[0], a[0]), nil
		case 2:
			return Scale(a[0], a[1]), nil
		}
	case "rotate":
		switch len(a) {
		case 1:
			return Rotate(deg(a[0])), nil
		case 3:
			return Translate(a[1], a[2]).Mul(Rotate(deg(a[0]))).Mul(Translate(-a[1], -a[2])), nil
		}
	case "skewX":
		if len(a) == 1 {
			return Affine2D{A: 1, C: math.Tan(deg(a[0])), D: 1}, nil
		}
	case "skewY":
		if len(a) == 1 {
			return Affine2D{A: 1, B: math.Tan(deg(a[0])), D: 1}, nil
		}
	default:
		return Identity, fmt.Errorf("transform: unknown function %q", name)
	}
	return Identity, fmt.Errorf("transform %s: unexpected argument count %d", name, len(a))
}
