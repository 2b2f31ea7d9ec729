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
	"strconv"
)

// Path commands and shapes.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Bounds returns an axis-aligned bounding box of the path using a simple
// approximation by considering control points. Control points always enclose
// the curve, so the box is never too small.
func (p *Path) Bounds() Rect {
	var b Bounds
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			b.AddPt(Pt{c.Data[0], c.Data[1]})
		case QuadTo:
			b.AddPt(Pt{c.Data[0], c.Data[1]})
			b.AddPt(Pt{c.Data[2], c.Data[3]})
		case CubicTo:
			b.AddPt(Pt{c.Data[0], c.Data[1]})
			b.AddPt(Pt{c.Data[2], c.Data[3]})
			b.AddPt(Pt{c.Data[4], c.Data[5]})
		case Close:
			// no-op for bounds
		}
	}
	return b.Rect()
}

// ParsePathData parses the SVG path mini-language ("d" attribute) into
// absolute commands. Elliptical arcs are reduced to a line to their end
// point plus a quadratic control point offset by the radii, which keeps the
// bounds conservative.
func ParsePathData(d string) (Path, error) {
	var p Path
	s := &pathScanner{src: d}
	var cur, start, lastCtrl Pt
	var cmd byte
	var prevOp byte
	for {
		s.skipSep()
		if s.eof() {
			break
		}
		if c := s.peek(); isPathCommand(c) {
			cmd = c
			s.pos++
		} else if cmd == 0 {
			return p, fmt.Errorf("path data: expected command at offset %d", s.pos)
		}
		rel := cmd >= 'a' && cmd <= 'z'
		abs := func(x, y float64) Pt {
			if rel {
				return Pt{cur.X + x, cur.Y + y}
			}
			return Pt{x, y}
		}
		switch cmd {
		case 'M', 'm':
			v, err := s.numbers(2)
			if err != nil {
				return p, err
			}
			cur = abs(v[0], v[1])
			start = cur
			p.MoveTo(cur.X, cur.Y)
			// subsequent pairs are implicit lineto
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'L', 'l':
			v, err := s.numbers(2)
			if err != nil {
				return p, err
			}
			cur = abs(v[0], v[1])
			p.LineTo(cur.X, cur.Y)
		case 'H', 'h':
			v, err := s.numbers(1)
			if err != nil {
				return p, err
			}
			if rel {
				cur.X += v[0]
			} else {
				cur.X = v[0]
			}
			p.LineTo(cur.X, cur.Y)
		case 'V', 'v':
			v, err := s.numbers(1)
			if err != nil {
				return p, err
			}
			if rel {
				cur.Y += v[0]
			} else {
				cur.Y = v[0]
			}
			p.LineTo(cur.X, cur.Y)
		case 'C', 'c':
			v, err := s.numbers(6)
			if err != nil {
				return p, err
			}
			c1, c2, end := abs(v[0], v[1]), abs(v[2], v[3]), abs(v[4], v[5])
			p.CubicTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
			lastCtrl, cur = c2, end
		case 'S', 's':
			v, err := s.numbers(4)
			if err != nil {
				return p, err
			}
			c1 := cur
			if prevOp == 'C' || prevOp == 'S' {
				c1 = Pt{2*cur.X - lastCtrl.X, 2*cur.Y - lastCtrl.Y}
			}
			c2, end := abs(v[0], v[1]), abs(v[2], v[3])
			p.CubicTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
			lastCtrl, cur = c2, end
		case 'Q', 'q':
			v, err := s.numbers(4)
			if err != nil {
				return p, err
			}
			c, end := abs(v[0], v[1]), abs(v[2], v[3])
			p.QuadTo(c.X, c.Y, end.X, end.Y)
			lastCtrl, cur = c, end
		case 'T', 't':
			v, err := s.numbers(2)
			if err != nil {
				return p, err
			}
			c := cur
			if prevOp == 'Q' || prevOp == 'T' {
				c = Pt{2*cur.X - lastCtrl.X, 2*cur.Y - lastCtrl.Y}
			}
			end := abs(v[0], v[1])
			p.QuadTo(c.X, c.Y, end.X, end.Y)
			lastCtrl, cur = c, end
		case 'A', 'a':
			v, err := s.numbers(7)
			if err != nil {
				return p, err
			}
			end := abs(v[5], v[6])
			rx, ry := abs64(v[0]), abs64(v[1])
			mid := Pt{(cur.X + end.X) / 2, (cur.Y + end.Y) / 2}
			p.QuadTo(mid.X-rx, mid.Y-ry, end.X, end.Y)
			p.LineTo(mid.X+rx, mid.Y+ry)
			p.LineTo(end.X, end.Y)
			cur = end
		case 'Z', 'z':
			p.Close()
			cur = start
		default:
			return p, fmt.Errorf("path data: unknown command %q", cmd)
		}
		prevOp = upper(cmd)
	}
	return p, nil
}

func isPathCommand(c byte) bool {
	switch upper(c) {
	case 'M', 'L', 'H', 'V', 'C', 'S', 'Q', 'T', 'A', 'Z':
		return true
	}
	return false
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// pathScanner tokenizes numbers in SVG path and transform lists, handling the
// compact forms "1-2", "1.5.5" and exponents.
type pathScanner struct {
	src string
	pos int
}

func (s *pathScanner) eof() bool  { return s.pos >= len(s.src) }
func (s *pathScanner) peek() byte { return s.src[s.pos] }

func (s *pathScanner) skipSep() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\n', '\r', ',':
			s.pos++
		default:
			return
		}
	}
}

func (s *pathScanner) numbers(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := s.number()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *pathScanner) number() (float64, error) {
	s.skipSep()
	start := s.pos
	if !s.eof() && (s.peek() == '-' || s.peek() == '+') {
		s.pos++
	}
	dot, digits := false, false
	for !s.eof() {
		c := s.peek()
		switch {
		case c >= '0' && c <= '9':
			digits = true
			s.pos++
		case c == '.' && !dot:
			dot = true
			s.pos++
		case (c == 'e' || c == 'E') && digits:
			s.pos++
			if !s.eof() && (s.peek() == '-' || s.peek() == '+') {
				s.pos++
			}
		default:
			goto done
		}
	}
done:
	if !digits {
		return 0, fmt.Errorf("path data: expected number at offset %d", start)
	}
	v, err := strconv.ParseFloat(s.src[start:s.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("path data: %w", err)
	}
	return v, nil
}
