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
	"fmt"
	"strconv"
	"strings"

	"svgif/internal/svgdoc"
	"svgif/internal/textlayout"
	"svgif/internal/vector"
)

// BBoxProbe makes a scene measurable. The returned Measurement is valid until
// Release; the compiler releases it once every action of the scene has been
// measured.
type BBoxProbe interface {
	Attach(root *svgdoc.Node, view vector.Rect) (Measurement, error)
}

// Measurement answers geometry questions about one attached scene. Boxes are
// in the scene's user space, clamped to its view.
type Measurement interface {
	BBox(n *svgdoc.Node) (vector.Rect, error)
	TextWidth(n *svgdoc.Node) (float64, error)
	Release()
}

var (
	errReleased = errors.New("measurement already released")
	errNoBounds = errors.New("element has no measurable geometry")
)

// GeometryProbe measures scenes by walking their element tree: shapes,
// paths and transforms are evaluated directly and text is measured with the
// font provider.
type GeometryProbe struct {
	Text textlayout.Provider
}

func (p GeometryProbe) Attach(root *svgdoc.Node, view vector.Rect) (Measurement, error) {
	if root == nil || root.Name != "svg" {
		return nil, fmt.Errorf("attach: scene root is not <svg>")
	}
	text := p.Text
	if text == nil {
		text = textlayout.BasicProvider{}
	}
	return &geometry{root: root, view: view, text: text, ids: map[string]*svgdoc.Node{}}, nil
}

type geometry struct {
	root     *svgdoc.Node
	view     vector.Rect
	text     textlayout.Provider
	ids      map[string]*svgdoc.Node
	released bool
}

func (g *geometry) Release() {
	g.released = true
	g.ids = nil
}

// Elements that never render directly.
var nonRendering = map[string]bool{
	"defs": true, "clipPath": true, "mask": true, "marker": true, "pattern": true, "symbol": true,
	"linearGradient": true, "radialGradient": true, "filter": true, "style": true, "script": true,
	"title": true, "desc": true, "metadata": true,
}

func (g *geometry) BBox(n *svgdoc.Node) (vector.Rect, error) {
	if g.released {
		return vector.Rect{}, errReleased
	}
	if !g.root.Contains(n) {
		return vector.Rect{}, fmt.Errorf("element is not part of the attached scene")
	}
	var b vector.Bounds
	if n.Name == "tspan" || n.Name == "textPath" {
		text := enclosing(n, "text")
		if text == nil {
			return vector.Rect{}, errNoBounds
		}
		m := g.ctm(text).Mul(local(text))
		for _, r := range g.textRuns(text) {
			if n.Contains(r.node) || r.node.Contains(n) {
				b.AddRect(r.rect, m)
			}
		}
	} else {
		g.add(&b, n, g.ctm(n), 0)
	}
	if !b.IsSet() {
		return vector.Rect{}, errNoBounds
	}
	return b.Rect().ClampIn(g.view), nil
}

func (g *geometry) TextWidth(n *svgdoc.Node) (float64, error) {
	if g.released {
		return 0, errReleased
	}
	if v, ok := n.Attr("textLength"); ok {
		if w, err := svgdoc.Length(v); err == nil {
			return w, nil
		}
	}
	w, _ := textlayout.Measure(g.text, []textlayout.Span{{Text: collapse(n.TextContent()), Font: fontOf(n)}})
	return w, nil
}

// ctm is the transform from n's parent coordinates to the scene user space.
func (g *geometry) ctm(n *svgdoc.Node) vector.Affine2D {
	var chain []*svgdoc.Node
	for p := n.Parent; p != nil && p != g.root; p = p.Parent {
		chain = append(chain, p)
	}
	m := vector.Identity
	for i := len(chain) - 1; i >= 0; i-- {
		m = m.Mul(local(chain[i]))
	}
	return m
}

// local is the element's own transform, including x/y placement of nested
// viewports and <use>.
func local(n *svgdoc.Node) vector.Affine2D {
	m := vector.Identity
	if t, ok := n.Attr("transform"); ok {
		if parsed, err := vector.ParseTransform(t); err == nil {
			m = parsed
		}
	}
	if n.Name == "use" || n.Name == "svg" {
		x, y := n.Float("x", 0), n.Float("y", 0)
		if x != 0 || y != 0 {
			m = m.Mul(vector.Translate(x, y))
		}
	}
	return m
}

func (g *geometry) add(b *vector.Bounds, e *svgdoc.Node, parent vector.Affine2D, depth int) {
	if !e.IsElement() || nonRendering[e.Name] || hidden(e) || depth > 16 {
		return
	}
	m := parent
	if e != g.root {
		m = parent.Mul(local(e))
	}
	switch e.Name {
	case "rect", "image", "foreignObject":
		g.addBox(b, e, m)
	case "svg":
		if e != g.root && e.Get("width") != "" && e.Get("height") != "" {
			g.addBox(b, e, m)
			return
		}
		g.addChildren(b, e, m, depth)
	case "use":
		if e.Get("width") != "" && e.Get("height") != "" {
			g.addBox(b, e, m)
			return
		}
		ref := g.byID(strings.TrimPrefix(e.Href(), "#"))
		if ref == nil {
			return
		}
		if ref.Name == "symbol" {
			g.addChildren(b, ref, m, depth+1)
			return
		}
		g.add(b, ref, m, depth+1)
	case "circle":
		r := e.Float("r", 0)
		b.AddRect(vector.R(e.Float("cx", 0)-r, e.Float("cy", 0)-r, 2*r, 2*r), m)
	case "ellipse":
		rx, ry := e.Float("rx", 0), e.Float("ry", 0)
		b.AddRect(vector.R(e.Float("cx", 0)-rx, e.Float("cy", 0)-ry, 2*rx, 2*ry), m)
	case "line":
		b.AddPt(m.Apply(vector.Pt{X: e.Float("x1", 0), Y: e.Float("y1", 0)}))
		b.AddPt(m.Apply(vector.Pt{X: e.Float("x2", 0), Y: e.Float("y2", 0)}))
	case "polyline", "polygon":
		for _, p := range parsePoints(e.Get("points")) {
			b.AddPt(m.Apply(p))
		}
	case "path":
		p, err := vector.ParsePathData(e.Get("d"))
		if err == nil && len(p.Cmds) > 0 {
			b.AddRect(p.Bounds(), m)
		}
	case "text":
		for _, r := range g.textRuns(e) {
			b.AddRect(r.rect, m)
		}
	default:
		g.addChildren(b, e, m, depth)
	}
}

func (g *geometry) addBox(b *vector.Bounds, e *svgdoc.Node, m vector.Affine2D) {
	w, h := e.Float("width", 0), e.Float("height", 0)
	if w <= 0 && h <= 0 {
		return
	}
	x, y := e.Float("x", 0), e.Float("y", 0)
	if e.Name == "svg" || e.Name == "use" {
		// x/y already part of local()
		x, y = 0, 0
	}
	b.AddRect(vector.R(x, y, w, h), m)
}

func (g *geometry) addChildren(b *vector.Bounds, e *svgdoc.Node, m vector.Affine2D, depth int) {
	for _, c := range e.Children {
		g.add(b, c, m, depth)
	}
}

func (g *geometry) byID(id string) *svgdoc.Node {
	if id == "" {
		return nil
	}
	if len(g.ids) == 0 {
		g.root.Walk(func(n *svgdoc.Node) bool {
			if v, ok := n.Attr("id"); ok && n.IsElement() {
				if _, dup := g.ids[v]; !dup {
					g.ids[v] = n
				}
			}
			return true
		})
	}
	return g.ids[id]
}

type textRun struct {
	node  *svgdoc.Node // <text> for bare character data, otherwise the <tspan>
	rect  vector.Rect
	width float64
}

// textRuns lays out a <text> element as a sequence of runs flowing left to
// right from its x/y, honoring tspan x/y/dx/dy and text-anchor.
func (g *geometry) textRuns(text *svgdoc.Node) []textRun {
	x, y := firstNumber(text.Get("x")), firstNumber(text.Get("y"))
	x += firstNumber(text.Get("dx"))
	y += firstNumber(text.Get("dy"))
	var runs []textRun
	var total float64
	for _, c := range text.Children {
		owner := text
		content := ""
		switch {
		case c.Kind == svgdoc.TextNode:
			content = collapse(c.Text)
		case c.Name == "tspan" || c.Name == "textPath" || c.Name == "a":
			owner = c
			if v, ok := c.Attr("x"); ok {
				x = firstNumber(v)
			}
			if v, ok := c.Attr("y"); ok {
				y = firstNumber(v)
			}
			x += firstNumber(c.Get("dx"))
			y += firstNumber(c.Get("dy"))
			content = collapse(c.TextContent())
		default:
			continue
		}
		if content == "" {
			continue
		}
		font := fontOf(owner)
		var w float64
		if owner != text {
			w, _ = g.TextWidth(owner)
		} else {
			w, _ = textlayout.Measure(g.text, []textlayout.Span{{Text: content, Font: font}})
		}
		met := g.text.Resolve(font).Metrics
		runs = append(runs, textRun{node: owner, width: w, rect: vector.R(x, y-met.Ascent, w, met.Ascent+met.Descent)})
		x += w
		total += w
	}
	shift := 0.0
	switch inherited(text, "text-anchor") {
	case "middle":
		shift = -total / 2
	case "end":
		shift = -total
	}
	for i := range runs {
		runs[i].rect.X += shift
	}
	return runs
}

// TextRuns lists the elements a typing animation reveals inside target: every
// tspan, plus text elements that have no tspan.
func TextRuns(target *svgdoc.Node) []*svgdoc.Node {
	var out []*svgdoc.Node
	target.Walk(func(n *svgdoc.Node) bool {
		switch {
		case !n.IsElement():
			return false
		case n.Name == "tspan":
			out = append(out, n)
			return false
		case n.Name == "text":
			spans, _ := svgdoc.QueryAll(n, "tspan")
			if len(spans) == 0 {
				out = append(out, n)
				return false
			}
		}
		return true
	})
	return out
}

func enclosing(n *svgdoc.Node, name string) *svgdoc.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func hidden(n *svgdoc.Node) bool {
	v, _ := property(n, "display")
	return v == "none"
}

// property reads a presentation property from the style attribute, falling
// back to the attribute of the same name.
func property(n *svgdoc.Node, prop string) (string, bool) {
	if style, ok := n.Attr("style"); ok {
		for _, decl := range strings.Split(style, ";") {
			k, v, found := strings.Cut(decl, ":")
			if found && strings.TrimSpace(k) == prop {
				return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important")), true
			}
		}
	}
	if v, ok := n.Attr(prop); ok {
		return strings.TrimSpace(v), true
	}
	return "", false
}

func inherited(n *svgdoc.Node, prop string) string {
	for p := n; p != nil; p = p.Parent {
		if v, ok := property(p, prop); ok && v != "inherit" {
			return v
		}
	}
	return ""
}

// fontOf resolves the inherited font of an element.
func fontOf(n *svgdoc.Node) textlayout.FontSpec {
	spec := textlayout.FontSpec{Family: FirstFamily(inherited(n, "font-family")), Weight: 400}
	if v := inherited(n, "font-size"); v != "" {
		if s, err := svgdoc.Length(v); err == nil && s > 0 {
			spec.SizePx = s
		}
	}
	switch w := inherited(n, "font-weight"); w {
	case "", "normal":
	case "bold", "bolder":
		spec.Weight = 700
	case "lighter":
		spec.Weight = 300
	default:
		if v, err := strconv.Atoi(w); err == nil {
			spec.Weight = v
		}
	}
	st := inherited(n, "font-style")
	spec.Italic = st == "italic" || st == "oblique"
	return spec
}

// FirstFamily returns the first family of a font-family list, unquoted.
func FirstFamily(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}

// FontFamilies lists the distinct first families referenced by font-family
// attributes or inline styles under root, in document order.
func FontFamilies(root *svgdoc.Node) []string {
	seen := map[string]bool{}
	var out []string
	root.Walk(func(n *svgdoc.Node) bool {
		if !n.IsElement() {
			return false
		}
		if v, ok := property(n, "font-family"); ok {
			if f := FirstFamily(v); f != "" && !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
		return true
	})
	return out
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

func firstNumber(s string) float64 {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(f) == 0 {
		return 0
	}
	v, err := svgdoc.Length(f[0])
	if err != nil {
		return 0
	}
	return v
}

func parsePoints(s string) []vector.Pt {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' })
	var out []vector.Pt
	for i := 0; i+1 < len(f); i += 2 {
		x, errX := strconv.ParseFloat(f[i], 64)
		y, errY := strconv.ParseFloat(f[i+1], 64)
		if errX != nil || errY != nil {
			break
		}
		out = append(out, vector.Pt{X: x, Y: y})
	}
	return out
}
