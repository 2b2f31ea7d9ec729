/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package svgdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"svgif/internal/vector"
)

var urlRef = regexp.MustCompile(`url\(\s*['"]?#([^'")\s]+)['"]?\s*\)`)

// NamespaceIDs prefixes every id under root and rewrites references to
// them (href, xlink:href, url(#..) in attributes and style sheets). Ids that
// are referenced but not defined under root are left alone.
func NamespaceIDs(root *Node, prefix string) {
	ids := map[string]string{}
	root.Walk(func(n *Node) bool {
		if id, ok := n.Attr("id"); ok && n.IsElement() && id != "" {
			ids[id] = prefix + id
		}
		return true
	})
	renameIDs(root, ids)
}

// RebaseIDs replaces the prefix from with to on every id defined under root
// that carries it, and rewrites the references to those ids.
func RebaseIDs(root *Node, from, to string) {
	ids := map[string]string{}
	root.Walk(func(n *Node) bool {
		if id, ok := n.Attr("id"); ok && n.IsElement() && strings.HasPrefix(id, from) {
			ids[id] = to + strings.TrimPrefix(id, from)
		}
		return true
	})
	renameIDs(root, ids)
}

func renameIDs(root *Node, ids map[string]string) {
	if len(ids) == 0 {
		return
	}
	rewriteURLs := func(s string) string {
		return urlRef.ReplaceAllStringFunc(s, func(m string) string {
			id := urlRef.FindStringSubmatch(m)[1]
			if to, ok := ids[id]; ok {
				return "url(#" + to + ")"
			}
			return m
		})
	}
	root.Walk(func(n *Node) bool {
		if n.Kind == TextNode {
			if n.Parent != nil && n.Parent.Name == "style" {
				n.Text = rewriteStyleSheet(n.Text, ids)
			}
			return true
		}
		for i := range n.Attrs {
			a := &n.Attrs[i]
			switch {
			case a.Name == "id":
				if to, ok := ids[a.Value]; ok {
					a.Value = to
				}
			case a.Name == "href" || a.Name == "xlink:href":
				if strings.HasPrefix(a.Value, "#") {
					if to, ok := ids[a.Value[1:]]; ok {
						a.Value = "#" + to
					}
				}
			case strings.Contains(a.Value, "url("):
				a.Value = rewriteURLs(a.Value)
			}
		}
		return true
	})
}

var idSelector = regexp.MustCompile(`#(-?[_a-zA-Z][-_a-zA-Z0-9]*)`)

// rewriteStyleSheet renames #id selectors and url(#id) references in CSS.
// Hex colors never match a defined id unless the document defines one with
// the same name, which is accepted.
func rewriteStyleSheet(css string, ids map[string]string) string {
	return idSelector.ReplaceAllStringFunc(css, func(m string) string {
		if to, ok := ids[m[1:]]; ok {
			return "#" + to
		}
		return m
	})
}

// ViewBox returns the user-space box of an <svg> element, using viewBox when
// present and width/height otherwise.
func ViewBox(svg *Node) (vector.Rect, error) {
	if vb, ok := svg.Attr("viewBox"); ok {
		f := strings.FieldsFunc(vb, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
		if len(f) != 4 {
			return vector.Rect{}, fmt.Errorf("viewBox %q: want 4 numbers", vb)
		}
		var v [4]float64
		for i, s := range f {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return vector.Rect{}, fmt.Errorf("viewBox %q: %w", vb, err)
			}
			v[i] = x
		}
		if v[2] <= 0 || v[3] <= 0 {
			return vector.Rect{}, fmt.Errorf("viewBox %q: empty size", vb)
		}
		return vector.R(v[0], v[1], v[2], v[3]), nil
	}
	w, errW := Length(svg.Get("width"))
	h, errH := Length(svg.Get("height"))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return vector.Rect{}, fmt.Errorf("svg has neither viewBox nor numeric width/height")
	}
	return vector.R(0, 0, w, h), nil
}

// Length parses a user-unit length such as "12", "12.5px" or "3e1".
// Percentages and other units are rejected.
func Length(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" {
		return 0, fmt.Errorf("empty length")
	}
	return strconv.ParseFloat(s, 64)
}

// Float reads a numeric attribute, returning def when absent or invalid.
func (n *Node) Float(name string, def float64) float64 {
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	f, err := Length(v)
	if err != nil {
		return def
	}
	return f
}
