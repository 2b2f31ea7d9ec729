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
	"strconv"
	"strings"
)

// Selector is a compiled selector list.
type Selector struct {
	src  string
	alts []complexSel
}

// complexSel stores compounds right to left; combs[i] joins parts[i] to
// parts[i+1].
type complexSel struct {
	parts []compound
	combs []byte // ' ' descendant, '>' child
}

type compound struct {
	tag     string // "" or "*" matches any element
	id      string
	classes []string
	attrs   []attrSel
	pseudos []pseudoSel
}

type attrSel struct {
	name, op, val string // op is "" for presence
}

type pseudoSel struct {
	name string
	n    int
}

// Compile parses a selector list such as "g > rect.btn, #title".
func Compile(s string) (*Selector, error) {
	sel := &Selector{src: s}
	for _, part := range splitTop(s, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("selector %q: empty alternative", s)
		}
		cs, err := parseComplex(part)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", s, err)
		}
		sel.alts = append(sel.alts, cs)
	}
	if len(sel.alts) == 0 {
		return nil, fmt.Errorf("selector %q: empty", s)
	}
	return sel, nil
}

func (s *Selector) String() string { return s.src }

// Match reports whether n matches any alternative.
func (s *Selector) Match(n *Node) bool {
	if !n.IsElement() {
		return false
	}
	for _, a := range s.alts {
		if a.match(n, 0) {
			return true
		}
	}
	return false
}

// QueryAll returns the elements under root (root included) matching s, in
// document order.
func (s *Selector) QueryAll(root *Node) []*Node {
	var out []*Node
	root.Walk(func(n *Node) bool {
		if s.Match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryAll compiles sel and returns every match under root.
func QueryAll(root *Node, sel string) ([]*Node, error) {
	s, err := Compile(sel)
	if err != nil {
		return nil, err
	}
	return s.QueryAll(root), nil
}

// QueryOne returns the first match under root or nil.
func QueryOne(root *Node, sel string) (*Node, error) {
	all, err := QueryAll(root, sel)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (c complexSel) match(n *Node, i int) bool {
	if !c.parts[i].match(n) {
		return false
	}
	if i == len(c.parts)-1 {
		return true
	}
	switch c.combs[i] {
	case '>':
		p := n.Parent
		return p.IsElement() && c.match(p, i+1)
	default:
		for p := n.Parent; p.IsElement(); p = p.Parent {
			if c.match(p, i+1) {
				return true
			}
		}
		return false
	}
}

func (c compound) match(n *Node) bool {
	if c.tag != "" && c.tag != "*" && c.tag != n.Name {
		return false
	}
	if c.id != "" && n.Get("id") != c.id {
		return false
	}
	for _, cl := range c.classes {
		if !n.HasClass(cl) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := n.Attr(a.name)
		if !ok {
			return false
		}
		switch a.op {
		case "=":
			ok = v == a.val
		case "^=":
			ok = a.val != "" && strings.HasPrefix(v, a.val)
		case "$=":
			ok = a.val != "" && strings.HasSuffix(v, a.val)
		case "*=":
			ok = a.val != "" && strings.Contains(v, a.val)
		case "~=":
			ok = false
			for _, f := range strings.Fields(v) {
				if f == a.val {
					ok = true
				}
			}
		}
		if !ok {
			return false
		}
	}
	for _, p := range c.pseudos {
		if !p.match(n) {
			return false
		}
	}
	return true
}

func (p pseudoSel) match(n *Node) bool {
	if n.Parent == nil {
		return p.n == 1
	}
	sibs := n.Parent.Elements()
	switch p.name {
	case "first-child":
		return sibs[0] == n
	case "last-child":
		return sibs[len(sibs)-1] == n
	case "nth-child":
		return p.n >= 1 && p.n <= len(sibs) && sibs[p.n-1] == n
	case "nth-of-type":
		k := 0
		for _, s := range sibs {
			if s.Name == n.Name {
				k++
				if s == n {
					return k == p.n
				}
			}
		}
	}
	return false
}

func parseComplex(s string) (complexSel, error) {
	var parts []compound
	var combs []byte
	pos := 0
	pending := byte(0)
	for {
		// combinator and whitespace
		sawSpace := false
		for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '>') {
			if s[pos] == '>' {
				if pending == '>' {
					return complexSel{}, fmt.Errorf("double combinator")
				}
				pending = '>'
			} else {
				sawSpace = true
			}
			pos++
		}
		if pos >= len(s) {
			if pending == '>' {
				return complexSel{}, fmt.Errorf("dangling combinator")
			}
			break
		}
		if len(parts) > 0 {
			switch {
			case pending == '>':
				combs = append(combs, '>')
			case sawSpace:
				combs = append(combs, ' ')
			}
		} else if pending == '>' {
			return complexSel{}, fmt.Errorf("leading combinator")
		}
		pending = 0
		c, next, err := parseCompound(s, pos)
		if err != nil {
			return complexSel{}, err
		}
		parts = append(parts, c)
		pos = next
	}
	if len(parts) == 0 {
		return complexSel{}, fmt.Errorf("empty selector")
	}
	// reverse so matching runs right to left
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	for i, j := 0, len(combs)-1; i < j; i, j = i+1, j-1 {
		combs[i], combs[j] = combs[j], combs[i]
	}
	return complexSel{parts: parts, combs: combs}, nil
}

func parseCompound(s string, pos int) (compound, int, error) {
	var c compound
	start := pos
	if pos < len(s) && s[pos] == '*' {
		c.tag = "*"
		pos++
	} else if name, next := readIdent(s, pos); next > pos {
		c.tag = name
		pos = next
	}
	for pos < len(s) {
		switch s[pos] {
		case '#':
			name, next := readIdent(s, pos+1)
			if next == pos+1 {
				return c, pos, fmt.Errorf("expected id after '#'")
			}
			c.id, pos = name, next
		case '.':
			name, next := readIdent(s, pos+1)
			if next == pos+1 {
				return c, pos, fmt.Errorf("expected class after '.'")
			}
			c.classes = append(c.classes, name)
			pos = next
		case '[':
			end := strings.IndexByte(s[pos:], ']')
			if end < 0 {
				return c, pos, fmt.Errorf("unterminated attribute selector")
			}
			a, err := parseAttrSel(s[pos+1 : pos+end])
			if err != nil {
				return c, pos, err
			}
			c.attrs = append(c.attrs, a)
			pos += end + 1
		case ':':
			name, next := readIdent(s, pos+1)
			p := pseudoSel{name: name, n: 1}
			switch name {
			case "first-child", "last-child":
			case "nth-child", "nth-of-type":
				if next >= len(s) || s[next] != '(' {
					return c, pos, fmt.Errorf(":%s needs an argument", name)
				}
				end := strings.IndexByte(s[next:], ')')
				if end < 0 {
					return c, pos, fmt.Errorf("unterminated :%s", name)
				}
				v, err := strconv.Atoi(strings.TrimSpace(s[next+1 : next+end]))
				if err != nil {
					return c, pos, fmt.Errorf(":%s argument: %w", name, err)
				}
				p.n = v
				next += end + 1
			default:
				return c, pos, fmt.Errorf("unsupported pseudo-class :%s", name)
			}
			c.pseudos = append(c.pseudos, p)
			pos = next
		case ' ', '\t', '\n', '>':
			return c, pos, nil
		default:
			return c, pos, fmt.Errorf("unexpected %q at offset %d", s[pos], pos)
		}
	}
	if pos == start {
		return c, pos, fmt.Errorf("empty compound selector")
	}
	return c, pos, nil
}

func parseAttrSel(body string) (attrSel, error) {
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		name := strings.TrimSpace(body)
		if name == "" {
			return attrSel{}, fmt.Errorf("empty attribute selector")
		}
		return attrSel{name: name}, nil
	}
	op, nameEnd := "=", eq
	if eq > 0 && strings.IndexByte("^$*~", body[eq-1]) >= 0 {
		op, nameEnd = body[eq-1:eq+1], eq-1
	}
	name := strings.TrimSpace(body[:nameEnd])
	if name == "" {
		return attrSel{}, fmt.Errorf("attribute selector %q has no name", body)
	}
	val := strings.TrimSpace(body[eq+1:])
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
		val = val[1 : len(val)-1]
	}
	return attrSel{name: name, op: op, val: val}, nil
}

func readIdent(s string, pos int) (string, int) {
	i := pos
	for i < len(s) {
		ch := s[i]
		if ch == '\\' && i+1 < len(s) {
			i += 2
			continue
		}
		if ch == '-' || ch == '_' || ch >= 0x80 ||
			(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			i++
			continue
		}
		break
	}
	return strings.ReplaceAll(s[pos:i], `\`, ""), i
}

// splitTop splits on sep outside brackets, parentheses and quotes.
func splitTop(s string, sep byte) []string {
	var out []string
	depth := 0
	var quote byte
	last := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '[' || ch == '(':
			depth++
		case ch == ']' || ch == ')':
			depth--
		case ch == sep && depth == 0:
			out = append(out, s[last:i])
			last = i + 1
		}
	}
	return append(out, s[last:])
}
