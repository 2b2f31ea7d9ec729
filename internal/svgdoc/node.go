/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package svgdoc holds parsed scene documents as a mutable element tree.
// Every element carries an ElementID assigned when it is parsed or created,
// which stays stable while the tree is restructured (wrapping, moving into
// <defs>, id rewriting).
package svgdoc

import (
	"strings"
)

// ElementID identifies an element within one Document. Zero means unset.
type ElementID int

type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
)

type Attr struct {
	Name  string // qualified, e.g. "xlink:href"
	Value string
}

type Node struct {
	Kind     Kind
	Name     string
	Attrs    []Attr
	Children []*Node
	Parent   *Node
	Text     string
	ID       ElementID
}

// Document owns a tree and the ElementID counter for it.
type Document struct {
	Root   *Node
	nextID ElementID
}

// NewDocument starts an empty document whose root element is name.
func NewDocument(name string, attrs ...Attr) *Document {
	d := &Document{}
	d.Root = d.NewElement(name, attrs...)
	return d
}

// NewElement creates a detached element with a fresh ElementID.
func (d *Document) NewElement(name string, attrs ...Attr) *Node {
	d.nextID++
	return &Node{Kind: ElementNode, Name: name, Attrs: append([]Attr(nil), attrs...), ID: d.nextID}
}

// NewText creates a detached text node.
func NewText(s string) *Node { return &Node{Kind: TextNode, Text: s} }

// Adopt gives every element under n a fresh ElementID from d. It is used when
// a subtree parsed in one document is moved into another.
func (d *Document) Adopt(n *Node) {
	n.Walk(func(c *Node) bool {
		if c.Kind == ElementNode {
			d.nextID++
			c.ID = d.nextID
		}
		return true
	})
}

// Wrap replaces n in its parent by a new <g> element that contains n.
func (d *Document) Wrap(n *Node) *Node { return d.WrapWith(n, "g") }

// WrapWith replaces n in its parent by a new element called name that
// contains n.
func (d *Document) WrapWith(n *Node, name string) *Node {
	g := d.NewElement(name)
	if n.Parent != nil {
		n.ReplaceWith(g)
	}
	g.AppendChild(n)
	return g
}

// ByID finds the element carrying the given ElementID.
func (d *Document) ByID(id ElementID) *Node {
	var found *Node
	d.Root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func (n *Node) IsElement() bool { return n != nil && n.Kind == ElementNode }

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Get returns the attribute value or "" when absent.
func (n *Node) Get(name string) string {
	v, _ := n.Attr(name)
	return v
}

func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

func (n *Node) RemoveAttr(name string) {
	out := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Name != name {
			out = append(out, a)
		}
	}
	n.Attrs = out
}

func (n *Node) HasClass(c string) bool {
	for _, f := range strings.Fields(n.Get("class")) {
		if f == c {
			return true
		}
	}
	return false
}

// Href returns href, falling back to xlink:href.
func (n *Node) Href() string {
	if v, ok := n.Attr("href"); ok {
		return v
	}
	return n.Get("xlink:href")
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first element child with the given name.
func (n *Node) FirstChild(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			return c
		}
	}
	return nil
}

// AppendChild moves c to the end of n's children.
func (n *Node) AppendChild(c *Node) {
	c.Remove()
	c.Parent = n
	n.Children = append(n.Children, c)
}

// PrependChild moves c to the front of n's children.
func (n *Node) PrependChild(c *Node) {
	c.Remove()
	c.Parent = n
	n.Children = append([]*Node{c}, n.Children...)
}

func (n *Node) index() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	i := n.index()
	if i < 0 {
		n.Parent = nil
		return
	}
	p := n.Parent
	p.Children = append(p.Children[:i], p.Children[i+1:]...)
	n.Parent = nil
}

// ReplaceWith puts m at n's position and detaches n.
func (n *Node) ReplaceWith(m *Node) {
	i := n.index()
	if i < 0 {
		return
	}
	m.Remove()
	p := n.Parent
	i = n.index()
	p.Children[i] = m
	m.Parent = p
	n.Parent = nil
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range append([]*Node(nil), n.Children...) {
		c.Walk(fn)
	}
}

// Contains reports whether m is n or a descendant of n.
func (n *Node) Contains(m *Node) bool {
	for p := m; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// TextContent concatenates all descendant text.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Kind == TextNode {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// Clone deep-copies n. Clones keep the ElementIDs of the originals and are
// detached.
func (n *Node) Clone() *Node {
	cp := &Node{Kind: n.Kind, Name: n.Name, Text: n.Text, ID: n.ID, Attrs: append([]Attr(nil), n.Attrs...)}
	for _, c := range n.Children {
		cc := c.Clone()
		cc.Parent = cp
		cp.Children = append(cp.Children, cc)
	}
	return cp
}
