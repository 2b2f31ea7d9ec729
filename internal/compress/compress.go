/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compress shares subtrees that several scenes repeat verbatim.
// Candidates are tagged with data-selector; identical copies are moved once
// into <defs> and every copy is replaced by a <use> reference.
package compress

import (
	"fmt"
	"log/slog"

	"svgif/internal/compiler"
	applog "svgif/internal/log"
	"svgif/internal/svgdoc"
	"svgif/internal/vector"
)

// Attr tags compressible subtrees.
const Attr = "data-selector"

// DefaultMinLength is the serialized size a subtree must exceed to be worth
// sharing.
const DefaultMinLength = 100

type Options struct {
	MinLength int
}

// Stats summarizes one run.
type Stats struct {
	Groups     int // shared definitions created
	Instances  int // copies replaced by <use>
	SavedBytes int
}

type occurrence struct {
	scene int
	node  *svgdoc.Node
}

// Compress deduplicates res in place. A data-selector value qualifies when
// every scene has at most one match and all matches serialize identically
// once the scene id prefixes are removed;
// a scene whose match contains an animated element keeps its copy. At least
// two remaining copies are needed to share. probe measures the copies so the
// references carry their size.
func Compress(res *compiler.Result, probe compiler.BBoxProbe, opts Options) (Stats, error) {
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	lg := applog.WithComponent("compress")
	order, matches := collect(res)
	meas := map[int]compiler.Measurement{}
	defer func() {
		for _, m := range meas {
			m.Release()
		}
	}()
	measure := func(i int, n *svgdoc.Node) (vector.Rect, bool) {
		if probe == nil {
			return vector.Rect{}, false
		}
		m, ok := meas[i]
		if !ok {
			vb, err := svgdoc.ViewBox(res.Scenes[i].Root)
			if err != nil {
				return vector.Rect{}, false
			}
			if m, err = probe.Attach(res.Scenes[i].Root, vb); err != nil {
				return vector.Rect{}, false
			}
			meas[i] = m
		}
		r, err := m.BBox(n)
		return r, err == nil
	}

	var st Stats
	var defs *svgdoc.Node
	for _, value := range order {
		occ, content := qualify(res, matches[value])
		if len(occ) < 2 || len(content) <= minLen {
			continue
		}
		// Sizes are taken before any copy leaves its scene.
		sizes := make([]vector.Rect, len(occ))
		measured := make([]bool, len(occ))
		for k, o := range occ {
			sizes[k], measured[k] = measure(o.scene, o.node)
		}

		st.Groups++
		id := fmt.Sprintf("shared-%d", st.Groups)
		if defs == nil {
			defs = defsOf(res.Doc)
		}
		body := occ[0].node.Clone()
		body.RemoveAttr(Attr)
		svgdoc.RebaseIDs(body, compiler.ScenePrefix(occ[0].scene), id+"-")
		shared := res.Doc.NewElement("g", svgdoc.Attr{Name: "id", Value: id})
		shared.AppendChild(body)
		res.Doc.Adopt(body)
		defs.AppendChild(shared)
		st.SavedBytes -= len(shared.String())

		for k, o := range occ {
			use := res.Scenes[o.scene].Doc.NewElement("use", svgdoc.Attr{Name: "href", Value: "#" + id})
			if measured[k] {
				use.SetAttr("width", fmt.Sprintf("%.2f", sizes[k].W))
				use.SetAttr("height", fmt.Sprintf("%.2f", sizes[k].H))
			}
			st.SavedBytes += len(content) - len(use.String())
			o.node.ReplaceWith(use)
			st.Instances++
		}
		lg.Debug("shared subtree", slog.String("selector", value), slog.String("id", id), slog.Int("copies", len(occ)))
	}
	return st, nil
}

// collect lists data-selector values in first-seen order with their matches
// per scene.
func collect(res *compiler.Result) ([]string, map[string]map[int][]*svgdoc.Node) {
	var order []string
	matches := map[string]map[int][]*svgdoc.Node{}
	for i, cs := range res.Scenes {
		cs.Root.Walk(func(n *svgdoc.Node) bool {
			if !n.IsElement() {
				return false
			}
			v, ok := n.Attr(Attr)
			if !ok || v == "" {
				return true
			}
			if matches[v] == nil {
				matches[v] = map[int][]*svgdoc.Node{}
				order = append(order, v)
			}
			matches[v][i] = append(matches[v][i], n)
			return true
		})
	}
	return order, matches
}

// qualify returns the copies that may be replaced and their common
// serialization, or nothing when the value must be left alone.
func qualify(res *compiler.Result, perScene map[int][]*svgdoc.Node) ([]occurrence, string) {
	if len(perScene) < 2 {
		return nil, ""
	}
	var occ []occurrence
	content := ""
	for i := range res.Scenes {
		nodes, ok := perScene[i]
		if !ok {
			continue
		}
		if len(nodes) != 1 {
			return nil, ""
		}
		n := nodes[0]
		// An enclosing subtree may already have been shared.
		if !res.Scenes[i].Root.Contains(n) {
			continue
		}
		s := neutral(i, n)
		if content == "" {
			content = s
		} else if s != content {
			return nil, ""
		}
		if res.Animated(i, n) {
			continue
		}
		occ = append(occ, occurrence{scene: i, node: n})
	}
	return occ, content
}

// neutral serializes n with scene i's id prefix removed, so copies that
// differ only by namespacing compare equal.
func neutral(i int, n *svgdoc.Node) string {
	cp := n.Clone()
	svgdoc.RebaseIDs(cp, compiler.ScenePrefix(i), "")
	return cp.String()
}

// defsOf returns the output's top-level <defs>, creating it first in
// document order.
func defsOf(doc *svgdoc.Document) *svgdoc.Node {
	if d := doc.Root.FirstChild("defs"); d != nil {
		return d
	}
	d := doc.NewElement("defs")
	doc.Root.PrependChild(d)
	return d
}
