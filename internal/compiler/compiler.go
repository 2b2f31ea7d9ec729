/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compiler turns a loaded scenario into one document whose whole
// behavior is a set of percent keyframe tracks on a shared timeline.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"svgif/internal/anim"
	"svgif/internal/apperr"
	applog "svgif/internal/log"
	"svgif/internal/scene"
	"svgif/internal/svgdoc"
	"svgif/internal/vector"
)

// Options tune a build.
type Options struct {
	Phases            anim.Phases
	Loop              bool
	CaptionFontSize   float64
	CaptionFontFamily string
}

func DefaultOptions() Options {
	return Options{Phases: anim.DefaultPhases, Loop: true, CaptionFontSize: 18}
}

// CompiledScene records where a scene ended up in the output.
type CompiledScene struct {
	Index          int
	File           string
	Doc            *svgdoc.Document // owns the scene's ElementIDs
	StartMs, EndMs int
	ActionStarts   []int
	Group          *svgdoc.Node // <g id="scene-i"> carrying the visibility track
	Root           *svgdoc.Node // the scene's own <svg>, nested in Group
	Caption        *svgdoc.Node
	Targets        []*svgdoc.Node // elements resolved from the scene's selectors
}

// Result is a compiled but not yet serialized document.
type Result struct {
	Doc      *svgdoc.Document
	Sheet    *anim.StyleSheet
	TotalMs  int
	ViewBox  vector.Rect
	Loop     bool
	Scenes   []CompiledScene
	Pointer  *svgdoc.Node
	Moves    []anim.Movement
	Families []string
}

type build struct {
	cc     *Context
	opts   Options
	sc     *scene.Scenario
	log    *slog.Logger
	out    *svgdoc.Document
	res    *Result
	cur    *anim.TimelineCursor
	cursor *anim.CursorTimeline
	sheet  *anim.StyleSheet
	view   vector.Rect
}

// sceneState is the per-scene scratch space of a build.
type sceneState struct {
	index int
	where apperr.Where
	doc   *svgdoc.Document
	root  *svgdoc.Node
	view  vector.Rect
	toOut vector.Affine2D
	meas  Measurement
	res   *CompiledScene
}

// Compile builds the animated document. Scenes are processed strictly in
// order and actions within a scene in order, since every action starts where
// the previous one ended. The scenario's documents are moved into the result
// and must not be reused.
func Compile(ctx context.Context, cc *Context, sc *scene.Scenario, opts Options) (*Result, error) {
	if cc == nil {
		cc = NewContext(nil, nil)
	}
	if opts.Phases == (anim.Phases{}) {
		opts.Phases = anim.DefaultPhases
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	for i := range sc.Scenes {
		if sc.Scenes[i].Doc == nil {
			return nil, apperr.Configuration(apperr.Where{Scene: i, File: sc.Scenes[i].SVGFileName}, "scene document not loaded")
		}
	}
	total := sc.TotalDuration()
	if total <= 0 {
		return nil, apperr.Configuration(apperr.Global, "total duration must be positive")
	}
	view, err := outputView(sc)
	if err != nil {
		return nil, err
	}
	loop := opts.Loop
	if sc.Loop != nil {
		loop = *sc.Loop
	}

	out := svgdoc.NewDocument("svg",
		svgdoc.Attr{Name: "xmlns", Value: "http://www.w3.org/2000/svg"},
		svgdoc.Attr{Name: "xmlns:xlink", Value: "http://www.w3.org/1999/xlink"},
		svgdoc.Attr{Name: "viewBox", Value: formatBox(view)},
		svgdoc.Attr{Name: "width", Value: num(view.W)},
		svgdoc.Attr{Name: "height", Value: num(view.H)},
	)
	b := &build{
		cc:    cc,
		opts:  opts,
		sc:    sc,
		log:   cc.Log,
		out:   out,
		cur:   anim.NewTimelineCursor(total),
		sheet: anim.NewStyleSheet(),
		view:  view,
	}
	if b.log == nil {
		b.log = applog.WithComponent("compiler")
	}
	b.cursor = anim.NewCursorTimeline(b.cur.Timeline, vector.Pt{X: view.X + view.W/2, Y: view.Y + view.H})
	b.res = &Result{Doc: out, Sheet: b.sheet, TotalMs: total, ViewBox: view, Loop: loop}

	for i := range sc.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.scene(ctx, i); err != nil {
			return nil, err
		}
	}
	if b.cur.Now != total {
		return nil, fmt.Errorf("timeline ended at %dms, want %dms", b.cur.Now, total)
	}
	if len(b.cursor.Movements()) > 0 {
		if err := b.pointer(); err != nil {
			return nil, err
		}
	}
	for i, cs := range b.res.Scenes {
		svgdoc.NamespaceIDs(cs.Root, ScenePrefix(i))
	}
	b.res.Moves = b.cursor.Movements()
	b.res.Families = cc.Families()
	b.log.Info("compiled",
		slog.Int("scenes", len(sc.Scenes)),
		slog.Int("total_ms", total),
		slog.Int("tracks", len(b.sheet.Tracks())),
		slog.Int("pointer_moves", len(b.cursor.Movements())))
	return b.res, nil
}

// outputView is the viewport override or the first scene's viewBox.
// ScenePrefix is prepended to every id of scene i in the output.
func ScenePrefix(i int) string { return fmt.Sprintf("s%d-", i) }

func outputView(sc *scene.Scenario) (vector.Rect, error) {
	if v := sc.Viewport; v != nil {
		if v.Width <= 0 || v.Height <= 0 {
			return vector.Rect{}, apperr.Configuration(apperr.Global, "viewport needs positive width and height")
		}
		return vector.R(0, 0, v.Width, v.Height), nil
	}
	vb, err := svgdoc.ViewBox(sc.Scenes[0].Doc.Root)
	if err != nil {
		return vector.Rect{}, apperr.Configuration(apperr.Where{Scene: 0, File: sc.Scenes[0].SVGFileName}, "missing viewport dimensions").Wrap(err)
	}
	return vb, nil
}

func (b *build) scene(ctx context.Context, i int) error {
	s := &b.sc.Scenes[i]
	where := apperr.Where{Scene: i, File: s.SVGFileName}
	root := s.Doc.Root
	vb, err := svgdoc.ViewBox(root)
	if err != nil {
		return apperr.Configuration(where, "scene has no usable viewBox").Wrap(err)
	}
	meas, err := b.cc.Probe.Attach(root, vb)
	if err != nil {
		return apperr.Measurement(where, "scene cannot be measured").Wrap(err)
	}
	defer meas.Release()

	start := b.cur.Now
	group := b.out.NewElement("g",
		svgdoc.Attr{Name: "id", Value: fmt.Sprintf("scene-%d", i)},
		svgdoc.Attr{Name: "class", Value: "svgif-scene"})
	b.out.Root.AppendChild(group)
	b.res.Scenes = append(b.res.Scenes, CompiledScene{Index: i, File: s.SVGFileName, Doc: s.Doc, StartMs: start, Group: group, Root: root})
	st := &sceneState{
		index: i,
		where: where,
		doc:   s.Doc,
		root:  root,
		view:  vb,
		toOut: vector.FitViewBox(vb, b.view),
		meas:  meas,
		res:   &b.res.Scenes[len(b.res.Scenes)-1],
	}
	lg := applog.WithScene(b.log, i, s.SVGFileName)
	ctx = applog.ContextWithScene(ctx, i)

	for j, a := range s.Animations {
		at := b.cur.Advance(a.Duration)
		st.res.ActionStarts = append(st.res.ActionStarts, at)
		w := where
		w.Selector = a.ElementSelector
		if err := b.action(st, j, a, at, w); err != nil {
			lg.DebugContext(ctx, "action failed", slog.Int("action", j), slog.String("type", string(a.Type)), slog.Any("err", err))
			return err
		}
	}
	end := b.cur.Now
	st.res.EndMs = end

	// The scene keeps its own coordinate system inside the output viewport.
	if _, ok := root.Attr("viewBox"); !ok {
		root.SetAttr("viewBox", formatBox(vb))
	}
	root.SetAttr("x", num(b.view.X))
	root.SetAttr("y", num(b.view.Y))
	root.SetAttr("width", num(b.view.W))
	root.SetAttr("height", num(b.view.H))
	group.AppendChild(root)
	b.cc.useFamilies(root)

	if err := b.add(b.visibility(i, group, start, end), where); err != nil {
		return err
	}
	if s.Caption != "" {
		capt, err := b.caption(i, group, s.Caption, start, end, where)
		if err != nil {
			return err
		}
		st.res.Caption = capt
	}
	lg.DebugContext(ctx, "scene compiled",
		slog.Int("start_ms", start),
		slog.Int("end_ms", end),
		slog.Int("actions", len(s.Animations)))
	return nil
}

// visibility shows the scene group for [start, end] only, snapping at the
// boundaries so two scenes never blend. Hidden scenes also drop out of hit
// testing, otherwise a later scene's caption would catch seek clicks.
func (b *build) visibility(i int, group *svgdoc.Node, startMs, endMs int) *anim.Track {
	tl := b.cur.Timeline
	hidden := []anim.Decl{anim.D("opacity", "0"), anim.D("visibility", "hidden")}
	shown := []anim.Decl{anim.D("opacity", "1"), anim.D("visibility", "visible")}
	t := anim.NewTrack(fmt.Sprintf("scene-%d", i), overlay(group), anim.FamilyTrack)
	if startMs > 0 {
		t.Add(0, hidden...)
		t.Add(tl.Percent(float64(startMs), -anim.Epsilon), hidden...)
	}
	t.Add(tl.P(float64(startMs)), shown...)
	t.Add(tl.P(float64(endMs)), shown...)
	if i < len(b.sc.Scenes)-1 {
		if h := tl.Percent(float64(endMs), anim.Epsilon); h < 100 {
			t.Add(h, hidden...)
			t.Add(100, hidden...)
		}
	}
	return t
}

func (b *build) add(t *anim.Track, w apperr.Where) error {
	if err := b.sheet.Add(t); err != nil {
		return fmt.Errorf("scene %d: %w", w.Scene, err)
	}
	return nil
}

func overlay(n *svgdoc.Node) anim.Target {
	return anim.Target{Scene: anim.OverlayScene, ID: n.ID}
}

func (st *sceneState) target(n *svgdoc.Node) anim.Target {
	return anim.Target{Scene: st.index, ID: n.ID}
}

// Node finds the element a track targets.
func (r *Result) Node(t anim.Target) *svgdoc.Node {
	var root *svgdoc.Node
	skip := map[*svgdoc.Node]bool{}
	if t.Scene == anim.OverlayScene {
		root = r.Doc.Root
		for _, cs := range r.Scenes {
			skip[cs.Root] = true
		}
	} else if t.Scene >= 0 && t.Scene < len(r.Scenes) {
		root = r.Scenes[t.Scene].Root
	} else {
		return nil
	}
	var found *svgdoc.Node
	root.Walk(func(n *svgdoc.Node) bool {
		if found != nil || skip[n] || !n.IsElement() {
			return false
		}
		if n.ID == t.ID {
			found = n
			return false
		}
		return true
	})
	return found
}

// Resolve returns the CSS id of a track target, giving the element a
// generated id when it has none.
func (r *Result) Resolve(t anim.Target) (string, bool) {
	n := r.Node(t)
	if n == nil {
		return "", false
	}
	if id := n.Get("id"); id != "" {
		return id, true
	}
	id := fmt.Sprintf("svgif-e%d", n.ID)
	if t.Scene != anim.OverlayScene {
		id = fmt.Sprintf("svgif-s%d-e%d", t.Scene, n.ID)
	}
	n.SetAttr("id", id)
	return id, true
}

// CSS renders every track of the build.
func (r *Result) CSS(trackTiming, pointerTiming string) (string, error) {
	return r.Sheet.Render(anim.RenderOptions{
		TotalMs:       r.TotalMs,
		Loop:          r.Loop,
		TrackTiming:   trackTiming,
		PointerTiming: pointerTiming,
	}, r.Resolve)
}

// Animated reports whether n or any element below it in scene i owns a
// track or is the target of one of the scene's actions.
func (r *Result) Animated(i int, n *svgdoc.Node) bool {
	if i < 0 || i >= len(r.Scenes) {
		return false
	}
	for _, t := range r.Scenes[i].Targets {
		if n.Contains(t) {
			return true
		}
	}
	hit := false
	targets := r.Sheet.Targets()
	n.Walk(func(c *svgdoc.Node) bool {
		if hit || !c.IsElement() {
			return false
		}
		if targets[anim.Target{Scene: i, ID: c.ID}] {
			hit = true
		}
		return !hit
	})
	return hit
}

func formatBox(r vector.Rect) string {
	return num(r.X) + " " + num(r.Y) + " " + num(r.W) + " " + num(r.H)
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
