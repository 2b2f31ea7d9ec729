/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compiler

import (
	"fmt"

	"svgif/internal/anim"
	"svgif/internal/apperr"
	"svgif/internal/scene"
	"svgif/internal/svgdoc"
	"svgif/internal/vector"
)

func (b *build) action(st *sceneState, j int, a scene.Action, startMs int, w apperr.Where) error {
	var target *svgdoc.Node
	if a.NeedsTarget() {
		nodes, err := svgdoc.QueryAll(st.root, a.ElementSelector)
		if err != nil {
			return apperr.Configuration(w, "invalid selector").Wrap(err)
		}
		if len(nodes) == 0 {
			return apperr.TargetNotFound(w, "no element matches")
		}
		target = nodes[0]
		st.res.Targets = append(st.res.Targets, target)
	}
	tl := b.cur.Timeline
	name := fmt.Sprintf("s%d-a%d", st.index, j+1)
	from, to := tl.P(float64(startMs)), tl.P(float64(startMs+a.Duration))

	switch a.Type {
	case scene.Wait:
		return nil
	case scene.MoveTo:
		p := vector.Pt{X: a.XY[0], Y: a.XY[1]}
		b.cursor.AddMove(startMs, a.Duration, st.toOut.Apply(p))
		return nil
	case scene.Click, scene.ClickAppearOnHover:
		return b.click(st, name, j, a, target, startMs, w)
	case scene.FadeIn:
		return b.add(anim.Reveal(name+"-fade", st.target(b.claim(st, target)), from, to, anim.RevealOpacity), w)
	case scene.GrowIn:
		return b.add(anim.Reveal(name+"-grow", st.target(b.claim(st, target)), from, to, anim.RevealGrow), w)
	case scene.RevealList:
		return b.add(anim.Reveal(name+"-list", st.target(b.claim(st, target)), from, to, anim.RevealTopToBottom), w)
	case scene.Type:
		return b.typeText(st, name, a, target, startMs, w)
	case scene.ZoomToElement:
		return b.zoom(st, name, a, target, startMs, w)
	}
	return apperr.Configuration(w, "unknown action type %q", a.Type)
}

// claim returns the element a new track may animate: n itself, or a fresh
// wrapper when n already owns a track. Tracks are never merged.
func (b *build) claim(st *sceneState, n *svgdoc.Node) *svgdoc.Node {
	for b.sheet.Claimed(st.target(n)) {
		name := "g"
		if enclosing(n, "text") != nil {
			name = "tspan"
		}
		n = st.doc.WrapWith(n, name)
	}
	return n
}

// bbox measures n and rejects boxes without any extent. A box that is thin
// on one axis, such as a horizontal line, is still a valid click target;
// camera actions check the width themselves.
func (b *build) bbox(st *sceneState, n *svgdoc.Node, w apperr.Where) (vector.Rect, error) {
	r, err := st.meas.BBox(n)
	if err != nil {
		return vector.Rect{}, apperr.Measurement(w, "bounding box unavailable").Wrap(err)
	}
	if r.W <= 0 && r.H <= 0 {
		return vector.Rect{}, apperr.Measurement(w, "element lies outside the viewport or has no size")
	}
	return r, nil
}

func (b *build) click(st *sceneState, name string, j int, a scene.Action, target *svgdoc.Node, startMs int, w apperr.Where) error {
	wait := a.WaitBeforeClickMs()
	if a.Duration <= wait {
		return apperr.DurationTooShort(w, "click duration %dms must exceed waitBeforeClick %dms", a.Duration, wait)
	}
	box, err := b.bbox(st, target, w)
	if err != nil {
		return err
	}
	var off *vector.Pt
	if a.Offset != nil {
		off = &vector.Pt{X: a.Offset.X, Y: a.Offset.Y}
	}
	k := anim.Click{
		StartMs:           startMs,
		DurationMs:        a.Duration,
		WaitBeforeClickMs: wait,
		LingerMs:          a.Linger(),
		ClickFollows:      b.clickFollows(st.index, j),
		Target:            st.toOut.Apply(anim.ClickTarget(box, off)),
	}
	// The appear time depends on where the pointer comes from.
	appear := b.cursor.HoverAppearMs(k)
	if _, err := b.cursor.AddClick(k); err != nil {
		return apperr.DurationTooShort(w, "%v", err)
	}
	if a.Type != scene.ClickAppearOnHover {
		return nil
	}
	tl := b.cur.Timeline
	return b.add(anim.Reveal(name+"-hover", st.target(b.claim(st, target)),
		tl.P(appear), tl.P(float64(k.ClickEndMs())), anim.RevealOpacity), w)
}

// clickFollows reports whether the action after (scene i, action j), which
// may be the first action of the next scene, is a click.
func (b *build) clickFollows(i, j int) bool {
	scenes := b.sc.Scenes
	if j+1 < len(scenes[i].Animations) {
		return scenes[i].Animations[j+1].IsClick()
	}
	if i+1 < len(scenes) && len(scenes[i+1].Animations) > 0 {
		return scenes[i+1].Animations[0].IsClick()
	}
	return false
}

// rootGroup is the group the camera moves: the first <g> directly under the
// scene's <svg>.
func rootGroup(root *svgdoc.Node) *svgdoc.Node { return root.FirstChild("g") }

func (b *build) camera(st *sceneState, name string, box vector.Rect, maxScale float64, startMs, durationMs int, w apperr.Where) error {
	rg := rootGroup(st.root)
	if rg == nil {
		return apperr.TargetNotFound(w, "scene has no root group to move the camera on")
	}
	if box.W <= 0 {
		return apperr.Measurement(w, "element has no width to zoom to")
	}
	cam := anim.FitCamera(st.view, box, maxScale)
	t := anim.CameraTrack(name+"-cam", st.target(b.claim(st, rg)), b.cur.Timeline, b.opts.Phases, startMs, durationMs, cam)
	return b.add(t, w)
}

func (b *build) typeText(st *sceneState, name string, a scene.Action, target *svgdoc.Node, startMs int, w apperr.Where) error {
	if err := b.opts.Phases.CheckType(a.Duration); err != nil {
		return apperr.DurationTooShort(w, "%v", err)
	}
	nodes := TextRuns(target)
	if len(nodes) == 0 {
		return apperr.TargetNotFound(w, "element contains no text runs")
	}
	if rootGroup(st.root) == nil {
		return apperr.TargetNotFound(w, "scene has no root group to move the camera on")
	}
	box, err := b.bbox(st, target, w)
	if err != nil {
		return err
	}
	runs := make([]anim.Run, 0, len(nodes))
	for _, n := range nodes {
		width, err := st.meas.TextWidth(n)
		if err != nil {
			return apperr.Measurement(w, "text run width unavailable").Wrap(err)
		}
		runs = append(runs, anim.Run{Target: st.target(b.claim(st, n)), Width: width})
	}
	window := b.opts.Phases.ContentWindow(startMs, a.Duration)
	tracks, err := anim.TypeRuns(name+"-type", b.cur.Timeline, window, runs)
	if err != nil {
		return apperr.Measurement(w, "%v", err)
	}
	if err := b.camera(st, name, box, 0, startMs, a.Duration, w); err != nil {
		return err
	}
	for _, t := range tracks {
		if err := b.add(t, w); err != nil {
			return err
		}
	}
	return nil
}

func (b *build) zoom(st *sceneState, name string, a scene.Action, target *svgdoc.Node, startMs int, w apperr.Where) error {
	if err := b.opts.Phases.CheckZoom(a.Duration); err != nil {
		return apperr.DurationTooShort(w, "%v", err)
	}
	box, err := b.bbox(st, target, w)
	if err != nil {
		return err
	}
	return b.camera(st, name, box, a.ZoomMaxScale(), startMs, a.Duration, w)
}
