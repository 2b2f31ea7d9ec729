/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compiler

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"svgif/internal/anim"
	"svgif/internal/apperr"
	applog "svgif/internal/log"
	"svgif/internal/scene"
	"svgif/internal/svgdoc"
)

const page = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800 600">
  <g id="root">
    <rect id="btn" x="100" y="50" width="80" height="40"/>
    <rect id="chart" x="300" y="200" width="100" height="50"/>
    <g id="card"><rect x="10" y="300" width="200" height="100"/></g>
    <text id="prompt" x="20" y="500"><tspan textLength="30">Hi</tspan><tspan textLength="70">there</tspan></text>
  </g>
</svg>`

func mustDoc(t *testing.T, src string) *svgdoc.Document {
	t.Helper()
	d, err := svgdoc.ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

// scenario builds scenes over fresh copies of src; file names alternate so
// consecutive scenes differ.
func scenario(t *testing.T, src string, scenes ...[]scene.Action) *scene.Scenario {
	t.Helper()
	sc := &scene.Scenario{}
	for i, acts := range scenes {
		name := "a.svg"
		if i%2 == 1 {
			name = "b.svg"
		}
		sc.Scenes = append(sc.Scenes, scene.Scene{SVGFileName: name, Animations: acts, Doc: mustDoc(t, src)})
	}
	return sc
}

func compile(t *testing.T, sc *scene.Scenario) (*Result, error) {
	t.Helper()
	return Compile(context.Background(), NewContext(nil, applog.Discard()), sc, DefaultOptions())
}

func mustCompile(t *testing.T, sc *scene.Scenario) *Result {
	t.Helper()
	res, err := compile(t, sc)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return res
}

func wait(ms int) scene.Action { return scene.Action{Type: scene.Wait, Duration: ms} }

func act(typ scene.ActionType, sel string, ms int) scene.Action {
	return scene.Action{Type: typ, ElementSelector: sel, Duration: ms}
}

func opacity(v string) []anim.Decl { return []anim.Decl{anim.D("opacity", v)} }

func sceneDecls(v string) []anim.Decl {
	vis := "visible"
	if v == "0" {
		vis = "hidden"
	}
	return []anim.Decl{anim.D("opacity", v), anim.D("visibility", vis)}
}

func TestCompile_SceneVisibilitySnapsAtBoundary(t *testing.T) {
	res := mustCompile(t, scenario(t, page, []scene.Action{wait(500)}, []scene.Action{wait(500)}))
	if res.TotalMs != 1000 {
		t.Fatalf("total = %d", res.TotalMs)
	}
	want0 := []anim.Stop{
		{Percent: 0, Decls: sceneDecls("1")},
		{Percent: 50, Decls: sceneDecls("1")},
		{Percent: 50.1, Decls: sceneDecls("0")},
		{Percent: 100, Decls: sceneDecls("0")},
	}
	want1 := []anim.Stop{
		{Percent: 0, Decls: sceneDecls("0")},
		{Percent: 49.9, Decls: sceneDecls("0")},
		{Percent: 50, Decls: sceneDecls("1")},
		{Percent: 100, Decls: sceneDecls("1")},
	}
	if d := cmp.Diff(want0, res.Sheet.Track("scene-0").Stops); d != "" {
		t.Errorf("scene-0 (-want +got):\n%s", d)
	}
	if d := cmp.Diff(want1, res.Sheet.Track("scene-1").Stops); d != "" {
		t.Errorf("scene-1 (-want +got):\n%s", d)
	}
	css, err := res.CSS("", "")
	if err != nil {
		t.Fatalf("css: %v", err)
	}
	for _, s := range []string{"  50.1000% { opacity: 0; visibility: hidden; }", "  50.0000% { opacity: 1; visibility: visible; }", "#scene-1 { animation: scene-1 1000ms ease-in-out infinite; }"} {
		if !strings.Contains(css, s) {
			t.Errorf("css lacks %q:\n%s", s, css)
		}
	}
}

func TestCompile_ExactlyOneSceneVisible(t *testing.T) {
	res := mustCompile(t, scenario(t, page,
		[]scene.Action{wait(700), wait(300)},
		[]scene.Action{wait(1300)},
		[]scene.Action{wait(450), wait(250)},
	))
	var bounds []float64
	tl := anim.NewTimeline(res.TotalMs)
	for _, cs := range res.Scenes {
		bounds = append(bounds, tl.P(float64(cs.StartMs)), tl.P(float64(cs.EndMs)))
	}
	nearBoundary := func(p float64) bool {
		for _, b := range bounds {
			if math.Abs(p-b) <= anim.Epsilon+1e-9 {
				return true
			}
		}
		return false
	}
	for i := 0; i <= 2000; i++ {
		p := float64(i) * 0.05
		if nearBoundary(p) {
			continue
		}
		visible := 0
		for k := range res.Scenes {
			if res.Sheet.Track(sceneTrack(k)).ValueAt("opacity", p) == "1" {
				visible++
			}
		}
		if visible != 1 {
			t.Fatalf("at %.2f%%: %d scenes visible", p, visible)
		}
	}
}

func sceneTrack(i int) string { return "scene-" + string(rune('0'+i)) }

func TestCompile_TimelineIsMonotonic(t *testing.T) {
	res := mustCompile(t, scenario(t, page,
		[]scene.Action{wait(100), act(scene.FadeIn, "#card", 400)},
		[]scene.Action{wait(250), wait(250)},
	))
	want := [][]int{{0, 100}, {500, 750}}
	for i, cs := range res.Scenes {
		if d := cmp.Diff(want[i], cs.ActionStarts); d != "" {
			t.Errorf("scene %d starts (-want +got):\n%s", i, d)
		}
	}
	if res.Scenes[1].EndMs != res.TotalMs {
		t.Fatalf("last scene ends at %d, total %d", res.Scenes[1].EndMs, res.TotalMs)
	}
}

func TestCompile_ClickMovesPointer(t *testing.T) {
	res := mustCompile(t, scenario(t, page, []scene.Action{wait(2000), act(scene.Click, "#btn", 1000), wait(7000)}))
	if len(res.Moves) != 1 {
		t.Fatalf("moves = %d", len(res.Moves))
	}
	m := res.Moves[0]
	if m.From != 20 || m.To != 25 || m.Linger == nil || *m.Linger != 30 {
		t.Fatalf("movement = %+v", m)
	}
	entry := []anim.Decl{anim.D("opacity", "0"), anim.D("transform", "translate(400.00px, 600.00px)")}
	shownAt := func(pt string) []anim.Decl {
		return []anim.Decl{anim.D("opacity", "1"), anim.D("transform", "translate("+pt+")")}
	}
	hiddenAt := func(pt string) []anim.Decl {
		return []anim.Decl{anim.D("opacity", "0"), anim.D("transform", "translate("+pt+")")}
	}
	want := []anim.Stop{
		{Percent: 0, Decls: entry},
		{Percent: 19.9, Decls: entry},
		{Percent: 20, Decls: shownAt("400.00px, 600.00px")},
		{Percent: 25, Decls: shownAt("140.00px, 70.00px")},
		{Percent: 30, Decls: shownAt("140.00px, 70.00px")},
		{Percent: 30.1, Decls: hiddenAt("140.00px, 70.00px")},
		{Percent: 100, Decls: hiddenAt("140.00px, 70.00px")},
	}
	if d := cmp.Diff(want, res.Sheet.Track("cursor").Stops); d != "" {
		t.Fatalf("cursor (-want +got):\n%s", d)
	}
	if res.Pointer == nil || res.Pointer.Get("id") != "cursor" {
		t.Fatalf("pointer element missing")
	}
}

func TestCompile_BackToBackClicksDoNotLinger(t *testing.T) {
	res := mustCompile(t, scenario(t, page,
		[]scene.Action{act(scene.Click, "#btn", 1000)},
		[]scene.Action{act(scene.Click, "#btn", 1000), wait(2000)},
	))
	if len(res.Moves) != 2 {
		t.Fatalf("moves = %d", len(res.Moves))
	}
	if res.Moves[0].Linger != nil {
		t.Fatalf("first click lingers until %v", *res.Moves[0].Linger)
	}
	if l := res.Moves[1].Linger; l == nil || *l != 50 {
		t.Fatalf("second click linger = %v", l)
	}
	// The second movement starts from the first target.
	cursor := res.Sheet.Track("cursor")
	if got := cursor.ValueAt("transform", 25); got != "translate(140.00px, 70.00px)" {
		t.Fatalf("pointer at second start = %s", got)
	}
	if got := cursor.ValueAt("opacity", 20); got != "0" {
		t.Fatalf("pointer visible between clicks")
	}
}

func TestCompile_ClickRejectsShortDuration(t *testing.T) {
	_, err := compile(t, scenario(t, page, []scene.Action{act(scene.Click, "#btn", 500)}))
	if !errors.Is(err, apperr.ErrDurationTooShort) {
		t.Fatalf("want duration error, got %v", err)
	}
}

func TestCompile_HoverRevealAppearsBeforeClick(t *testing.T) {
	res := mustCompile(t, scenario(t, page, []scene.Action{act(scene.ClickAppearOnHover, "#btn", 2000), wait(2000)}))
	tr := res.Sheet.Track("s0-a1-hover")
	if tr == nil {
		t.Fatalf("no hover track")
	}
	// distance from (400,600) to (140,70) is about 590px, so 2360ms lead:
	// clamped to the action start.
	if tr.Stops[0].Percent != 0 || tr.ValueAt("opacity", 0.1) != "1" {
		t.Fatalf("hover stops = %+v", tr.Stops)
	}
}

func TestCompile_TypeTooShort(t *testing.T) {
	_, err := compile(t, scenario(t, page, []scene.Action{act(scene.Type, "#prompt", 1000)}))
	if !errors.Is(err, apperr.ErrDurationTooShort) {
		t.Fatalf("want duration error, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Scene != 0 || ae.Selector != "#prompt" || ae.File != "a.svg" {
		t.Fatalf("error lacks location: %#v", err)
	}
}

func TestCompile_TypeRevealsRunsInOrder(t *testing.T) {
	res := mustCompile(t, scenario(t, page, []scene.Action{act(scene.Type, "#prompt", 2300)}))
	first := res.Sheet.Track("s0-a1-type-1")
	second := res.Sheet.Track("s0-a1-type-2")
	if first == nil || second == nil || res.Sheet.Track("s0-a1-cam") == nil {
		t.Fatalf("missing tracks: %v", trackNames(res))
	}
	var got []float64
	for _, s := range first.Stops {
		got = append(got, s.Percent)
	}
	if d := cmp.Diff([]float64{0, 21.7391, 21.8391, 34.7826, 100}, got); d != "" {
		t.Errorf("first run (-want +got):\n%s", d)
	}
	if second.Stops[1].Percent != 34.7826 {
		t.Errorf("second run starts at %v", second.Stops[1].Percent)
	}
	if second.ValueAt("clip-path", 65.2174) != "inset(0 0 0 0)" {
		t.Errorf("second run not revealed at window end")
	}
}

func TestCompile_ZoomFitsTargetAndCapsScale(t *testing.T) {
	sc := scenario(t, page, []scene.Action{{Type: scene.ZoomToElement, ElementSelector: "#chart", Duration: 2000, MaxScale: 2}})
	res := mustCompile(t, sc)
	cam := res.Sheet.Track("s0-a1-cam")
	if cam == nil {
		t.Fatalf("missing camera: %v", trackNames(res))
	}
	zoomed := "translate(-300.00px, -150.00px) scale(2.0000)"
	if got := cam.ValueAt("transform", 50); got != zoomed {
		t.Fatalf("zoomed transform = %s", got)
	}
	if got := cam.ValueAt("transform", 100); got != "translate(0.00px, 0.00px) scale(1.0000)" {
		t.Fatalf("camera not reset: %s", got)
	}
	if n := res.Node(cam.Target); n == nil || n.Get("id") != "s0-root" {
		t.Fatalf("camera targets %v", n)
	}
}

func TestCompile_ZoomFloor(t *testing.T) {
	if _, err := compile(t, scenario(t, page, []scene.Action{act(scene.ZoomToElement, "#chart", 1799)})); !errors.Is(err, apperr.ErrDurationTooShort) {
		t.Fatalf("1799ms: %v", err)
	}
	if _, err := compile(t, scenario(t, page, []scene.Action{act(scene.ZoomToElement, "#chart", 1800)})); err != nil {
		t.Fatalf("1800ms: %v", err)
	}
}

func TestCompile_MissingTargets(t *testing.T) {
	flat := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><text id="t" x="1" y="20">x</text></svg>`
	cases := []struct {
		name string
		src  string
		a    scene.Action
		kind error
	}{
		{"no match", page, act(scene.FadeIn, "#nope", 500), apperr.ErrTargetNotFound},
		{"no text runs", page, act(scene.Type, "#btn", 2000), apperr.ErrTargetNotFound},
		{"no root group", flat, act(scene.Type, "#t", 2000), apperr.ErrTargetNotFound},
		{"bad selector", page, act(scene.FadeIn, "#", 500), apperr.ErrConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compile(t, scenario(t, tc.src, []scene.Action{tc.a}))
			if !errors.Is(err, tc.kind) {
				t.Fatalf("want %v, got %v", tc.kind, err)
			}
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Selector != tc.a.ElementSelector {
				t.Fatalf("selector = %q", ae.Selector)
			}
		})
	}
}

func TestCompile_RejectsInvalidScenario(t *testing.T) {
	sc := scenario(t, page, []scene.Action{wait(100)}, []scene.Action{wait(100)})
	sc.Scenes[1].SVGFileName = "a.svg"
	if _, err := compile(t, sc); !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("duplicate consecutive image: %v", err)
	}
	empty := scenario(t, page, []scene.Action{})
	if _, err := compile(t, empty); !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("empty scene: %v", err)
	}
}

func TestCompile_SecondEffectWrapsElement(t *testing.T) {
	res := mustCompile(t, scenario(t, page, []scene.Action{act(scene.FadeIn, "#card", 500), act(scene.GrowIn, "#card", 500)}))
	fade, grow := res.Sheet.Track("s0-a1-fade"), res.Sheet.Track("s0-a2-grow")
	if fade == nil || grow == nil {
		t.Fatalf("tracks: %v", trackNames(res))
	}
	card := res.Node(fade.Target)
	wrapper := res.Node(grow.Target)
	if card.Get("id") != "s0-card" || wrapper.Name != "g" || card.Parent != wrapper {
		t.Fatalf("card %s in %s", card.Get("id"), wrapper.Name)
	}
	css, err := res.CSS("", "")
	if err != nil {
		t.Fatalf("css: %v", err)
	}
	id := wrapper.Get("id")
	if !strings.HasPrefix(id, "svgif-s0-e") || !strings.Contains(css, "#"+id+" { transform-box: fill-box; transform-origin: center; animation: s0-a2-grow") {
		t.Fatalf("wrapper rule missing for %q:\n%s", id, css)
	}
}

func TestCompile_NestsScenesAndNamespacesIDs(t *testing.T) {
	res := mustCompile(t, scenario(t, page, []scene.Action{wait(100)}, []scene.Action{wait(100)}))
	if got := res.Doc.Root.Get("viewBox"); got != "0 0 800 600" {
		t.Fatalf("viewBox = %q", got)
	}
	for i, cs := range res.Scenes {
		if cs.Group.Get("id") != sceneTrack(i) || cs.Root.Parent != cs.Group {
			t.Fatalf("scene %d not nested in its group", i)
		}
		if n, _ := svgdoc.QueryOne(cs.Root, "#s"+string(rune('0'+i))+"-btn"); n == nil {
			t.Fatalf("scene %d ids not namespaced", i)
		}
		if cs.Root.Get("width") != "800" || cs.Root.Get("height") != "600" {
			t.Fatalf("scene %d not sized to the viewport", i)
		}
	}
	if res.Pointer != nil {
		t.Fatalf("pointer added without movements")
	}
}

func TestCompile_CaptionProgressBar(t *testing.T) {
	sc := scenario(t, page, []scene.Action{wait(1000)}, []scene.Action{wait(1000)})
	sc.Scenes[1].Caption = "Open the chat"
	res := mustCompile(t, sc)
	capt := res.Scenes[1].Caption
	if capt == nil || capt.Get("data-seek-start") != "1000" || capt.Get("data-seek-duration") != "1000" {
		t.Fatalf("caption = %v", capt)
	}
	if capt.Parent != res.Scenes[1].Group {
		t.Fatalf("caption must hide with its scene")
	}
	bar := res.Sheet.Track("scene-1-progress")
	if bar == nil {
		t.Fatalf("tracks: %v", trackNames(res))
	}
	var got []float64
	for _, s := range bar.Stops {
		got = append(got, s.Percent)
	}
	if d := cmp.Diff([]float64{0, 50.1, 99.9, 100}, got); d != "" {
		t.Fatalf("progress (-want +got):\n%s", d)
	}
	if bar.ValueAt("width", 100) != "0px" || bar.ValueAt("width", 50) != "0px" {
		t.Fatalf("bar not empty outside its scene")
	}
	if bar.Family != anim.FamilyLinear {
		t.Fatalf("progress family = %v", bar.Family)
	}
}

func TestCompile_CaptionWithoutTextFails(t *testing.T) {
	sc := scenario(t, page, []scene.Action{wait(1000)})
	sc.Scenes[0].Caption = "   "
	if _, err := compile(t, sc); !errors.Is(err, apperr.ErrMeasurement) {
		t.Fatalf("want measurement error, got %v", err)
	}
}

func TestCompile_LoopOverride(t *testing.T) {
	sc := scenario(t, page, []scene.Action{wait(1000)})
	off := false
	sc.Loop = &off
	res := mustCompile(t, sc)
	css, err := res.CSS("", "")
	if err != nil {
		t.Fatalf("css: %v", err)
	}
	if !strings.Contains(css, "1000ms ease-in-out 1 forwards") {
		t.Fatalf("non-looping output expected:\n%s", css)
	}
}

func TestCompile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, nil, scenario(t, page, []scene.Action{wait(10)}), DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
}

func trackNames(res *Result) []string {
	var out []string
	for _, t := range res.Sheet.Tracks() {
		out = append(out, t.Name)
	}
	return out
}

func TestCompile_RevealListWipesDown(t *testing.T) {
	res := mustCompile(t, scenario(t, page, []scene.Action{wait(1000), act(scene.RevealList, "#card", 1000)}))
	tr := res.Sheet.Track("s0-a2-list")
	if tr == nil {
		t.Fatalf("tracks: %v", trackNames(res))
	}
	want := []anim.Stop{
		{Percent: 0, Decls: []anim.Decl{anim.D("opacity", "0"), anim.D("clip-path", "inset(0 0 100% 0)")}},
		{Percent: 50, Decls: []anim.Decl{anim.D("opacity", "0"), anim.D("clip-path", "inset(0 0 100% 0)")}},
		{Percent: 50.1, Decls: []anim.Decl{anim.D("opacity", "1"), anim.D("clip-path", "inset(0 0 100% 0)")}},
		{Percent: 100, Decls: []anim.Decl{anim.D("opacity", "1"), anim.D("clip-path", "inset(0 0 0 0)")}},
	}
	if d := cmp.Diff(want, tr.Stops); d != "" {
		t.Fatalf("reveal list (-want +got):\n%s", d)
	}
}

func TestCompile_MoveToUsesSceneCoordinates(t *testing.T) {
	move := scene.Action{Type: scene.MoveTo, XY: []float64{100, 50}, Duration: 1000}
	res := mustCompile(t, scenario(t, page, []scene.Action{wait(1000), move, wait(2000)}))
	if len(res.Moves) != 1 {
		t.Fatalf("moves = %d", len(res.Moves))
	}
	m := res.Moves[0]
	if m.From != 25 || m.To != 50 || m.Linger != nil {
		t.Fatalf("movement = %+v", m)
	}
	cursor := res.Sheet.Track("cursor")
	if got := cursor.ValueAt("transform", 50); got != "translate(100.00px, 50.00px)" {
		t.Fatalf("pointer at arrival = %s", got)
	}
	if got := cursor.ValueAt("opacity", 60); got != "0" {
		t.Fatalf("pointer should hide after a bare move, opacity %s", got)
	}
}

func TestCompile_ThinBoxes(t *testing.T) {
	lines := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 300">
  <g id="root">
    <line id="hr" x1="20" y1="100" x2="220" y2="100" stroke="black"/>
    <line id="rule" x1="50" y1="10" x2="50" y2="200" stroke="black"/>
  </g>
</svg>`
	if _, err := compile(t, scenario(t, lines, []scene.Action{act(scene.Click, "#hr", 1000)})); err != nil {
		t.Fatalf("click on a horizontal line: %v", err)
	}
	_, err := compile(t, scenario(t, lines, []scene.Action{act(scene.ZoomToElement, "#rule", 2000)}))
	if !errors.Is(err, apperr.ErrMeasurement) {
		t.Fatalf("zoom on a zero-width box: %v", err)
	}
}

func TestCompile_HiddenScenesIgnoreClicks(t *testing.T) {
	first := []scene.Action{wait(500)}
	second := []scene.Action{wait(500)}
	sc := scenario(t, page, first, second)
	sc.Scenes[0].Caption = "First"
	sc.Scenes[1].Caption = "Second"
	res := mustCompile(t, sc)
	for _, p := range []float64{0, 25, 49.8} {
		tr := res.Sheet.Track("scene-1")
		if got := tr.ValueAt("visibility", p); got != "hidden" {
			t.Errorf("scene-1 at %v%%: visibility %q", p, got)
		}
		if got := res.Sheet.Track("scene-0").ValueAt("visibility", p); got != "visible" {
			t.Errorf("scene-0 at %v%%: visibility %q", p, got)
		}
	}
	if got := res.Sheet.Track("scene-0").ValueAt("visibility", 75); got != "hidden" {
		t.Errorf("scene-0 at 75%%: visibility %q", got)
	}
	for i, cs := range res.Scenes {
		if cs.Caption == nil || !cs.Group.Contains(cs.Caption) {
			t.Fatalf("caption of scene %d is not inside its scene group", i)
		}
	}
}
