/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package anim

import (
	"fmt"
	"math"

	"svgif/internal/vector"
)

// Phases are the fixed parts of a camera action in ms.
type Phases struct {
	ZoomIn            int
	WaitBeforeZoomOut int
	ZoomOut           int
	MinContent        int // minimum typing or dwell time
}

var DefaultPhases = Phases{ZoomIn: 500, WaitBeforeZoomOut: 300, ZoomOut: 500, MinContent: 500}

// ViewportMargin is the horizontal room left around a zoomed element.
const ViewportMargin = 50.0

// Fixed is the time spent outside the content window.
func (p Phases) Fixed() int { return p.ZoomIn + p.WaitBeforeZoomOut + p.ZoomOut }

// Floor is the smallest duration that leaves MinContent for the content.
func (p Phases) Floor() int { return p.Fixed() + p.MinContent }

// CheckType requires the duration to strictly exceed the floor.
func (p Phases) CheckType(durationMs int) error {
	if durationMs <= p.Floor() {
		return fmt.Errorf("type needs more than %dms (zoom in %d + typing %d + wait %d + zoom out %d), got %dms",
			p.Floor(), p.ZoomIn, p.MinContent, p.WaitBeforeZoomOut, p.ZoomOut, durationMs)
	}
	return nil
}

// CheckZoom requires at least MinContent of dwell, so the floor itself is
// accepted.
func (p Phases) CheckZoom(durationMs int) error {
	if durationMs < p.Floor() {
		return fmt.Errorf("zoom needs at least %dms (zoom in %d + dwell %d + wait %d + zoom out %d), got %dms",
			p.Floor(), p.ZoomIn, p.MinContent, p.WaitBeforeZoomOut, p.ZoomOut, durationMs)
	}
	return nil
}

// Camera is a scale plus translation applied to a scene's root group with
// transform-origin at 0 0.
type Camera struct {
	Scale  float64
	TX, TY float64
}

// FitCamera centers box in the view, scaled to fit the view width minus the
// margin and capped at maxScale (0 means uncapped). Elements wider than the
// fit width are zoomed out. All values are in the scene's user space.
func FitCamera(view vector.Rect, box vector.Rect, maxScale float64) Camera {
	s := 1.0
	if box.W > 0 {
		s = (view.W - ViewportMargin) / box.W
	}
	if maxScale > 0 {
		s = math.Min(s, maxScale)
	}
	c, vc := box.Center(), view.Center()
	// p maps to t + s*p
	tx := vc.X - s*c.X
	ty := vc.Y - s*c.Y
	return Camera{Scale: s, TX: zeroSign(tx), TY: zeroSign(ty)}
}

// zeroSign turns -0 into 0 so it never prints as "-0.00".
func zeroSign(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}

func (c Camera) transform() string {
	return fmt.Sprintf("translate(%.2fpx, %.2fpx) scale(%.4f)", c.TX, c.TY, c.Scale)
}

var identityCamera = Camera{Scale: 1}

// CameraWindow is the content window of a camera action in ms.
type CameraWindow struct {
	StartMs, EndMs float64
}

// ContentWindow returns the part of the action between zoom-in and the wait
// before zoom-out.
func (p Phases) ContentWindow(startMs, durationMs int) CameraWindow {
	return CameraWindow{
		StartMs: float64(startMs + p.ZoomIn),
		EndMs:   float64(startMs + durationMs - p.ZoomOut - p.WaitBeforeZoomOut),
	}
}

// CameraTrack zooms in over ZoomIn, holds through the content window and the
// wait, then zooms back out over ZoomOut.
func CameraTrack(name string, target Target, tl Timeline, p Phases, startMs, durationMs int, cam Camera) *Track {
	t := NewTrack(name, target, FamilyTrack)
	t.Static = []Decl{D("transform-box", "view-box"), D("transform-origin", "0 0")}
	id := []Decl{D("transform", identityCamera.transform())}
	in := []Decl{D("transform", cam.transform())}
	from := tl.P(float64(startMs))
	if from > 0 {
		t.Add(0, id...)
	}
	t.Add(from, id...)
	t.Add(tl.P(float64(startMs+p.ZoomIn)), in...)
	t.Add(tl.P(float64(startMs+durationMs-p.ZoomOut)), in...)
	t.Add(tl.P(float64(startMs+durationMs)), id...)
	if t.Last() < 100 {
		t.Add(100, id...)
	}
	return t
}

// Run is one text run to be typed, with its rendered width.
type Run struct {
	Target Target
	Width  float64
}

// TypeRuns splits the window across runs proportionally to their width and
// returns one left-to-right wipe per run, each starting where the previous
// one ends. Track names are prefix-1, prefix-2, ...
func TypeRuns(prefix string, tl Timeline, w CameraWindow, runs []Run) ([]*Track, error) {
	total := 0.0
	for _, r := range runs {
		total += r.Width
	}
	if len(runs) == 0 || total <= 0 {
		return nil, fmt.Errorf("no measurable text runs")
	}
	msPerPx := (w.EndMs - w.StartMs) / total
	cur := w.StartMs
	out := make([]*Track, 0, len(runs))
	for i, r := range runs {
		end := cur + r.Width*msPerPx
		out = append(out, Reveal(fmt.Sprintf("%s-%d", prefix, i+1), r.Target, tl.P(cur), tl.P(end), RevealLeftToRight))
		cur = end
	}
	return out, nil
}
