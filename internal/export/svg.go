/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export assembles compiled scenes into the final animated SVG and
// runs the load, compile, compress and assemble pipeline.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"svgif/internal/anim"
	"svgif/internal/compiler"
	"svgif/internal/svgdoc"
	"svgif/internal/textlayout"
)

// SVGOptions controls document assembly.
//
//nolint:revive // clarity is preferred
type SVGOptions struct {
	TrackTiming   string // default ease-in-out
	PointerTiming string // default ease-out
	Scrubber      bool
	// ScrubberSeek adds per-scene click-to-seek regions to the scrubber.
	ScrubberSeek bool
	// Fonts measured the text during compilation; the faces of every family
	// the document uses are embedded.
	Fonts *textlayout.FontLibrary
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{TrackTiming: "ease-in-out", PointerTiming: "ease-out", Scrubber: true}
}

// Scrubber geometry in output units.
const (
	scrubberH     = 6.0
	scrubberTrack = "svgif-scrubber"
)

// seekEpsilonMs nudges a seek past the target time so the browser recomputes
// every animation.
const seekEpsilonMs = 1

const pauseCSS = `svg:active *, .svgif-pressed * { animation-play-state: paused; }
.svgif-seek { cursor: pointer; }
`

const playbackScript = `(function(){
var s=document.currentScript;var svg=s&&s.closest?s.closest("svg"):document.documentElement;if(!svg)return;
svg.addEventListener("pointerdown",function(){svg.classList.add("svgif-pressed");});
["pointerup","pointercancel","pointerleave"].forEach(function(t){svg.addEventListener(t,function(){svg.classList.remove("svgif-pressed");});});
svg.addEventListener("click",function(e){
var el=e.target&&e.target.closest?e.target.closest(".svgif-seek"):null;if(!el||!svg.getAnimations)return;
var start=+el.getAttribute("data-seek-start")||0,dur=+el.getAttribute("data-seek-duration")||0;
var r=el.getBoundingClientRect();var f=r.width>0?Math.min(1,Math.max(0,(e.clientX-r.left)/r.width)):0;
var t=start+f*dur+` + "%d" + `;
svg.getAnimations({subtree:true}).forEach(function(a){a.currentTime=t;});
});
})();`

// Assemble finishes res and serializes it: the scrubber overlay, the style
// sheet with embedded fonts, the playback script and the pointer on top.
// res is modified and must not be assembled twice.
func Assemble(res *compiler.Result, opt SVGOptions) ([]byte, error) {
	if res == nil || res.Doc == nil {
		return nil, fmt.Errorf("nothing to assemble")
	}
	root := res.Doc.Root
	if opt.Scrubber {
		if err := scrubber(res, opt.ScrubberSeek); err != nil {
			return nil, err
		}
	}
	// The pointer stays above every scene and overlay.
	if res.Pointer != nil && res.Pointer.Parent != nil {
		res.Pointer.Remove()
		root.AppendChild(res.Pointer)
	}

	css, err := res.CSS(opt.TrackTiming, opt.PointerTiming)
	if err != nil {
		return nil, fmt.Errorf("render style sheet: %w", err)
	}
	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}
	for _, f := range fontFaces(opt.Fonts, res.Families) {
		style := "normal"
		if f.Italic {
			style = "italic"
		}
		wf("@font-face { font-family: %s; src: url(data:%s;base64,%s) format(%q); font-weight: %d; font-style: %s; }\n",
			strconv.Quote(f.Family), fontMime(f.Format), base64.StdEncoding.EncodeToString(f.Data), f.Format, f.Weight, style)
	}
	wf("%s", pauseCSS)
	wf("%s", css)
	if werr != nil {
		return nil, fmt.Errorf("build style sheet: %w", werr)
	}

	style := res.Doc.NewElement("style", svgdoc.Attr{Name: "type", Value: "text/css"})
	style.AppendChild(svgdoc.NewText(buf.String()))
	if defs := root.FirstChild("defs"); defs != nil && len(root.Children) > 0 && root.Children[0] == defs {
		defs.Remove()
		root.PrependChild(style)
		root.PrependChild(defs)
	} else {
		root.PrependChild(style)
	}
	script := res.Doc.NewElement("script", svgdoc.Attr{Name: "type", Value: "text/javascript"})
	script.AppendChild(svgdoc.NewText(fmt.Sprintf(playbackScript, seekEpsilonMs)))
	root.AppendChild(script)

	return []byte(res.Doc.Serialize()), nil
}

// scrubber adds a bar along the bottom edge that fills once over the whole
// timeline. With seek enabled every scene gets a transparent click region
// proportional to its share of the timeline.
func scrubber(res *compiler.Result, seek bool) error {
	doc, view := res.Doc, res.ViewBox
	y := view.Y + view.H - scrubberH
	g := doc.NewElement("g", svgdoc.Attr{Name: "class", Value: "svgif-scrubber"})
	g.AppendChild(doc.NewElement("rect",
		svgdoc.Attr{Name: "x", Value: fx(view.X)},
		svgdoc.Attr{Name: "y", Value: fx(y)},
		svgdoc.Attr{Name: "width", Value: fx(view.W)},
		svgdoc.Attr{Name: "height", Value: fx(scrubberH)},
		svgdoc.Attr{Name: "fill", Value: "#e5e7eb"},
		svgdoc.Attr{Name: "fill-opacity", Value: "0.6"}))
	fill := doc.NewElement("rect",
		svgdoc.Attr{Name: "x", Value: fx(view.X)},
		svgdoc.Attr{Name: "y", Value: fx(y)},
		svgdoc.Attr{Name: "width", Value: fx(view.W)},
		svgdoc.Attr{Name: "height", Value: fx(scrubberH)},
		svgdoc.Attr{Name: "fill", Value: "#6366f1"})
	g.AppendChild(fill)
	if seek && res.TotalMs > 0 {
		total := float64(res.TotalMs)
		for _, cs := range res.Scenes {
			dur := cs.EndMs - cs.StartMs
			g.AppendChild(doc.NewElement("rect",
				svgdoc.Attr{Name: "class", Value: "svgif-seek"},
				svgdoc.Attr{Name: "x", Value: fx(view.X + float64(cs.StartMs)/total*view.W)},
				svgdoc.Attr{Name: "y", Value: fx(y)},
				svgdoc.Attr{Name: "width", Value: fx(float64(dur) / total * view.W)},
				svgdoc.Attr{Name: "height", Value: fx(scrubberH)},
				svgdoc.Attr{Name: "fill", Value: "transparent"},
				svgdoc.Attr{Name: "data-seek-start", Value: strconv.Itoa(cs.StartMs)},
				svgdoc.Attr{Name: "data-seek-duration", Value: strconv.Itoa(dur)}))
		}
	}
	res.Doc.Root.AppendChild(g)

	t := anim.NewTrack(scrubberTrack, anim.Target{Scene: anim.OverlayScene, ID: fill.ID}, anim.FamilyLinear)
	t.Static = []anim.Decl{anim.D("transform-box", "fill-box")}
	t.Add(0, anim.D("transform", "translateX(-100%)"))
	t.Add(100, anim.D("transform", "translateX(0%)"))
	if err := res.Sheet.Add(t); err != nil {
		return fmt.Errorf("scrubber: %w", err)
	}
	return nil
}

// fontFaces picks the loaded faces of the families the document uses. A
// face appears once however often its family is referenced.
func fontFaces(fl *textlayout.FontLibrary, families []string) []textlayout.EmbeddedFont {
	if fl == nil || len(families) == 0 {
		return nil
	}
	used := make(map[string]bool, len(families))
	for _, f := range families {
		used[f] = true
	}
	var out []textlayout.EmbeddedFont
	for _, f := range fl.Embedded() {
		if used[f.Family] {
			out = append(out, f)
		}
	}
	return out
}

func fontMime(format string) string {
	if format == "opentype" {
		return "font/otf"
	}
	return "font/ttf"
}

// WriteSVG writes data to path through a temporary file in the same
// directory, so a failed write never leaves a partial document behind.
func WriteSVG(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write svg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close svg: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod svg: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace svg: %w", err)
	}
	return nil
}

func fx(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
