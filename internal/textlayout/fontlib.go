/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores loaded OpenType fonts mapped by family/weight/italic.
// It keeps the raw font bytes so the same files can be embedded into the
// generated document as @font-face rules.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[fontKey]*loadedFont
	order []fontKey
	faces map[faceKey]font.Face
}

type fontKey struct {
	family string
	weight int
	italic bool
}

type faceKey struct {
	fontKey
	size float64
}

type loadedFont struct {
	font   *opentype.Font
	data   []byte
	format string
}

// EmbeddedFont is a loaded font file ready to be written as @font-face.
type EmbeddedFont struct {
	Family string
	Weight int
	Italic bool
	Format string // "truetype" or "opentype"
	Data   []byte
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*loadedFont), faces: make(map[faceKey]font.Face)}
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	format := "truetype"
	if strings.HasSuffix(strings.ToLower(path), ".otf") {
		format = "opentype"
	}
	if err := fl.Add(family, weight, italic, format, data); err != nil {
		return fmt.Errorf("font %s: %w", path, err)
	}
	return nil
}

// Add registers already loaded font bytes. Re-adding a key replaces it.
func (fl *FontLibrary) Add(family string, weight int, italic bool, format string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	if weight == 0 {
		weight = 400
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*loadedFont)
		fl.faces = make(map[faceKey]font.Face)
	}
	k := fontKey{family: family, weight: weight, italic: italic}
	if _, ok := fl.fonts[k]; !ok {
		fl.order = append(fl.order, k)
	}
	fl.fonts[k] = &loadedFont{font: f, data: data, format: format}
	return nil
}

// Embedded lists every loaded font once, in load order.
func (fl *FontLibrary) Embedded() []EmbeddedFont {
	if fl == nil {
		return nil
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	out := make([]EmbeddedFont, 0, len(fl.order))
	for _, k := range fl.order {
		lf := fl.fonts[k]
		out = append(out, EmbeddedFont{Family: k.family, Weight: k.weight, Italic: k.italic, Format: lf.format, Data: lf.data})
	}
	return out
}

// Has reports whether any face of family is loaded.
func (fl *FontLibrary) Has(family string) bool {
	if fl == nil {
		return false
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	for _, k := range fl.order {
		if k.family == family {
			return true
		}
	}
	return false
}

func (fl *FontLibrary) find(spec FontSpec) (fontKey, *loadedFont) {
	if fl == nil || fl.fonts == nil {
		return fontKey{}, nil
	}
	weight := spec.Weight
	if weight == 0 {
		weight = 400
	}
	// Exact match first
	k := fontKey{family: spec.Family, weight: weight, italic: spec.Italic}
	if f, ok := fl.fonts[k]; ok {
		return k, f
	}
	// Same family any weight/italic, in load order so the pick is stable
	for _, k := range fl.order {
		if k.family == spec.Family {
			return k, fl.fonts[k]
		}
	}
	return fontKey{}, nil
}

// face returns a cached face for the spec, creating it on first use.
func (fl *FontLibrary) face(spec FontSpec) font.Face {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	k, lf := fl.find(spec)
	if lf == nil {
		return nil
	}
	fk := faceKey{fontKey: k, size: spec.SizePx}
	if f, ok := fl.faces[fk]; ok {
		return f
	}
	f, err := opentype.NewFace(lf.font, &opentype.FaceOptions{Size: spec.SizePx, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil
	}
	fl.faces[fk] = f
	return f
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// It uses kerning as provided by opentype.Face and font.Drawer.
type OTProvider struct {
	Lib      *FontLibrary
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) Face {
	spec = spec.withDefaults()
	if p.Lib != nil {
		if f := p.Lib.face(spec); f != nil {
			m := f.Metrics()
			return Face{
				Face:  f,
				Scale: 1,
				Metrics: Metrics{
					Ascent:  fixedToPx(m.Ascent),
					Descent: fixedToPx(m.Descent),
					LineGap: fixedToPx(m.Height) - fixedToPx(m.Ascent) - fixedToPx(m.Descent),
				},
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
