/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compiler

import (
	"log/slog"

	applog "svgif/internal/log"
	"svgif/internal/svgdoc"
	"svgif/internal/textlayout"
)

// Context holds the state of one document build. It is created per build
// and handed to every component, so nothing leaks between builds.
type Context struct {
	Fonts *textlayout.FontLibrary
	Text  textlayout.Provider
	Probe BBoxProbe
	Log   *slog.Logger

	families []string
	seen     map[string]bool
}

// NewContext wires measurement to the configured fonts. A nil library
// measures with the built-in fallback face.
func NewContext(fonts *textlayout.FontLibrary, logger *slog.Logger) *Context {
	var text textlayout.Provider = textlayout.BasicProvider{}
	if fonts != nil {
		text = textlayout.OTProvider{Lib: fonts, Fallback: textlayout.BasicProvider{}}
	}
	if logger == nil {
		logger = applog.WithComponent("compiler")
	}
	return &Context{
		Fonts: fonts,
		Text:  text,
		Probe: GeometryProbe{Text: text},
		Log:   logger,
		seen:  map[string]bool{},
	}
}

// UseFamily records a font family the document renders with. Only families
// present in the font library are kept; each is recorded once.
func (c *Context) UseFamily(family string) {
	if family == "" || c.seen[family] || !c.Fonts.Has(family) {
		return
	}
	if c.seen == nil {
		c.seen = map[string]bool{}
	}
	c.seen[family] = true
	c.families = append(c.families, family)
}

func (c *Context) useFamilies(root *svgdoc.Node) {
	for _, f := range FontFamilies(root) {
		c.UseFamily(f)
	}
}

// Families lists the recorded families in first-use order.
func (c *Context) Families() []string { return append([]string(nil), c.families...) }
