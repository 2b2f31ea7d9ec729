/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"svgif/internal/apperr"
	"svgif/internal/svgdoc"
)

//go:embed scene.schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Load reads a scene list file (YAML or JSON), validates it and parses every
// referenced SVG file.
func Load(ctx context.Context, path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene list %s: %w", path, err)
	}
	sc, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if err := sc.LoadDocuments(ctx); err != nil {
		return nil, err
	}
	return sc, nil
}

// Parse decodes and validates a scene list without touching the SVG files.
func Parse(data []byte, dir string) (*Scenario, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperr.Configuration(apperr.Global, "decode scene list").Wrap(err)
	}
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, apperr.Configuration(apperr.Global, "schema validation").Wrap(err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, apperr.Configuration(apperr.Global, "scene list does not match schema: %s", strings.Join(msgs, "; "))
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&sc); err != nil {
		return nil, apperr.Configuration(apperr.Global, "decode scene list").Wrap(err)
	}
	sc.Dir = dir
	for i := range sc.Scenes {
		for j := range sc.Scenes[i].Animations {
			if a := &sc.Scenes[i].Animations[j]; a.Type == zoomToAlias {
				a.Type = ZoomToElement
			}
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Path resolves a scene's SVG file against the scene list directory.
func (s *Scenario) Path(i int) string {
	name := s.Scenes[i].SVGFileName
	if filepath.IsAbs(name) || s.Dir == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// LoadDocuments reads and parses every scene's SVG file concurrently. The
// first failure cancels the remaining reads.
func (s *Scenario) LoadDocuments(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range s.Scenes {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			where := apperr.Where{Scene: i, File: s.Scenes[i].SVGFileName}
			data, err := os.ReadFile(s.Path(i))
			if err != nil {
				return apperr.Configuration(where, "read svg").Wrap(err)
			}
			doc, err := svgdoc.Parse(bytes.NewReader(data))
			if err != nil {
				return apperr.Configuration(where, "parse svg").Wrap(err)
			}
			s.Scenes[i].Source = data
			s.Scenes[i].Doc = doc
			return nil
		})
	}
	return g.Wait()
}

// Files lists the resolved SVG paths in scene order.
func (s *Scenario) Files() []string {
	out := make([]string, len(s.Scenes))
	for i := range s.Scenes {
		out[i] = s.Path(i)
	}
	return out
}
