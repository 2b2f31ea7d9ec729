/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"svgif/internal/compiler"
	"svgif/internal/compress"
	applog "svgif/internal/log"
	"svgif/internal/scene"
	"svgif/internal/storage"
	"svgif/internal/version"
)

// BuildOptions controls one run of the pipeline.
//
// CacheDir semantics:
//   - Empty disables the build cache.
//   - A relative path is resolved against the scene list's directory.
type BuildOptions struct {
	Compile           compiler.Options
	SVG               SVGOptions
	Compress          bool
	MinCompressLength int
	CacheDir          string
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		Compile:           compiler.DefaultOptions(),
		SVG:               DefaultSVGOptions(),
		Compress:          true,
		MinCompressLength: compress.DefaultMinLength,
		CacheDir:          storage.DefaultDir,
	}
}

// Output is a finished document.
type Output struct {
	SVG     []byte
	TotalMs int
	Scenes  int
	Tracks  int
	Stats   compress.Stats
	Cached  bool
	Key     string
}

// Build loads the scene list at path and produces the animated document.
// An unchanged scene list, set of SVG files and options is served from the
// build cache. Cache failures are logged and never fail the build.
func Build(ctx context.Context, path string, opt BuildOptions) (*Output, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "build").With(slog.String("scenes_file", path))
	start := time.Now()
	sc, list, err := load(ctx, path)
	if err != nil {
		return nil, err
	}
	key := cacheKey(list, sc, opt)

	var cache *storage.Cache
	if opt.CacheDir != "" {
		dir := opt.CacheDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), dir)
		}
		cache, err = storage.Open(ctx, dir)
		if err != nil {
			l.Warn("build cache unavailable", slog.Any("err", err))
			cache = nil
		} else {
			defer cache.Close()
			if b, err := cache.Get(ctx, key); err != nil {
				l.Warn("cache lookup failed", slog.Any("err", err))
			} else if b != nil {
				l.Info("served from cache", slog.String("key", key[:12]), slog.Int("bytes", len(b.SVG)))
				return &Output{SVG: b.SVG, TotalMs: b.TotalMs, Scenes: b.Scenes, Cached: true, Key: key}, nil
			}
		}
	}

	out, err := compile(ctx, sc, opt)
	if err != nil {
		return nil, err
	}
	out.Key = key
	if cache != nil {
		b := storage.Build{Key: key, Scenario: path, SVG: out.SVG, TotalMs: out.TotalMs, Scenes: out.Scenes}
		if err := cache.Put(ctx, b); err != nil {
			l.Warn("cache store failed", slog.Any("err", err))
		}
	}
	l.Info("built",
		slog.Int("scenes", out.Scenes),
		slog.Int("total_ms", out.TotalMs),
		slog.Int("tracks", out.Tracks),
		slog.Int("compressed_groups", out.Stats.Groups),
		slog.Int("bytes", len(out.SVG)),
		slog.Duration("took", time.Since(start)))
	return out, nil
}

// Validate loads the scene list and compiles it without producing output, so
// every selector and duration is checked.
func Validate(ctx context.Context, path string, opt BuildOptions) (*Output, error) {
	sc, _, err := load(ctx, path)
	if err != nil {
		return nil, err
	}
	cc := compiler.NewContext(opt.SVG.Fonts, nil)
	res, err := compiler.Compile(ctx, cc, sc, opt.Compile)
	if err != nil {
		return nil, err
	}
	return &Output{TotalMs: res.TotalMs, Scenes: len(res.Scenes), Tracks: len(res.Sheet.Tracks())}, nil
}

func load(ctx context.Context, path string) (*scene.Scenario, []byte, error) {
	list, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read scene list %s: %w", path, err)
	}
	sc, err := scene.Parse(list, filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}
	if err := sc.LoadDocuments(ctx); err != nil {
		return nil, nil, err
	}
	return sc, list, nil
}

func compile(ctx context.Context, sc *scene.Scenario, opt BuildOptions) (*Output, error) {
	cc := compiler.NewContext(opt.SVG.Fonts, nil)
	res, err := compiler.Compile(ctx, cc, sc, opt.Compile)
	if err != nil {
		return nil, err
	}
	var stats compress.Stats
	if opt.Compress {
		stats, err = compress.Compress(res, cc.Probe, compress.Options{MinLength: opt.MinCompressLength})
		if err != nil {
			return nil, fmt.Errorf("compress: %w", err)
		}
	}
	svg, err := Assemble(res, opt.SVG)
	if err != nil {
		return nil, err
	}
	return &Output{
		SVG:     svg,
		TotalMs: res.TotalMs,
		Scenes:  len(res.Scenes),
		Tracks:  len(res.Sheet.Tracks()),
		Stats:   stats,
	}, nil
}

// fingerprint is the part of BuildOptions that changes the output.
type fingerprint struct {
	Version           string
	Compile           compiler.Options
	TrackTiming       string
	PointerTiming     string
	Scrubber          bool
	ScrubberSeek      bool
	Compress          bool
	MinCompressLength int
}

func cacheKey(list []byte, sc *scene.Scenario, opt BuildOptions) string {
	fp, _ := json.Marshal(fingerprint{
		Version:           version.String(),
		Compile:           opt.Compile,
		TrackTiming:       opt.SVG.TrackTiming,
		PointerTiming:     opt.SVG.PointerTiming,
		Scrubber:          opt.SVG.Scrubber,
		ScrubberSeek:      opt.SVG.ScrubberSeek,
		Compress:          opt.Compress,
		MinCompressLength: opt.MinCompressLength,
	})
	parts := [][]byte{list, fp}
	for _, s := range sc.Scenes {
		parts = append(parts, []byte(s.SVGFileName), s.Source)
	}
	for _, f := range opt.SVG.Fonts.Embedded() {
		parts = append(parts, []byte(f.Family+"/"+strconv.Itoa(f.Weight)+"/"+strconv.FormatBool(f.Italic)), f.Data)
	}
	return storage.Key(parts...)
}
