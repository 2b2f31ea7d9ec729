/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"time"

	"svgif/internal/compiler"
	"svgif/internal/config"
	"svgif/internal/export"
	applog "svgif/internal/log"
	"svgif/internal/textlayout"
)

// buildOptions maps the configuration onto the pipeline options and loads
// the configured font files.
func buildOptions(cfg config.AppConfig) (export.BuildOptions, error) {
	opt := export.DefaultBuildOptions()
	opt.Compile = compiler.DefaultOptions()
	opt.Compile.Loop = cfg.Build.Loop
	opt.Compile.CaptionFontSize = cfg.Build.CaptionFontSize
	opt.Compile.CaptionFontFamily = cfg.Build.CaptionFontFamily
	opt.Compress = cfg.Build.Compress
	opt.MinCompressLength = cfg.Build.MinCompressLength
	opt.SVG.Scrubber = cfg.Build.Scrubber
	opt.SVG.ScrubberSeek = cfg.Build.ScrubberSeek
	opt.SVG.TrackTiming = cfg.Build.TrackTiming
	opt.SVG.PointerTiming = cfg.Build.PointerTiming
	opt.CacheDir = ""
	if cfg.Cache.Enabled {
		opt.CacheDir = cfg.Cache.Dir
	}
	if len(cfg.Fonts) > 0 {
		fl := textlayout.NewFontLibrary()
		for _, f := range cfg.Fonts {
			if err := fl.LoadTTF(f.Family, f.Weight, f.Italic, f.Path); err != nil {
				return opt, fmt.Errorf("load font %q: %w", f.Family, err)
			}
		}
		opt.SVG.Fonts = fl
	}
	return opt, nil
}

func logOptions(cfg config.AppConfig) applog.Options {
	return applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
}

func msDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }
