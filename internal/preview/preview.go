/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preview keeps a compiled document up to date while its inputs
// change and serves the latest version over HTTP.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"svgif/internal/export"
	applog "svgif/internal/log"
)

// DefaultDebounce collapses bursts of file events into one rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Options configure a Session.
type Options struct {
	Path     string // scene list file
	Out      string // optional output file rewritten after every successful build
	Debounce time.Duration
	Build    export.BuildOptions
	Logger   *slog.Logger
}

// Snapshot is the state of the most recent build.
type Snapshot struct {
	Version int // successful builds so far
	SVG     []byte
	Built   time.Time
	TotalMs int
	Scenes  int
	Cached  bool
	Err     error // last build error; SVG keeps the previous good document
}

// Session rebuilds one scene list on demand and remembers the result.
type Session struct {
	opts Options
	log  *slog.Logger

	mu   sync.RWMutex
	snap Snapshot
	// builds serializes Rebuild; compilation is a strictly sequential batch job.
	builds sync.Mutex
}

func New(opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("preview")
	}
	return &Session{opts: opts, log: l.With(slog.String("scenes_file", opts.Path))}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Rebuild compiles the scene list once. A failed build keeps the previous
// document and records the error.
func (s *Session) Rebuild(ctx context.Context) error {
	s.builds.Lock()
	defer s.builds.Unlock()
	out, err := export.Build(ctx, s.opts.Path, s.opts.Build)
	if err == nil && s.opts.Out != "" {
		err = export.WriteSVG(s.opts.Out, out.SVG)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.snap.Err = err
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("rebuild failed", slog.Any("err", err))
		}
		return err
	}
	s.snap = Snapshot{
		Version: s.snap.Version + 1,
		SVG:     out.SVG,
		Built:   time.Now(),
		TotalMs: out.TotalMs,
		Scenes:  out.Scenes,
		Cached:  out.Cached,
	}
	s.log.Info("rebuilt", slog.Int("version", s.snap.Version), slog.Bool("cached", out.Cached))
	return nil
}
