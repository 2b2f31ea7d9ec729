/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"svgif/internal/scene"
)

// Watch builds once and then rebuilds whenever the scene list or one of the
// SVG files it references changes, until ctx is cancelled. Build errors are
// logged and do not stop watching. The watched set is refreshed after every
// change, so scenes added to the list are picked up.
func (s *Session) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	files := map[string]bool{}
	dirs := map[string]bool{}
	refresh := func() {
		for _, p := range s.inputs() {
			files[p] = true
			d := filepath.Dir(p)
			if dirs[d] {
				continue
			}
			// Watching the directory survives editors that replace files on save.
			if err := w.Add(d); err != nil {
				s.log.Warn("watch dir failed", slog.String("dir", d), slog.Any("err", err))
				continue
			}
			dirs[d] = true
		}
	}
	refresh()
	_ = s.Rebuild(ctx)
	s.log.Info("watching", slog.Int("files", len(files)))

	timer := newDebouncer(s.opts.Debounce)
	defer timer.stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("watch stopped")
			return nil

		case <-timer.C():
			timer.fired()
			refresh()
			if err := s.Rebuild(ctx); err != nil && ctx.Err() != nil {
				return nil
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !files[abs(ev.Name)] {
				continue
			}
			s.log.Debug("input changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			timer.schedule()

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Error("watcher error", slog.Any("err", werr))
		}
	}
}

// inputs lists the scene list and the SVG files it references as absolute
// paths. An unreadable list still yields itself.
func (s *Session) inputs() []string {
	list := abs(s.opts.Path)
	out := []string{list}
	data, err := os.ReadFile(list)
	if err != nil {
		return out
	}
	sc, err := scene.Parse(data, filepath.Dir(list))
	if err != nil {
		return out
	}
	for _, f := range sc.Files() {
		out = append(out, abs(f))
	}
	return out
}

func abs(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return filepath.Clean(a)
	}
	return filepath.Clean(p)
}
