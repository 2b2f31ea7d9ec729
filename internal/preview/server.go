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
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// pollMs is how often the preview page asks for a newer version.
const pollMs = 1000

const pageHead = `<!doctype html>
<html><head><meta charset="utf-8"><title>svgif preview</title>
<style>body{margin:0;background:#f3f4f6;font-family:sans-serif}main{max-width:100vw;padding:16px}main>svg{max-width:100%%;height:auto;background:#fff;box-shadow:0 1px 4px #0003}pre{color:#b91c1c;white-space:pre-wrap}</style>
</head><body><main>
`

const pageTail = `</main>
<script>
(function(){var v=%d;setInterval(function(){fetch("/status").then(function(r){return r.json();}).then(function(s){if(s.version!==v||s.error!==%s)location.reload();}).catch(function(){});},%d);})();
</script>
</body></html>
`

type status struct {
	Version int    `json:"version"`
	Built   string `json:"built,omitempty"`
	TotalMs int    `json:"totalMs"`
	Scenes  int    `json:"scenes"`
	Cached  bool   `json:"cached"`
	Error   string `json:"error"`
}

// Router exposes the latest document:
//   - GET /              HTML page with the document inline, reloading on change
//   - GET /document.svg  the raw document
//   - GET /status        JSON build state
//   - GET /health/live   liveness probe
func (s *Session) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/", s.page)
	r.Get("/document.svg", s.document)
	r.Get("/status", s.status)
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

func (s *Session) page(w http.ResponseWriter, _ *http.Request) {
	snap := s.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	code := http.StatusOK
	if snap.SVG == nil {
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, pageHead)
	if snap.Err != nil {
		fmt.Fprintf(w, "<pre>%s</pre>\n", html.EscapeString(snap.Err.Error()))
	}
	if snap.SVG != nil {
		_, _ = w.Write(stripDecl(snap.SVG))
	} else if snap.Err == nil {
		fmt.Fprint(w, "<p>building...</p>\n")
	}
	fmt.Fprintf(w, pageTail, snap.Version, jsString(errString(snap.Err)), pollMs)
}

func (s *Session) document(w http.ResponseWriter, _ *http.Request) {
	snap := s.Snapshot()
	if snap.SVG == nil {
		writeJSON(w, http.StatusServiceUnavailable, status{Error: errString(snap.Err)})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("ETag", fmt.Sprintf(`"v%d"`, snap.Version))
	_, _ = w.Write(snap.SVG)
}

func (s *Session) status(w http.ResponseWriter, _ *http.Request) {
	snap := s.Snapshot()
	st := status{Version: snap.Version, TotalMs: snap.TotalMs, Scenes: snap.Scenes, Cached: snap.Cached, Error: errString(snap.Err)}
	if !snap.Built.IsZero() {
		st.Built = snap.Built.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, st)
}

// Serve watches the inputs and serves the preview on addr until ctx is
// cancelled. A failing server stops the watcher and vice versa.
func (s *Session) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Watch(gCtx)
	})
	g.Go(func() error {
		s.log.Info("preview server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("preview server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("preview server shutdown", slog.Any("err", err))
		}
		return nil
	})
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.Any("err", err))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// jsString quotes s for a script block; json escapes '<' so the string
// cannot close the element.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// stripDecl drops the XML declaration so the document can be inlined in HTML.
func stripDecl(svg []byte) []byte {
	const decl = "<?xml"
	if len(svg) >= len(decl) && string(svg[:len(decl)]) == decl {
		for i := range svg {
			if svg[i] == '>' {
				return svg[i+1:]
			}
		}
	}
	return svg
}
