/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("SVGIF_LOG_LEVEL", "warn")
	t.Setenv("SVGIF_LOG_FORMAT", "json")
	t.Setenv("SVGIF_LOG_SOURCE", "true")
	// SVGIF_LOG_FILE intentionally unset

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	// Also verify getenv default fallback when var missing
	if err := os.Unsetenv("SOME_UNSET_VAR"); err != nil {
		t.Fatalf("Unsetenv error: %v", err)
	}
	if v := getenv("SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, false)

	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	l := slog.New(h).With(slog.String("app", "svgif"), slog.String("component", "export"), slog.String("k", "v"))
	l.WithGroup("grp").Error("build failed",
		slog.Int("n", 42),
		slog.Float64("pi", 3.14),
		slog.Duration("took", 1500*time.Microsecond),
		slog.String("file", "my scene.svg"),
	)

	out := buf.String()
	for _, want := range []string{" ERR [export] build failed", " k=v", " grp.n=42", " grp.pi=3.14", " grp.took=1.5ms", ` grp.file="my scene.svg"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "app=") {
		t.Errorf("static attrs should stay out of console output: %q", out)
	}
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Errorf("expected exactly one line: %q", out)
	}
}

func TestConsoleHandlerSource(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newConsoleHandler(&buf, slog.LevelDebug, true)).Debug("probe")
	if !strings.Contains(buf.String(), "src=log/logger_more_test.go:") {
		t.Fatalf("source location missing: %q", buf.String())
	}
}
