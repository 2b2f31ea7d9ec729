/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openTestCache(t *testing.T) (*Cache, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	c, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, ctx
}

func TestCachePutGet(t *testing.T) {
	c, ctx := openTestCache(t)
	if b, err := c.Get(ctx, "missing"); err != nil || b != nil {
		t.Fatalf("miss = %v, %v", b, err)
	}
	in := Build{Key: Key([]byte("a")), Scenario: "demo.yaml", SVG: []byte("<svg>1</svg>"), TotalMs: 4000, Scenes: 2}
	if err := c.Put(ctx, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, in.Key)
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	want := in
	want.Hits = 1
	if diff := cmp.Diff(want, *got, cmp.FilterPath(func(p cmp.Path) bool { return p.String() == "CreatedAt" }, cmp.Ignore())); diff != "" {
		t.Fatalf("build mismatch (-want +got):\n%s", diff)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not set")
	}
	got, _ = c.Get(ctx, in.Key)
	if got.Hits != 2 {
		t.Fatalf("hits = %d, want 2", got.Hits)
	}

	in.SVG = []byte("<svg>22</svg>")
	if err := c.Put(ctx, in); err != nil {
		t.Fatalf("re-Put: %v", err)
	}
	got, _ = c.Get(ctx, in.Key)
	if string(got.SVG) != "<svg>22</svg>" {
		t.Fatalf("replace failed: %q", got.SVG)
	}
	total, err := c.TotalBytes(ctx)
	if err != nil || total != int64(len(in.SVG)) {
		t.Fatalf("TotalBytes = %d, %v", total, err)
	}
}

func TestCachePutRequiresKey(t *testing.T) {
	c, ctx := openTestCache(t)
	if err := c.Put(ctx, Build{SVG: []byte("x")}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, ctx := openTestCache(t)
	c.SetMaxBytes(0)
	blob := make([]byte, 40)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(ctx, Build{Key: k, Scenario: "s", SVG: blob, TotalMs: 1, Scenes: 1}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	// Touch a so that b becomes the oldest entry.
	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatalf("get a: %v", err)
	}
	n, err := c.Evict(ctx, 80)
	if err != nil {
		t.Fatalf("Evict: %v", err)
	}
	if n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if b, _ := c.Get(ctx, "b"); b != nil {
		t.Fatalf("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if b, _ := c.Get(ctx, k); b == nil {
			t.Fatalf("%s should remain", k)
		}
	}
}

func TestCachePutEnforcesCap(t *testing.T) {
	t.Setenv("SVGIF_CACHE_MAX_BYTES", "64")
	c, ctx := openTestCache(t)
	blob := make([]byte, 40)
	for _, k := range []string{"a", "b"} {
		if err := c.Put(ctx, Build{Key: k, Scenario: "s", SVG: blob, TotalMs: 1, Scenes: 1}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	total, _ := c.TotalBytes(ctx)
	if total > 64 {
		t.Fatalf("total %d exceeds cap", total)
	}
	if b, _ := c.Get(ctx, "b"); b == nil {
		t.Fatalf("latest entry must survive eviction")
	}
}

func TestMaxBytesFromEnv(t *testing.T) {
	t.Setenv("SVGIF_CACHE_MAX_BYTES", "")
	if got := MaxBytesFromEnv(); got != DefaultMaxBytes {
		t.Fatalf("default = %d", got)
	}
	t.Setenv("SVGIF_CACHE_MAX_BYTES", "nope")
	if got := MaxBytesFromEnv(); got != DefaultMaxBytes {
		t.Fatalf("invalid value = %d", got)
	}
	t.Setenv("SVGIF_CACHE_MAX_BYTES", "1024")
	if got := MaxBytesFromEnv(); got != 1024 {
		t.Fatalf("explicit = %d", got)
	}
}

func TestKeySeparatesParts(t *testing.T) {
	if Key([]byte("ab"), []byte("c")) == Key([]byte("a"), []byte("bc")) {
		t.Fatalf("moving bytes between parts must change the key")
	}
	if Key([]byte("x")) != Key([]byte("x")) {
		t.Fatalf("key must be deterministic")
	}
	if len(Key()) != 64 {
		t.Fatalf("expected hex sha256")
	}
}
