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
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestMigrations_UpgradeV1ToV2 ensures that a v1 cache (no hit counter) is migrated and keeps its rows.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	dir := t.TempDir()
	idx := IndexPath(dir)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(idx))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE builds (key TEXT PRIMARY KEY, scenario TEXT NOT NULL, svg BLOB NOT NULL, size INTEGER NOT NULL DEFAULT 0, total_ms INTEGER NOT NULL, scenes INTEGER NOT NULL, created_at TEXT NOT NULL, last_access INTEGER NOT NULL DEFAULT 0);`,
		`INSERT INTO builds(key, scenario, svg, size, total_ms, scenes, created_at) VALUES('old', 'demo.yaml', x'3c7376672f3e', 6, 1000, 1, '2020-01-01T00:00:00Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	db.Close()

	c, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()
	if c.Rebuilt {
		t.Fatalf("a v1 cache must be migrated, not rebuilt")
	}
	var schema int
	if err := c.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != 2 {
		t.Fatalf("expected schema 2 after migration, got %d", schema)
	}
	b, err := c.Get(ctx, "old")
	if err != nil || b == nil {
		t.Fatalf("Get old row: %v %v", b, err)
	}
	if string(b.SVG) != "<svg/>" || b.Hits != 1 {
		t.Fatalf("migrated row = %q hits %d", b.SVG, b.Hits)
	}
	if _, err := os.Stat(filepath.Join(dir, "backups")); err == nil {
		t.Fatalf("migration must not write a backup")
	}
}
