/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	applog "svgif/internal/log"
)

// DefaultMaxBytes caps the summed size of cached documents.
const DefaultMaxBytes = 64 * 1024 * 1024

// Build is one cached compilation.
type Build struct {
	Key       string
	Scenario  string // scene list path, informational
	SVG       []byte
	TotalMs   int
	Scenes    int
	CreatedAt time.Time
	Hits      int
}

// Cache is an open build cache. It is safe for use by one process; the
// underlying pool holds a single connection.
type Cache struct {
	db       *sql.DB
	dir      string
	maxBytes int64
	log      *slog.Logger
	// Rebuilt is set when Open found a damaged index and replaced it.
	Rebuilt bool
}

// Open opens or creates the cache in dir. A database that fails to open or
// fails its integrity check is backed up to <dir>/backups and recreated.
func Open(ctx context.Context, dir string) (*Cache, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "cache_open").With(slog.String("dir", dir))
	c := &Cache{dir: dir, maxBytes: MaxBytesFromEnv(), log: l}
	db, err := OpenIndex(dir)
	if err == nil && healthy(ctx, db) {
		c.db = db
		return c, nil
	}
	if db != nil {
		_ = db.Close()
	}
	if err != nil && strings.TrimSpace(dir) == "" {
		return nil, err
	}
	path := IndexPath(dir)
	l.Warn("cache index damaged, rebuilding", slog.Any("err", err))
	backupIndexFile(path)
	removeIndexFiles(path)
	db, rerr := OpenIndex(dir)
	if rerr != nil {
		if err != nil {
			return nil, fmt.Errorf("rebuild cache after open failure: %w (open err: %v)", rerr, err)
		}
		return nil, fmt.Errorf("rebuild cache: %w", rerr)
	}
	c.db = db
	c.Rebuilt = true
	return c, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SetMaxBytes overrides the eviction cap. n <= 0 disables eviction.
func (c *Cache) SetMaxBytes(n int64) { c.maxBytes = n }

// Get returns the cached build for key, or nil when there is none. A hit
// refreshes the entry's LRU position.
func (c *Cache) Get(ctx context.Context, key string) (*Build, error) {
	var (
		b       Build
		created string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT key, scenario, svg, total_ms, scenes, created_at, hits FROM builds WHERE key=?`, key).
		Scan(&b.Key, &b.Scenario, &b.SVG, &b.TotalMs, &b.Scenes, &created, &b.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, created)
	if _, err := c.db.ExecContext(ctx, `UPDATE builds SET last_access=?, hits=hits+1 WHERE key=?`, time.Now().UnixNano(), key); err != nil {
		c.log.Warn("touch build failed", slog.String("key", key), slog.Any("err", err))
	} else {
		b.Hits++
	}
	return &b, nil
}

// Put stores b, replacing an entry with the same key, and then evicts old
// entries until the cache fits its cap.
func (c *Cache) Put(ctx context.Context, b Build) error {
	if b.Key == "" {
		return errors.New("build key is required")
	}
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `INSERT INTO builds(key, scenario, svg, size, total_ms, scenes, created_at, last_access, hits)
		VALUES(?,?,?,?,?,?,?,?,0)
		ON CONFLICT(key) DO UPDATE SET scenario=excluded.scenario, svg=excluded.svg, size=excluded.size,
			total_ms=excluded.total_ms, scenes=excluded.scenes, created_at=excluded.created_at, last_access=excluded.last_access`,
		b.Key, b.Scenario, b.SVG, len(b.SVG), b.TotalMs, b.Scenes, now.UTC().Format(time.RFC3339), now.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert build: %w", err)
	}
	if c.maxBytes > 0 {
		n, err := c.Evict(ctx, c.maxBytes)
		if err != nil {
			return err
		}
		if n > 0 {
			c.log.Debug("evicted builds", slog.Int("count", n))
		}
	}
	return nil
}

// Evict deletes least recently used builds until their total size is at
// most capBytes. It returns the number of deleted entries.
func (c *Cache) Evict(ctx context.Context, capBytes int64) (int, error) {
	total, err := c.TotalBytes(ctx)
	if err != nil {
		return 0, err
	}
	if total <= capBytes {
		return 0, nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT key, size FROM builds ORDER BY last_access ASC, created_at ASC`)
	if err != nil {
		return 0, fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() {
		var key string
		var sz int64
		if err := rows.Scan(&key, &sz); err != nil {
			_ = rows.Close()
			return 0, err
		}
		victims = append(victims, key)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, err
	}
	// The single pooled connection must be free before writing.
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if len(victims) == 0 {
		return 0, nil
	}
	q := `DELETE FROM builds WHERE key IN (?` + strings.Repeat(",?", len(victims)-1) + `)`
	if _, err := c.db.ExecContext(ctx, q, victims...); err != nil {
		return 0, fmt.Errorf("evict delete: %w", err)
	}
	return len(victims), nil
}

// TotalBytes sums the size of every cached document.
func (c *Cache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM builds`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum build size: %w", err)
	}
	return total, nil
}

// MaxBytesFromEnv reads SVGIF_CACHE_MAX_BYTES, defaulting to DefaultMaxBytes.
func MaxBytesFromEnv() int64 {
	v := os.Getenv("SVGIF_CACHE_MAX_BYTES")
	if v == "" {
		return DefaultMaxBytes
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return DefaultMaxBytes
	}
	return n
}

// Key hashes parts into a cache key. Each part is length prefixed so that
// moving bytes between adjacent parts changes the key.
func Key(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
