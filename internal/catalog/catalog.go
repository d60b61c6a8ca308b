// Package catalog resolves user supplied exercise names against the
// exercise catalog held by the store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coocood/freecache"

	"github.com/claude/formcoach/internal/exercise"
	"github.com/claude/formcoach/internal/models"
)

const (
	megabyte = 1024 * 1024
	listKey  = "list"
)

// Source provides the authoritative list of catalog entries.
type Source interface {
	ListExercises(ctx context.Context) ([]models.ExerciseRow, error)
}

// Catalog canonicalizes exercise names. Lookups are served from a
// freecache instance and refreshed from the Source once entries expire.
// Unknown names are cached too, so a client retrying a bad name does not
// hit the store on every attempt.
type Catalog struct {
	src    Source
	cache  *freecache.Cache
	expire int
	log    *slog.Logger
}

// New creates a Catalog. sizeMB is the cache size in megabytes, ttl the
// lifetime of a cached lookup.
func New(src Source, sizeMB int, ttl time.Duration, log *slog.Logger) *Catalog {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	expire := int(ttl.Seconds())
	if expire < 1 {
		expire = 1
	}
	return &Catalog{
		src:    src,
		cache:  freecache.NewCache(sizeMB * megabyte),
		expire: expire,
		log:    log,
	}
}

// Canonicalize returns the catalog name for name. ok is false when the
// name does not resolve to any catalog entry.
func (c *Catalog) Canonicalize(ctx context.Context, name string) (canonical string, ok bool, err error) {
	k := key(name)
	if k == "" {
		return "", false, nil
	}

	cacheKey := []byte("canon::" + k)
	if v, err := c.cache.Get(cacheKey); err == nil {
		return string(v), len(v) > 0, nil
	}

	entries, err := c.List(ctx)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if key(e.Name) == k {
			canonical = e.Name
			break
		}
	}

	if err := c.cache.Set(cacheKey, []byte(canonical), c.expire); err != nil {
		c.log.Warn("caching catalog lookup", "name", name, "error", err)
	}
	return canonical, canonical != "", nil
}

// Exists reports whether name resolves to a catalog entry.
func (c *Catalog) Exists(ctx context.Context, name string) (bool, error) {
	_, ok, err := c.Canonicalize(ctx, name)
	return ok, err
}

// List returns all catalog entries.
func (c *Catalog) List(ctx context.Context) ([]models.ExerciseRow, error) {
	if b, err := c.cache.Get([]byte(listKey)); err == nil {
		var entries []models.ExerciseRow
		err := json.Unmarshal(b, &entries)
		if err == nil {
			return entries, nil
		}
		c.log.Warn("decoding cached catalog", "error", err)
	}

	entries, err := c.src.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}

	if b, err := json.Marshal(entries); err == nil {
		if err := c.cache.Set([]byte(listKey), b, c.expire); err != nil {
			c.log.Warn("caching catalog", "error", err)
		}
	}
	c.log.Debug("catalog loaded", "entries", len(entries))
	return entries, nil
}

// Available lists the catalog and marks the entries that have a
// real-time processor.
func (c *Catalog) Available(ctx context.Context) ([]models.ExerciseInfo, error) {
	rows, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ExerciseInfo, 0, len(rows))
	for _, row := range rows {
		_, ok := exercise.Lookup(row.Name)
		out = append(out, models.ExerciseInfo{ExerciseRow: row, Realtime: ok})
	}
	return out, nil
}

// Invalidate drops every cached lookup.
func (c *Catalog) Invalidate() {
	c.cache.Clear()
}
