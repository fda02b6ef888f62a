// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache keeps rendered public pages in Valkey under the "page:"
// prefix. A nil *PageCache is valid and caches nothing, which is how the
// site runs on the memory store backend.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache wraps client. A zero ttl means DefaultPageTTL.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get returns the cached HTML stored under key. Errors count as misses.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	html, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		slog.Warn("page cache read failed", "key", key, "error", err)
		return nil, false
	}
	return html, true
}

// Set caches html under key for the cache TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if pc == nil {
		return
	}
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops one cached page.
func (pc *PageCache) Invalidate(ctx context.Context, key string) {
	if pc == nil {
		return
	}
	if err := pc.client.Del(ctx, pageKeyPrefix+key).Err(); err != nil {
		slog.Warn("page cache delete failed", "key", key, "error", err)
	}
}

// InvalidatePost drops every page that can show a post: the post itself,
// the homepage and all blog listings.
func (pc *PageCache) InvalidatePost(ctx context.Context, slug string) {
	if pc == nil {
		return
	}
	if slug != "" {
		pc.Invalidate(ctx, PostKey(slug))
	}
	pc.Invalidate(ctx, HomepageKey())
	pc.deleteMatching(ctx, pageKeyPrefix+"blog:index:*")
}

// InvalidateAll empties the page cache. It runs at startup so pages
// rendered by an older build are never served.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	if pc == nil {
		return
	}
	pc.deleteMatching(ctx, pageKeyPrefix+"*")
}

func (pc *PageCache) deleteMatching(ctx context.Context, pattern string) {
	var batch []string
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := pc.client.Del(ctx, batch...).Err(); err != nil {
			slog.Warn("page cache bulk delete failed", "pattern", pattern, "error", err)
		}
		batch = batch[:0]
	}

	iter := pc.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			flush()
		}
	}
	flush()
	if err := iter.Err(); err != nil {
		slog.Warn("page cache scan failed", "pattern", pattern, "error", err)
	}
}

// HomepageKey returns the cache key for the homepage.
func HomepageKey() string {
	return "_homepage"
}

// BlogIndexKey returns the cache key for the blog listing of a category
// ("" for all categories).
func BlogIndexKey(category string) string {
	if category == "" {
		category = "all"
	}
	return "blog:index:" + category
}

// PostKey returns the cache key for a post detail page.
func PostKey(slug string) string {
	return "blog:post:" + slug
}
