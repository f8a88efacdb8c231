/**
* Copyright 2025 The Drivegallery Authors
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

// Package cache provides the bounded in-memory media cache.
// Entries are immutable once stored; a refresh atomically replaces the
// entry under the same key. When an insert would exceed the configured
// entry cap, the oldest entries are evicted in bulk.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/drivegallery/drivegallery/internal/config"
	"github.com/drivegallery/drivegallery/internal/util/log"
	"github.com/drivegallery/drivegallery/internal/util/metrics"
)

// Entry represents a cached media object
type Entry struct {
	// Key is the accessor of the Entry in the Cache
	Key string
	// Payload is the object's content
	Payload []byte
	// ContentType is the MIME type reported by the upstream, or a default
	ContentType string
	// StoredAt is the time the Entry was written, used for TTL checks and eviction ordering
	StoredAt time.Time
}

// Cache is a bounded in-memory object cache. Lookups are lock-free;
// mutations (store, evict, clear) are mutually exclusive.
type Cache struct {
	name       string
	maxEntries int
	batchSize  int

	entries sync.Map
	mtx     sync.Mutex
	count   int
	bytes   int64
}

// New returns a Cache for the provided caching configuration
func New(cfg *config.CachingConfig) *Cache {
	c := &Cache{
		name:       cfg.CacheName,
		maxEntries: cfg.MaxEntries,
		batchSize:  cfg.MaxEntries / 10,
	}
	if c.batchSize < 1 {
		c.batchSize = 1
	}
	metrics.CacheMaxObjects.WithLabelValues(c.name).Set(float64(c.maxEntries))
	return c
}

// Store places an object in the cache under the provided key, evicting the
// oldest entries in bulk if the entry cap would otherwise be exceeded
func (c *Cache) Store(key string, payload []byte, contentType string) {
	c.mtx.Lock()

	if _, ok := c.entries.Load(key); !ok && c.count >= c.maxEntries {
		c.evict()
	}

	e := &Entry{Key: key, Payload: payload, ContentType: contentType, StoredAt: time.Now()}
	if old, ok := c.entries.Load(key); ok {
		c.bytes -= int64(len(old.(*Entry).Payload))
	} else {
		c.count++
	}
	c.bytes += int64(len(payload))
	c.entries.Store(key, e)

	c.observeSize()
	c.mtx.Unlock()

	metrics.CacheObjectOperations.WithLabelValues(c.name, "set", "none").Inc()
	log.Debug("cache store", log.Pairs{"cacheName": c.name, "key": key, "length": len(payload)})
}

// Retrieve looks up the entry for the provided key and returns it if it is
// present and younger than ttl. Stale entries are treated as misses and
// removed so a subsequent store fully replaces them.
func (c *Cache) Retrieve(key string, ttl time.Duration) (*Entry, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		metrics.CacheObjectOperations.WithLabelValues(c.name, "get", "miss").Inc()
		return nil, false
	}
	e := v.(*Entry)
	if time.Since(e.StoredAt) >= ttl {
		c.removeIfSame(key, e)
		metrics.CacheObjectOperations.WithLabelValues(c.name, "get", "expired").Inc()
		log.Debug("cache entry expired", log.Pairs{"cacheName": c.name, "key": key})
		return nil, false
	}
	metrics.CacheObjectOperations.WithLabelValues(c.name, "get", "hit").Inc()
	return e, true
}

// Clear unconditionally removes all entries from the cache. It is safe to
// call repeatedly and from concurrent invalidation triggers.
func (c *Cache) Clear() {
	c.mtx.Lock()
	c.entries.Range(func(k, _ interface{}) bool {
		c.entries.Delete(k)
		return true
	})
	c.count = 0
	c.bytes = 0
	c.observeSize()
	c.mtx.Unlock()

	metrics.CacheEvents.WithLabelValues(c.name, "clear", "invalidate").Inc()
	log.Info("cache cleared", log.Pairs{"cacheName": c.name})
}

// Len returns the number of entries currently held in the cache
func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.count
}

// removeIfSame deletes the entry for key only if it is still the exact entry
// the caller observed, so a concurrent refresh is never discarded
func (c *Cache) removeIfSame(key string, e *Entry) {
	c.mtx.Lock()
	if v, ok := c.entries.Load(key); ok && v.(*Entry) == e {
		c.entries.Delete(key)
		c.count--
		c.bytes -= int64(len(e.Payload))
		c.observeSize()
	}
	c.mtx.Unlock()
}

type entriesByAge []*Entry

func (e entriesByAge) Len() int           { return len(e) }
func (e entriesByAge) Less(i, j int) bool { return e[i].StoredAt.Before(e[j].StoredAt) }
func (e entriesByAge) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }

// evict removes the oldest batchSize entries by StoredAt. Evicting a fixed
// batch rather than a single entry amortizes the cost of the full scan
// across many insertions. Callers must hold the mutation lock.
func (c *Cache) evict() {

	all := make(entriesByAge, 0, c.count)
	c.entries.Range(func(_, v interface{}) bool {
		all = append(all, v.(*Entry))
		return true
	})
	sort.Sort(all)

	n := c.batchSize
	if n > len(all) {
		n = len(all)
	}
	for _, e := range all[:n] {
		c.entries.Delete(e.Key)
		c.count--
		c.bytes -= int64(len(e.Payload))
	}

	metrics.CacheEvents.WithLabelValues(c.name, "eviction", "max_entries").Inc()
	log.Debug("entry cap reached. evicting oldest records",
		log.Pairs{"cacheName": c.name, "evicted": n, "maxEntries": c.maxEntries})
}

func (c *Cache) observeSize() {
	metrics.CacheObjects.WithLabelValues(c.name).Set(float64(c.count))
	metrics.CacheBytes.WithLabelValues(c.name).Set(float64(c.bytes))
}
