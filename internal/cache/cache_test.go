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

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/drivegallery/drivegallery/internal/config"
	"github.com/drivegallery/drivegallery/internal/util/metrics"
)

func init() {
	metrics.Init()
}

func newTestCache(maxEntries int) *Cache {
	return New(&config.CachingConfig{CacheName: "test", MaxEntries: maxEntries})
}

func TestStoreRetrieve(t *testing.T) {
	c := newTestCache(10)

	c.Store("img_1", []byte("data"), "image/jpeg")

	e, ok := c.Retrieve("img_1", time.Hour)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(e.Payload) != "data" {
		t.Errorf("wanted \"data\" got \"%s\"", e.Payload)
	}
	if e.ContentType != "image/jpeg" {
		t.Errorf("wanted \"image/jpeg\" got \"%s\"", e.ContentType)
	}
}

func TestRetrieveMiss(t *testing.T) {
	c := newTestCache(10)
	if _, ok := c.Retrieve("img_none", time.Hour); ok {
		t.Error("expected cache miss")
	}
}

func TestRetrieveExpired(t *testing.T) {
	c := newTestCache(10)
	c.Store("img_1", []byte("data"), "image/jpeg")

	if _, ok := c.Retrieve("img_1", 0); ok {
		t.Error("expected stale entry to miss")
	}

	// the stale entry is removed, not just bypassed
	if c.Len() != 0 {
		t.Errorf("expected 0 entries, got %d", c.Len())
	}
}

func TestStoreReplaces(t *testing.T) {
	c := newTestCache(10)
	c.Store("img_1", []byte("old"), "image/png")
	c.Store("img_1", []byte("new"), "image/jpeg")

	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	e, ok := c.Retrieve("img_1", time.Hour)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(e.Payload) != "new" {
		t.Errorf("wanted \"new\" got \"%s\"", e.Payload)
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	c := newTestCache(10)

	for i := 0; i < 10; i++ {
		c.Store(fmt.Sprintf("img_%d", i), []byte("data"), "image/jpeg")
		time.Sleep(2 * time.Millisecond)
	}

	// the 11th insert triggers a batch eviction of the oldest entry
	c.Store("img_10", []byte("data"), "image/jpeg")

	if c.Len() > 10 {
		t.Errorf("expected at most 10 entries, got %d", c.Len())
	}

	if _, ok := c.Retrieve("img_0", time.Hour); ok {
		t.Error("expected oldest entry to be evicted")
	}

	// the most recently stored entry survives while older ones remain
	if _, ok := c.Retrieve("img_10", time.Hour); !ok {
		t.Error("expected newest entry to remain")
	}
}

func TestEvictionBatch(t *testing.T) {
	c := newTestCache(100)

	for i := 0; i < 100; i++ {
		c.Store(fmt.Sprintf("img_%d", i), []byte("data"), "image/jpeg")
	}
	c.Store("img_100", []byte("data"), "image/jpeg")

	// a full cache of 100 evicts a batch of 10 before inserting
	if c.Len() != 91 {
		t.Errorf("expected 91 entries, got %d", c.Len())
	}
}

func TestBoundedUnderConcurrentInsertion(t *testing.T) {
	const maxEntries = 50
	c := newTestCache(maxEntries)

	var wg sync.WaitGroup
	for i := 0; i < maxEntries+75; i++ {
		wg.Add(1)
		go func(i int) {
			c.Store(fmt.Sprintf("img_%d", i), []byte("data"), "image/jpeg")
			wg.Done()
		}(i)
	}
	wg.Wait()

	if c.Len() > maxEntries {
		t.Errorf("expected at most %d entries, got %d", maxEntries, c.Len())
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(10)
	c.Store("img_1", []byte("data"), "image/jpeg")
	c.Store("thumb_1", []byte("data"), "image/jpeg")

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected 0 entries, got %d", c.Len())
	}
	if _, ok := c.Retrieve("img_1", time.Hour); ok {
		t.Error("expected miss after clear")
	}

	// clearing an empty cache is a no-op
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected 0 entries, got %d", c.Len())
	}
}
