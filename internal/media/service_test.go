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

package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/drivegallery/drivegallery/internal/cache"
	"github.com/drivegallery/drivegallery/internal/config"
	errs "github.com/drivegallery/drivegallery/internal/errors"
	"github.com/drivegallery/drivegallery/internal/upstream"
	"github.com/drivegallery/drivegallery/internal/util/metrics"
)

func init() {
	metrics.Init()
}

// testStore is a call-counting ObjectStore mock
type testStore struct {
	mtx           sync.Mutex
	fetchCount    int
	metadataCount int

	payload       []byte
	contentType   string
	contentLength int64
	thumbnailURL  string
	fetchErr      error
	metadataErr   error
}

func (ts *testStore) Fetch(_ context.Context, id string) (*upstream.FetchResult, error) {
	ts.mtx.Lock()
	ts.fetchCount++
	ts.mtx.Unlock()
	if ts.fetchErr != nil {
		return nil, ts.fetchErr
	}
	cl := ts.contentLength
	if cl == 0 {
		cl = int64(len(ts.payload))
	}
	return &upstream.FetchResult{
		Body:          io.NopCloser(bytes.NewReader(ts.payload)),
		ContentType:   ts.contentType,
		ContentLength: cl,
	}, nil
}

func (ts *testStore) Metadata(_ context.Context, id string) (*upstream.Metadata, error) {
	ts.mtx.Lock()
	ts.metadataCount++
	ts.mtx.Unlock()
	if ts.metadataErr != nil {
		return nil, ts.metadataErr
	}
	return &upstream.Metadata{ID: id, ThumbnailURL: ts.thumbnailURL}, nil
}

func (ts *testStore) List(context.Context, string) ([]upstream.Object, string, error) {
	return nil, "", nil
}

func (ts *testStore) Count(context.Context) (int, error) { return 0, nil }

func (ts *testStore) Watch(context.Context, string, string, time.Time) (*upstream.Channel, error) {
	return nil, nil
}

func (ts *testStore) StopWatch(context.Context, string, string) error { return nil }

func (ts *testStore) fetches() int {
	ts.mtx.Lock()
	defer ts.mtx.Unlock()
	return ts.fetchCount
}

func newTestConfig() *config.Config {
	c := config.NewConfig()
	c.Upstream.FolderID = "test_folder"
	c.Caching.OriginalTTL = 24 * time.Hour
	c.Caching.ThumbnailTTL = time.Hour
	return c
}

func newTestService(store *testStore, client *http.Client) (*Service, *cache.Cache) {
	cfg := newTestConfig()
	mc := cache.New(cfg.Caching)
	return NewService(cfg, mc, store, client), mc
}

func TestResolveOriginalPopulatesCache(t *testing.T) {
	store := &testStore{payload: []byte("image-bytes"), contentType: "image/png"}
	s, mc := newTestService(store, nil)

	res, err := s.Resolve(context.Background(), "abc123", VariantOriginal, "")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Payload) != "image-bytes" {
		t.Errorf("wanted \"image-bytes\" got \"%s\"", res.Payload)
	}
	if res.ContentType != "image/png" {
		t.Errorf("wanted \"image/png\" got \"%s\"", res.ContentType)
	}
	if res.CacheStatus != CacheStatusMiss {
		t.Errorf("wanted %s got %s", CacheStatusMiss, res.CacheStatus)
	}
	if mc.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", mc.Len())
	}

	// second resolve is a hit and does not touch the upstream again
	res2, err := s.Resolve(context.Background(), "abc123", VariantOriginal, "")
	if err != nil {
		t.Fatal(err)
	}
	if res2.CacheStatus != CacheStatusHit {
		t.Errorf("wanted %s got %s", CacheStatusHit, res2.CacheStatus)
	}
	if !bytes.Equal(res.Payload, res2.Payload) {
		t.Error("expected identical payloads from cache")
	}
	if store.fetches() != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", store.fetches())
	}
}

func TestResolveInvalidID(t *testing.T) {
	store := &testStore{payload: []byte("x")}
	s, _ := newTestService(store, nil)

	_, err := s.Resolve(context.Background(), "", VariantOriginal, "")
	if err != errs.ErrInvalidID {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	// fails fast with no upstream call
	if store.fetches() != 0 {
		t.Errorf("expected 0 upstream fetches, got %d", store.fetches())
	}
}

func TestResolveNotFoundLeavesCacheUntouched(t *testing.T) {
	store := &testStore{fetchErr: errs.ErrNotFound}
	s, mc := newTestService(store, nil)

	_, err := s.Resolve(context.Background(), "gone", VariantOriginal, "")
	if err != errs.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if mc.Len() != 0 {
		t.Errorf("expected 0 cache entries, got %d", mc.Len())
	}
}

func TestInvalidateAllForcesRefetch(t *testing.T) {
	store := &testStore{payload: []byte("image-bytes")}
	s, _ := newTestService(store, nil)

	if _, err := s.Resolve(context.Background(), "abc123", VariantOriginal, ""); err != nil {
		t.Fatal(err)
	}

	s.InvalidateAll()
	s.InvalidateAll() // idempotent

	if _, err := s.Resolve(context.Background(), "abc123", VariantOriginal, ""); err != nil {
		t.Fatal(err)
	}
	if store.fetches() != 2 {
		t.Errorf("expected 2 upstream fetches, got %d", store.fetches())
	}
}

func TestResolveLargeObjectStreams(t *testing.T) {
	store := &testStore{payload: []byte("big"), contentLength: 1 << 30}
	s, mc := newTestService(store, nil)

	res, err := s.Resolve(context.Background(), "huge", VariantOriginal, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Body == nil {
		t.Fatal("expected streaming body for oversize object")
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	if string(b) != "big" {
		t.Errorf("wanted \"big\" got \"%s\"", b)
	}
	// oversize objects are never cached
	if mc.Len() != 0 {
		t.Errorf("expected 0 cache entries, got %d", mc.Len())
	}
}

func TestResolveThumbnailWithHint(t *testing.T) {

	var requested []string
	var rmtx sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rmtx.Lock()
		requested = append(requested, r.URL.String())
		rmtx.Unlock()
		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("thumb-bytes"))
	}))
	defer ts.Close()

	store := &testStore{}
	s, _ := newTestService(store, ts.Client())

	res, err := s.Resolve(context.Background(), "abc123", VariantThumbnail, ts.URL+"/t/abc123=s800")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Payload) != "thumb-bytes" {
		t.Errorf("wanted \"thumb-bytes\" got \"%s\"", res.Payload)
	}

	// the hint's size token is rewritten to the canonical value before fetching
	if len(requested) != 1 || requested[0] != "/t/abc123=s220" {
		t.Errorf("expected normalized thumbnail request, got %v", requested)
	}

	// the hint never reached the metadata endpoint
	if store.metadataCount != 0 {
		t.Errorf("expected 0 metadata lookups, got %d", store.metadataCount)
	}

	// a different size token resolves to the same cache key: no second fetch
	res2, err := s.Resolve(context.Background(), "abc123", VariantThumbnail, ts.URL+"/t/abc123=s64")
	if err != nil {
		t.Fatal(err)
	}
	if res2.CacheStatus != CacheStatusHit {
		t.Errorf("wanted %s got %s", CacheStatusHit, res2.CacheStatus)
	}
	if len(requested) != 1 {
		t.Errorf("expected 1 thumbnail request, got %d", len(requested))
	}
}

func TestResolveThumbnailViaMetadata(t *testing.T) {

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("thumb-bytes"))
	}))
	defer ts.Close()

	store := &testStore{thumbnailURL: ts.URL + "/t/abc123=s640"}
	s, _ := newTestService(store, ts.Client())

	res, err := s.Resolve(context.Background(), "abc123", VariantThumbnail, "")
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Payload) != "thumb-bytes" {
		t.Errorf("wanted \"thumb-bytes\" got \"%s\"", res.Payload)
	}
	if store.metadataCount != 1 {
		t.Errorf("expected 1 metadata lookup, got %d", store.metadataCount)
	}
}

func TestResolveThumbnailUnavailable(t *testing.T) {
	store := &testStore{thumbnailURL: ""}
	s, _ := newTestService(store, nil)

	_, err := s.Resolve(context.Background(), "abc123", VariantThumbnail, "")
	if err != errs.ErrThumbnailUnavailable {
		t.Errorf("expected ErrThumbnailUnavailable, got %v", err)
	}
}

func TestResolveThumbnailRateLimited(t *testing.T) {

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	store := &testStore{}
	s, _ := newTestService(store, ts.Client())

	_, err := s.Resolve(context.Background(), "abc123", VariantThumbnail, ts.URL+"/t/abc123=s220")
	if err != errs.ErrRateLimited {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestNormalizeSizeToken(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"https://t.example.com/x=s800", "https://t.example.com/x=s220"},
		{"https://t.example.com/x=s64", "https://t.example.com/x=s220"},
		{"https://t.example.com/x=s220", "https://t.example.com/x=s220"},
		{"https://t.example.com/x", "https://t.example.com/x=s220"},
	}
	for _, tt := range tests {
		if got := NormalizeSizeToken(tt.in, 220); got != tt.expected {
			t.Errorf("wanted %s got %s", tt.expected, got)
		}
	}
}
