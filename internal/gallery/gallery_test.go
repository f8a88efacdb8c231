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

package gallery

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	errs "github.com/drivegallery/drivegallery/internal/errors"
	"github.com/drivegallery/drivegallery/internal/upstream"
)

type testStore struct {
	objects    []upstream.Object
	nextToken  string
	count      int
	listErr    error
	countErr   error
	listCalls  int
	countCalls int
}

func (s *testStore) List(ctx context.Context, pageToken string) ([]upstream.Object, string, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, "", s.listErr
	}
	return s.objects, s.nextToken, nil
}

func (s *testStore) Count(ctx context.Context) (int, error) {
	s.countCalls++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.count, nil
}

func (s *testStore) Fetch(ctx context.Context, id string) (*upstream.FetchResult, error) {
	return nil, errs.ErrNotFound
}

func (s *testStore) Metadata(ctx context.Context, id string) (*upstream.Metadata, error) {
	return nil, errs.ErrNotFound
}

func (s *testStore) Watch(ctx context.Context, channelID, address string, expiration time.Time) (*upstream.Channel, error) {
	return nil, errs.ErrUpstreamUnavailable
}

func (s *testStore) StopWatch(ctx context.Context, channelID, resourceID string) error {
	return nil
}

func TestPageRewritesMediaURLs(t *testing.T) {

	store := &testStore{
		objects: []upstream.Object{
			{ID: "abc123", Name: "sunset.jpg", MimeType: "image/jpeg",
				Width: 4000, Height: 3000, ThumbnailURL: "https://lh3.example.com/t/abc123=s800"},
		},
		nextToken: "tok-2",
	}
	s := NewService(store)

	page, err := s.Page(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(page.Items))
	}

	item := page.Items[0]
	if expected := "/media/abc123?name=sunset.jpg"; item.URL != expected {
		t.Errorf("expected url %s got %s", expected, item.URL)
	}
	if item.ThumbnailURL == "" || item.ThumbnailURL == item.URL {
		t.Errorf("expected distinct thumbnail url, got %s", item.ThumbnailURL)
	}
	if page.NextPageToken != "tok-2" {
		t.Errorf("expected next page token tok-2 got %s", page.NextPageToken)
	}
}

func TestTotalCountCached(t *testing.T) {

	store := &testStore{count: 42}
	s := NewService(store)

	for i := 0; i < 3; i++ {
		n, err := s.TotalCount(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if n != 42 {
			t.Errorf("expected count 42 got %d", n)
		}
	}
	if store.countCalls != 1 {
		t.Errorf("expected 1 upstream count call got %d", store.countCalls)
	}

	s.InvalidateCount()
	if _, err := s.TotalCount(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.countCalls != 2 {
		t.Errorf("expected 2 upstream count calls after invalidation got %d", store.countCalls)
	}
}

func TestTotalCountServesStaleOnError(t *testing.T) {

	store := &testStore{count: 7}
	s := NewService(store)

	if _, err := s.TotalCount(context.Background()); err != nil {
		t.Fatal(err)
	}

	// force a refresh that fails
	s.mtx.Lock()
	s.countFetched = time.Now().Add(-2 * countCacheTTL)
	s.mtx.Unlock()
	store.countErr = errs.ErrUpstreamUnavailable

	n, err := s.TotalCount(context.Background())
	if err != nil {
		t.Fatalf("expected stale count, got error %v", err)
	}
	if n != 7 {
		t.Errorf("expected stale count 7 got %d", n)
	}
}

func TestListHandler(t *testing.T) {

	store := &testStore{
		objects: []upstream.Object{{ID: "a1", Name: "one.png", MimeType: "image/png"}},
		count:   1,
	}
	s := NewService(store)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://0/api/images", nil)
	s.ListHandler(w, r)

	if w.Code != 200 {
		t.Fatalf("expected status 200 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json got %s", ct)
	}

	var resp struct {
		Images     []Item `json:"images"`
		TotalCount int    `json:"totalCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Images) != 1 || resp.Images[0].ID != "a1" {
		t.Errorf("unexpected listing payload: %+v", resp.Images)
	}
	if resp.TotalCount != 1 {
		t.Errorf("expected totalCount 1 got %d", resp.TotalCount)
	}
}

func TestListHandlerUpstreamError(t *testing.T) {

	store := &testStore{listErr: errs.ErrUpstreamUnavailable}
	s := NewService(store)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://0/api/images", nil)
	s.ListHandler(w, r)

	if w.Code != 502 {
		t.Errorf("expected status 502 got %d", w.Code)
	}
}

func TestListHandlerCountFailureDoesNotFailListing(t *testing.T) {

	store := &testStore{
		objects:  []upstream.Object{{ID: "a1", Name: "one.png"}},
		countErr: errs.ErrUpstreamUnavailable,
	}
	s := NewService(store)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "http://0/api/images", nil)
	s.ListHandler(w, r)

	if w.Code != 200 {
		t.Errorf("expected status 200 got %d", w.Code)
	}
}
