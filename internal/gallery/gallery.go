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

// Package gallery provides the listing facade over the upstream folder,
// translating upstream objects into gallery items whose media addresses
// all point back through this proxy
package gallery

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/drivegallery/drivegallery/internal/upstream"
	"github.com/drivegallery/drivegallery/internal/util/log"
)

// countCacheTTL bounds how long a folder count is served without a
// fresh upstream lookup
const countCacheTTL = time.Hour

// Item is one gallery entry with proxied media addresses
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Width        int64  `json:"width,omitempty"`
	Height       int64  `json:"height,omitempty"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// PageResult is one page of the folder listing
type PageResult struct {
	Items         []Item `json:"images"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// Service assembles gallery pages from the upstream listing
type Service struct {
	store upstream.ObjectStore

	mtx          sync.Mutex
	cachedCount  int
	countFetched time.Time
}

// NewService returns a Service listing the provided store
func NewService(store upstream.ObjectStore) *Service {
	return &Service{store: store}
}

// Page returns one page of gallery items. Media addresses are rewritten
// to this proxy so clients never touch upstream URLs directly.
func (s *Service) Page(ctx context.Context, pageToken string) (*PageResult, error) {
	objects, next, err := s.store.List(ctx, pageToken)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(objects))
	for _, o := range objects {
		items = append(items, Item{
			ID:           o.ID,
			Name:         o.Name,
			MimeType:     o.MimeType,
			Width:        o.Width,
			Height:       o.Height,
			URL:          mediaURL(o.ID, o.Name, false, o.ThumbnailURL),
			ThumbnailURL: mediaURL(o.ID, o.Name, true, o.ThumbnailURL),
		})
	}
	return &PageResult{Items: items, NextPageToken: next}, nil
}

// TotalCount returns the number of objects in the folder, caching the
// upstream answer for up to an hour. A stale count is served when the
// refresh fails and a prior value exists.
func (s *Service) TotalCount(ctx context.Context) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.countFetched.IsZero() && time.Since(s.countFetched) < countCacheTTL {
		return s.cachedCount, nil
	}

	n, err := s.store.Count(ctx)
	if err != nil {
		if !s.countFetched.IsZero() {
			log.Warn("count refresh failed, serving stale count",
				log.Pairs{"detail": err.Error(), "stale": s.cachedCount})
			return s.cachedCount, nil
		}
		return 0, err
	}

	s.cachedCount = n
	s.countFetched = time.Now()
	return n, nil
}

// InvalidateCount drops the cached folder count so the next TotalCount
// consults the upstream
func (s *Service) InvalidateCount() {
	s.mtx.Lock()
	s.countFetched = time.Time{}
	s.cachedCount = 0
	s.mtx.Unlock()
}

// mediaURL composes the proxied media path for an object. The thumbnail
// variant carries the upstream thumbnail address as a resolution hint.
func mediaURL(id, name string, thumb bool, thumbnailURL string) string {
	v := url.Values{}
	if name != "" {
		v.Set("name", name)
	}
	if thumb {
		v.Set("thumb", "1")
		if thumbnailURL != "" {
			v.Set("url", thumbnailURL)
		}
	}
	u := "/media/" + url.PathEscape(id)
	if q := v.Encode(); q != "" {
		u += "?" + q
	}
	return u
}
