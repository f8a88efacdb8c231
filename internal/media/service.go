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

// Package media implements the fetch-and-cache service for image objects.
// A resolve either serves a fresh cached payload or pulls from the
// upstream object store, populating the cache on the way out. The service
// never retries; retry policy belongs to the consuming download queue.
package media

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/drivegallery/drivegallery/internal/cache"
	"github.com/drivegallery/drivegallery/internal/config"
	errs "github.com/drivegallery/drivegallery/internal/errors"
	"github.com/drivegallery/drivegallery/internal/upstream"
	"github.com/drivegallery/drivegallery/internal/util/log"
)

// Cache lookup results as reported in the X-Cache response header
const (
	CacheStatusHit  = "HIT"
	CacheStatusMiss = "MISS"
)

const defaultContentType = "image/jpeg"

// Result is the outcome of a Resolve. Payload carries buffered content;
// for objects too large to cache, Body streams the content through instead
// and the caller owns closing it.
type Result struct {
	Payload       []byte
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	CacheStatus   string
}

// Service resolves object bytes through the in-memory media cache
type Service struct {
	caching   *config.CachingConfig
	thumbSize int
	cache     *cache.Cache
	store     upstream.ObjectStore
	client    *http.Client
	sf        singleflight.Group
}

// NewService returns a media Service wired to the provided cache and upstream
func NewService(cfg *config.Config, c *cache.Cache, store upstream.ObjectStore, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: cfg.Upstream.Timeout}
	}
	return &Service{
		caching:   cfg.Caching,
		thumbSize: cfg.Upstream.ThumbnailSize,
		cache:     c,
		store:     store,
		client:    client,
	}
}

// Resolve returns the bytes and content type for the provided object id and
// variant, serving from cache when a fresh entry exists. hint optionally
// carries a pre-resolved thumbnail URL, saving a metadata round trip.
func (s *Service) Resolve(ctx context.Context, id string, variant Variant, hint string) (*Result, error) {

	if id == "" {
		return nil, errs.ErrInvalidID
	}

	key := variant.Key(id)
	ttl := s.caching.OriginalTTL
	if variant == VariantThumbnail {
		ttl = s.caching.ThumbnailTTL
	}

	if e, ok := s.cache.Retrieve(key, ttl); ok {
		log.Debug("media cache lookup", log.Pairs{"key": key, "cacheStatus": CacheStatusHit})
		return &Result{
			Payload:       e.Payload,
			ContentType:   e.ContentType,
			ContentLength: int64(len(e.Payload)),
			CacheStatus:   CacheStatusHit,
		}, nil
	}

	log.Debug("media cache lookup", log.Pairs{"key": key, "cacheStatus": CacheStatusMiss})

	// concurrent misses on the same key share one upstream fetch
	v, err, shared := s.sf.Do(key, func() (interface{}, error) {
		return s.fetch(ctx, id, variant, hint)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*Result)

	// a streamed passthrough body can only serve one caller; duplicate
	// waiters fetch their own copy
	if shared && res.Body != nil {
		v, err = s.fetch(ctx, id, variant, hint)
		if err != nil {
			return nil, err
		}
		res = v.(*Result)
	}

	return res, nil
}

// InvalidateAll clears the media cache unconditionally. It is idempotent
// and never fails.
func (s *Service) InvalidateAll() {
	s.cache.Clear()
}

func (s *Service) fetch(ctx context.Context, id string, variant Variant, hint string) (*Result, error) {
	if variant == VariantThumbnail {
		return s.fetchThumbnail(ctx, id, hint)
	}
	return s.fetchOriginal(ctx, id)
}

func (s *Service) fetchOriginal(ctx context.Context, id string) (*Result, error) {

	fr, err := s.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	contentType := fr.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	// objects above the cacheable threshold stream through untouched
	if fr.ContentLength > int64(s.caching.MaxObjectSizeBytes) {
		log.Debug("object exceeds cacheable size, streaming passthrough",
			log.Pairs{"id": id, "contentLength": fr.ContentLength})
		return &Result{
			Body:          fr.Body,
			ContentType:   contentType,
			ContentLength: fr.ContentLength,
			CacheStatus:   CacheStatusMiss,
		}, nil
	}

	payload, err := io.ReadAll(fr.Body)
	fr.Body.Close()
	if err != nil {
		log.Error("error reading upstream object body", log.Pairs{"id": id, "detail": err.Error()})
		return nil, errs.ErrUpstreamUnavailable
	}

	s.cache.Store(VariantOriginal.Key(id), payload, contentType)

	return &Result{
		Payload:       payload,
		ContentType:   contentType,
		ContentLength: int64(len(payload)),
		CacheStatus:   CacheStatusMiss,
	}, nil
}

func (s *Service) fetchThumbnail(ctx context.Context, id, hint string) (*Result, error) {

	thumbURL := hint
	if thumbURL == "" {
		md, err := s.store.Metadata(ctx, id)
		if err != nil {
			return nil, err
		}
		if md.ThumbnailURL == "" {
			return nil, errs.ErrThumbnailUnavailable
		}
		thumbURL = md.ThumbnailURL
	}
	thumbURL = NormalizeSizeToken(thumbURL, s.thumbSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbURL, nil)
	if err != nil {
		return nil, errs.ErrUpstreamUnavailable
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error("error downloading thumbnail", log.Pairs{"id": id, "detail": err.Error()})
		return nil, errs.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.ErrThumbnailUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, errs.ErrUpstreamUnavailable
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ErrUpstreamUnavailable
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	s.cache.Store(VariantThumbnail.Key(id), payload, contentType)

	return &Result{
		Payload:       payload,
		ContentType:   contentType,
		ContentLength: int64(len(payload)),
		CacheStatus:   CacheStatusMiss,
	}, nil
}
