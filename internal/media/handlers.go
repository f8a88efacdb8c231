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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	errs "github.com/drivegallery/drivegallery/internal/errors"
	"github.com/drivegallery/drivegallery/internal/util/log"
	"github.com/drivegallery/drivegallery/internal/util/metrics"
)

const (
	hnContentType        = "Content-Type"
	hnContentLength      = "Content-Length"
	hnContentDisposition = "Content-Disposition"
	hnCacheControl       = "Cache-Control"
	hnXCache             = "X-Cache"

	// originals are immutable content and cache aggressively at the edge
	ccOriginal = "public, s-maxage=86400, stale-while-revalidate=86400, max-age=31536000, immutable"
	// thumbnails are derived and refresh hourly
	ccThumbnail = "public, max-age=3600"
)

// MediaHandler serves GET /media/{id}, proxying object bytes through the
// media cache. ?thumb=1 selects the thumbnail variant, ?url= optionally
// carries a pre-resolved thumbnail address, and ?name= sets the suggested
// download filename.
func (s *Service) MediaHandler(w http.ResponseWriter, r *http.Request) {

	start := time.Now()
	vars := mux.Vars(r)
	id := vars["id"]
	qp := r.URL.Query()

	variant := VariantOriginal
	if qp.Get("thumb") == "1" {
		variant = VariantThumbnail
	}

	res, err := s.Resolve(r.Context(), id, variant, qp.Get("url"))
	if err != nil {
		code := errs.HTTPStatus(err)
		log.Warn("error serving media", log.Pairs{"id": id, "variant": variant.String(),
			"httpStatus": code, "detail": err.Error()})
		http.Error(w, err.Error(), code)
		recordFrontendResult(r, "none", code, start)
		return
	}

	h := w.Header()
	h.Set(hnContentType, res.ContentType)
	if res.ContentLength >= 0 {
		h.Set(hnContentLength, strconv.FormatInt(res.ContentLength, 10))
	}
	h.Set(hnXCache, res.CacheStatus)
	if variant == VariantThumbnail {
		h.Set(hnCacheControl, ccThumbnail)
	} else {
		h.Set(hnCacheControl, ccOriginal)
	}
	if name := qp.Get("name"); name != "" {
		h.Set(hnContentDisposition, fmt.Sprintf(`inline; filename="%s"`, url.QueryEscape(name)))
	}

	if res.Body != nil {
		defer res.Body.Close()
		io.Copy(w, res.Body)
	} else {
		w.Write(res.Payload)
	}

	recordFrontendResult(r, res.CacheStatus, http.StatusOK, start)
}

func recordFrontendResult(r *http.Request, cacheStatus string, code int, start time.Time) {
	metrics.FrontendRequestStatus.WithLabelValues(
		r.Method, "/media", cacheStatus, strconv.Itoa(code)).Inc()
	metrics.FrontendRequestDuration.WithLabelValues(
		r.Method, "/media", strconv.Itoa(code)).Observe(time.Since(start).Seconds())
}
