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
	"encoding/json"
	"net/http"

	errs "github.com/drivegallery/drivegallery/internal/errors"
	"github.com/drivegallery/drivegallery/internal/util/log"
)

// listResponse is the JSON document served by the listing endpoint
type listResponse struct {
	*PageResult
	TotalCount int `json:"totalCount"`
}

// ListHandler serves GET /api/images, one listing page per request
func (s *Service) ListHandler(w http.ResponseWriter, r *http.Request) {

	page, err := s.Page(r.Context(), r.URL.Query().Get("pageToken"))
	if err != nil {
		log.Error("listing failed", log.Pairs{"detail": err.Error()})
		http.Error(w, http.StatusText(errs.HTTPStatus(err)), errs.HTTPStatus(err))
		return
	}

	// the count is advisory; a count failure never fails the listing
	total, err := s.TotalCount(r.Context())
	if err != nil {
		log.Warn("count unavailable for listing", log.Pairs{"detail": err.Error()})
		total = len(page.Items)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	json.NewEncoder(w).Encode(listResponse{PageResult: page, TotalCount: total})
}
