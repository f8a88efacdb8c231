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

// Package errors defines the error taxonomy shared by the media service,
// the upstream client, and the http frontend
package errors

import (
	"errors"
	"net/http"
)

// ErrInvalidID indicates the caller provided an empty or malformed object identifier
var ErrInvalidID = errors.New("invalid object identifier")

// ErrNotFound indicates the upstream reports the object no longer exists
var ErrNotFound = errors.New("object not found")

// ErrUpstreamUnavailable indicates a network failure or 5xx from the upstream
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrRateLimited indicates the upstream responded with an explicit throttling signal
var ErrRateLimited = errors.New("upstream rate limited")

// ErrThumbnailUnavailable indicates the object has no derivable preview
var ErrThumbnailUnavailable = errors.New("thumbnail unavailable")

// HTTPStatus maps a taxonomy error to the response code the frontend serves.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrThumbnailUnavailable):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// IsRetryable returns true for failures the download queue may retry
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamUnavailable)
}
