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

// Package upstream defines the client interface to the storage provider
// holding the gallery's image objects
package upstream

import (
	"context"
	"io"
	"time"
)

// Object describes an image object in the upstream folder
type Object struct {
	// ID is the opaque identifier issued by the upstream store
	ID string
	// Name is the object's filename
	Name string
	// MimeType is the object's MIME type as reported by the upstream
	MimeType string
	// Width and Height are the image's pixel dimensions, when known
	Width  int64
	Height int64
	// ThumbnailURL is a short-lived address for the object's derived preview, when one exists
	ThumbnailURL string
}

// Metadata holds the subset of object metadata the media service resolves on demand
type Metadata struct {
	ID           string
	Name         string
	MimeType     string
	ThumbnailURL string
}

// Channel describes a registered change-notification channel
type Channel struct {
	ID         string
	ResourceID string
	Expiration time.Time
}

// FetchResult carries a streamed object payload and its transport metadata.
// Callers own the Body and must close it.
type FetchResult struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// ObjectStore is the interface to the upstream storage provider. The
// credential lifecycle lives entirely behind implementations.
type ObjectStore interface {
	// List returns one page of image objects in the configured folder, newest first
	List(ctx context.Context, pageToken string) ([]Object, string, error)
	// Count returns the total number of image objects in the configured folder
	Count(ctx context.Context) (int, error)
	// Fetch streams the object's original bytes
	Fetch(ctx context.Context, id string) (*FetchResult, error)
	// Metadata resolves per-object metadata, including the thumbnail address
	Metadata(ctx context.Context, id string) (*Metadata, error)
	// Watch registers a change-notification channel against the configured folder
	Watch(ctx context.Context, channelID, address string, expiration time.Time) (*Channel, error)
	// StopWatch tears down a previously registered notification channel
	StopWatch(ctx context.Context, channelID, resourceID string) error
}
