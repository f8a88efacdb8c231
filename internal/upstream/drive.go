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

package upstream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/drivegallery/drivegallery/internal/config"
	errs "github.com/drivegallery/drivegallery/internal/errors"
	"github.com/drivegallery/drivegallery/internal/util/log"
	"github.com/drivegallery/drivegallery/internal/util/metrics"
)

const listFields = "nextPageToken, files(id, name, mimeType, imageMediaMetadata, thumbnailLink)"

// DriveStore is a Google Drive implementation of the ObjectStore interface
type DriveStore struct {
	svc      *drive.Service
	folderID string
	pageSize int64
}

// NewDriveStore returns a DriveStore for the provided upstream configuration
func NewDriveStore(ctx context.Context, cfg *config.UpstreamConfig) (*DriveStore, error) {
	opts := []option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create drive service")
	}
	return &DriveStore{svc: svc, folderID: cfg.FolderID, pageSize: int64(cfg.PageSize)}, nil
}

func (d *DriveStore) query() string {
	return fmt.Sprintf("'%s' in parents and mimeType contains 'image/' and trashed = false", d.folderID)
}

// List returns one page of image objects in the configured folder, newest first
func (d *DriveStore) List(ctx context.Context, pageToken string) ([]Object, string, error) {
	call := d.svc.Files.List().
		Q(d.query()).
		Fields(listFields).
		OrderBy("modifiedTime desc").
		PageSize(d.pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	fl, err := call.Do()
	if err != nil {
		return nil, "", d.classify("list", err)
	}
	metrics.UpstreamRequestStatus.WithLabelValues("list", "ok").Inc()

	objects := make([]Object, 0, len(fl.Files))
	for _, f := range fl.Files {
		o := Object{ID: f.Id, Name: f.Name, MimeType: f.MimeType, ThumbnailURL: f.ThumbnailLink}
		if f.ImageMediaMetadata != nil {
			o.Width = f.ImageMediaMetadata.Width
			o.Height = f.ImageMediaMetadata.Height
		}
		objects = append(objects, o)
	}
	return objects, fl.NextPageToken, nil
}

// Count pages through the folder fetching ids only and returns the total object count
func (d *DriveStore) Count(ctx context.Context) (int, error) {
	var total int
	var pageToken string
	for {
		call := d.svc.Files.List().
			Q(d.query()).
			Fields("nextPageToken, files(id)").
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		fl, err := call.Do()
		if err != nil {
			return 0, d.classify("count", err)
		}
		total += len(fl.Files)
		if fl.NextPageToken == "" {
			break
		}
		pageToken = fl.NextPageToken
	}
	metrics.UpstreamRequestStatus.WithLabelValues("count", "ok").Inc()
	return total, nil
}

// Fetch streams the object's original bytes
func (d *DriveStore) Fetch(ctx context.Context, id string) (*FetchResult, error) {
	resp, err := d.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, d.classify("fetch", err)
	}
	metrics.UpstreamRequestStatus.WithLabelValues("fetch", "ok").Inc()
	return &FetchResult{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

// Metadata resolves per-object metadata, including the thumbnail address
func (d *DriveStore) Metadata(ctx context.Context, id string) (*Metadata, error) {
	f, err := d.svc.Files.Get(id).Fields("id, name, mimeType, thumbnailLink").Context(ctx).Do()
	if err != nil {
		return nil, d.classify("metadata", err)
	}
	metrics.UpstreamRequestStatus.WithLabelValues("metadata", "ok").Inc()
	return &Metadata{ID: f.Id, Name: f.Name, MimeType: f.MimeType, ThumbnailURL: f.ThumbnailLink}, nil
}

// Watch registers a change-notification channel against the configured folder
func (d *DriveStore) Watch(ctx context.Context, channelID, address string, expiration time.Time) (*Channel, error) {
	ch, err := d.svc.Files.Watch(d.folderID, &drive.Channel{
		Id:         channelID,
		Type:       "web_hook",
		Address:    address,
		Expiration: expiration.UnixMilli(),
	}).Context(ctx).Do()
	if err != nil {
		return nil, d.classify("watch", err)
	}
	metrics.UpstreamRequestStatus.WithLabelValues("watch", "ok").Inc()
	log.Info("watch channel registered", log.Pairs{"channelId": ch.Id, "resourceId": ch.ResourceId})
	return &Channel{
		ID:         ch.Id,
		ResourceID: ch.ResourceId,
		Expiration: time.UnixMilli(ch.Expiration),
	}, nil
}

// StopWatch tears down a previously registered notification channel
func (d *DriveStore) StopWatch(ctx context.Context, channelID, resourceID string) error {
	err := d.svc.Channels.Stop(&drive.Channel{Id: channelID, ResourceId: resourceID}).Context(ctx).Do()
	if err != nil {
		return d.classify("stop_watch", err)
	}
	metrics.UpstreamRequestStatus.WithLabelValues("stop_watch", "ok").Inc()
	return nil
}

// classify maps a drive client error into the shared error taxonomy
func (d *DriveStore) classify(operation string, err error) error {
	status := "error"
	defer func() {
		metrics.UpstreamRequestStatus.WithLabelValues(operation, status).Inc()
	}()

	if gerr, ok := err.(*googleapi.Error); ok {
		status = strconv.Itoa(gerr.Code)
		switch {
		case gerr.Code == 404:
			return errs.ErrNotFound
		case gerr.Code == 429:
			return errs.ErrRateLimited
		case gerr.Code == 403 && hasReason(gerr, "rateLimitExceeded", "userRateLimitExceeded"):
			return errs.ErrRateLimited
		case gerr.Code >= 500:
			return errs.ErrUpstreamUnavailable
		}
		return errors.Wrapf(err, "upstream %s failed", operation)
	}

	// transport-level failure
	log.Error("upstream request failed", log.Pairs{"operation": operation, "detail": err.Error()})
	return errs.ErrUpstreamUnavailable
}

func hasReason(gerr *googleapi.Error, reasons ...string) bool {
	for _, e := range gerr.Errors {
		for _, r := range reasons {
			if e.Reason == r {
				return true
			}
		}
	}
	return false
}
