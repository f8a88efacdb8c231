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

// Package revalidate exposes cache invalidation to operators and to the
// upstream's change-notification webhook
package revalidate

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/drivegallery/drivegallery/internal/upstream"
	"github.com/drivegallery/drivegallery/internal/util/log"
)

// channelPrefix marks notification channels registered by this
// application; deliveries on other channels are not trusted
const channelPrefix = "gallery-webhook-"

// watchDuration is the lifetime requested for a notification channel
const watchDuration = 24 * time.Hour

// header names used by the upstream's push notifications
const (
	hnChannelID     = "X-Goog-Channel-Id"
	hnResourceID    = "X-Goog-Resource-Id"
	hnResourceState = "X-Goog-Resource-State"
)

// Service handles invalidation triggers. The invalidate callback clears
// every process-local cache the daemon maintains.
type Service struct {
	store      upstream.ObjectStore
	secret     string
	publicURL  string
	invalidate func()
}

// NewService returns a Service that invokes invalidate on each accepted trigger
func NewService(store upstream.ObjectStore, secret, publicURL string, invalidate func()) *Service {
	return &Service{store: store, secret: secret, publicURL: publicURL, invalidate: invalidate}
}

func (s *Service) authorized(r *http.Request) bool {
	if s.secret == "" {
		return false
	}
	provided := r.URL.Query().Get("secret")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(s.secret)) == 1
}

// RevalidateHandler serves /api/revalidate. GET requests are manual,
// secret-authenticated invalidations; POST requests are change
// notifications from the upstream's webhook.
func (s *Service) RevalidateHandler(w http.ResponseWriter, r *http.Request) {

	if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get(hnChannelID), channelPrefix) {
		s.handleNotification(w, r)
		return
	}

	if !s.authorized(r) {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	s.invalidate()
	log.Info("caches invalidated", log.Pairs{"trigger": "manual"})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"revalidated": true})
}

// handleNotification processes one webhook delivery. Deliveries are
// at-least-once and invalidation is idempotent, so every recognized
// delivery is acknowledged with 200 even when the clear is redundant.
func (s *Service) handleNotification(w http.ResponseWriter, r *http.Request) {

	state := r.Header.Get(hnResourceState)
	channelID := r.Header.Get(hnChannelID)

	switch state {
	case "sync":
		// channel registration handshake; nothing has changed yet
		log.Debug("webhook channel synced", log.Pairs{"channel": channelID})
	case "add", "remove", "update", "trash", "untrash", "change":
		s.invalidate()
		log.Info("caches invalidated", log.Pairs{"trigger": "webhook",
			"channel": channelID, "state": state})
	default:
		log.Warn("unrecognized webhook resource state", log.Pairs{"channel": channelID,
			"state": state})
	}

	w.WriteHeader(http.StatusOK)
}

// registration is the JSON document returned by channel registration
type registration struct {
	ChannelID  string    `json:"channelId"`
	ResourceID string    `json:"resourceId"`
	Expiration time.Time `json:"expiration"`
}

// WebhookHandler serves /api/webhook/register. POST registers a new
// notification channel against the configured folder; DELETE stops one.
func (s *Service) WebhookHandler(w http.ResponseWriter, r *http.Request) {

	if !s.authorized(r) {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.register(w, r)
	case http.MethodDelete:
		s.unregister(w, r)
	default:
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (s *Service) register(w http.ResponseWriter, r *http.Request) {

	if s.publicURL == "" {
		http.Error(w, "no public url configured", http.StatusConflict)
		return
	}

	channelID := fmt.Sprintf("%s%d", channelPrefix, time.Now().UnixNano())
	address := strings.TrimSuffix(s.publicURL, "/") + "/api/revalidate"

	ch, err := s.store.Watch(r.Context(), channelID, address, time.Now().Add(watchDuration))
	if err != nil {
		log.Error("webhook registration failed", log.Pairs{"detail": err.Error()})
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	log.Info("webhook channel registered", log.Pairs{"channel": ch.ID,
		"resource": ch.ResourceID, "expiration": ch.Expiration.Format(time.RFC3339)})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(registration{ChannelID: ch.ID,
		ResourceID: ch.ResourceID, Expiration: ch.Expiration})
}

func (s *Service) unregister(w http.ResponseWriter, r *http.Request) {

	channelID := r.URL.Query().Get("channelId")
	resourceID := r.URL.Query().Get("resourceId")
	if channelID == "" || resourceID == "" {
		http.Error(w, "channelId and resourceId are required", http.StatusBadRequest)
		return
	}

	if err := s.store.StopWatch(r.Context(), channelID, resourceID); err != nil {
		log.Error("webhook channel stop failed", log.Pairs{"channel": channelID,
			"detail": err.Error()})
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	log.Info("webhook channel stopped", log.Pairs{"channel": channelID})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"stopped": true})
}
