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

// Package routing assembles the application's request router
package routing

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/drivegallery/drivegallery/internal/gallery"
	"github.com/drivegallery/drivegallery/internal/media"
	"github.com/drivegallery/drivegallery/internal/revalidate"
)

const mnHealth = "health"

// NewRouter returns the application router with all service routes registered
func NewRouter(m *media.Service, g *gallery.Service, rv *revalidate.Service) *mux.Router {

	router := mux.NewRouter()

	router.HandleFunc("/"+mnHealth, healthCheckHandler).Methods("GET")

	router.HandleFunc("/media/{id}", m.MediaHandler).Methods("GET")

	router.HandleFunc("/api/images", g.ListHandler).Methods("GET")

	router.HandleFunc("/api/revalidate", rv.RevalidateHandler).Methods("GET", "POST")
	router.HandleFunc("/api/webhook/register", rv.WebhookHandler).Methods("POST", "DELETE")

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK\n"))
}
