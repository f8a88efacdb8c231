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

// Package main is the main package for the Drivegallery application
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"

	"github.com/drivegallery/drivegallery/internal/cache"
	"github.com/drivegallery/drivegallery/internal/config"
	"github.com/drivegallery/drivegallery/internal/gallery"
	"github.com/drivegallery/drivegallery/internal/media"
	"github.com/drivegallery/drivegallery/internal/revalidate"
	"github.com/drivegallery/drivegallery/internal/routing"
	"github.com/drivegallery/drivegallery/internal/upstream"
	"github.com/drivegallery/drivegallery/internal/util/log"
	"github.com/drivegallery/drivegallery/internal/util/metrics"
)

const (
	applicationName    = "drivegallery"
	applicationVersion = "1.0.0"
)

func main() {

	cfg, err := config.Load(applicationName, os.Args[1:])
	if err != nil {
		// logger can't be instantiated until the config is loaded, so just abort
		fmt.Println("Could not load configuration:", err.Error())
		os.Exit(1)
	}

	if cfg.Flags.PrintVersion {
		fmt.Println(applicationVersion)
		os.Exit(0)
	}

	log.Init(cfg.Logging, cfg.Main.InstanceID)
	defer log.Logger.Close()
	log.Info("application start up", log.Pairs{"name": applicationName,
		"version": applicationVersion, "goVersion": "1.23"})

	metrics.Init()
	metrics.ListenAndServe(cfg.Metrics)

	store, err := upstream.NewDriveStore(context.Background(), cfg.Upstream)
	if err != nil {
		log.Fatal(1, "unable to connect to upstream store", log.Pairs{"detail": err.Error()})
	}

	client := &http.Client{Timeout: cfg.Upstream.Timeout}

	c := cache.New(cfg.Caching)
	mediaSvc := media.NewService(cfg, c, store, client)
	gallerySvc := gallery.NewService(store)
	revalidateSvc := revalidate.NewService(store, cfg.Main.RevalidateSecret, cfg.Main.PublicURL,
		func() {
			mediaSvc.InvalidateAll()
			gallerySvc.InvalidateCount()
		})

	router := routing.NewRouter(mediaSvc, gallerySvc, revalidateSvc)

	address := fmt.Sprintf("%s:%d", cfg.Frontend.ListenAddress, cfg.Frontend.ListenPort)
	log.Info("frontend http endpoint starting", log.Pairs{"address": address})

	server := &http.Server{
		Addr:              address,
		Handler:           handlers.CompressHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	err = server.ListenAndServe()
	log.Fatal(1, "exiting", log.Pairs{"detail": err.Error()})
}
