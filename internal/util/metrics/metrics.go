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

// Package metrics provides instrumentation via prometheus
package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drivegallery/drivegallery/internal/config"
	"github.com/drivegallery/drivegallery/internal/util/log"
)

const (
	metricNamespace   = "drivegallery"
	cacheSubsystem    = "cache"
	upstreamSubsystem = "upstream"
	frontendSubsystem = "frontend"
	queueSubsystem    = "queue"
)

// Default histogram buckets used by drivegallery
var defaultBuckets = []float64{0.05, 0.1, 0.5, 1, 5, 10, 20}

// FrontendRequestStatus is a Counter of front end requests that have been processed with their status
var FrontendRequestStatus *prometheus.CounterVec

// FrontendRequestDuration is a histogram that tracks the time it takes to process a request
var FrontendRequestDuration *prometheus.HistogramVec

// UpstreamRequestStatus is a Counter of requests made to the upstream object store
var UpstreamRequestStatus *prometheus.CounterVec

// CacheObjectOperations is a Counter of operations (in # of objects) performed on the media cache
var CacheObjectOperations *prometheus.CounterVec

// CacheEvents is a Counter of events (evictions, clears) performed on the media cache
var CacheEvents *prometheus.CounterVec

// CacheObjects is a Gauge representing the number of objects in the media cache
var CacheObjects *prometheus.GaugeVec

// CacheBytes is a Gauge representing the number of payload bytes in the media cache
var CacheBytes *prometheus.GaugeVec

// CacheMaxObjects is a Gauge representing the cache's max object threshold for triggering an eviction exercise
var CacheMaxObjects *prometheus.GaugeVec

// QueueTasksPending is a Gauge representing the number of tasks waiting in the download queue
var QueueTasksPending prometheus.Gauge

// QueueTaskStatus is a Counter of download tasks that reached a terminal state
var QueueTaskStatus *prometheus.CounterVec

// QueueTaskRetries is a Counter of download task retry attempts
var QueueTaskRetries *prometheus.CounterVec

var onceInit sync.Once

// Init initializes the instrumented metrics
func Init() {
	onceInit.Do(registerMetrics)
}

func registerMetrics() {

	FrontendRequestStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: frontendSubsystem,
			Name:      "requests_total",
			Help:      "Count of front end requests handled by drivegallery",
		},
		[]string{"method", "path", "cache_status", "http_status"},
	)

	FrontendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamespace,
			Subsystem: frontendSubsystem,
			Name:      "requests_duration_seconds",
			Help:      "Histogram of front end request durations handled by drivegallery",
			Buckets:   defaultBuckets,
		},
		[]string{"method", "path", "http_status"},
	)

	UpstreamRequestStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: upstreamSubsystem,
			Name:      "requests_total",
			Help:      "Count of requests made by drivegallery to the upstream object store",
		},
		[]string{"operation", "status"},
	)

	CacheObjectOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "operation_objects_total",
			Help:      "Count (in # of objects) of operations performed on the media cache.",
		},
		[]string{"cache_name", "operation", "status"},
	)

	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "events_total",
			Help:      "Count of events performed on the media cache.",
		},
		[]string{"cache_name", "event", "reason"},
	)

	CacheObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "usage_objects",
			Help:      "Number of objects in the media cache.",
		},
		[]string{"cache_name"},
	)

	CacheBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "usage_bytes",
			Help:      "Number of payload bytes in the media cache.",
		},
		[]string{"cache_name"},
	)

	CacheMaxObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: cacheSubsystem,
			Name:      "max_usage_objects",
			Help:      "The media cache's max object threshold for triggering an eviction exercise.",
		},
		[]string{"cache_name"},
	)

	QueueTasksPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricNamespace,
			Subsystem: queueSubsystem,
			Name:      "tasks_pending",
			Help:      "Number of tasks waiting in the download queue.",
		},
	)

	QueueTaskStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: queueSubsystem,
			Name:      "tasks_total",
			Help:      "Count of download tasks that reached a terminal state.",
		},
		[]string{"status"},
	)

	QueueTaskRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Subsystem: queueSubsystem,
			Name:      "task_retries_total",
			Help:      "Count of download task retry attempts.",
		},
		[]string{"reason"},
	)

	prometheus.MustRegister(FrontendRequestStatus)
	prometheus.MustRegister(FrontendRequestDuration)
	prometheus.MustRegister(UpstreamRequestStatus)
	prometheus.MustRegister(CacheObjectOperations)
	prometheus.MustRegister(CacheEvents)
	prometheus.MustRegister(CacheObjects)
	prometheus.MustRegister(CacheBytes)
	prometheus.MustRegister(CacheMaxObjects)
	prometheus.MustRegister(QueueTasksPending)
	prometheus.MustRegister(QueueTaskStatus)
	prometheus.MustRegister(QueueTaskRetries)
}

// ListenAndServe starts the metrics http listener on the configured port
func ListenAndServe(cfg *config.MetricsConfig) {
	if cfg != nil && cfg.ListenPort > 0 {
		go func() {
			log.Info("metrics http endpoint starting", log.Pairs{"address": cfg.ListenAddress, "port": fmt.Sprintf("%d", cfg.ListenPort)})
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort), nil); err != nil {
				log.Error("unable to start metrics http server", log.Pairs{"detail": err.Error()})
			}
		}()
	}
}
