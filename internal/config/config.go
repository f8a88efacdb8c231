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

// Package config provides drivegallery configuration abilities, including
// parsing and printing configuration files, command line parameters, and
// environment variables, as well as default values.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the main configuration object
type Config struct {
	// Main is the primary MainConfig section
	Main *MainConfig `toml:"main"`
	// Frontend provides configurations about the HTTP Front End
	Frontend *FrontendConfig `toml:"frontend"`
	// Upstream provides configurations for the upstream object store
	Upstream *UpstreamConfig `toml:"upstream"`
	// Caching provides configurations for the in-memory media cache
	Caching *CachingConfig `toml:"caching"`
	// Queue provides configurations for the download queue
	Queue *QueueConfig `toml:"queue"`
	// Logging provides configurations that affect logging behavior
	Logging *LoggingConfig `toml:"logging"`
	// Metrics provides configurations for collecting Metrics about the application
	Metrics *MetricsConfig `toml:"metrics"`

	// Flags holds the command line flags the application was loaded with
	Flags Flags `toml:"-"`
}

// MainConfig is a collection of general configuration values
type MainConfig struct {
	// InstanceID represents a unique ID for the current instance, when multiple instances run on the same host
	InstanceID int `toml:"instance_id"`
	// PublicURL is the externally reachable base URL of this instance, used as the webhook callback address
	PublicURL string `toml:"public_url"`
	// RevalidateSecret authenticates manual cache invalidation and webhook registration requests
	RevalidateSecret string `toml:"revalidate_secret"`
}

// FrontendConfig is a collection of configurations for the main http frontend
type FrontendConfig struct {
	// ListenAddress is the interface to bind to for the frontend
	ListenAddress string `toml:"listen_address"`
	// ListenPort is the port the frontend listens on
	ListenPort int `toml:"listen_port"`
}

// UpstreamConfig is a collection of configurations for the upstream object store
type UpstreamConfig struct {
	// FolderID identifies the storage folder whose images are served
	FolderID string `toml:"folder_id"`
	// CredentialsFile is the path to the service account credentials JSON file
	CredentialsFile string `toml:"credentials_file"`
	// TimeoutSecs defines how long upstream requests wait for a response before timing out
	TimeoutSecs int64 `toml:"timeout_secs"`
	// PageSize is the number of objects requested per listing page
	PageSize int `toml:"page_size"`
	// ThumbnailSize is the canonical pixel size token applied to thumbnail URLs
	ThumbnailSize int `toml:"thumbnail_size"`

	// Timeout is the time.Duration representation of TimeoutSecs
	Timeout time.Duration `toml:"-"`
}

// CachingConfig is a collection of configurations for the in-memory media cache
type CachingConfig struct {
	// CacheName is a label for the cache used in logs and metrics
	CacheName string `toml:"cache_name"`
	// MaxEntries is the maximum number of objects held before an eviction exercise is triggered
	MaxEntries int `toml:"max_entries"`
	// OriginalTTLSecs is the cache TTL of original image payloads
	OriginalTTLSecs int64 `toml:"original_ttl_secs"`
	// ThumbnailTTLSecs is the cache TTL of thumbnail payloads
	ThumbnailTTLSecs int64 `toml:"thumbnail_ttl_secs"`
	// MaxObjectSizeBytes is the largest payload the cache will accept; larger objects stream through uncached
	MaxObjectSizeBytes int `toml:"max_object_size_bytes"`

	// OriginalTTL is the time.Duration representation of OriginalTTLSecs
	OriginalTTL time.Duration `toml:"-"`
	// ThumbnailTTL is the time.Duration representation of ThumbnailTTLSecs
	ThumbnailTTL time.Duration `toml:"-"`
}

// QueueConfig is a collection of configurations for the download queue
type QueueConfig struct {
	// MaxConcurrent is the number of transfers allowed in flight simultaneously
	MaxConcurrent int `toml:"max_concurrent"`
	// MaxRetries is the number of times a transient transfer failure is retried
	MaxRetries int `toml:"max_retries"`
	// InterRequestDelayMS is the pause inserted between consecutive transfers
	InterRequestDelayMS int64 `toml:"inter_request_delay_ms"`
	// RetryBaseDelayMS is the base for the exponential retry backoff
	RetryBaseDelayMS int64 `toml:"retry_base_delay_ms"`

	// InterRequestDelay is the time.Duration representation of InterRequestDelayMS
	InterRequestDelay time.Duration `toml:"-"`
	// RetryBaseDelay is the time.Duration representation of RetryBaseDelayMS
	RetryBaseDelay time.Duration `toml:"-"`
}

// LoggingConfig is a collection of Logging configurations
type LoggingConfig struct {
	// LogFile provides the filepath to the instance's logfile. Set as empty string to Log to Console
	LogFile string `toml:"log_file"`
	// LogLevel provides the most granular level (e.g., DEBUG, INFO, ERROR) to log
	LogLevel string `toml:"log_level"`
}

// MetricsConfig is a collection of Metrics Collection configurations
type MetricsConfig struct {
	// ListenAddress is the interface to bind to for the metrics listener
	ListenAddress string `toml:"listen_address"`
	// ListenPort is the port the metrics listener listens on
	ListenPort int `toml:"listen_port"`
}

// NewConfig returns a Config with default values
func NewConfig() *Config {
	return &Config{
		Main: &MainConfig{},
		Frontend: &FrontendConfig{
			ListenAddress: defaultFrontendListenAddress,
			ListenPort:    defaultFrontendListenPort,
		},
		Upstream: &UpstreamConfig{
			TimeoutSecs:   defaultUpstreamTimeoutSecs,
			PageSize:      defaultUpstreamPageSize,
			ThumbnailSize: defaultThumbnailSize,
		},
		Caching: &CachingConfig{
			CacheName:          defaultCacheName,
			MaxEntries:         defaultCacheMaxEntries,
			OriginalTTLSecs:    defaultOriginalTTLSecs,
			ThumbnailTTLSecs:   defaultThumbnailTTLSecs,
			MaxObjectSizeBytes: defaultMaxObjectSizeBytes,
		},
		Queue: &QueueConfig{
			MaxConcurrent:       defaultQueueMaxConcurrent,
			MaxRetries:          defaultQueueMaxRetries,
			InterRequestDelayMS: defaultInterRequestDelayMS,
			RetryBaseDelayMS:    defaultRetryBaseDelayMS,
		},
		Logging: &LoggingConfig{
			LogFile:  defaultLogFile,
			LogLevel: defaultLogLevel,
		},
		Metrics: &MetricsConfig{
			ListenAddress: defaultMetricsListenAddress,
			ListenPort:    defaultMetricsListenPort,
		},
	}
}

func (c *Config) loadFile() error {
	_, err := toml.DecodeFile(c.Flags.ConfigPath, c)
	return err
}

// setDerivedValues converts unit-suffixed config values into their native types
func (c *Config) setDerivedValues() {
	c.Upstream.Timeout = time.Duration(c.Upstream.TimeoutSecs) * time.Second
	c.Caching.OriginalTTL = time.Duration(c.Caching.OriginalTTLSecs) * time.Second
	c.Caching.ThumbnailTTL = time.Duration(c.Caching.ThumbnailTTLSecs) * time.Second
	c.Queue.InterRequestDelay = time.Duration(c.Queue.InterRequestDelayMS) * time.Millisecond
	c.Queue.RetryBaseDelay = time.Duration(c.Queue.RetryBaseDelayMS) * time.Millisecond
}
