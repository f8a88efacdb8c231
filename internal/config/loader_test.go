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

package config

import (
	"testing"
	"time"
)

func TestLoadConfiguration(t *testing.T) {
	a := []string{"-folder", "test_folder"}
	c, err := Load("drivegallery-test", a)
	if err != nil {
		t.Fatal(err)
	}

	if c.Caching.MaxEntries != 200 {
		t.Errorf("expected 200, got %d", c.Caching.MaxEntries)
	}

	if c.Caching.OriginalTTL != time.Duration(86400)*time.Second {
		t.Errorf("expected 24h, got %s", c.Caching.OriginalTTL)
	}

	if c.Queue.MaxConcurrent != 1 {
		t.Errorf("expected 1, got %d", c.Queue.MaxConcurrent)
	}

	if c.Queue.InterRequestDelay != time.Duration(500)*time.Millisecond {
		t.Errorf("expected 500ms, got %s", c.Queue.InterRequestDelay)
	}
}

func TestLoadConfigurationMissingFolder(t *testing.T) {
	a := []string{}
	_, err := Load("drivegallery-test", a)
	if err == nil {
		t.Errorf("expected error for missing folder id")
	}
}

func TestLoadConfigurationBadPath(t *testing.T) {
	a := []string{"-config", "/tmp/does-not-exist-913423.conf"}
	_, err := Load("drivegallery-test", a)
	if err == nil {
		t.Errorf("expected error for bad config file path")
	}
}

func TestFullLoadConfiguration(t *testing.T) {
	a := []string{"-config", "testdata/test.conf"}
	c, err := Load("drivegallery-test", a)
	if err != nil {
		t.Fatal(err)
	}

	if c.Main.InstanceID != 2 {
		t.Errorf("expected 2, got %d", c.Main.InstanceID)
	}

	if c.Main.RevalidateSecret != "test_secret" {
		t.Errorf("expected test_secret, got %s", c.Main.RevalidateSecret)
	}

	if c.Frontend.ListenPort != 57821 {
		t.Errorf("expected 57821, got %d", c.Frontend.ListenPort)
	}

	if c.Frontend.ListenAddress != "test" {
		t.Errorf("expected test, got %s", c.Frontend.ListenAddress)
	}

	if c.Upstream.FolderID != "test_folder" {
		t.Errorf("expected test_folder, got %s", c.Upstream.FolderID)
	}

	if c.Upstream.Timeout != time.Duration(30)*time.Second {
		t.Errorf("expected 30s, got %s", c.Upstream.Timeout)
	}

	if c.Upstream.ThumbnailSize != 440 {
		t.Errorf("expected 440, got %d", c.Upstream.ThumbnailSize)
	}

	if c.Caching.CacheName != "test_cache" {
		t.Errorf("expected test_cache, got %s", c.Caching.CacheName)
	}

	if c.Caching.MaxEntries != 50 {
		t.Errorf("expected 50, got %d", c.Caching.MaxEntries)
	}

	if c.Caching.ThumbnailTTL != time.Duration(600)*time.Second {
		t.Errorf("expected 10m, got %s", c.Caching.ThumbnailTTL)
	}

	if c.Queue.MaxRetries != 5 {
		t.Errorf("expected 5, got %d", c.Queue.MaxRetries)
	}

	if c.Queue.RetryBaseDelay != time.Duration(250)*time.Millisecond {
		t.Errorf("expected 250ms, got %s", c.Queue.RetryBaseDelay)
	}

	if c.Logging.LogLevel != "test_log_level" {
		t.Errorf("expected test_log_level, got %s", c.Logging.LogLevel)
	}

	if c.Logging.LogFile != "test_file" {
		t.Errorf("expected test_file, got %s", c.Logging.LogFile)
	}

	if c.Metrics.ListenPort != 57822 {
		t.Errorf("expected 57822, got %d", c.Metrics.ListenPort)
	}

	if c.Metrics.ListenAddress != "metrics_test" {
		t.Errorf("expected metrics_test, got %s", c.Metrics.ListenAddress)
	}
}

func TestLoadConfigurationFlagAndEnvOverrides(t *testing.T) {
	t.Setenv("DG_LOG_LEVEL", "debug")
	t.Setenv("DG_PROXY_PORT", "57900")

	a := []string{"-config", "testdata/test.conf", "-metrics-port", "57901", "-instance-id", "7"}
	c, err := Load("drivegallery-test", a)
	if err != nil {
		t.Fatal(err)
	}

	if c.Logging.LogLevel != "debug" {
		t.Errorf("expected debug, got %s", c.Logging.LogLevel)
	}

	if c.Frontend.ListenPort != 57900 {
		t.Errorf("expected 57900, got %d", c.Frontend.ListenPort)
	}

	// flags outrank the config file
	if c.Metrics.ListenPort != 57901 {
		t.Errorf("expected 57901, got %d", c.Metrics.ListenPort)
	}

	if c.Main.InstanceID != 7 {
		t.Errorf("expected 7, got %d", c.Main.InstanceID)
	}
}
