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
	"os"
	"strconv"
)

const (
	// Environment variables
	evFolderID         = "DG_FOLDER_ID"
	evCredentialsFile  = "DG_CREDENTIALS_FILE"
	evRevalidateSecret = "DG_REVALIDATE_SECRET"
	evPublicURL        = "DG_PUBLIC_URL"
	evProxyPort        = "DG_PROXY_PORT"
	evMetricsPort      = "DG_METRICS_PORT"
	evLogLevel         = "DG_LOG_LEVEL"
)

func (c *Config) loadEnvVars() {
	if x := os.Getenv(evFolderID); x != "" {
		c.Upstream.FolderID = x
	}

	if x := os.Getenv(evCredentialsFile); x != "" {
		c.Upstream.CredentialsFile = x
	}

	if x := os.Getenv(evRevalidateSecret); x != "" {
		c.Main.RevalidateSecret = x
	}

	if x := os.Getenv(evPublicURL); x != "" {
		c.Main.PublicURL = x
	}

	if x := os.Getenv(evProxyPort); x != "" {
		if y, err := strconv.ParseInt(x, 10, 64); err == nil {
			c.Frontend.ListenPort = int(y)
		}
	}

	if x := os.Getenv(evMetricsPort); x != "" {
		if y, err := strconv.ParseInt(x, 10, 64); err == nil {
			c.Metrics.ListenPort = int(y)
		}
	}

	if x := os.Getenv(evLogLevel); x != "" {
		c.Logging.LogLevel = x
	}
}
