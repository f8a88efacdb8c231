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
	"github.com/pkg/errors"
)

// Load returns the Application Configuration, starting with a default config,
// then overriding with any provided config file, then env vars, and finally flags
func Load(applicationName string, arguments []string) (*Config, error) {

	c := NewConfig()
	if err := c.parseFlags(applicationName, arguments); err != nil {
		return nil, err
	}
	if c.Flags.PrintVersion {
		return c, nil
	}

	if err := c.loadFile(); err != nil && c.Flags.customPath {
		// a user-provided path couldn't be loaded. return the error for the application to handle
		return nil, errors.Wrap(err, "unable to load config file")
	}

	c.loadEnvVars()
	c.loadFlags() // load parsed flags to override file and envs

	if c.Upstream.FolderID == "" {
		return nil, errors.New("no upstream folder configured")
	}

	c.setDerivedValues()

	return c, nil
}
