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
	"flag"
)

const (
	// Command-line flags
	cfConfig      = "config"
	cfVersion     = "version"
	cfLogLevel    = "log-level"
	cfInstanceID  = "instance-id"
	cfFolder      = "folder"
	cfProxyPort   = "proxy-port"
	cfMetricsPort = "metrics-port"

	// DefaultConfigPath defines the default location of the drivegallery config file
	DefaultConfigPath = "/etc/drivegallery/drivegallery.conf"
)

// Flags holds the values for whitelisted flags
type Flags struct {
	PrintVersion      bool
	ConfigPath        string
	customPath        bool
	FolderID          string
	ProxyListenPort   int
	MetricsListenPort int
	LogLevel          string
	InstanceID        int
}

// parseFlags parses the command line flags into the config's Flags collection
func (c *Config) parseFlags(applicationName string, arguments []string) error {

	f := flag.NewFlagSet(applicationName, flag.ContinueOnError)
	f.BoolVar(&c.Flags.PrintVersion, cfVersion, false, "Prints drivegallery version")
	f.StringVar(&c.Flags.ConfigPath, cfConfig, "", "Path to drivegallery Config File")
	f.StringVar(&c.Flags.LogLevel, cfLogLevel, "", "Level of Logging to use (debug, info, warn, error)")
	f.IntVar(&c.Flags.InstanceID, cfInstanceID, 0, "Instance ID is for running multiple drivegallery processes from the same config while logging to their own files")
	f.StringVar(&c.Flags.FolderID, cfFolder, "", "ID of the upstream storage folder to serve")
	f.IntVar(&c.Flags.ProxyListenPort, cfProxyPort, 0, "Port that the primary http frontend will listen on")
	f.IntVar(&c.Flags.MetricsListenPort, cfMetricsPort, 0, "Port that the /metrics endpoint will listen on")
	if err := f.Parse(arguments); err != nil {
		return err
	}

	if c.Flags.ConfigPath != "" {
		c.Flags.customPath = true
	} else {
		c.Flags.ConfigPath = DefaultConfigPath
	}
	return nil
}

// loadFlags applies parsed flag values over the file and environment values
func (c *Config) loadFlags() {
	if len(c.Flags.FolderID) > 0 {
		c.Upstream.FolderID = c.Flags.FolderID
	}
	if c.Flags.ProxyListenPort > 0 {
		c.Frontend.ListenPort = c.Flags.ProxyListenPort
	}
	if c.Flags.MetricsListenPort > 0 {
		c.Metrics.ListenPort = c.Flags.MetricsListenPort
	}
	if c.Flags.LogLevel != "" {
		c.Logging.LogLevel = c.Flags.LogLevel
	}
	if c.Flags.InstanceID > 0 {
		c.Main.InstanceID = c.Flags.InstanceID
	}
}
