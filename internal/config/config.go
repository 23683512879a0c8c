/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package config implements the lttng-relayd daemon's static/dynamic
configuration split: static options come from flags, dynamic ones can
also be loaded from YAML. The run subcommand reads the YAML file once at
startup; there is no reload while the daemon runs.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	yaml "gopkg.in/yaml.v2"
)

// StaticConfig holds options that require a daemon restart to take
// effect.
type StaticConfig struct {
	ConfigFile     string
	ListenAddr     string
	LogLevel       string
	MonitoringPort int
	PrometheusPort int
	PidFile        string
	DrainFile      string
}

// DynamicConfig holds the options that can be read from a YAML file
// (ReadDynamicConfig) and written back (Write).
type DynamicConfig struct {
	// LiveTimerDefault is a default live timer for RelaySessions. It is
	// loaded and carried in Config; no code in this module reads it.
	LiveTimerDefault time.Duration
	// ViewerIdleTimeout is an idle bound for ViewerSessions. It is
	// loaded and carried in Config; no code in this module reads it, and
	// idle viewers are not torn down.
	ViewerIdleTimeout time.Duration
	// MetadataBatchBytes is a batch size for TSDL fragments. It is
	// loaded and carried in Config; MetadataStream has no flush and no
	// code in this module reads it.
	MetadataBatchBytes int
	// DrainInterval is how often the killswitch file is polled.
	DrainInterval time.Duration
	// MetricInterval is how often the Prometheus exporter scrapes the
	// JSON counters endpoint and how often the daemon advances the epoch
	// substrate.
	MetricInterval time.Duration
}

// Config is the full daemon configuration.
type Config struct {
	StaticConfig
	DynamicConfig
}

// ReadDynamicConfig loads a DynamicConfig from a YAML file.
func ReadDynamicConfig(path string) (*DynamicConfig, error) {
	dc := &DynamicConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, dc); err != nil {
		return nil, err
	}
	return dc, nil
}

// Write serializes dc to path as YAML.
func (dc *DynamicConfig) Write(path string) error {
	d, err := yaml.Marshal(dc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

// CreatePidFile writes the current process id to c.PidFile.
func (c *Config) CreatePidFile() error {
	return os.WriteFile(c.PidFile, []byte(fmt.Sprintf("%d\n", unix.Getpid())), 0o644)
}

// DeletePidFile removes c.PidFile.
func (c *Config) DeletePidFile() error {
	return os.Remove(c.PidFile)
}

// ReadPidFile reads a process id previously written by CreatePidFile.
func ReadPidFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}
