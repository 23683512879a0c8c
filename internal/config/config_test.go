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

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestReadDynamicConfigOk(t *testing.T) {
	expected := &DynamicConfig{
		LiveTimerDefault:   30 * time.Second,
		ViewerIdleTimeout:  5 * time.Minute,
		MetadataBatchBytes: 4096,
		DrainInterval:      30 * time.Second,
		MetricInterval:     time.Minute,
	}

	dc, err := ReadDynamicConfig("")
	require.Error(t, err)
	require.Nil(t, dc)

	cfg, err := os.CreateTemp("", "lttng-relayd")
	require.NoError(t, err)
	defer os.Remove(cfg.Name())

	config := `livetimerdefault: "30s"
vieweridletimeout: "5m"
metadatabatchbytes: 4096
draininterval: "30s"
metricinterval: "1m"
`
	_, err = cfg.WriteString(config)
	require.NoError(t, err)

	dc, err = ReadDynamicConfig(cfg.Name())
	require.NoError(t, err)
	require.Equal(t, expected, dc)
}

func TestReadDynamicConfigDamaged(t *testing.T) {
	cfg, err := os.CreateTemp("", "lttng-relayd")
	require.NoError(t, err)
	defer os.Remove(cfg.Name())

	_, err = cfg.WriteString("not: [valid")
	require.NoError(t, err)

	dc, err := ReadDynamicConfig(cfg.Name())
	require.Error(t, err)
	require.Nil(t, dc)
}

func TestWriteDynamicConfig(t *testing.T) {
	expected := `livetimerdefault: 30s
vieweridletimeout: 5m0s
metadatabatchbytes: 4096
draininterval: 30s
metricinterval: 1m0s
`
	dc := &DynamicConfig{
		LiveTimerDefault:   30 * time.Second,
		ViewerIdleTimeout:  5 * time.Minute,
		MetadataBatchBytes: 4096,
		DrainInterval:      30 * time.Second,
		MetricInterval:     time.Minute,
	}

	cfg, err := os.CreateTemp("", "lttng-relayd")
	require.NoError(t, err)
	os.Remove(cfg.Name())
	require.NoFileExists(t, cfg.Name())

	err = dc.Write(cfg.Name())
	defer os.Remove(cfg.Name())
	require.NoError(t, err)

	rl, err := os.ReadFile(cfg.Name())
	require.NoError(t, err)
	require.Equal(t, expected, string(rl))
}

func TestPidFile(t *testing.T) {
	cfg, err := os.CreateTemp("", "lttng-relayd")
	require.NoError(t, err)
	defer os.Remove(cfg.Name())
	c := &Config{StaticConfig: StaticConfig{PidFile: cfg.Name()}}

	_, err = cfg.WriteString("rubbish")
	require.NoError(t, err)
	pid, err := ReadPidFile(c.PidFile)
	require.Error(t, err)
	require.Equal(t, 0, pid)
	os.Remove(cfg.Name())
	require.NoFileExists(t, cfg.Name())

	err = c.CreatePidFile()
	require.NoError(t, err)
	require.FileExists(t, c.PidFile)

	pid, err = ReadPidFile(c.PidFile)
	require.NoError(t, err)
	require.Equal(t, unix.Getpid(), pid)

	err = c.DeletePidFile()
	require.NoError(t, err)
	require.NoFileExists(t, c.PidFile)
}
