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
Package relaydrain implements a file-based killswitch for graceful
shutdown draining.
*/
package relaydrain

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/lttng-relay/internal/relay"
)

const (
	defaultInterval   = 30 * time.Second
	defaultKillswitch = "/var/tmp/kill_lttng_relayd"
)

// FileDrain drains reg once File appears on disk. Draining a
// relay.Registry is one-way: once the killswitch file is observed,
// Start stops polling.
type FileDrain struct {
	Interval time.Duration
	File     string
}

// NewFileDrain returns a FileDrain watching the default killswitch path
// on the default interval.
func NewFileDrain() *FileDrain {
	return &FileDrain{Interval: defaultInterval, File: defaultKillswitch}
}

// Start polls for File every Interval and calls reg.Drain() the first
// time it is found. Intended to run in its own goroutine for the
// lifetime of the daemon.
func (f *FileDrain) Start(reg *relay.Registry) {
	for {
		if f.Check() {
			reg.Drain()
			log.Warning("killswitch engaged, draining relay registry")
			return
		}
		time.Sleep(f.Interval)
	}
}

// Check reports whether the killswitch file currently exists.
func (f *FileDrain) Check() bool {
	_, err := os.Stat(f.File)
	return err == nil
}
