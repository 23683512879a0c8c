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

package relay

import (
	"sync"
	"time"

	"github.com/facebook/lttng-relay/internal/epoch"
)

// RelaySession is a connected tracer session. Its
// traces table is a weak lookup: entries are *epoch.Cell[CTFTrace],
// never raw *CTFTrace, so a concurrent release can never be resurrected
// by a lookup racing the teardown.
type RelaySession struct {
	Name      string
	Hostname  string
	LiveTimer time.Duration

	// lock guards traces, viewerAttached and currentTraceChunk.
	lock sync.RWMutex

	traces map[string]*epoch.Cell[CTFTrace]

	viewerAttached    bool
	currentTraceChunk any
}

// NewRelaySession returns an empty session owned by the caller (a
// connection handler in the full daemon).
func NewRelaySession(name, hostname string, liveTimer time.Duration) *RelaySession {
	return &RelaySession{
		Name:      name,
		Hostname:  hostname,
		LiveTimer: liveTimer,
		traces:    make(map[string]*epoch.Cell[CTFTrace]),
	}
}

// TraceCount reports how many CTFTraces are currently reachable from
// this session's table. Exposed for stats reporting.
func (s *RelaySession) TraceCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.traces)
}

// SetCurrentTraceChunk installs the session's opaque current
// trace-chunk handle. Chunks are owned by an external chunk-registry
// collaborator; this package only ever holds the handle.
func (s *RelaySession) SetCurrentTraceChunk(chunk any) {
	s.lock.Lock()
	s.currentTraceChunk = chunk
	s.lock.Unlock()
}
