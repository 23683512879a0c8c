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
	"fmt"
	"sync"

	"github.com/facebook/lttng-relay/internal/epoch"
)

// StreamState is the relay-stream readiness state machine:
//
//	Allocated --publish--> Indexed --data-boundary--> Ready
//	                            ^                          |
//	                            +--------try_close---------+
//	                                       |
//	                                       v
//	                                    Closing --refs->0--> Destroyed
type StreamState int

// Stream states.
const (
	StreamAllocated StreamState = iota
	StreamIndexed
	StreamReady
	StreamClosing
	StreamDestroyed
)

var streamStateNames = map[StreamState]string{
	StreamAllocated: "allocated",
	StreamIndexed:   "indexed",
	StreamReady:     "ready",
	StreamClosing:   "closing",
	StreamDestroyed: "destroyed",
}

func (s StreamState) String() string { return streamStateNames[s] }

// RelayStream is one per-CPU stream of a CTFTrace. It holds one
// StrongRef to its owning CTFTrace for as long as it is alive;
// Registry.ReleaseRelayStream releases it when the stream itself is
// destroyed.
type RelayStream struct {
	ID uint64

	mu    sync.Mutex
	state StreamState

	traceRef epoch.StrongRef[CTFTrace]
}

func newRelayStream(id uint64, traceRef epoch.StrongRef[CTFTrace]) *RelayStream {
	return &RelayStream{ID: id, state: StreamAllocated, traceRef: traceRef}
}

// State returns the stream's current readiness state.
func (s *RelayStream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Publish transitions Allocated -> Indexed.
func (s *RelayStream) Publish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StreamAllocated {
		return fmt.Errorf("relay: stream %d: publish requires allocated, was %s", s.ID, s.state)
	}
	s.state = StreamIndexed
	return nil
}

// MarkReady transitions Indexed -> Ready, i.e. the stream has crossed a
// data boundary and is safe for a viewer to begin reading.
func (s *RelayStream) MarkReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StreamIndexed {
		return fmt.Errorf("relay: stream %d: mark-ready requires indexed, was %s", s.ID, s.state)
	}
	s.state = StreamReady
	return nil
}

// TryClose transitions any state other than Closing or Destroyed
// (Allocated included) to Closing. It is idempotent and infallible:
// calling it again once Closing or Destroyed does nothing.
func (s *RelayStream) TryClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StreamClosing || s.state == StreamDestroyed {
		return
	}
	s.state = StreamClosing
}

func (s *RelayStream) markDestroyed() {
	s.mu.Lock()
	s.state = StreamDestroyed
	s.mu.Unlock()
}
