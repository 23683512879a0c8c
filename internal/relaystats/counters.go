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
Package relaystats implements statistics collection and reporting for
the relay daemon: a JSON counters endpoint plus a Prometheus exporter
that scrapes it.
*/
package relaystats

import "sync/atomic"

// Counters is the live counter set a Registry reports into. It
// satisfies relay.Stats, plus a few gauges the Registry itself cannot
// observe, set by the daemon that owns it.
type Counters struct {
	traces               atomic.Int64
	streams              atomic.Int64
	viewerAttach         atomic.Int64
	viewerAttachRejected atomic.Int64
	viewerDetach         atomic.Int64
	liveSessions         atomic.Int64
	epochPending         atomic.Int64
}

// New returns a zeroed Counters.
func New() *Counters {
	return &Counters{}
}

// IncTraces atomically adds 1 to the trace gauge.
func (c *Counters) IncTraces() { c.traces.Add(1) }

// DecTraces atomically subtracts 1 from the trace gauge.
func (c *Counters) DecTraces() { c.traces.Add(-1) }

// IncStreams atomically adds 1 to the stream gauge.
func (c *Counters) IncStreams() { c.streams.Add(1) }

// DecStreams atomically subtracts 1 from the stream gauge.
func (c *Counters) DecStreams() { c.streams.Add(-1) }

// IncViewerAttach atomically adds 1 to the successful-attach counter.
func (c *Counters) IncViewerAttach() { c.viewerAttach.Add(1) }

// IncViewerAttachRejected atomically adds 1 to the rejected-attach
// counter. Registry.Attach calls it for AlreadyAttached outcomes only;
// Unknown outcomes are not counted.
func (c *Counters) IncViewerAttachRejected() { c.viewerAttachRejected.Add(1) }

// IncViewerDetach atomically adds 1 to the detach counter.
func (c *Counters) IncViewerDetach() { c.viewerDetach.Add(1) }

// SetLiveSessions records the current number of connected RelaySessions.
// The Registry has no notion of a connection, so this is not part of
// relay.Stats. The run subcommand starts no listener and never calls it,
// so in the daemon the gauge stays 0.
func (c *Counters) SetLiveSessions(n int64) { c.liveSessions.Store(n) }

// SetEpochPending records the depth of the epoch registry's deferred
// destructor queue (epoch.Registry.Pending), polled by the same
// goroutine that drives Advance.
func (c *Counters) SetEpochPending(n int64) { c.epochPending.Store(n) }

// Reset atomically sets every counter back to 0.
func (c *Counters) Reset() {
	c.traces.Store(0)
	c.streams.Store(0)
	c.viewerAttach.Store(0)
	c.viewerAttachRejected.Store(0)
	c.viewerDetach.Store(0)
	c.liveSessions.Store(0)
	c.epochPending.Store(0)
}

// ToMap renders the counter set as a flat string-keyed map, the shape
// the JSON endpoint exports.
func (c *Counters) ToMap() map[string]int64 {
	return map[string]int64{
		"relay.traces":                 c.traces.Load(),
		"relay.streams":                c.streams.Load(),
		"relay.viewer_attach":          c.viewerAttach.Load(),
		"relay.viewer_attach_rejected": c.viewerAttachRejected.Load(),
		"relay.viewer_detach":          c.viewerDetach.Load(),
		"relay.live_sessions":          c.liveSessions.Load(),
		"relay.epoch_pending":          c.epochPending.Load(),
	}
}
