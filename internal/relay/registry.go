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
	"sync/atomic"

	"github.com/facebook/lttng-relay/internal/epoch"
)

// Stats is the counters interface Registry reports into;
// internal/relaystats.Counters implements it.
type Stats interface {
	IncTraces()
	DecTraces()
	IncStreams()
	DecStreams()
	IncViewerAttach()
	IncViewerAttachRejected()
	IncViewerDetach()
}

type noopStats struct{}

func (noopStats) IncTraces() {}
func (noopStats) DecTraces() {}
func (noopStats) IncStreams() {}
func (noopStats) DecStreams() {}
func (noopStats) IncViewerAttach() {}
func (noopStats) IncViewerAttachRejected() {}
func (noopStats) IncViewerDetach() {}

// Registry holds what would otherwise be process-global mutable state:
// the monotonic trace-id counter, the global viewer-streams table, the
// epoch substrate and the stats sink all live here, created once in
// main and threaded through.
type Registry struct {
	epoch *epoch.Registry
	stats Stats

	traceIDMu   sync.Mutex
	nextTraceID uint64

	viewerStreamsMu       sync.RWMutex
	viewerStreams         map[uint64]*epoch.Cell[ViewerStream]
	viewerStreamTableRefs map[uint64]epoch.StrongRef[ViewerStream]
	nextViewerStreamID    uint64

	draining atomic.Bool
}

// NewRegistry returns an empty Registry. Pass stats=nil to use a no-op
// sink (tests and tools that don't care about counters).
func NewRegistry(stats Stats) *Registry {
	if stats == nil {
		stats = noopStats{}
	}
	return &Registry{
		epoch:                 epoch.NewRegistry(),
		stats:                 stats,
		viewerStreams:         make(map[uint64]*epoch.Cell[ViewerStream]),
		viewerStreamTableRefs: make(map[uint64]epoch.StrongRef[ViewerStream]),
	}
}

// Epoch exposes the underlying epoch.Registry so the daemon can drive
// its Advance loop on a timer; the relay package never calls Advance
// itself.
func (r *Registry) Epoch() *epoch.Registry { return r.epoch }

// Drain marks the registry as draining: GetByPathOrCreate starts failing
// with ErrDraining and Attach with AttachUnknown, while everything already alive
// is left to tear down normally.
func (r *Registry) Drain() { r.draining.Store(true) }

// Draining reports whether Drain has been called.
func (r *Registry) Draining() bool { return r.draining.Load() }

func (r *Registry) nextTraceIDValue() uint64 {
	r.traceIDMu.Lock()
	defer r.traceIDMu.Unlock()
	r.nextTraceID++
	return r.nextTraceID
}

// GetByPathOrCreate creates at most one trace per (session, subpath)
// under concurrent callers: lookup under epoch-read; on a hit, acquire
// and return it. On a miss, allocate optimistically, take the session's
// write lock, re-check for a concurrent winner, and either discard the
// new object or publish it.
func (r *Registry) GetByPathOrCreate(session *RelaySession, subpath string) (epoch.StrongRef[CTFTrace], error) {
	if r.draining.Load() {
		return epoch.StrongRef[CTFTrace]{}, ErrDraining
	}

	if ref, ok := r.lookupTrace(session, subpath); ok {
		return ref, nil
	}

	id := r.nextTraceIDValue()
	trace := newCTFTrace(id, subpath, session)
	cell, ref := epoch.NewCell(trace)

	session.lock.Lock()
	if existing, found := session.traces[subpath]; found {
		session.lock.Unlock()
		var winner epoch.StrongRef[CTFTrace]
		var ok bool
		r.epoch.Read(func() {
			winner, ok = epoch.TryAcquire(existing)
		})
		if !ok {
			return epoch.StrongRef[CTFTrace]{}, ErrSessionVanishing
		}
		return winner, nil
	}
	session.traces[subpath] = cell
	session.lock.Unlock()

	r.stats.IncTraces()
	return ref, nil
}

func (r *Registry) lookupTrace(session *RelaySession, subpath string) (ref epoch.StrongRef[CTFTrace], ok bool) {
	r.epoch.Read(func() {
		session.lock.RLock()
		cell, found := session.traces[subpath]
		session.lock.RUnlock()
		if found {
			ref, ok = epoch.TryAcquire(cell)
		}
	})
	return ref, ok
}

// ReleaseTrace decrements ref's refcount. On the last release the trace
// is unlinked from its session's table before its close runs.
func (r *Registry) ReleaseTrace(ref epoch.StrongRef[CTFTrace]) {
	epoch.Release(r.epoch, ref,
		func(t *CTFTrace) {
			t.session.lock.Lock()
			delete(t.session.traces, t.Subpath)
			t.session.lock.Unlock()
			t.Close(r)
			r.stats.DecTraces()
		},
		nil,
	)
}

// AddRelayStream creates a new RelayStream under trace, contributing
// one ref to the trace's refcount for as long as the stream is alive.
// traceRef is consumed: the stream now owns it and releases it via
// ReleaseRelayStream once the stream itself is destroyed. The returned
// StrongRef is the caller's own handle on the new stream and must
// eventually be passed to ReleaseRelayStream.
func (r *Registry) AddRelayStream(traceRef epoch.StrongRef[CTFTrace]) (*RelayStream, epoch.StrongRef[RelayStream]) {
	trace := traceRef.Get()
	stream, ref := trace.addStream(traceRef)
	r.stats.IncStreams()
	return stream, ref
}

// ReleaseRelayStream decrements ref's refcount. On the last release the
// stream is unlinked from its trace's table and marked Destroyed; the
// trace ref it was holding is released in turn once the epoch advances.
func (r *Registry) ReleaseRelayStream(trace *CTFTrace, ref epoch.StrongRef[RelayStream]) {
	epoch.Release(r.epoch, ref,
		func(s *RelayStream) {
			trace.unlinkStream(s.ID)
			s.markDestroyed()
			r.stats.DecStreams()
		},
		func(s *RelayStream) {
			r.ReleaseTrace(s.traceRef)
		},
	)
}

// AcquireRelayStream looks up a stream by id on trace and, if found and
// still alive, returns a StrongRef to it. The epoch-read wrapping
// happens here.
func (r *Registry) AcquireRelayStream(trace *CTFTrace, id uint64) (ref epoch.StrongRef[RelayStream], ok bool) {
	r.epoch.Read(func() {
		cell, found := trace.streamCell(id)
		if !found {
			return
		}
		ref, ok = epoch.TryAcquire(cell)
	})
	return ref, ok
}
