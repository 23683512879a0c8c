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

	"github.com/facebook/lttng-relay/internal/epoch"
)

// ViewerStream is the shadow of a RelayStream a live viewer sees,
// linked into the global viewer-stream table. Two
// StrongRefs keep it alive: one the table holds, one the viewer session
// holds; both must be dropped for it to be destroyed.
type ViewerStream struct {
	ID            uint64
	RelayStreamID uint64
	TraceID       uint64
	SessionName   string
}

// attachedSession is what a ViewerSession keeps per attached
// RelaySession: the session itself plus the StrongRef Attach acquired,
// so Detach can release exactly that ref.
type attachedSession struct {
	session *RelaySession
	ref     epoch.StrongRef[RelaySession]
}

// ViewerSession is a live-reading client: the set of
// RelaySessions it is attached to, its current viewer trace-chunk, and
// the ViewerStreams it holds a ref to.
type ViewerSession struct {
	mu                sync.Mutex
	sessions          map[string]attachedSession
	viewerStreamRefs  map[uint64]epoch.StrongRef[ViewerStream]
	currentTraceChunk any
}

// NewViewerSession returns an empty viewer session.
func NewViewerSession() *ViewerSession {
	return &ViewerSession{
		sessions:         make(map[string]attachedSession),
		viewerStreamRefs: make(map[uint64]epoch.StrongRef[ViewerStream]),
	}
}

// AttachedSessionCount reports how many RelaySessions vs is currently
// attached to. Exposed for stats reporting.
func (vs *ViewerSession) AttachedSessionCount() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.sessions)
}

// Attach connects a viewer to a session under the session lock: it
// acquires a StrongRef on the session, rejects with
// AttachAlreadyAttached if a viewer is already attached, otherwise
// copies the session's current trace chunk and records the session in
// vs's attached list, which takes ownership of the acquired ref.
func (r *Registry) Attach(vs *ViewerSession, sessionCell *epoch.Cell[RelaySession]) AttachResult {
	if r.draining.Load() {
		return AttachUnknown
	}

	var ref epoch.StrongRef[RelaySession]
	var ok bool
	r.epoch.Read(func() {
		ref, ok = epoch.TryAcquire(sessionCell)
	})
	if !ok {
		return AttachUnknown
	}
	session := ref.Get()

	session.lock.Lock()
	if session.viewerAttached {
		session.lock.Unlock()
		epoch.Release(r.epoch, ref, nil, nil)
		r.stats.IncViewerAttachRejected()
		return AttachAlreadyAttached
	}
	session.viewerAttached = true
	chunk := session.currentTraceChunk
	session.lock.Unlock()

	vs.mu.Lock()
	vs.sessions[session.Name] = attachedSession{session: session, ref: ref}
	vs.currentTraceChunk = chunk
	vs.mu.Unlock()

	r.stats.IncViewerAttach()
	return AttachOk
}

// Detach reverses Attach under the session lock. It is a no-op if vs
// was not attached to sessionName; viewer detach is unconditional.
func (r *Registry) Detach(vs *ViewerSession, sessionName string) {
	vs.mu.Lock()
	entry, found := vs.sessions[sessionName]
	if found {
		delete(vs.sessions, sessionName)
	}
	vs.mu.Unlock()
	if !found {
		return
	}

	entry.session.lock.Lock()
	entry.session.viewerAttached = false
	entry.session.lock.Unlock()

	epoch.Release(r.epoch, entry.ref, nil, nil)
	r.stats.IncViewerDetach()
}

// RegisterViewerStream publishes a ViewerStream shadowing a RelayStream
// into the global viewer-streams table and returns the id plus the
// viewer-session's own ref to it. The table's ref lives in Registry
// until UnregisterViewerStream drops it; both must drop for teardown.
func (r *Registry) RegisterViewerStream(relayStreamID, traceID uint64, sessionName string) (uint64, epoch.StrongRef[ViewerStream]) {
	vstream := &ViewerStream{RelayStreamID: relayStreamID, TraceID: traceID, SessionName: sessionName}
	cell, tableRef := epoch.NewCell(vstream)

	r.viewerStreamsMu.Lock()
	id := r.nextViewerStreamID
	r.nextViewerStreamID++
	vstream.ID = id
	r.viewerStreams[id] = cell
	r.viewerStreamsMu.Unlock()

	viewerRef, ok := epoch.TryAcquire(cell)
	if !ok {
		// Unreachable: the cell was just created with refcount 1.
		viewerRef = tableRef
	}
	r.storeTableRef(id, tableRef)
	return id, viewerRef
}

// storeTableRef keeps the table's own StrongRef until
// UnregisterViewerStream releases it.
func (r *Registry) storeTableRef(id uint64, ref epoch.StrongRef[ViewerStream]) {
	r.viewerStreamsMu.Lock()
	if r.viewerStreamTableRefs == nil {
		r.viewerStreamTableRefs = make(map[uint64]epoch.StrongRef[ViewerStream])
	}
	r.viewerStreamTableRefs[id] = ref
	r.viewerStreamsMu.Unlock()
}

// UnregisterViewerStream drops the table's ref to the ViewerStream
// identified by id. Called once per id from AttachViewerStream's
// inverse, CloseViewerSession.
func (r *Registry) UnregisterViewerStream(id uint64) {
	r.viewerStreamsMu.Lock()
	delete(r.viewerStreams, id)
	ref, found := r.viewerStreamTableRefs[id]
	delete(r.viewerStreamTableRefs, id)
	r.viewerStreamsMu.Unlock()
	if found {
		epoch.Release(r.epoch, ref, nil, nil)
	}
}

// AttachViewerStream registers a ViewerStream for (relayStreamID,
// traceID) under sessionName and records the viewer session's own ref
// to it so CloseViewerSession can find and release it later.
func (r *Registry) AttachViewerStream(vs *ViewerSession, relayStreamID, traceID uint64, sessionName string) uint64 {
	id, viewerRef := r.RegisterViewerStream(relayStreamID, traceID, sessionName)
	vs.mu.Lock()
	vs.viewerStreamRefs[id] = viewerRef
	vs.mu.Unlock()
	return id
}

// CloseViewerSession tears down a viewer:
// walk every ViewerStream the session holds a ref to, drop both the
// table ref and the viewer-session ref for each (sufficient to trigger
// teardown), release the viewer's trace-chunk handle, then detach from
// every attached RelaySession.
func (r *Registry) CloseViewerSession(vs *ViewerSession) {
	vs.mu.Lock()
	ids := make([]uint64, 0, len(vs.viewerStreamRefs))
	refs := make([]epoch.StrongRef[ViewerStream], 0, len(vs.viewerStreamRefs))
	for id, ref := range vs.viewerStreamRefs {
		ids = append(ids, id)
		refs = append(refs, ref)
	}
	vs.viewerStreamRefs = make(map[uint64]epoch.StrongRef[ViewerStream])
	sessionNames := make([]string, 0, len(vs.sessions))
	for name := range vs.sessions {
		sessionNames = append(sessionNames, name)
	}
	vs.currentTraceChunk = nil
	vs.mu.Unlock()

	for i, id := range ids {
		r.UnregisterViewerStream(id)
		epoch.Release(r.epoch, refs[i], nil, nil)
	}
	for _, name := range sessionNames {
		r.Detach(vs, name)
	}
}
