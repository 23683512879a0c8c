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

	"github.com/google/uuid"

	"github.com/facebook/lttng-relay/internal/ctf"
	"github.com/facebook/lttng-relay/internal/epoch"
)

// CTFTrace is one trace within a relay session. It
// lives as long as any RelayStream holds a ref to it, is reachable from
// its owning RelaySession's table through an epoch.Cell, and
// owns an optional viewer-side metadata stream, published once the
// relay daemon has something to hand a live viewer.
type CTFTrace struct {
	ID      uint64
	Subpath string

	// TraceClass is the root of this trace's typed object model,
	// serialized into the metadata stream by internal/tsdl. It is
	// assigned a fresh UUID on creation.
	TraceClass *ctf.TraceClass

	session *RelaySession

	mu             sync.Mutex
	streams        map[uint64]*epoch.Cell[RelayStream]
	nextStreamID   uint64
	viewerMetadata *epoch.Cell[MetadataStream]
}

func newCTFTrace(id uint64, subpath string, session *RelaySession) *CTFTrace {
	tc, err := ctf.NewTraceClass(ctf.DefaultABI64(), uuid.New().String())
	if err != nil {
		// ctf.NewTraceClass only fails on an empty uuid string, which
		// uuid.New() never produces.
		panic(err)
	}
	return &CTFTrace{
		ID:         id,
		Subpath:    subpath,
		TraceClass: tc,
		session:    session,
		streams:    make(map[uint64]*epoch.Cell[RelayStream]),
	}
}

// Close drives TryClose on every RelayStream currently linked to the
// trace. It is idempotent. The TryAcquire loop runs inside reg's
// epoch-read section since the caller holds no StrongRef to the
// individual stream cells.
func (t *CTFTrace) Close(reg *Registry) {
	t.mu.Lock()
	cells := make([]*epoch.Cell[RelayStream], 0, len(t.streams))
	for _, c := range t.streams {
		cells = append(cells, c)
	}
	t.mu.Unlock()

	reg.epoch.Read(func() {
		for _, c := range cells {
			if ref, ok := epoch.TryAcquire(c); ok {
				ref.Get().TryClose()
			}
		}
	})
}

// PublishViewerMetadataStream installs ms as the trace's viewer-facing
// metadata stream if none has been published yet, otherwise it returns
// a fresh StrongRef to the one already there. The first publication's
// caller owns the returned ref; later callers get an additional ref to
// the same object.
func (t *CTFTrace) PublishViewerMetadataStream(ms *MetadataStream) epoch.StrongRef[MetadataStream] {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.viewerMetadata == nil {
		cell, ref := epoch.NewCell(ms)
		t.viewerMetadata = cell
		return ref
	}
	ref, _ := epoch.TryAcquire(t.viewerMetadata)
	return ref
}

// GetViewerMetadataStream atomically obtains a StrongRef to the
// viewer-side metadata stream if one has been published. ok is false if
// none has been published yet.
func (t *CTFTrace) GetViewerMetadataStream(reg *Registry) (ref epoch.StrongRef[MetadataStream], ok bool) {
	t.mu.Lock()
	cell := t.viewerMetadata
	t.mu.Unlock()
	if cell == nil {
		return epoch.StrongRef[MetadataStream]{}, false
	}
	reg.epoch.Read(func() {
		ref, ok = epoch.TryAcquire(cell)
	})
	return ref, ok
}

// addStream allocates a RelayStream and publishes it into the streams
// table. The caller owns the returned StrongRef and must eventually
// pass it to Registry.ReleaseRelayStream.
func (t *CTFTrace) addStream(traceRef epoch.StrongRef[CTFTrace]) (*RelayStream, epoch.StrongRef[RelayStream]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextStreamID
	t.nextStreamID++
	stream := newRelayStream(id, traceRef)
	cell, ref := epoch.NewCell(stream)
	t.streams[id] = cell
	return stream, ref
}

func (t *CTFTrace) streamCell(id uint64) (*epoch.Cell[RelayStream], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.streams[id]
	return c, ok
}

func (t *CTFTrace) unlinkStream(id uint64) {
	t.mu.Lock()
	delete(t.streams, id)
	t.mu.Unlock()
}

// StreamCount reports how many streams are still linked to the trace.
// Exposed for stats reporting.
func (t *CTFTrace) StreamCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.streams)
}
