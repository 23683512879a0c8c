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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/lttng-relay/internal/epoch"
)

func TestAttachDetachAttachRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	cell, _ := epoch.NewCell(session)
	vs := NewViewerSession()

	require.Equal(t, AttachOk, reg.Attach(vs, cell))
	require.Equal(t, AttachAlreadyAttached, reg.Attach(vs, cell))

	reg.Detach(vs, session.Name)
	require.Equal(t, AttachOk, reg.Attach(vs, cell))
}

func TestAttachFailsWhileDraining(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	cell, _ := epoch.NewCell(session)
	vs := NewViewerSession()

	reg.Drain()
	require.Equal(t, AttachUnknown, reg.Attach(vs, cell))
}

func TestAttachCopiesCurrentTraceChunk(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	session.SetCurrentTraceChunk("chunk-7")
	cell, _ := epoch.NewCell(session)
	vs := NewViewerSession()

	require.Equal(t, AttachOk, reg.Attach(vs, cell))
	require.Equal(t, "chunk-7", vs.currentTraceChunk)
}

func TestDetachOfUnattachedSessionIsNoop(t *testing.T) {
	reg := NewRegistry(nil)
	vs := NewViewerSession()
	reg.Detach(vs, "never-attached")
	require.Equal(t, 0, vs.AttachedSessionCount())
}

func TestAttachOnVanishedSessionReturnsUnknown(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	cell, ref := epoch.NewCell(session)
	vs := NewViewerSession()

	// Drop the only strong ref so the cell is released before Attach
	// ever runs.
	epoch.Release(reg.Epoch(), ref, nil, nil)

	require.Equal(t, AttachUnknown, reg.Attach(vs, cell))
}

func TestRegisterAndCloseViewerStream(t *testing.T) {
	reg := NewRegistry(nil)
	vs := NewViewerSession()

	id := reg.AttachViewerStream(vs, 42, 7, "session-a")
	require.Equal(t, 1, len(vs.viewerStreamRefs))
	require.Equal(t, uint64(42), vs.viewerStreamRefs[id].Get().RelayStreamID)

	reg.CloseViewerSession(vs)
	require.Equal(t, 0, len(vs.viewerStreamRefs))

	reg.viewerStreamsMu.RLock()
	_, stillPresent := reg.viewerStreams[id]
	reg.viewerStreamsMu.RUnlock()
	require.False(t, stillPresent)
}

func TestCloseViewerSessionDetachesEverySession(t *testing.T) {
	reg := NewRegistry(nil)
	vs := NewViewerSession()

	s1 := NewRelaySession("s1", "h", time.Second)
	s2 := NewRelaySession("s2", "h", time.Second)
	s2.SetCurrentTraceChunk("chunk-3")
	c1, _ := epoch.NewCell(s1)
	c2, _ := epoch.NewCell(s2)

	require.Equal(t, AttachOk, reg.Attach(vs, c1))
	require.Equal(t, AttachOk, reg.Attach(vs, c2))
	require.Equal(t, 2, vs.AttachedSessionCount())
	require.Equal(t, "chunk-3", vs.currentTraceChunk)

	reg.CloseViewerSession(vs)
	require.Equal(t, 0, vs.AttachedSessionCount())
	require.False(t, s1.viewerAttached)
	require.False(t, s2.viewerAttached)
	require.Nil(t, vs.currentTraceChunk, "the viewer's trace-chunk handle is released on close")
}
