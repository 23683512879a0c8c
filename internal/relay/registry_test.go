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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/lttng-relay/internal/epoch"
)

func TestGetByPathOrCreateReturnsSameTraceOnSecondCall(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)

	ref1, err := reg.GetByPathOrCreate(session, "ust/uid/1000/64-bit")
	require.NoError(t, err)
	ref2, err := reg.GetByPathOrCreate(session, "ust/uid/1000/64-bit")
	require.NoError(t, err)

	require.Equal(t, ref1.Get().ID, ref2.Get().ID)
	require.Same(t, ref1.Get(), ref2.Get())
}

func TestGetByPathOrCreateFailsWhileDraining(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	reg.Drain()

	_, err := reg.GetByPathOrCreate(session, "ust/uid/1000/64-bit")
	require.ErrorIs(t, err, ErrDraining)
}

// 16 goroutines race to create the same (session, subpath); exactly one
// CTFTrace is published and every caller's StrongRef points at it.
func TestGetByPathOrCreateExactlyOnceUnderConcurrency(t *testing.T) {
	const n = 16
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)

	var wg sync.WaitGroup
	refs := make([]epoch.StrongRef[CTFTrace], n)
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			refs[i], errs[i] = reg.GetByPathOrCreate(session, "ust/uid/1000/64-bit")
		}(i)
	}
	wg.Wait()

	firstID := refs[0].Get().ID
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.True(t, refs[i].Valid())
		require.Equal(t, firstID, refs[i].Get().ID)
		require.Same(t, refs[0].Get(), refs[i].Get())
	}
	require.Equal(t, 1, session.TraceCount())
}

func TestReleaseTraceUnlinksFromSessionOnLastRef(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	ref, err := reg.GetByPathOrCreate(session, "ust/uid/1000/64-bit")
	require.NoError(t, err)
	require.Equal(t, 1, session.TraceCount())

	reg.ReleaseTrace(ref)
	require.Equal(t, 0, session.TraceCount())

	_, ok := reg.lookupTrace(session, "ust/uid/1000/64-bit")
	require.False(t, ok)
}

func TestAcquireRelayStreamFindsLiveStream(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	traceRef, err := reg.GetByPathOrCreate(session, "ust/uid/1000/64-bit")
	require.NoError(t, err)
	trace := traceRef.Get()

	stream, streamRef := reg.AddRelayStream(traceRef)
	ref, ok := reg.AcquireRelayStream(trace, stream.ID)
	require.True(t, ok)
	require.Equal(t, stream.ID, ref.Get().ID)
	reg.ReleaseRelayStream(trace, ref)
	reg.ReleaseRelayStream(trace, streamRef)

	_, ok = reg.AcquireRelayStream(trace, stream.ID+1)
	require.False(t, ok)
}

func TestReleaseRelayStreamCascadesIntoTraceRelease(t *testing.T) {
	reg := NewRegistry(nil)
	session := NewRelaySession("s", "h", time.Second)
	traceRef, err := reg.GetByPathOrCreate(session, "ust/uid/1000/64-bit")
	require.NoError(t, err)
	trace := traceRef.Get()

	stream, streamRef := reg.AddRelayStream(traceRef)
	extraRef, ok := reg.AcquireRelayStream(trace, stream.ID)
	require.True(t, ok)

	// Drop the acquired ref first: the stream's own ref (from
	// AddRelayStream) is still outstanding, so the stream must not be
	// destroyed yet.
	reg.ReleaseRelayStream(trace, extraRef)
	require.Equal(t, 1, trace.StreamCount())

	// Dropping the stream's own ref is now the last one.
	reg.ReleaseRelayStream(trace, streamRef)
	require.Equal(t, 0, trace.StreamCount())

	// The stream's release of the trace ref it held is deferred to the
	// next epoch; once the epoch advances the trace loses that ref, which
	// was its last, and is unlinked from the session.
	require.Equal(t, 1, session.TraceCount())
	require.True(t, reg.Epoch().Advance())
	require.Equal(t, 0, session.TraceCount())
}
