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

package relaystats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountersIncDec(t *testing.T) {
	c := New()

	c.IncTraces()
	c.IncTraces()
	c.DecTraces()
	require.Equal(t, int64(1), c.ToMap()["relay.traces"])

	c.IncStreams()
	require.Equal(t, int64(1), c.ToMap()["relay.streams"])

	c.IncViewerAttach()
	c.IncViewerAttachRejected()
	c.IncViewerDetach()
	m := c.ToMap()
	require.Equal(t, int64(1), m["relay.viewer_attach"])
	require.Equal(t, int64(1), m["relay.viewer_attach_rejected"])
	require.Equal(t, int64(1), m["relay.viewer_detach"])
}

func TestCountersSetters(t *testing.T) {
	c := New()
	c.SetLiveSessions(3)
	c.SetEpochPending(7)

	m := c.ToMap()
	require.Equal(t, int64(3), m["relay.live_sessions"])
	require.Equal(t, int64(7), m["relay.epoch_pending"])
}

func TestCountersReset(t *testing.T) {
	c := New()
	c.IncTraces()
	c.IncStreams()
	c.SetLiveSessions(5)

	c.Reset()
	for _, v := range c.ToMap() {
		require.Equal(t, int64(0), v)
	}
}
