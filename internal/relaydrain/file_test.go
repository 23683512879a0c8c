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

package relaydrain

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/lttng-relay/internal/relay"
)

func TestCheck(t *testing.T) {
	file, err := os.CreateTemp("", "")
	require.NoError(t, err)
	defer os.Remove(file.Name())

	d := &FileDrain{File: file.Name()}
	require.True(t, d.Check())

	os.Remove(file.Name())
	require.False(t, d.Check())
}

func TestStartDrainsRegistryOnceFileAppears(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/kill"

	reg := relay.NewRegistry(nil)
	d := &FileDrain{File: path, Interval: 10 * time.Millisecond}

	done := make(chan struct{})
	go func() {
		d.Start(reg)
		close(done)
	}()

	require.False(t, reg.Draining())
	f, err := os.Create(path)
	require.NoError(t, err)
	f.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after the killswitch file appeared")
	}
	require.True(t, reg.Draining())
}
