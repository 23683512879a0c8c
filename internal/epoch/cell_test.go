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

package epoch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTryAcquireSucceedsWhileAlive(t *testing.T) {
	val := 42
	cell, strong := NewCell(&val)
	require.EqualValues(t, 1, cell.Count())

	acquired, ok := TryAcquire(cell)
	require.True(t, ok)
	require.EqualValues(t, 2, cell.Count())
	require.Equal(t, 42, *acquired.Get())

	reg := NewRegistry()
	Release(reg, acquired, nil, nil)
	require.EqualValues(t, 1, cell.Count())
	Release(reg, strong, nil, nil)
	require.EqualValues(t, 0, cell.Count())
}

func TestTryAcquireFailsAfterLastRelease(t *testing.T) {
	val := "gone"
	cell, strong := NewCell(&val)
	reg := NewRegistry()

	var unlinked bool
	Release(reg, strong, func(*string) { unlinked = true }, nil)
	require.True(t, unlinked)

	_, ok := TryAcquire(cell)
	require.False(t, ok)
}

func TestReleaseIsIdempotent(t *testing.T) {
	val := 1
	cell, strong := NewCell(&val)
	reg := NewRegistry()

	var destroyCount int
	var mu sync.Mutex
	destroy := func(*int) {
		mu.Lock()
		destroyCount++
		mu.Unlock()
	}

	Release(reg, strong, nil, destroy)
	Release(reg, strong, nil, destroy) // double release must not double-destroy
	reg.Advance()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, destroyCount)
	_ = cell
}

func TestConcurrentAcquireExactlyOnceCreation(t *testing.T) {
	// Many goroutines racing TryAcquire against a single winning Cell
	// must all observe the same live object or all fail consistently,
	// never a torn read.
	val := "trace"
	cell, strong := NewCell(&val)
	defer func() { _ = strong }()

	const n = 32
	var wg sync.WaitGroup
	oks := make([]bool, n)
	refs := make([]StrongRef[string], n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i], oks[i] = TryAcquire(cell)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.True(t, oks[i])
		require.Same(t, &val, refs[i].Get())
	}
	require.EqualValues(t, n+1, cell.Count())
}

func TestDestroyWaitsForEpochAdvance(t *testing.T) {
	val := 7
	cell, strong := NewCell(&val)
	reg := NewRegistry()

	destroyed := make(chan struct{}, 1)
	reg.Read(func() {
		Release(reg, strong, nil, func(*int) { destroyed <- struct{}{} })

		// Still inside the reader's critical section from before the
		// release: the destructor must not have run yet.
		select {
		case <-destroyed:
			t.Fatal("destructor ran before the epoch advanced")
		default:
		}
	})

	// The reader above has exited; now an epoch advance is possible and
	// the deferred destructor becomes eligible to run.
	require.True(t, reg.Advance())
	<-destroyed
	_ = cell
}
