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

import "sync"

// Cell is a weak-lookup table entry: a hash table stores *Cell[T],
// never *T directly, so a reader can never resurrect an object that has
// begun teardown.
type Cell[T any] struct {
	mu       sync.Mutex
	count    int64
	released bool
	val      *T
}

// StrongRef is an owning handle. While any StrongRef to a Cell exists,
// the target is alive and its fields may be read without an epoch-read
// section.
type StrongRef[T any] struct {
	cell *Cell[T]
}

// Valid reports whether this is a real reference (as opposed to the
// zero value returned by a failed TryAcquire).
func (s StrongRef[T]) Valid() bool { return s.cell != nil }

// Get returns the referenced value. Only call on a Valid ref.
func (s StrongRef[T]) Get() *T { return s.cell.val }

// NewCell creates a Cell with refcount 1 and returns the StrongRef that
// accounts for it. Use this at object-construction time, before the
// cell is published into any lookup table.
func NewCell[T any](v *T) (*Cell[T], StrongRef[T]) {
	c := &Cell[T]{count: 1, val: v}
	return c, StrongRef[T]{cell: c}
}

// TryAcquire promotes a weak table entry to an owning reference: it
// returns a StrongRef iff the count was > 0 before this call. The caller must
// already be inside a Registry.Read critical section unless it already
// holds some other StrongRef to c's target.
func TryAcquire[T any](c *Cell[T]) (StrongRef[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count <= 0 {
		return StrongRef[T]{}, false
	}
	c.count++
	return StrongRef[T]{cell: c}, true
}

// Release decrements the refcount behind ref. On the last release,
// unlink runs synchronously to remove the object from its lookup
// tables, then destroy is handed to reg to run after the current epoch
// ends. unlink and destroy may be nil. Once the count has reached zero,
// further Release calls on the cell do nothing; a StrongRef carries no
// state of its own, so releasing the same ref twice while other refs
// are outstanding decrements the count twice.
func Release[T any](reg *Registry, ref StrongRef[T], unlink func(*T), destroy func(*T)) {
	c := ref.cell
	if c == nil {
		return
	}

	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.count--
	last := c.count <= 0
	if last {
		c.released = true
	}
	c.mu.Unlock()

	if !last {
		return
	}
	if unlink != nil {
		unlink(c.val)
	}
	if destroy != nil && reg != nil {
		val := c.val
		reg.Defer(func() { destroy(val) })
	}
}

// Count returns the current refcount. Intended for tests and stats, not
// for making acquire/release decisions; use TryAcquire for that.
func (c *Cell[T]) Count() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
