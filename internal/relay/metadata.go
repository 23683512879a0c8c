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

import "sync"

// MetadataStream owns the append-only text buffer a tsdl.Emitter's
// Append callback writes fragments into. A viewer reads it by byte
// offset so it can resume a live metadata stream from wherever it last
// read.
type MetadataStream struct {
	mu   sync.Mutex
	data []byte
}

// NewMetadataStream returns an empty metadata stream.
func NewMetadataStream() *MetadataStream {
	return &MetadataStream{}
}

// Append satisfies tsdl.AppendFunc. It never fails; the buffer is
// in-memory.
func (m *MetadataStream) Append(fragment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data, fragment...)
	return nil
}

// ReadFrom returns a copy of every byte appended since offset, plus the
// buffer's length after the read (the viewer's next offset).
func (m *MetadataStream) ReadFrom(offset int) ([]byte, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset < 0 || offset >= len(m.data) {
		return nil, len(m.data)
	}
	out := make([]byte, len(m.data)-offset)
	copy(out, m.data[offset:])
	return out, len(m.data)
}

// Len returns the number of bytes appended so far.
func (m *MetadataStream) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
