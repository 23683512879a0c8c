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

/*
Package ctf is the Trace Object Model: the typed tree describing a CTF
1.8 trace (ABI, environment, clock classes, stream classes, event
classes and the field-type algebra) plus the visitor protocol used to
walk it. It is pure data; the only operations are constructors that
enforce the invariants below and the Visit/Accept methods; serializing
the tree to TSDL text is internal/tsdl's job.
*/
package ctf

// ByteOrder is a trace or field's byte order.
type ByteOrder uint8

// Byte orders a CTF 1.8 trace can declare.
const (
	LittleEndian ByteOrder = iota
	BigEndian
)

var byteOrderNames = map[ByteOrder]string{
	LittleEndian: "le",
	BigEndian:    "be",
}

func (b ByteOrder) String() string { return byteOrderNames[b] }

// ABI describes the host the trace was produced on: byte order and the
// width/alignment of the base integer types, matching what a CTF
// consumer needs to parse the binary stream without an external
// description.
type ABI struct {
	ByteOrder ByteOrder

	Uint8Size, Uint8Alignment   uint
	Uint16Size, Uint16Alignment uint
	Uint32Size, Uint32Alignment uint
	Uint64Size, Uint64Alignment uint

	LongSize      uint
	LongAlignment uint
	BitsPerLong   uint
}

// DefaultABI64 is the common little-endian, 64-bit long ABI most
// userspace tracers on Linux/x86_64 and arm64 emit.
func DefaultABI64() ABI {
	return ABI{
		ByteOrder:       LittleEndian,
		Uint8Size:       8,
		Uint8Alignment:  8,
		Uint16Size:      16,
		Uint16Alignment: 8,
		Uint32Size:      32,
		Uint32Alignment: 8,
		Uint64Size:      64,
		Uint64Alignment: 8,
		LongSize:        64,
		LongAlignment:   8,
		BitsPerLong:     64,
	}
}
