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

package ctf

import "fmt"

// EnvEntry is one key/value pair of a TraceClass's environment block.
// Exactly one of IntValue/StrValue is set.
type EnvEntry struct {
	Key      string
	IntValue *int64
	StrValue *string
}

// IntEnv builds an int64-valued environment entry.
func IntEnv(key string, val int64) EnvEntry {
	return EnvEntry{Key: key, IntValue: &val}
}

// StrEnv builds a string-valued environment entry.
func StrEnv(key, val string) EnvEntry {
	return EnvEntry{Key: key, StrValue: &val}
}

// TraceClass is the root of the trace object model: the
// ABI, a UUID (required by NewTraceClass), the environment, the packet header type, and
// the clock/stream classes the trace owns.
type TraceClass struct {
	ABI          ABI
	UUID         string
	Environment  []EnvEntry
	PacketHeader FieldType

	ClockClasses  []*ClockClass
	StreamClasses []*StreamClass
}

// NewTraceClass returns an empty TraceClass with the given ABI and
// UUID. UUID is expected in canonical dashed-hex form; it is not
// validated here since generation is the caller's responsibility.
func NewTraceClass(abi ABI, uuid string) (*TraceClass, error) {
	if uuid == "" {
		return nil, fmt.Errorf("ctf: trace class uuid must not be empty")
	}
	return &TraceClass{ABI: abi, UUID: uuid}, nil
}

// AddEnv appends an environment entry, rejecting a duplicate key since
// TSDL readers key the env block by name.
func (t *TraceClass) AddEnv(e EnvEntry) error {
	for _, existing := range t.Environment {
		if existing.Key == e.Key {
			return fmt.Errorf("ctf: environment key %q declared more than once", e.Key)
		}
	}
	t.Environment = append(t.Environment, e)
	return nil
}

// AddClockClass appends a ClockClass, rejecting a duplicate name (clock
// class names are unique within a trace).
func (t *TraceClass) AddClockClass(c *ClockClass) error {
	for _, existing := range t.ClockClasses {
		if existing.Name == c.Name {
			return fmt.Errorf("ctf: clock class %q declared more than once", c.Name)
		}
	}
	t.ClockClasses = append(t.ClockClasses, c)
	return nil
}

// clockClassExists reports whether name matches an already-added clock
// class, used to validate a StreamClass's DefaultClockClassName refers
// to something real at the point it is attached to the trace.
func (t *TraceClass) clockClassExists(name string) bool {
	for _, c := range t.ClockClasses {
		if c.Name == name {
			return true
		}
	}
	return false
}

// AddStreamClass appends a StreamClass, validating its
// DefaultClockClassName (if set) names a clock class already owned by
// this trace and its id is unique within the trace.
func (t *TraceClass) AddStreamClass(sc *StreamClass) error {
	if sc.DefaultClockClassName != "" && !t.clockClassExists(sc.DefaultClockClassName) {
		return fmt.Errorf("ctf: stream class %d: default clock class %q not found on trace", sc.ID, sc.DefaultClockClassName)
	}
	for _, existing := range t.StreamClasses {
		if existing.ID == sc.ID {
			return fmt.Errorf("ctf: stream class id %d declared more than once", sc.ID)
		}
	}
	t.StreamClasses = append(t.StreamClasses, sc)
	return nil
}

// TraceVisitor walks a trace in fragment order: the trace class itself,
// then environment entries, then clock classes, then stream classes (in
// insertion order). Event classes and the field-type subtrees are
// reached separately, through StreamClass.EventClasses and
// FieldType.Accept.
type TraceVisitor interface {
	VisitTraceClass(*TraceClass)
	VisitEnvEntry(EnvEntry)
	VisitClockClass(*ClockClass)
	VisitStreamClass(*StreamClass)
}

// Visit drives v over t: trace class, environment, clocks, streams.
func (t *TraceClass) Visit(v TraceVisitor) {
	v.VisitTraceClass(t)
	for _, e := range t.Environment {
		v.VisitEnvEntry(e)
	}
	for _, c := range t.ClockClasses {
		v.VisitClockClass(c)
	}
	for _, sc := range t.StreamClasses {
		v.VisitStreamClass(sc)
	}
}
