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

// StreamClass groups the event classes sharing one packet/event header
// shape within a trace.
type StreamClass struct {
	ID uint64

	// DefaultClockClassName is the name of the ClockClass this stream's
	// default-clock-timestamp-rolled integers are expressed against.
	// Empty means none is set.
	DefaultClockClassName string

	EventHeader   FieldType
	PacketContext FieldType
	EventContext  FieldType

	EventClasses []*EventClass
}

// NewStreamClass validates that any Integer
// field inside EventHeader or PacketContext carrying the
// DefaultClockTimestamp or PacketEndDefaultClockTimestamp role requires
// DefaultClockClassName to be set.
func NewStreamClass(id uint64, defaultClockClassName string, eventHeader, packetContext, eventContext FieldType) (*StreamClass, error) {
	sc := &StreamClass{
		ID:                    id,
		DefaultClockClassName: defaultClockClassName,
		EventHeader:           eventHeader,
		PacketContext:         packetContext,
		EventContext:          eventContext,
	}
	if err := sc.requireDefaultClockIfReferenced(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *StreamClass) requireDefaultClockIfReferenced() error {
	if sc.DefaultClockClassName != "" {
		return nil
	}
	for _, scope := range []FieldType{sc.EventHeader, sc.PacketContext} {
		for _, i := range collectIntegers(scope) {
			if i.HasRole(RoleDefaultClockTimestamp) || i.HasRole(RolePacketEndDefaultClockTimestamp) {
				return fmt.Errorf("ctf: stream class %d: field with clock-timestamp role requires a default clock class", sc.ID)
			}
		}
	}
	return nil
}

// AddEventClass appends an EventClass, validating that its StreamClassID
// matches sc.ID.
func (sc *StreamClass) AddEventClass(ec *EventClass) error {
	if ec.StreamClassID != sc.ID {
		return fmt.Errorf("ctf: event class %q has stream class id %d, expected %d", ec.Name, ec.StreamClassID, sc.ID)
	}
	sc.EventClasses = append(sc.EventClasses, ec)
	return nil
}
