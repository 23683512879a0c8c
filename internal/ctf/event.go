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

// EventClass describes one kind of event a stream class can carry.
type EventClass struct {
	ID            uint64
	Name          string
	StreamClassID uint64
	LogLevel      int
	// EMFURI is the optional model.emf.uri annotation. Empty means unset.
	EMFURI  string
	Payload FieldType
}

// NewEventClass validates that Name is non-empty.
func NewEventClass(id uint64, name string, streamClassID uint64, logLevel int, payload FieldType) (*EventClass, error) {
	if name == "" {
		return nil, fmt.Errorf("ctf: event class name must not be empty")
	}
	return &EventClass{ID: id, Name: name, StreamClassID: streamClassID, LogLevel: logLevel, Payload: payload}, nil
}
