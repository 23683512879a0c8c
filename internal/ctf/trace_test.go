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

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTraceClassRequiresUUID(t *testing.T) {
	_, err := NewTraceClass(DefaultABI64(), "")
	require.Error(t, err)
}

func TestAddStreamClassRequiresKnownDefaultClock(t *testing.T) {
	tc, err := NewTraceClass(DefaultABI64(), "b1a2c3d4-0000-0000-0000-000000000000")
	require.NoError(t, err)

	sc, err := NewStreamClass(0, "monotonic", nil, nil, nil)
	require.NoError(t, err)

	err = tc.AddStreamClass(sc)
	require.Error(t, err, "monotonic was never added as a clock class")

	clock, err := NewClockClass("monotonic", 1_000_000_000)
	require.NoError(t, err)
	require.NoError(t, tc.AddClockClass(clock))
	require.NoError(t, tc.AddStreamClass(sc))
}

func TestAddStreamClassRejectsDuplicateID(t *testing.T) {
	tc, err := NewTraceClass(DefaultABI64(), "b1a2c3d4-0000-0000-0000-000000000000")
	require.NoError(t, err)

	sc1, err := NewStreamClass(0, "", nil, nil, nil)
	require.NoError(t, err)
	sc2, err := NewStreamClass(0, "", nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, tc.AddStreamClass(sc1))
	require.Error(t, tc.AddStreamClass(sc2))
}

func TestStreamClassRequiresDefaultClockWhenTimestampRoleUsed(t *testing.T) {
	header, err := NewStructure(Field{
		Name: "timestamp",
		Type: &Integer{SizeBits: 64, Roles: []Role{RoleDefaultClockTimestamp}},
	})
	require.NoError(t, err)

	_, err = NewStreamClass(0, "", header, nil, nil)
	require.Error(t, err)

	_, err = NewStreamClass(0, "monotonic", header, nil, nil)
	require.NoError(t, err)
}

func TestTraceVisitWalksInOrder(t *testing.T) {
	tc, err := NewTraceClass(DefaultABI64(), "b1a2c3d4-0000-0000-0000-000000000000")
	require.NoError(t, err)
	require.NoError(t, tc.AddEnv(StrEnv("tracer_name", "lttng-ust")))
	require.NoError(t, tc.AddEnv(IntEnv("tracer_major", 2)))

	clock, err := NewClockClass("monotonic", 1_000_000_000)
	require.NoError(t, err)
	require.NoError(t, tc.AddClockClass(clock))

	sc, err := NewStreamClass(0, "monotonic", nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, tc.AddStreamClass(sc))

	var order []string
	rec := &orderRecorder{order: &order}
	tc.Visit(rec)

	require.Equal(t, []string{
		"trace",
		"env:tracer_name",
		"env:tracer_major",
		"clock:monotonic",
		"stream:0",
	}, order)
}

type orderRecorder struct{ order *[]string }

func (o *orderRecorder) VisitTraceClass(*TraceClass) { *o.order = append(*o.order, "trace") }
func (o *orderRecorder) VisitEnvEntry(e EnvEntry) {
	*o.order = append(*o.order, "env:"+e.Key)
}
func (o *orderRecorder) VisitClockClass(c *ClockClass) {
	*o.order = append(*o.order, "clock:"+c.Name)
}
func (o *orderRecorder) VisitStreamClass(sc *StreamClass) {
	*o.order = append(*o.order, fmt.Sprintf("stream:%d", sc.ID))
}
