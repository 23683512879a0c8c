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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddEventClassValidatesStreamClassID(t *testing.T) {
	sc, err := NewStreamClass(3, "", nil, nil, nil)
	require.NoError(t, err)

	ec, err := NewEventClass(0, "sched_switch", 3, 13, nil)
	require.NoError(t, err)
	require.NoError(t, sc.AddEventClass(ec))

	wrong, err := NewEventClass(1, "sched_wakeup", 4, 13, nil)
	require.NoError(t, err)
	require.Error(t, sc.AddEventClass(wrong))
}

func TestNewEventClassRequiresName(t *testing.T) {
	_, err := NewEventClass(0, "", 0, 0, nil)
	require.Error(t, err)
}
