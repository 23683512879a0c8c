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

func TestNewClockClassValidation(t *testing.T) {
	_, err := NewClockClass("", 1000)
	require.Error(t, err)

	_, err = NewClockClass("monotonic", 0)
	require.Error(t, err)

	c, err := NewClockClass("monotonic", 1_000_000_000)
	require.NoError(t, err)
	require.Equal(t, "monotonic", c.Name)
	require.EqualValues(t, 1_000_000_000, c.FrequencyHz)
}
