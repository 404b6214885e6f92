// Copyright 2025 Nexus Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package envelope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/envelope"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ce := envelope.New("com.nexus.user.created", "nexus://test")
	ce, err := envelope.WithData(ce, map[string]string{"name": "x"})
	require.NoError(t, err)
	ce = envelope.WithExtension(ce, "traceid", "abc123")

	b, err := envelope.ToBytes(ce)
	require.NoError(t, err)

	got, err := envelope.FromBytes(b)
	require.NoError(t, err)

	assert.Equal(t, ce.ID(), got.ID())
	assert.Equal(t, ce.Type(), got.Type())
	assert.Equal(t, ce.Source(), got.Source())
	assert.Equal(t, ce.Time().Unix(), got.Time().Unix())
	assert.Equal(t, ce.Extensions()["traceid"], got.Extensions()["traceid"])
}

func TestIDUniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ce := envelope.New("com.nexus.thing", "nexus://test")
		require.False(t, seen[ce.ID()], "duplicate id generated")
		seen[ce.ID()] = true
	}
}

func TestSubjectDerivation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "events.com_nexus_user_created", envelope.Subject("com.nexus.user.created"))
	assert.Equal(t, "com_nexus_user_created", envelope.EscapeType("com.nexus.user.created"))
}

func TestFromBytesMalformed(t *testing.T) {
	t.Parallel()

	_, err := envelope.FromBytes([]byte(`{"not": "a cloudevent"}`))
	require.Error(t, err)
}

func TestTypeFromWebhookPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/webhook/user/created", "com.nexus.user.created"},
		{"/events/order/paid", "com.nexus.order.paid"},
		{"/unknown/path", envelope.UnknownEventType},
		{"/webhook/", envelope.UnknownEventType},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, envelope.TypeFromWebhookPath(tt.path), tt.path)
	}
}
