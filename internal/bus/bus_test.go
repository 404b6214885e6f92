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

package bus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/bus"
	"github.com/athulkannan2000/nexus-functions/internal/envelope"
)

func TestPublishDeliversToHandler(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := bus.New(ctx)
	require.NoError(t, err)

	var mu sync.Mutex
	var got []string

	b.AddHandler("test-handler", func(msg *message.Message) error {
		mu.Lock()
		got = append(got, msg.Metadata.Get("event_type"))
		mu.Unlock()
		return nil
	})

	go func() {
		_ = b.Run(ctx)
	}()
	<-b.Running()

	ce := envelope.New("com.nexus.user.created", "nexus://test")
	require.NoError(t, b.Publish(ce))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"com.nexus.user.created"}, got)
	mu.Unlock()

	require.NoError(t, b.Close())
}
