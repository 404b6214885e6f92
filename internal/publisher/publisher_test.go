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

package publisher_test

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/envelope"
	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
	"github.com/athulkannan2000/nexus-functions/internal/publisher"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

func TestPublishNotConnected(t *testing.T) {
	t.Parallel()

	a := stream.New()
	p := publisher.New(a)

	err := p.Publish(envelope.New("com.nexus.user.created", "nexus://test"))
	require.Error(t, err)
	require.Equal(t, nexuserr.StreamError, nexuserr.KindOf(err))
}

func TestPublishSuccess(t *testing.T) {
	t.Parallel()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	a := stream.New()
	require.NoError(t, a.Connect(srv.ClientURL(), 3, 50*time.Millisecond))
	t.Cleanup(a.Close)
	require.NoError(t, a.EnsureStream("events", stream.DefaultPolicy()))

	p := publisher.New(a)
	ce := envelope.New("com.nexus.user.created", "nexus://test")
	require.NoError(t, p.Publish(ce))

	info, err := a.GetStreamInfo("events")
	require.NoError(t, err)
	require.Equal(t, uint64(1), info.Messages)
}
