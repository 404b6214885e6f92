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

package eventlog_test

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/envelope"
	"github.com/athulkannan2000/nexus-functions/internal/eventlog"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

func setup(t *testing.T) (*eventlog.Log, *stream.Adapter) {
	t.Helper()

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

	return eventlog.New(a, "events"), a
}

func publish(t *testing.T, a *stream.Adapter, eventType string) envelope.CE {
	t.Helper()
	ce := envelope.New(eventType, "nexus://test")
	b, err := envelope.ToBytes(ce)
	require.NoError(t, err)
	require.NoError(t, a.Publish(envelope.Subject(eventType), b))
	return ce
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	log, a := setup(t)
	ce := publish(t, a, "a.b")
	_ = publish(t, a, "a.c")

	got, found, err := log.GetByID(ce.ID())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, ce.ID(), got.ID())

	_, found, err = log.GetByID("nonexistent")
	require.NoError(t, err)
	require.False(t, found)
}

func TestListWithFilter(t *testing.T) {
	t.Parallel()

	log, a := setup(t)
	ce1 := publish(t, a, "a.b")
	ce2 := publish(t, a, "a.b")
	_ = publish(t, a, "a.c")

	list, err := log.List("a.b", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	ids := []string{list[0].ID(), list[1].ID()}
	require.ElementsMatch(t, ids, []string{ce1.ID(), ce2.ID()})
}

func TestCount(t *testing.T) {
	t.Parallel()

	log, a := setup(t)
	publish(t, a, "a.b")
	publish(t, a, "a.c")

	count, err := log.Count()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}
