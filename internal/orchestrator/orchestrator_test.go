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

package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/bus"
	"github.com/athulkannan2000/nexus-functions/internal/catalog"
	"github.com/athulkannan2000/nexus-functions/internal/eventlog"
	"github.com/athulkannan2000/nexus-functions/internal/metrics"
	"github.com/athulkannan2000/nexus-functions/internal/orchestrator"
	"github.com/athulkannan2000/nexus-functions/internal/publisher"
	"github.com/athulkannan2000/nexus-functions/internal/sandbox"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

// noopStartModule mirrors sandbox_test.go's hand-assembled no-op module, so
// the orchestrator can exercise a real (if trivial) sandbox invocation.
var noopStartModule = []byte{
	0x00, 0x61, 0x73, 0x6D,
	0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x0A, 0x01, 0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x00,
	0x0A, 0x04, 0x01, 0x02, 0x00, 0x0B,
}

func setup(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	ctx := context.Background()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	adapter := stream.New()
	require.NoError(t, adapter.Connect(srv.ClientURL(), 3, 50*time.Millisecond))
	t.Cleanup(adapter.Close)
	require.NoError(t, adapter.EnsureStream("events", stream.DefaultPolicy()))

	modPath := filepath.Join(t.TempDir(), "fn.wasm")
	require.NoError(t, os.WriteFile(modPath, noopStartModule, 0o600))

	cat, err := catalog.Parse([]byte(`
version: v1
functions:
  - name: fA
    on: { nats: { subject: "user" } }
    runtime: wasi-preview1
    code: ` + modPath + `
`))
	require.NoError(t, err)

	exec, err := sandbox.NewExecutor(ctx, sandbox.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close(ctx) })

	b, err := bus.New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	pub := publisher.New(adapter)
	evlog := eventlog.New(adapter, "events")
	mtr := metrics.New()

	o := orchestrator.New(pub, evlog, cat, exec, b, mtr)

	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go func() { _ = o.Run(runCtx) }()
	<-o.Running()

	return o
}

func TestIngestThenExecute(t *testing.T) {
	t.Parallel()
	o := setup(t)
	ctx := context.Background()

	ce, err := o.Ingest(ctx, "/webhook/user/created", map[string]string{"name": "x"})
	require.NoError(t, err)
	require.Equal(t, "com.nexus.user.created", ce.Type())

	results, err := o.Execute(ctx, ce.ID())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "fA", results[0].Function)
	require.Empty(t, results[0].Error)
}

func TestReplayPreservesIdentity(t *testing.T) {
	t.Parallel()
	o := setup(t)
	ctx := context.Background()

	ce, err := o.Ingest(ctx, "/webhook/x", map[string]string{"a": "b"})
	require.NoError(t, err)

	replayed, err := o.Replay(ctx, ce.ID())
	require.NoError(t, err)
	require.Equal(t, ce.ID(), replayed.ID())
	require.Equal(t, ce.Type(), replayed.Type())
}

func TestExecuteNotFound(t *testing.T) {
	t.Parallel()
	o := setup(t)
	ctx := context.Background()

	_, err := o.Execute(ctx, "does-not-exist")
	require.Error(t, err)
}
