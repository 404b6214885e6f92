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

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/bus"
	"github.com/athulkannan2000/nexus-functions/internal/catalog"
	"github.com/athulkannan2000/nexus-functions/internal/eventlog"
	"github.com/athulkannan2000/nexus-functions/internal/httpapi"
	"github.com/athulkannan2000/nexus-functions/internal/metrics"
	"github.com/athulkannan2000/nexus-functions/internal/orchestrator"
	"github.com/athulkannan2000/nexus-functions/internal/publisher"
	"github.com/athulkannan2000/nexus-functions/internal/sandbox"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

var noopStartModule = []byte{
	0x00, 0x61, 0x73, 0x6D,
	0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x0A, 0x01, 0x06, '_', 's', 't', 'a', 'r', 't', 0x00, 0x00,
	0x0A, 0x04, 0x01, 0x02, 0x00, 0x0B,
}

func setup(t *testing.T) http.Handler {
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
    on: { http: { method: POST, path: "/webhook/x" } }
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

	return httpapi.New(o, evlog, adapter, mtr).Router()
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	h := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, true, body["nats_connected"])
}

func TestWebhookIngestThenGetByID(t *testing.T) {
	t.Parallel()
	h := setup(t)

	payload := bytes.NewBufferString(`{"name":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/user/created", payload)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "com.nexus.user.created", resp["event_type"])
	id := resp["event_id"].(string)
	require.NotEmpty(t, id)

	getReq := httptest.NewRequest(http.MethodGet, "/events/"+id, nil)
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()
	h := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/events/does-not-exist", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplayEndpoint(t *testing.T) {
	t.Parallel()
	h := setup(t)

	payload := bytes.NewBufferString(`{"a":"b"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/x", payload)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	id := resp["event_id"].(string)

	replayReq := httptest.NewRequest(http.MethodPost, "/replay/"+id, nil)
	replayRec := httptest.NewRecorder()
	h.ServeHTTP(replayRec, replayReq)
	require.Equal(t, http.StatusOK, replayRec.Code)
}
