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

package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/catalog"
	"github.com/athulkannan2000/nexus-functions/internal/dispatch"
)

const twoFnYAML = `
version: v1
functions:
  - name: fA
    on: { nats: { subject: "user" } }
    runtime: wasi-preview1
    code: ./fa.wasm
  - name: fB
    on: { http: { method: POST, path: "/webhook/x" } }
    runtime: wasi-preview1
    code: ./fb.wasm
`

func TestDispatchMatching(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Parse([]byte(twoFnYAML))
	require.NoError(t, err)

	engine := dispatch.New(cat)
	got := engine.Dispatch("com.nexus.user.created")
	require.Equal(t, []string{"fA", "fB"}, got)
}

func TestDispatchDeterministic(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Parse([]byte(twoFnYAML))
	require.NoError(t, err)
	engine := dispatch.New(cat)

	first := engine.Dispatch("com.nexus.order.paid")
	second := engine.Dispatch("com.nexus.order.paid")
	require.Equal(t, first, second)
}

func TestDispatchNoMatch(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Parse([]byte(`
version: v1
functions:
  - name: fA
    on: { nats: { subject: "checkout" } }
    runtime: wasi-preview1
    code: ./fa.wasm
`))
	require.NoError(t, err)

	engine := dispatch.New(cat)
	require.Empty(t, engine.Dispatch("com.nexus.user.created"))
}
