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

package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/athulkannan2000/nexus-functions/internal/metrics"
)

func TestSnapshotDerivedRates(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	r.EventPublished()
	r.EventPublished()
	r.EventFailed()

	r.FunctionExecuted(true, 100*time.Millisecond)
	r.FunctionExecuted(false, 300*time.Millisecond)

	snap := r.Snapshot()
	require.Equal(t, float64(2), snap.EventsPublished)
	require.Equal(t, float64(1), snap.EventsFailed)
	require.Equal(t, float64(2), snap.FunctionsExecuted)
	require.Equal(t, float64(1), snap.FunctionsSucceeded)
	require.Equal(t, float64(1), snap.FunctionsFailed)
	require.InDelta(t, 0.5, snap.SuccessRate, 0.0001)
	require.InDelta(t, 200, snap.AverageExecutionMS, 0.0001)
}

func TestSnapshotZeroExecutionsNoDivideByZero(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	snap := r.Snapshot()
	require.Zero(t, snap.SuccessRate)
	require.Zero(t, snap.AverageExecutionMS)
}

func TestFunctionTrappedCountedSeparately(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	r.FunctionExecuted(true, 10*time.Millisecond)
	r.FunctionTrapped()

	snap := r.Snapshot()
	require.Equal(t, float64(1), snap.FunctionsSucceeded)
	require.Zero(t, snap.FunctionsFailed)
	require.Equal(t, float64(1), snap.FunctionsTrapped)
}

func TestStreamConnectedGauge(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	require.False(t, r.Snapshot().NatsConnected)

	r.SetStreamConnected(true)
	require.True(t, r.Snapshot().NatsConnected)
}
