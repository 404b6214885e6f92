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

// Package metrics exposes the counters and gauges of spec §3 ("Metrics
// data") on a private prometheus registry, grounded on the teacher's
// internal/events/metrics.go instrumentation pattern but rebuilt directly on
// prometheus/client_golang instead of an OTel histogram.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry owns a private prometheus.Registry so tests can construct
// independent instances without colliding on the global default registry.
type Registry struct {
	reg *prometheus.Registry

	eventsPublished prometheus.Counter
	eventsReplayed  prometheus.Counter
	eventsFailed    prometheus.Counter

	functionsExecuted  prometheus.Counter
	functionsSucceeded prometheus.Counter
	functionsFailed    prometheus.Counter
	functionsTrapped   prometheus.Counter

	totalExecutionMS prometheus.Counter

	natsConnected prometheus.Gauge

	startedAt time.Time

	mu                                                sync.Mutex
	rawPublished, rawReplayed, rawFailed              float64
	rawExecuted, rawSucceeded, rawFailedFn, rawExecMS float64
	rawTrapped                                        float64
	rawConnected                                      bool
}

// New registers and returns a fresh metrics Registry.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		eventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "events_published_total",
			Help: "Number of envelopes successfully published to the event log.",
		}),
		eventsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "events_replayed_total",
			Help: "Number of successful replay operations.",
		}),
		eventsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "events_failed_total",
			Help: "Number of envelopes that failed to publish.",
		}),
		functionsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "functions_executed_total",
			Help: "Number of sandbox invocations attempted.",
		}),
		functionsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "functions_succeeded_total",
			Help: "Number of sandbox invocations that completed without a fatal error.",
		}),
		functionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "functions_failed_total",
			Help: "Number of sandbox invocations that returned a fatal error.",
		}),
		functionsTrapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "functions_trapped_total",
			Help: "Number of default-mode invocations whose _start trapped; non-fatal, counted separately from functions_failed.",
		}),
		totalExecutionMS: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexus", Name: "total_execution_time_ms",
			Help: "Accumulated wall-clock milliseconds spent inside the sandbox.",
		}),
		natsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nexus", Name: "nats_connected",
			Help: "1 if the stream adapter currently holds a live connection, else 0.",
		}),
		startedAt: time.Now(),
	}

	r.reg.MustRegister(
		r.eventsPublished, r.eventsReplayed, r.eventsFailed,
		r.functionsExecuted, r.functionsSucceeded, r.functionsFailed, r.functionsTrapped,
		r.totalExecutionMS, r.natsConnected,
	)
	return r
}

// Gatherer returns the underlying prometheus.Gatherer for mounting behind
// promhttp.HandlerFor.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) EventPublished() {
	r.eventsPublished.Inc()
	r.mu.Lock()
	r.rawPublished++
	r.mu.Unlock()
}

func (r *Registry) EventReplayed() {
	r.eventsReplayed.Inc()
	r.mu.Lock()
	r.rawReplayed++
	r.mu.Unlock()
}

func (r *Registry) EventFailed() {
	r.eventsFailed.Inc()
	r.mu.Lock()
	r.rawFailed++
	r.mu.Unlock()
}

func (r *Registry) FunctionExecuted(succeeded bool, d time.Duration) {
	r.functionsExecuted.Inc()
	r.totalExecutionMS.Add(float64(d.Milliseconds()))

	r.mu.Lock()
	r.rawExecuted++
	r.rawExecMS += float64(d.Milliseconds())
	if succeeded {
		r.rawSucceeded++
	} else {
		r.rawFailedFn++
	}
	r.mu.Unlock()

	if succeeded {
		r.functionsSucceeded.Inc()
	} else {
		r.functionsFailed.Inc()
	}
}

// FunctionTrapped records a default-mode invocation whose _start trapped
// (§9.2's decision: counted distinctly, not folded into functions_failed,
// since a trap does not fail the synchronous Execute/dispatch call).
func (r *Registry) FunctionTrapped() {
	r.functionsTrapped.Inc()
	r.mu.Lock()
	r.rawTrapped++
	r.mu.Unlock()
}

func (r *Registry) SetStreamConnected(connected bool) {
	r.mu.Lock()
	r.rawConnected = connected
	r.mu.Unlock()

	if connected {
		r.natsConnected.Set(1)
		return
	}
	r.natsConnected.Set(0)
}

// Snapshot is a point-in-time read of every counter plus the derived rates
// spec §3 calls out ("Derived: success rates, average execution time"),
// supplemented from original_source/core/src/metrics.rs.
type Snapshot struct {
	EventsPublished float64 `json:"events_published"`
	EventsReplayed  float64 `json:"events_replayed"`
	EventsFailed    float64 `json:"events_failed"`

	FunctionsExecuted  float64 `json:"functions_executed"`
	FunctionsSucceeded float64 `json:"functions_succeeded"`
	FunctionsFailed    float64 `json:"functions_failed"`
	FunctionsTrapped   float64 `json:"functions_trapped"`

	TotalExecutionMS float64 `json:"total_execution_time_ms"`
	NatsConnected    bool    `json:"nats_connected"`
	UptimeSeconds    float64 `json:"uptime_seconds"`

	SuccessRate        float64 `json:"success_rate"`
	AverageExecutionMS float64 `json:"average_execution_time_ms"`
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		EventsPublished:    r.rawPublished,
		EventsReplayed:     r.rawReplayed,
		EventsFailed:       r.rawFailed,
		FunctionsExecuted:  r.rawExecuted,
		FunctionsSucceeded: r.rawSucceeded,
		FunctionsFailed:    r.rawFailedFn,
		FunctionsTrapped:   r.rawTrapped,
		TotalExecutionMS:   r.rawExecMS,
		NatsConnected:      r.rawConnected,
		UptimeSeconds:      time.Since(r.startedAt).Seconds(),
	}

	if s.FunctionsExecuted > 0 {
		s.SuccessRate = s.FunctionsSucceeded / s.FunctionsExecuted
		s.AverageExecutionMS = s.TotalExecutionMS / s.FunctionsExecuted
	}
	return s
}
