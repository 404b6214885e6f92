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

// Package orchestrator implements the Ingestion Orchestrator of §4.8: the
// glue between ingestion, the durable log, the in-process dispatch bus, and
// the sandbox executor. Graceful shutdown is grounded on
// original_source/core/src/server.rs's signal-driven cancellation, folded
// into the standard context.Context cancellation idiom the teacher's own
// cmd/server/app uses.
package orchestrator

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/athulkannan2000/nexus-functions/internal/bus"
	"github.com/athulkannan2000/nexus-functions/internal/catalog"
	"github.com/athulkannan2000/nexus-functions/internal/dispatch"
	"github.com/athulkannan2000/nexus-functions/internal/envelope"
	"github.com/athulkannan2000/nexus-functions/internal/eventlog"
	"github.com/athulkannan2000/nexus-functions/internal/logger"
	"github.com/athulkannan2000/nexus-functions/internal/metrics"
	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
	"github.com/athulkannan2000/nexus-functions/internal/publisher"
	"github.com/athulkannan2000/nexus-functions/internal/sandbox"
)

// dispatchHandlerName is the single bus handler every published envelope
// fans out through.
const dispatchHandlerName = "dispatch-execute"

// FunctionResult describes one matched function's outcome, returned
// synchronously from Execute and logged (never surfaced) from the
// fire-and-forget Ingest path.
type FunctionResult struct {
	Function string        `json:"function"`
	Result   sandbox.Result `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Orchestrator ties the envelope codec, publisher, event log, dispatch
// engine, and sandbox executor together per §4.8.
type Orchestrator struct {
	pub     *publisher.Publisher
	evlog   *eventlog.Log
	engine  *dispatch.Engine
	exec    *sandbox.Executor
	catalog *catalog.Catalog
	bus     *bus.Bus
	metrics *metrics.Registry
}

// New constructs an Orchestrator and registers its bus handler. The handler
// is not started until Run is called.
func New(
	pub *publisher.Publisher,
	evlog *eventlog.Log,
	cat *catalog.Catalog,
	exec *sandbox.Executor,
	b *bus.Bus,
	mtr *metrics.Registry,
) *Orchestrator {
	o := &Orchestrator{
		pub:     pub,
		evlog:   evlog,
		engine:  dispatch.New(cat),
		exec:    exec,
		catalog: cat,
		bus:     b,
		metrics: mtr,
	}
	b.AddHandler(dispatchHandlerName, o.handleDispatch)
	return o
}

// Run blocks the dispatch bus until ctx is cancelled (e.g. by a delivered
// SIGINT/SIGTERM), per §5's "top-level cancellation is via a signal
// delivered to the orchestrator."
func (o *Orchestrator) Run(ctx context.Context) error {
	return o.bus.Run(ctx)
}

// Running closes once the bus has finished starting.
func (o *Orchestrator) Running() chan struct{} {
	return o.bus.Running()
}

// Close releases the bus and executor.
func (o *Orchestrator) Close(ctx context.Context) error {
	if err := o.bus.Close(); err != nil {
		return err
	}
	return o.exec.Close(ctx)
}

// Ingest builds a CE from a webhook path+body (§4.2), publishes it (§4.4),
// and spawns the background dispatch+execute fan-out (§4.8). The HTTP
// response returns as soon as publish succeeds — execution is
// fire-and-forget.
func (o *Orchestrator) Ingest(ctx context.Context, path string, data any) (envelope.CE, error) {
	eventType := envelope.TypeFromWebhookPath(path)
	ce := envelope.New(eventType, "nexus://webhook")

	ce, err := envelope.WithData(ce, data)
	if err != nil {
		return envelope.CE{}, err
	}

	if err := o.publish(ce); err != nil {
		return envelope.CE{}, err
	}
	return ce, nil
}

// Replay loads the envelope by id and republishes it unchanged, preserving
// id/time/data/type (§4.8, §8 "Replay preserves identity"). It does not
// produce a new envelope.
func (o *Orchestrator) Replay(ctx context.Context, eventID string) (envelope.CE, error) {
	ce, found, err := o.evlog.GetByID(eventID)
	if err != nil {
		return envelope.CE{}, err
	}
	if !found {
		return envelope.CE{}, nexuserr.NewNotFound("event %q not found", eventID)
	}

	if err := o.pub.Publish(ce); err != nil {
		o.metrics.EventFailed()
		return envelope.CE{}, err
	}
	o.metrics.EventReplayed()

	if err := o.bus.Publish(ce); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event_id", ce.ID()).Msg("failed to enqueue replay for dispatch")
	}
	return ce, nil
}

// Execute loads the envelope by id and runs dispatch+sandbox synchronously,
// returning a per-function result to the caller (§4.8's on-demand mode).
func (o *Orchestrator) Execute(ctx context.Context, eventID string) ([]FunctionResult, error) {
	ce, found, err := o.evlog.GetByID(eventID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nexuserr.NewNotFound("event %q not found", eventID)
	}
	return o.runDispatch(ctx, ce), nil
}

func (o *Orchestrator) publish(ce envelope.CE) error {
	if err := o.pub.Publish(ce); err != nil {
		o.metrics.EventFailed()
		return err
	}
	o.metrics.EventPublished()

	if err := o.bus.Publish(ce); err != nil {
		return nil //nolint:nilerr // dispatch fan-out is best-effort once the durable publish has succeeded
	}
	return nil
}

// handleDispatch is the single bus subscriber: it re-derives the envelope
// from the message payload and runs dispatch+execute, logging (never
// surfacing) the outcome, per §7's "background execution failures are
// logged and counted, never surfaced to the HTTP response."
func (o *Orchestrator) handleDispatch(msg *message.Message) error {
	ce, err := envelope.FromBytes(msg.Payload)
	if err != nil {
		return nil //nolint:nilerr // malformed dispatch payloads are dropped, not retried
	}

	ctx := logger.NewEventTelemetry(ce.ID(), ce.Type()).WithTelemetry(context.Background())
	for _, result := range o.runDispatch(ctx, ce) {
		ev := zerolog.Ctx(ctx).Info()
		if result.Error != "" {
			ev = zerolog.Ctx(ctx).Warn().Str("error", result.Error)
		}
		ev.Str("event_id", ce.ID()).Str("event_type", ce.Type()).Str("function", result.Function).Msg("function dispatched")
	}
	return nil
}

func (o *Orchestrator) runDispatch(ctx context.Context, ce envelope.CE) []FunctionResult {
	names := o.engine.Dispatch(ce.Type())
	results := make([]FunctionResult, 0, len(names))

	for _, name := range names {
		fn, ok := o.catalog.ByName(name)
		if !ok {
			continue
		}

		start := time.Now()
		result, err := o.invoke(ctx, fn, ce)
		o.metrics.FunctionExecuted(err == nil, time.Since(start))
		if result.Trapped {
			o.metrics.FunctionTrapped()
			zerolog.Ctx(ctx).Warn().Str("event_id", ce.ID()).Str("function", name).Msg("default-mode _start trapped")
		}

		fr := FunctionResult{Function: name, Result: result}
		if err != nil {
			fr.Error = err.Error()
		}
		results = append(results, fr)
	}
	return results
}

func (o *Orchestrator) invoke(ctx context.Context, fn catalog.Function, ce envelope.CE) (sandbox.Result, error) {
	moduleBytes, err := catalog.LoadModuleBytes(fn)
	if err != nil {
		return sandbox.Result{}, nexuserr.NewSandboxError("%v", err)
	}
	return o.exec.Execute(ctx, fn, moduleBytes, ce.RawData(), "")
}
