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

// Package bus implements the purely in-process, fire-and-forget fan-out
// from the Ingestion Orchestrator to the Dispatch Engine and Sandbox
// Executor (§4.8, §5's suspension points). It never touches the durable
// event log — that is the job of the stream package — and is folded from
// the teacher's internal/events package (eventer.go, events.go,
// gochannel/gochannel.go, registrar.go), rebuilt around Nexus's own
// dispatch topic instead of the teacher's entity-reconciliation topics.
package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/alexdrl/zerowater"
	"github.com/rs/zerolog"

	"github.com/athulkannan2000/nexus-functions/internal/envelope"
)

// DispatchTopic carries every published envelope from ingest/replay to the
// background dispatch+execute handler.
const DispatchTopic = "nexus.dispatch"

const (
	metadataEventID   = "event_id"
	metadataEventType = "event_type"

	maxHandlerRetries = 3
)

// Handler is the shape consumed by dispatch+execute subscribers: no
// publish-back, matching the fire-and-forget contract of §4.8.
type Handler = message.NoPublishHandlerFunc

// Bus wraps a channel-backed watermill router. Construction mirrors the
// teacher's Eventer.Setup: a CorrelationID middleware plus a bounded retry
// middleware wraps every handler, and the driver never leaves the process.
type Bus struct {
	router *message.Router
	pubsub *gochannel.GoChannel
}

// New builds a Bus whose logger is adapted from ctx's zerolog logger.
func New(ctx context.Context) (*Bus, error) {
	logger := zerowater.NewZerologLoggerAdapter(zerolog.Ctx(ctx).With().Str("component", "bus").Logger())

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 10 * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatch router: %w", err)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      maxHandlerRetries,
			InitialInterval: 50 * time.Millisecond,
			Logger:          logger,
		}.Middleware,
	)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)

	return &Bus{router: router, pubsub: pubsub}, nil
}

// Publish hands ce to the dispatch topic without touching the durable log.
func (b *Bus) Publish(ce envelope.CE) error {
	payload, err := envelope.ToBytes(ce)
	if err != nil {
		return fmt.Errorf("failed to serialize envelope for dispatch: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataEventID, ce.ID())
	msg.Metadata.Set(metadataEventType, ce.Type())

	return b.pubsub.Publish(DispatchTopic, msg)
}

// AddHandler registers handler for the dispatch topic. Register once per
// process; the orchestrator registers a single handler that runs dispatch
// matching followed by sandbox execution for each match.
func (b *Bus) AddHandler(name string, handler Handler) {
	b.router.AddNoPublisherHandler(name, DispatchTopic, b.pubsub, handler)
}

// Run blocks until ctx is cancelled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running closes once the router has finished start-up and is consuming.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Close shuts down the router and the in-memory driver.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return err
	}
	return b.pubsub.Close()
}
