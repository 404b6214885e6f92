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

// Package stream is a thin facade over a subject-partitioned durable log,
// backed by NATS JetStream, grounded on the teacher's
// internal/events/nats/natschannel.go connection/stream-management pattern
// but built directly on nats.go's JetStreamContext rather than through a
// watermill Publisher/Subscriber, since the Event Log (§4.5) needs
// pull-consumer and get_stream_info semantics watermill's interface doesn't
// expose.
package stream

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
)

// Record is a single durable-log entry (§3: "Stream record").
type Record struct {
	Subject   string
	Payload   []byte
	Sequence  uint64
	Timestamp time.Time
}

// Policy configures stream creation (§4.3).
type Policy struct {
	MaxMsgs int64
	MaxAge  time.Duration
}

// DefaultPolicy matches §4.3's defaults: 100,000 messages, 7 days.
func DefaultPolicy() Policy {
	return Policy{MaxMsgs: 100_000, MaxAge: 7 * 24 * time.Hour}
}

// Info is the subset of stream state the Event Log needs (§4.3).
type Info struct {
	Messages uint64
}

// Adapter wraps a JetStream connection behind a reader/writer lock (§5):
// writers (Connect, Close) are rare, readers (EnsureStream, Publish,
// PullConsumer) are the hot path and the underlying nats.go client handles
// its own concurrency once connected.
type Adapter struct {
	mu   sync.RWMutex
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New returns an unconnected Adapter. Call Connect before use.
func New() *Adapter {
	return &Adapter{}
}

// Connect dials url with a bounded linear retry schedule (§5: up to
// attempts tries, interval apart).
func (a *Adapter) Connect(url string, attempts int, interval time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, err := nats.Connect(url)
		if err == nil {
			js, jsErr := conn.JetStream()
			if jsErr != nil {
				conn.Close()
				lastErr = jsErr
			} else {
				a.mu.Lock()
				a.conn = conn
				a.js = js
				a.mu.Unlock()
				return nil
			}
		} else {
			lastErr = err
		}
		if i < attempts-1 {
			time.Sleep(interval)
		}
	}
	return nexuserr.NewStreamError("failed to connect to %s after %d attempts: %v", url, attempts, lastErr)
}

// Connected reports whether the adapter currently holds a live connection
// (backs the "nats_connected" gauge of §3 and the /health endpoint).
func (a *Adapter) Connected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.conn != nil && a.conn.IsConnected()
}

func (a *Adapter) jetStream() (nats.JetStreamContext, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.js == nil {
		return nil, nexuserr.NewStreamError("not connected")
	}
	return a.js, nil
}

// EnsureStream is idempotent: if the stream already exists, it returns
// success; otherwise it creates one with the subject pattern "<name>.*",
// size/age-bounded retention, file-backed storage (§4.3).
func (a *Adapter) EnsureStream(name string, policy Policy) error {
	js, err := a.jetStream()
	if err != nil {
		return err
	}

	if _, err := js.StreamInfo(name); err == nil {
		return nil
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  []string{name + ".*"},
		Retention: nats.LimitsPolicy,
		MaxMsgs:   policy.MaxMsgs,
		MaxAge:    policy.MaxAge,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return nexuserr.NewStreamError("failed to create stream %q: %v", name, err)
	}
	return nil
}

// Publish awaits both enqueue and server acknowledgment, so durability is
// guaranteed by the time Publish returns (§4.3, §5).
func (a *Adapter) Publish(subject string, payload []byte) error {
	js, err := a.jetStream()
	if err != nil {
		return err
	}

	if _, err := js.Publish(subject, payload); err != nil {
		return nexuserr.NewStreamError("failed to publish to %q: %v", subject, err)
	}
	return nil
}

// GetStreamInfo returns the stream's current record count (§4.3).
func (a *Adapter) GetStreamInfo(name string) (Info, error) {
	js, err := a.jetStream()
	if err != nil {
		return Info{}, err
	}

	info, err := js.StreamInfo(name)
	if err != nil {
		return Info{}, nexuserr.NewStreamError("failed to get stream info for %q: %v", name, err)
	}
	return Info{Messages: info.State.Msgs}, nil
}

// Consumer is an ephemeral (non-durable), payload-only pull consumer (§4.3).
type Consumer struct {
	sub *nats.Subscription
}

// PullConsumer creates an ephemeral pull consumer over filterSubject, which
// may use '*' as a wildcard in its last segment (§4.3).
func (a *Adapter) PullConsumer(streamName, filterSubject string) (*Consumer, error) {
	js, err := a.jetStream()
	if err != nil {
		return nil, err
	}

	sub, err := js.PullSubscribe(filterSubject, "", nats.BindStream(streamName), nats.DeliverAll(), nats.AckNone())
	if err != nil {
		return nil, nexuserr.NewStreamError("failed to create pull consumer on %q: %v", filterSubject, err)
	}
	return &Consumer{sub: sub}, nil
}

// Fetch pulls up to maxMessages records, waiting briefly for the batch to fill.
func (c *Consumer) Fetch(maxMessages int) ([]Record, error) {
	msgs, err := c.sub.Fetch(maxMessages, nats.MaxWait(2*time.Second))
	if err != nil && err != nats.ErrTimeout {
		return nil, nexuserr.NewStreamError("failed to fetch records: %v", err)
	}

	records := make([]Record, 0, len(msgs))
	for _, m := range msgs {
		meta, err := m.Metadata()
		var seq uint64
		var ts time.Time
		if err == nil {
			seq = meta.Sequence.Stream
			ts = meta.Timestamp
		}
		records = append(records, Record{
			Subject:   m.Subject,
			Payload:   m.Data,
			Sequence:  seq,
			Timestamp: ts,
		})
	}
	return records, nil
}

// Close releases the consumer's subscription.
func (c *Consumer) Close() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}

// Close closes the underlying connection.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn != nil {
		a.conn.Close()
	}
}
