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

// Package eventlog implements the query API described in §4.5: a thin
// read layer over the Stream Adapter, not an independent store.
package eventlog

import (
	"github.com/athulkannan2000/nexus-functions/internal/envelope"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

// ScanWindow bounds get_by_id's linear scan (§4.5, §9.3): documented, not paged.
const ScanWindow = 1000

// Log is the event-log query surface over a single named stream.
type Log struct {
	adapter    *stream.Adapter
	streamName string
}

// New returns a Log reading from streamName via adapter.
func New(adapter *stream.Adapter, streamName string) *Log {
	return &Log{adapter: adapter, streamName: streamName}
}

// GetByID scans up to ScanWindow records over "<stream>.*" and returns the
// first envelope whose id matches. Returns (CE{}, false, nil) when not
// found within the scan window (§4.5, §9.3).
func (l *Log) GetByID(eventID string) (envelope.CE, bool, error) {
	consumer, err := l.adapter.PullConsumer(l.streamName, l.streamName+".*")
	if err != nil {
		return envelope.CE{}, false, err
	}
	defer consumer.Close()

	records, err := consumer.Fetch(ScanWindow)
	if err != nil {
		return envelope.CE{}, false, err
	}

	for _, rec := range records {
		ce, err := envelope.FromBytes(rec.Payload)
		if err != nil {
			continue
		}
		if ce.ID() == eventID {
			return ce, true, nil
		}
	}
	return envelope.CE{}, false, nil
}

// List returns up to limit envelopes in stream order, optionally filtered
// to a single event type (§4.5). limit is capped at ScanWindow.
func (l *Log) List(eventType string, limit int) ([]envelope.CE, error) {
	if limit > ScanWindow {
		limit = ScanWindow
	}
	if limit <= 0 {
		limit = 1
	}

	filterSubject := l.streamName + ".*"
	if eventType != "" {
		filterSubject = l.streamName + "." + envelope.EscapeType(eventType)
	}

	consumer, err := l.adapter.PullConsumer(l.streamName, filterSubject)
	if err != nil {
		return nil, err
	}
	defer consumer.Close()

	records, err := consumer.Fetch(limit)
	if err != nil {
		return nil, err
	}

	out := make([]envelope.CE, 0, len(records))
	for _, rec := range records {
		ce, err := envelope.FromBytes(rec.Payload)
		if err != nil {
			continue
		}
		out = append(out, ce)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count returns the stream's current record count (§4.5).
func (l *Log) Count() (uint64, error) {
	info, err := l.adapter.GetStreamInfo(l.streamName)
	if err != nil {
		return 0, err
	}
	return info.Messages, nil
}
