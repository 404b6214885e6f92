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

// Package publisher implements §4.4: mapping an envelope to a subject and
// delegating to the Stream Adapter.
package publisher

import (
	"github.com/athulkannan2000/nexus-functions/internal/envelope"
	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

// Publisher computes the subject for an envelope and delegates to a Stream
// Adapter, failing with NotConnected semantics when the adapter has no
// live connection.
type Publisher struct {
	adapter *stream.Adapter
}

// New returns a Publisher writing through adapter.
func New(adapter *stream.Adapter) *Publisher {
	return &Publisher{adapter: adapter}
}

// Publish computes subject "events.<escaped_type>", serializes ce, and
// delegates to the Stream Adapter (§4.4).
func (p *Publisher) Publish(ce envelope.CE) error {
	if !p.adapter.Connected() {
		return nexuserr.NewStreamError("not connected")
	}

	b, err := envelope.ToBytes(ce)
	if err != nil {
		return err
	}

	return p.adapter.Publish(envelope.Subject(ce.Type()), b)
}
