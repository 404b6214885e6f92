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

// Package envelope constructs, serializes, and parses CloudEvents v1.0
// envelopes, built directly on github.com/cloudevents/sdk-go/v2 rather than
// hand-rolling the CloudEvents attribute set.
package envelope

import (
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
)

// DefaultDataContentType is used when a caller does not supply one.
const DefaultDataContentType = "application/json"

// CE is a CloudEvents v1.0 envelope. It wraps cloudevents.Event so that
// id/time/specversion invariants (§3) are enforced by the upstream SDK
// instead of being reimplemented here.
type CE struct {
	event cloudevents.Event
}

// New populates a fresh envelope: specversion "1.0", a new UUIDv4 id,
// time set to now (UTC), default content type, empty data and extensions.
func New(eventType, source string) CE {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetType(eventType)
	e.SetSource(source)
	e.SetTime(time.Now().UTC())
	e.SetDataContentType(DefaultDataContentType)
	return CE{event: e}
}

// WithData returns a copy of ce with data attached, JSON-encoded under the
// envelope's content type. The caller's ce is never mutated.
func WithData(ce CE, value any) (CE, error) {
	out := ce.clone()
	if err := out.event.SetData(DefaultDataContentType, value); err != nil {
		return CE{}, nexuserr.NewInvalidInput("failed to attach data: %v", err)
	}
	return out, nil
}

// WithExtension returns a copy of ce with an extension attribute attached.
func WithExtension(ce CE, key string, value any) CE {
	out := ce.clone()
	out.event.SetExtension(key, value)
	return out
}

func (ce CE) clone() CE {
	return CE{event: ce.event.Clone()}
}

// ID returns the envelope's id attribute.
func (ce CE) ID() string { return ce.event.ID() }

// Type returns the envelope's type attribute.
func (ce CE) Type() string { return ce.event.Type() }

// Source returns the envelope's source attribute.
func (ce CE) Source() string { return ce.event.Source() }

// Time returns the envelope's time attribute.
func (ce CE) Time() time.Time { return ce.event.Time() }

// DataContentType returns the envelope's datacontenttype attribute.
func (ce CE) DataContentType() string { return ce.event.DataContentType() }

// DataAs unmarshals the envelope's data into v.
func (ce CE) DataAs(v any) error {
	if len(ce.event.Data()) == 0 {
		return nil
	}
	return ce.event.DataAs(v)
}

// RawData returns the envelope's raw data bytes.
func (ce CE) RawData() []byte { return ce.event.Data() }

// Extensions returns the envelope's flat extension-attribute map.
func (ce CE) Extensions() map[string]any { return ce.event.Extensions() }

// MarshalJSON implements json.Marshaler so a CE serializes correctly even
// when embedded inside a larger response value (e.g. httpapi's list/get
// handlers), despite wrapping an unexported cloudevents.Event field.
func (ce CE) MarshalJSON() ([]byte, error) {
	return ce.event.MarshalJSON()
}

// ToBytes serializes the envelope to JSON, flat extension attributes
// alongside the standard fields, per §4.1.
func ToBytes(ce CE) ([]byte, error) {
	if err := Validate(ce); err != nil {
		return nil, err
	}
	b, err := ce.event.MarshalJSON()
	if err != nil {
		return nil, nexuserr.NewInvalidInput("failed to marshal envelope: %v", err)
	}
	return b, nil
}

// FromBytes parses a JSON envelope, failing with MalformedEnvelope semantics
// (InvalidInput) when required attributes are missing or ill-typed.
func FromBytes(data []byte) (CE, error) {
	var e cloudevents.Event
	if err := e.UnmarshalJSON(data); err != nil {
		return CE{}, nexuserr.NewInvalidInput("malformed envelope: %v", err)
	}
	ce := CE{event: e}
	if err := Validate(ce); err != nil {
		return CE{}, err
	}
	return ce, nil
}

// Validate checks the required attributes spec.md §3 demands.
func Validate(ce CE) error {
	if ce.event.SpecVersion() != cloudevents.VersionV1 {
		return nexuserr.NewInvalidInput("malformed envelope: specversion must be %q, got %q", cloudevents.VersionV1, ce.event.SpecVersion())
	}
	if err := ce.event.Validate(); err != nil {
		return nexuserr.NewInvalidInput("malformed envelope: %v", err)
	}
	if ce.event.ID() == "" {
		return nexuserr.NewInvalidInput("malformed envelope: missing id")
	}
	if ce.event.Type() == "" {
		return nexuserr.NewInvalidInput("malformed envelope: missing type")
	}
	if ce.event.Source() == "" {
		return nexuserr.NewInvalidInput("malformed envelope: missing source")
	}
	return nil
}

// Subject derives the durable-log subject for an event type: "events." plus
// the type with '.' replaced by '_' (§3, §4.4).
func Subject(eventType string) string {
	return "events." + EscapeType(eventType)
}

// EscapeType replaces '.' with '_' in an event type, e.g. for subject naming.
func EscapeType(eventType string) string {
	out := make([]byte, len(eventType))
	for i := 0; i < len(eventType); i++ {
		if eventType[i] == '.' {
			out[i] = '_'
		} else {
			out[i] = eventType[i]
		}
	}
	return string(out)
}
