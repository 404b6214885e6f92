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

package logger

// NewEventTelemetry builds a TelemetryStore seeded with the fields spec.md
// §7 requires on every logged line: event id, event type, and (once known)
// the triggered function name. This is the Nexus-domain equivalent of the
// teacher's entity-derived telemetry constructor, carrying envelope/function
// identifiers instead of GitHub entity ids.
func NewEventTelemetry(eventID, eventType string) *TelemetryStore {
	return &TelemetryStore{
		data: map[string]any{
			"event_id":   eventID,
			"event_type": eventType,
		},
	}
}

// WithFunction records the function name a dispatch/execution attempt is
// acting on, so the eventual log line can be attributed to it.
func (ts *TelemetryStore) WithFunction(name string) *TelemetryStore {
	if ts == nil {
		return ts
	}
	if ts.data == nil {
		ts.data = make(map[string]any)
	}
	ts.data["function"] = name
	return ts
}
