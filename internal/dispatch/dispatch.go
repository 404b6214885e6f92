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

// Package dispatch implements §4.6: matching an event type against the
// function catalog and yielding the ordered list of triggered names.
package dispatch

import (
	"strings"

	"github.com/athulkannan2000/nexus-functions/internal/catalog"
)

// Engine is a pure function of (catalog, event type): repeated calls with
// the same inputs return identical ordered lists (§8 determinism invariant).
type Engine struct {
	functions []catalog.Function
}

// New returns an Engine matching against the catalog's functions in
// declaration order.
func New(cat *catalog.Catalog) *Engine {
	return &Engine{functions: cat.Functions()}
}

// Dispatch returns the ordered list of function names triggered by
// eventType, per the match table in §4.6:
//   - HTTP{...} always matches (catch-all for HTTP-sourced dispatch in MVP)
//   - Stream{subject} matches on bidirectional substring containment
func (e *Engine) Dispatch(eventType string) []string {
	var matched []string
	for _, fn := range e.functions {
		if fn.On.HTTP != nil {
			matched = append(matched, fn.Name)
			continue
		}
		if fn.On.Stream != nil && matches(eventType, fn.On.Stream.Subject) {
			matched = append(matched, fn.Name)
		}
	}
	return matched
}

func matches(eventType, subject string) bool {
	return strings.Contains(eventType, subject) || strings.Contains(subject, eventType)
}
