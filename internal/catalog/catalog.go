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

// Package catalog loads and validates the function-catalog YAML file
// described in spec.md §6 (schema v1), the way the teacher loads its own
// YAML-backed config files with gopkg.in/yaml.v3.
package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
)

// Runtime enumerates the sandbox runtimes a function descriptor may request (§3).
type Runtime string

// The two runtimes recognized by the sandbox executor.
const (
	RuntimeWasiPreview1 Runtime = "wasi-preview1"
	RuntimeWasiPreview2 Runtime = "wasi-preview2"
)

func (r Runtime) valid() bool {
	return r == RuntimeWasiPreview1 || r == RuntimeWasiPreview2
}

// HTTPTrigger fires a function for any HTTP-sourced dispatch (§4.6: catch-all in MVP).
type HTTPTrigger struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
}

// StreamTrigger fires a function when an event type relates to Subject by
// bidirectional substring containment (§4.6, §9.4).
type StreamTrigger struct {
	Subject string `yaml:"subject"`
}

// Trigger is the tagged union of HTTP{} and Stream{} described in §3/§9.
// Validation requires at least one of HTTP or Stream to be non-nil; a
// descriptor that sets both is accepted, and dispatch then treats it as HTTP.
type Trigger struct {
	HTTP   *HTTPTrigger   `yaml:"http,omitempty"`
	Stream *StreamTrigger `yaml:"nats,omitempty"`
}

// Function is a function descriptor as defined in §3.
type Function struct {
	Name    string            `yaml:"name"`
	On      Trigger           `yaml:"on"`
	Runtime Runtime           `yaml:"runtime"`
	Code    string            `yaml:"code"`
	Timeout string            `yaml:"timeout"`
	Memory  string            `yaml:"memory"`
	Env     map[string]string `yaml:"env"`
}

// DefaultTimeout and DefaultMemory are applied when a descriptor omits them
// (§6). Timeout is kept in the same string-plus-time.ParseDuration form as
// StreamConfig's duration fields, since yaml.v3 has no built-in decoder for
// time.Duration.
const (
	DefaultTimeout = "5s"
	DefaultMemory  = "128Mi"
)

// file is the raw YAML document shape (§6).
type file struct {
	Version   string     `yaml:"version"`
	Functions []Function `yaml:"functions"`
}

// Catalog holds the immutable, validated function descriptors loaded at
// startup (§3: "loaded once at startup from config, held immutable for the
// process lifetime").
type Catalog struct {
	functions []Function
}

// Load reads, parses, and validates the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted server config
	if err != nil {
		return nil, nexuserr.NewConfigError("failed to read catalog file %q: %v", path, err)
	}
	return Parse(data)
}

// Parse parses and validates raw catalog YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nexuserr.NewConfigError("failed to parse catalog YAML: %v", err)
	}

	if f.Version != "v1" {
		return nil, nexuserr.NewConfigError("unsupported catalog version: %q, want \"v1\"", f.Version)
	}

	seen := make(map[string]bool, len(f.Functions))
	fns := make([]Function, 0, len(f.Functions))
	for _, fn := range f.Functions {
		if seen[fn.Name] {
			return nil, nexuserr.NewConfigError("Duplicate function name: %s", fn.Name)
		}
		seen[fn.Name] = true

		if !fn.Runtime.valid() {
			return nil, nexuserr.NewConfigError("unknown runtime %q for function %q", fn.Runtime, fn.Name)
		}
		if fn.Code == "" {
			return nil, nexuserr.NewConfigError("empty code path for function %q", fn.Name)
		}
		if fn.On.HTTP == nil && fn.On.Stream == nil {
			return nil, nexuserr.NewConfigError("function %q declares no trigger", fn.Name)
		}

		if fn.Timeout == "" {
			fn.Timeout = DefaultTimeout
		}
		if _, err := time.ParseDuration(fn.Timeout); err != nil {
			return nil, nexuserr.NewConfigError("invalid timeout %q for function %q: %v", fn.Timeout, fn.Name, err)
		}
		if fn.Memory == "" {
			fn.Memory = DefaultMemory
		}

		fns = append(fns, fn)
	}

	return &Catalog{functions: fns}, nil
}

// Functions returns the catalog's function descriptors in declaration order.
func (c *Catalog) Functions() []Function {
	return c.functions
}

// ByName returns the function descriptor registered under name.
func (c *Catalog) ByName(name string) (Function, bool) {
	for _, fn := range c.functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return Function{}, false
}

// LoadModuleBytes reads a function's compiled module bytes from its code
// path, separate from catalog loading so the sandbox cache key is computed
// from content, not from the catalog entry (see SPEC_FULL.md's
// wasm_loader-derived supplement).
func LoadModuleBytes(fn Function) ([]byte, error) {
	b, err := os.ReadFile(fn.Code) //nolint:gosec // path comes from trusted server config
	if err != nil {
		return nil, fmt.Errorf("failed to load module for function %q: %w", fn.Name, err)
	}
	return b, nil
}
