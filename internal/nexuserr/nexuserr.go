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

// Package nexuserr defines the error taxonomy used across Nexus's event
// pipeline: a small set of kinds, each with a wire code and an HTTP status,
// so that every layer (stream, dispatch, sandbox, httpapi) reports failures
// the same way.
package nexuserr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the buckets the HTTP surface and the
// logs need to distinguish.
type Kind int

// The kinds enumerated here are exhaustive; anything else collapses to Internal.
const (
	Internal Kind = iota
	NotFound
	InvalidInput
	ConfigError
	StreamError
	SandboxError
)

var (
	// ErrNotFound is the sentinel wrapped by errors of kind NotFound.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is the sentinel wrapped by errors of kind InvalidInput.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfigError is the sentinel wrapped by errors of kind ConfigError.
	ErrConfigError = errors.New("config error")
	// ErrStreamError is the sentinel wrapped by errors of kind StreamError.
	ErrStreamError = errors.New("stream error")
	// ErrSandboxError is the sentinel wrapped by errors of kind SandboxError.
	ErrSandboxError = errors.New("sandbox error")
	// ErrInternal is the sentinel wrapped by errors of kind Internal.
	ErrInternal = errors.New("internal error")
)

// Error is a classified error carrying its kind's sentinel (Base) and a human
// message; an underlying cause is only kept as text inside Message.
type Error struct {
	Kind    Kind
	Base    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Base.Error()
	}
	return fmt.Sprintf("%s: %s", e.Base.Error(), e.Message)
}

// Unwrap exposes the sentinel so errors.Is/errors.As keep working across layers.
func (e *Error) Unwrap() error {
	return e.Base
}

func newErr(kind Kind, base error, sfmt string, args ...any) error {
	return &Error{Kind: kind, Base: base, Message: fmt.Sprintf(sfmt, args...)}
}

// NewNotFound builds a NotFound error, e.g. an envelope id absent from the scan window.
func NewNotFound(sfmt string, args ...any) error {
	return newErr(NotFound, ErrNotFound, sfmt, args...)
}

// NewInvalidInput builds an InvalidInput error, e.g. a malformed envelope or bad query.
func NewInvalidInput(sfmt string, args ...any) error {
	return newErr(InvalidInput, ErrInvalidInput, sfmt, args...)
}

// NewConfigError builds a ConfigError error, e.g. a catalog load/validate failure.
func NewConfigError(sfmt string, args ...any) error {
	return newErr(ConfigError, ErrConfigError, sfmt, args...)
}

// NewStreamError builds a StreamError error, e.g. the backend is unreachable or publish failed.
func NewStreamError(sfmt string, args ...any) error {
	return newErr(StreamError, ErrStreamError, sfmt, args...)
}

// NewSandboxError builds a SandboxError error, e.g. compile/instantiate/trap failures.
func NewSandboxError(sfmt string, args ...any) error {
	return newErr(SandboxError, ErrSandboxError, sfmt, args...)
}

// NewInternal builds an Internal error for anything that doesn't fit the other kinds.
func NewInternal(sfmt string, args ...any) error {
	return newErr(Internal, ErrInternal, sfmt, args...)
}

// KindOf classifies err, defaulting to Internal when it carries no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Code returns the wire code for err, per spec's error taxonomy table.
func Code(err error) string {
	switch KindOf(err) {
	case NotFound:
		return "NOT_FOUND"
	case InvalidInput:
		return "INVALID_INPUT"
	case ConfigError:
		return "CONFIG_ERROR"
	case StreamError:
		return "NATS_ERROR"
	case SandboxError:
		return "WASM_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case ConfigError:
		return http.StatusInternalServerError
	case StreamError:
		return http.StatusServiceUnavailable
	case SandboxError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
