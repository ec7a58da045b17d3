// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package apio turns domain models into hypermedia API responses.
//
// Resources are described once with a representor, bound to handlers with a
// route set and registered by name. The rest package then serves them as
// plain JSON, HAL or JSON-LD, negotiated per request, with errors rendered as
// problem details.
package apio

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a [slog.Logger] whose records are emitted through the
// global OpenTelemetry logger provider.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// LogHandler returns the [slog.Handler] backing [Logger].
func LogHandler(name string) slog.Handler {
	return otelslog.NewHandler(name)
}
