// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest serves registered resources over HTTP.
//
// Every request is negotiated, resolved and written in that order. The
// Accept header selects the document format before any handler runs, so a
// client which accepts none of the supported formats gets a 406 without side
// effects. Failures are converted to an [apierror.APIError] and rendered in
// the negotiated error format.
package rest
