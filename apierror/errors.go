// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apierror

import (
	"fmt"
)

// BadRequestError represents a malformed request: an identifier that cannot
// be decoded, an invalid pagination parameter or a request body which does not
// satisfy the operation's form.
type BadRequestError struct {
	Cause error
}

func (e BadRequestError) Error() string {
	return fmt.Sprintf("bad request error: %v", e.Cause)
}

// Unwrap returns the underlying cause of the bad request.
func (e BadRequestError) Unwrap() error {
	return e.Cause
}

// NotFoundError is returned when the requested resource type, resource
// instance or nested relation does not exist.
type NotFoundError struct {
	Resource string
	Cause    error
}

func (e NotFoundError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("not found: %s", e.Resource)
	}
	return fmt.Sprintf("not found: %s: %v", e.Resource, e.Cause)
}

// Unwrap returns the underlying cause, if any.
func (e NotFoundError) Unwrap() error {
	return e.Cause
}

// MethodNotAllowedError is returned when a resource exists but none of its
// operations accept the request's HTTP method at the requested level.
type MethodNotAllowedError struct {
	Resource string
	Method   string
}

func (e MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed on %s", e.Method, e.Resource)
}

// ForbiddenError is returned when an operation's permission predicate denies
// the caller. The operation's handler is never invoked in that case.
type ForbiddenError struct {
	Operation string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Operation)
}

// ConflictError lets route handlers report that the request conflicts with
// the current state of the resource.
type ConflictError struct {
	Cause error
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict: %v", e.Cause)
}

// Unwrap returns the underlying cause of the conflict.
func (e ConflictError) Unwrap() error {
	return e.Cause
}

// InternalServerError wraps failures which must not leak their details to
// clients, e.g. recovered panics or handler results of an unexpected type.
type InternalServerError struct {
	Cause error
}

func (e InternalServerError) Error() string {
	return fmt.Sprintf("internal server error: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e InternalServerError) Unwrap() error {
	return e.Cause
}
