// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package routes binds the operations of a resource to handler functions.
//
// Handlers are registered with strongly typed models, identifiers and bodies
// through a [Builder]. The resulting [Set] is type erased so route sets of
// every resource can live in one registry.
package routes

import (
	"context"
	"fmt"
	"reflect"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/operation"
)

// Request carries the per request inputs of a handler.
type Request struct {
	// Credentials identify the caller. They are opaque to this module.
	Credentials any

	// Pagination is set for page routes.
	Pagination model.Pagination

	// Body is the raw request body. Routes declared with a form receive it
	// already decoded.
	Body []byte
}

// ResultKind describes what a [Route] produces.
type ResultKind int

const (
	// SingleResult routes return one model.
	SingleResult ResultKind = iota

	// PageResult routes return a [model.Items].
	PageResult

	// NoContentResult routes return nothing.
	NoContentResult
)

// Route is a single type erased handler.
type Route struct {
	Operation operation.Operation
	Result    ResultKind

	// Parent is the parent resource name of nested collection routes.
	Parent string

	permission operation.Permission
	handle     func(context.Context, Request, any) (any, error)
}

// Permitted evaluates the route's permission. id is nil for collection
// routes.
func (r Route) Permitted(ctx context.Context, credentials any, id any) (bool, error) {
	return r.permission(ctx, operation.Check{
		Credentials: credentials,
		Operation:   r.Operation,
		Identifier:  id,
	})
}

// Handle invokes the handler. For item routes id must be of the resource's
// identifier type, for nested collection routes of the parent's.
//
// The returned value is a model for SingleResult routes, a
// [model.Items] of any for PageResult routes and nil otherwise.
func (r Route) Handle(ctx context.Context, req Request, id any) (any, error) {
	return r.handle(ctx, req, id)
}

// UnexpectedIdentifierError is returned when a route receives an identifier
// of the wrong type. It indicates a registration bug.
type UnexpectedIdentifierError struct {
	Want reflect.Type
	Got  reflect.Type
}

func (e UnexpectedIdentifierError) Error() string {
	return fmt.Sprintf("unexpected identifier type: want %s, got %v", e.Want, e.Got)
}

func identifierAs[ID any](id any) (ID, error) {
	v, ok := id.(ID)
	if !ok {
		return v, apierror.InternalServerError{
			Cause: UnexpectedIdentifierError{
				Want: reflect.TypeFor[ID](),
				Got:  reflect.TypeOf(id),
			},
		}
	}
	return v, nil
}

// RouteOptions configure a single route.
type RouteOptions struct {
	permission operation.Permission
}

// RouteOption sets values on [RouteOptions].
type RouteOption func(*RouteOptions)

// WithPermission guards the route. Routes without a permission allow every
// caller.
func WithPermission(p operation.Permission) RouteOption {
	return func(ro *RouteOptions) {
		ro.permission = p
	}
}

func applyRouteOptions(opts []RouteOption) RouteOptions {
	ro := RouteOptions{
		permission: operation.AllowAll,
	}
	for _, opt := range opts {
		opt(&ro)
	}
	return ro
}
