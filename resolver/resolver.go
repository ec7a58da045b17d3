// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resolver turns a request for a resource into the result of the
// matching route handler.
//
// Every request goes through the same steps: the resource is looked up by
// name, the route is selected by HTTP method and path shape, the identifier
// is decoded, the route's permission is checked and finally the handler is
// invoked. The first failing step ends resolution with an error from the
// apierror taxonomy.
package resolver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/registry"
	"github.com/z5labs/apio/resource"
	"github.com/z5labs/apio/routes"
	"github.com/z5labs/sdk-go/try"
)

// Request addresses a resource.
//
//	/p/{Resource}             collection
//	/p/{Resource}/{ID}        item, or custom collection route named ID
//	/p/{Resource}/{ID}/{Sub}  custom item route named Sub, or nested collection
type Request struct {
	Method      string
	Resource    string
	ID          string
	Sub         string
	Pagination  model.Pagination
	Credentials any
	Body        []byte
}

// Result is the outcome of a resolved request. Exactly one of Single and
// Page is set, according to Kind.
type Result struct {
	Kind      routes.ResultKind
	Operation operation.Operation
	Single    model.Single[any]
	Page      model.Page[any]
}

// Lookup resolves resources by name.
type Lookup interface {
	Lookup(name string) (registry.Resource, bool)
}

// Resolver resolves requests against registered resources. It holds no
// per request state and is safe for concurrent use.
type Resolver struct {
	resources Lookup
}

// New returns a [Resolver] backed by resources.
func New(resources Lookup) *Resolver {
	return &Resolver{
		resources: resources,
	}
}

// UnexpectedResultError reports a handler result which does not match the
// route's declared result kind.
type UnexpectedResultError struct {
	Operation string
	Value     any
}

func (e UnexpectedResultError) Error() string {
	return fmt.Sprintf("unexpected result from %s: %T", e.Operation, e.Value)
}

// Resolve runs the request through its route. Handler errors are returned
// unchanged so they can be converted by the caller. Handler panics are
// reported as an [apierror.InternalServerError].
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	rsc, ok := r.resources.Lookup(req.Resource)
	if !ok {
		return Result{}, apierror.NotFoundError{Resource: req.Resource}
	}

	switch {
	case req.ID == "":
		return r.collection(ctx, rsc, req)
	case req.Sub == "":
		if rsc.Routes.HasCustom(true, req.ID) {
			return r.customCollection(ctx, rsc, req)
		}
		return r.item(ctx, rsc, req)
	default:
		if rsc.Routes.HasCustom(false, req.Sub) {
			return r.customItem(ctx, rsc, req)
		}
		return r.nested(ctx, rsc, req)
	}
}

// Item runs the request through the item route of its resource. Unlike
// [Resolver.Resolve], req.ID is always an identifier, even when a custom
// collection route shares its name.
func (r *Resolver) Item(ctx context.Context, req Request) (Result, error) {
	rsc, ok := r.resources.Lookup(req.Resource)
	if !ok {
		return Result{}, apierror.NotFoundError{Resource: req.Resource}
	}
	return r.item(ctx, rsc, req)
}

func notAllowed(rsc registry.Resource, method string) error {
	return apierror.MethodNotAllowedError{
		Resource: rsc.Name,
		Method:   method,
	}
}

func (r *Resolver) collection(ctx context.Context, rsc registry.Resource, req Request) (Result, error) {
	route, ok := rsc.Routes.Collection(req.Method)
	if !ok {
		return Result{}, notAllowed(rsc, req.Method)
	}
	return r.invoke(ctx, rsc, route, req, nil)
}

func (r *Resolver) customCollection(ctx context.Context, rsc registry.Resource, req Request) (Result, error) {
	route, ok := rsc.Routes.Custom(true, req.ID, req.Method)
	if !ok {
		return Result{}, notAllowed(rsc, req.Method)
	}
	return r.invoke(ctx, rsc, route, req, nil)
}

func (r *Resolver) item(ctx context.Context, rsc registry.Resource, req Request) (Result, error) {
	route, ok := rsc.Routes.Item(req.Method)
	if !ok {
		return Result{}, notAllowed(rsc, req.Method)
	}
	id, err := decode(rsc, req.ID)
	if err != nil {
		return Result{}, err
	}
	return r.invoke(ctx, rsc, route, req, id)
}

func (r *Resolver) customItem(ctx context.Context, rsc registry.Resource, req Request) (Result, error) {
	route, ok := rsc.Routes.Custom(false, req.Sub, req.Method)
	if !ok {
		return Result{}, notAllowed(rsc, req.Method)
	}
	id, err := decode(rsc, req.ID)
	if err != nil {
		return Result{}, err
	}
	return r.invoke(ctx, rsc, route, req, id)
}

func (r *Resolver) nested(ctx context.Context, parent registry.Resource, req Request) (Result, error) {
	child, ok := r.resources.Lookup(req.Sub)
	if !ok {
		return Result{}, apierror.NotFoundError{Resource: req.Sub}
	}
	route, ok := child.Routes.Nested(parent.Name)
	if !ok {
		return Result{}, apierror.NotFoundError{
			Resource: req.Sub,
			Cause:    NotNestedError{Parent: parent.Name, Child: child.Name},
		}
	}
	if req.Method != http.MethodGet {
		return Result{}, notAllowed(child, req.Method)
	}

	parentPath, err := resource.NewPath(parent.Name, req.ID)
	if err != nil {
		return Result{}, apierror.BadRequestError{Cause: err}
	}
	id, err := parent.Mapper.Identifier(parentPath)
	if err != nil {
		return Result{}, err
	}

	res, err := r.invoke(ctx, child, route, req, id)
	if err != nil {
		return Result{}, err
	}
	res.Page.Path = &parentPath
	return res, nil
}

// NotNestedError is the cause of a not found error for a nested collection
// which is not served under the requested parent.
type NotNestedError struct {
	Parent string
	Child  string
}

func (e NotNestedError) Error() string {
	return fmt.Sprintf("%s are not nested under %s", e.Child, e.Parent)
}

func decode(rsc registry.Resource, id string) (any, error) {
	p, err := resource.NewPath(rsc.Name, id)
	if err != nil {
		return nil, apierror.BadRequestError{Cause: err}
	}
	return rsc.Mapper.Identifier(p)
}

func (r *Resolver) invoke(ctx context.Context, rsc registry.Resource, route routes.Route, req Request, id any) (Result, error) {
	ok, err := route.Permitted(ctx, req.Credentials, id)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, apierror.ForbiddenError{Operation: route.Operation.Name}
	}

	v, err := handle(ctx, route, routes.Request{
		Credentials: req.Credentials,
		Pagination:  req.Pagination,
		Body:        req.Body,
	}, id)
	if err != nil {
		return Result{}, err
	}

	switch route.Result {
	case routes.SingleResult:
		ops, err := available(ctx, rsc, false, req.Credentials, rsc.Representor.Identifier(v))
		if err != nil {
			return Result{}, err
		}
		return Result{
			Kind:      routes.SingleResult,
			Operation: route.Operation,
			Single: model.Single[any]{
				Model:        v,
				ResourceName: rsc.Name,
				Operations:   ops,
			},
		}, nil
	case routes.PageResult:
		items, ok := v.(model.Items[any])
		if !ok {
			return Result{}, apierror.InternalServerError{
				Cause: UnexpectedResultError{Operation: route.Operation.Name, Value: v},
			}
		}
		page := model.NewPage(rsc.Name, items, req.Pagination)
		if route.Parent == "" {
			page.Operations, err = available(ctx, rsc, true, req.Credentials, nil)
			if err != nil {
				return Result{}, err
			}
		}
		return Result{
			Kind:      routes.PageResult,
			Operation: route.Operation,
			Page:      page,
		}, nil
	default:
		return Result{
			Kind:      routes.NoContentResult,
			Operation: route.Operation,
		}, nil
	}
}

func handle(ctx context.Context, route routes.Route, req routes.Request, id any) (v any, err error) {
	returned := false
	defer func() {
		if !returned && err != nil {
			err = apierror.InternalServerError{Cause: err}
		}
	}()
	defer try.Recover(&err)

	v, err = route.Handle(ctx, req, id)
	returned = true
	return v, err
}

// available lists the operations the caller may execute. Default retrieve
// operations are implied by the document and not listed.
func available(ctx context.Context, rsc registry.Resource, collection bool, credentials any, id any) ([]operation.Operation, error) {
	var ops []operation.Operation
	for _, r := range rsc.Routes.Routes() {
		op := r.Operation
		if r.Parent != "" || op.Collection != collection || op.IsRetrieve() {
			continue
		}
		ok, err := r.Permitted(ctx, credentials, id)
		if err != nil {
			return nil, err
		}
		if ok {
			ops = append(ops, op)
		}
	}
	return ops, nil
}
