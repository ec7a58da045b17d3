// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package routes

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"reflect"
	"slices"

	"github.com/z5labs/apio/form"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/resource"
)

// Builder registers the routes of the resource models of type T, identified
// by values of type ID. Conflicting registrations are collected and reported
// by [Builder.Build].
type Builder[T, ID any] struct {
	set  Set
	errs []error
}

// New starts the route set of the named resource.
func New[T, ID any](name string) *Builder[T, ID] {
	b := &Builder[T, ID]{
		set: Set{
			name:        name,
			modelType:   reflect.TypeFor[T](),
			idType:      reflect.TypeFor[ID](),
			defaults:    make(map[defaultKey]Route),
			nested:      make(map[string]Route),
			customs:     make(map[customKey]Route),
			customNames: make(map[customNameKey]struct{}),
		},
	}
	err := resource.ValidateName(name)
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

func (b *Builder[T, ID]) addDefault(r Route) *Builder[T, ID] {
	key := defaultKey{collection: r.Operation.Collection, method: r.Operation.Method}
	if _, exists := b.set.defaults[key]; exists {
		b.errs = append(b.errs, DuplicateRouteError{
			Resource:   b.set.name,
			Method:     key.method,
			Collection: key.collection,
		})
		return b
	}
	b.set.defaults[key] = r
	b.set.ordered = append(b.set.ordered, r)
	return b
}

func (b *Builder[T, ID]) addCustom(name string, r Route) *Builder[T, ID] {
	err := resource.ValidateName(name)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("custom route: %w", err))
		return b
	}
	if !slices.Contains(customMethods, r.Operation.Method) {
		b.errs = append(b.errs, UnsupportedMethodError{Method: r.Operation.Method})
		return b
	}

	key := customKey{collection: r.Operation.Collection, name: name, method: r.Operation.Method}
	if _, exists := b.set.customs[key]; exists {
		b.errs = append(b.errs, DuplicateRouteError{
			Resource:   b.set.name,
			Method:     key.method,
			Collection: key.collection,
			Name:       name,
		})
		return b
	}
	b.set.customs[key] = r
	b.set.customNames[customNameKey{collection: key.collection, name: name}] = struct{}{}
	b.set.ordered = append(b.set.ordered, r)
	return b
}

var customMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

func (b *Builder[T, ID]) op(action, method string, collection bool, f *form.Form) operation.Operation {
	return operation.Operation{
		Name:       operation.Name(b.set.name, action),
		Method:     method,
		Collection: collection,
		Form:       f,
	}
}

// RetrievePage serves GET /p/{name}.
func (b *Builder[T, ID]) RetrievePage(h func(context.Context, Request) (model.Items[T], error), opts ...RouteOption) *Builder[T, ID] {
	ro := applyRouteOptions(opts)
	return b.addDefault(Route{
		Operation:  b.op(operation.ActionRetrieve, http.MethodGet, true, nil),
		Result:     PageResult,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, _ any) (any, error) {
			items, err := h(ctx, req)
			if err != nil {
				return nil, err
			}
			return eraseItems(items), nil
		},
	})
}

// Retrieve serves GET /p/{name}/{id}.
func (b *Builder[T, ID]) Retrieve(h func(context.Context, Request, ID) (T, error), opts ...RouteOption) *Builder[T, ID] {
	ro := applyRouteOptions(opts)
	return b.addDefault(Route{
		Operation:  b.op(operation.ActionRetrieve, http.MethodGet, false, nil),
		Result:     SingleResult,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, id any) (any, error) {
			v, err := identifierAs[ID](id)
			if err != nil {
				return nil, err
			}
			return h(ctx, req, v)
		},
	})
}

// Remove serves DELETE /p/{name}/{id}.
func (b *Builder[T, ID]) Remove(h func(context.Context, Request, ID) error, opts ...RouteOption) *Builder[T, ID] {
	ro := applyRouteOptions(opts)
	return b.addDefault(Route{
		Operation:  b.op(operation.ActionRemove, http.MethodDelete, false, nil),
		Result:     NoContentResult,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, id any) (any, error) {
			v, err := identifierAs[ID](id)
			if err != nil {
				return nil, err
			}
			return nil, h(ctx, req, v)
		},
	})
}

// Create serves POST /p/{name}. The body is validated against f and decoded
// into a B before h is called.
func Create[T, ID, B any](b *Builder[T, ID], f *form.Form, h func(context.Context, Request, B) (T, error), opts ...RouteOption) *Builder[T, ID] {
	op := b.op(operation.ActionCreate, http.MethodPost, true, f)
	if f == nil {
		b.errs = append(b.errs, MissingFormError{Operation: op.Name})
		return b
	}
	ro := applyRouteOptions(opts)
	return b.addDefault(Route{
		Operation:  op,
		Result:     SingleResult,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, _ any) (any, error) {
			body, err := form.Decode[B](f, req.Body)
			if err != nil {
				return nil, err
			}
			return h(ctx, req, body)
		},
	})
}

// Replace serves PUT /p/{name}/{id}.
func Replace[T, ID, B any](b *Builder[T, ID], f *form.Form, h func(context.Context, Request, ID, B) (T, error), opts ...RouteOption) *Builder[T, ID] {
	op := b.op(operation.ActionReplace, http.MethodPut, false, f)
	if f == nil {
		b.errs = append(b.errs, MissingFormError{Operation: op.Name})
		return b
	}
	ro := applyRouteOptions(opts)
	return b.addDefault(Route{
		Operation:  op,
		Result:     SingleResult,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, id any) (any, error) {
			v, err := identifierAs[ID](id)
			if err != nil {
				return nil, err
			}
			body, err := form.Decode[B](f, req.Body)
			if err != nil {
				return nil, err
			}
			return h(ctx, req, v, body)
		},
	})
}

// CustomCollection serves {method} /p/{name}/{custom}. The custom route takes
// precedence over the item route for ids equal to custom. f may be nil when
// the route expects no body, in which case h receives the zero B.
func CustomCollection[T, ID, B any](b *Builder[T, ID], custom, method string, f *form.Form, h func(context.Context, Request, B) (T, error), opts ...RouteOption) *Builder[T, ID] {
	ro := applyRouteOptions(opts)
	op := b.op(custom, method, true, f)
	op.Custom = true
	return b.addCustom(custom, Route{
		Operation:  op,
		Result:     SingleResult,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, _ any) (any, error) {
			body, err := decodeOptional[B](f, req.Body)
			if err != nil {
				return nil, err
			}
			return h(ctx, req, body)
		},
	})
}

// CustomItem serves {method} /p/{name}/{id}/{custom}. The custom route takes
// precedence over a nested collection with the same name.
func CustomItem[T, ID, B any](b *Builder[T, ID], custom, method string, f *form.Form, h func(context.Context, Request, ID, B) (T, error), opts ...RouteOption) *Builder[T, ID] {
	ro := applyRouteOptions(opts)
	op := b.op(custom, method, false, f)
	op.Custom = true
	return b.addCustom(custom, Route{
		Operation:  op,
		Result:     SingleResult,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, id any) (any, error) {
			v, err := identifierAs[ID](id)
			if err != nil {
				return nil, err
			}
			body, err := decodeOptional[B](f, req.Body)
			if err != nil {
				return nil, err
			}
			return h(ctx, req, v, body)
		},
	})
}

// RetrieveNested serves GET /p/{parent}/{id}/{name}, the items of this
// resource which belong to a parent item. The parent id is decoded with the
// parent resource's identifier mapper.
func RetrieveNested[T, ID, PID any](b *Builder[T, ID], parent string, h func(context.Context, Request, PID) (model.Items[T], error), opts ...RouteOption) *Builder[T, ID] {
	err := resource.ValidateName(parent)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("nested route: %w", err))
		return b
	}
	if _, exists := b.set.nested[parent]; exists {
		b.errs = append(b.errs, DuplicateRouteError{
			Resource:   b.set.name,
			Method:     http.MethodGet,
			Collection: true,
			Name:       parent,
		})
		return b
	}

	ro := applyRouteOptions(opts)
	r := Route{
		Operation:  b.op(operation.ActionRetrieve, http.MethodGet, true, nil),
		Result:     PageResult,
		Parent:     parent,
		permission: ro.permission,
		handle: func(ctx context.Context, req Request, id any) (any, error) {
			pid, err := identifierAs[PID](id)
			if err != nil {
				return nil, err
			}
			items, err := h(ctx, req, pid)
			if err != nil {
				return nil, err
			}
			return eraseItems(items), nil
		},
	}
	b.set.nested[parent] = r
	b.set.ordered = append(b.set.ordered, r)
	return b
}

// Build returns the immutable [Set].
func (b *Builder[T, ID]) Build() (*Set, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	s := b.set
	s.defaults = maps.Clone(b.set.defaults)
	s.nested = maps.Clone(b.set.nested)
	s.customs = maps.Clone(b.set.customs)
	s.customNames = maps.Clone(b.set.customNames)
	s.ordered = slices.Clone(b.set.ordered)
	return &s, nil
}

func decodeOptional[B any](f *form.Form, body []byte) (B, error) {
	if f == nil {
		var b B
		return b, nil
	}
	return form.Decode[B](f, body)
}

func eraseItems[T any](items model.Items[T]) model.Items[any] {
	erased := make([]any, 0, len(items.Items))
	for _, item := range items.Items {
		erased = append(erased, item)
	}
	return model.Items[any]{
		Items:      erased,
		TotalCount: items.TotalCount,
	}
}
