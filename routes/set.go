// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package routes

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/z5labs/apio/form"
	"github.com/z5labs/apio/operation"
)

type defaultKey struct {
	collection bool
	method     string
}

type customKey struct {
	collection bool
	name       string
	method     string
}

type customNameKey struct {
	collection bool
	name       string
}

// Set is the immutable collection of routes of one resource.
type Set struct {
	name        string
	modelType   reflect.Type
	idType      reflect.Type
	defaults    map[defaultKey]Route
	nested      map[string]Route
	customs     map[customKey]Route
	customNames map[customNameKey]struct{}
	ordered     []Route
}

// Name returns the resource name.
func (s *Set) Name() string {
	return s.name
}

// ModelType returns the Go type of the resource models.
func (s *Set) ModelType() reflect.Type {
	return s.modelType
}

// IdentifierType returns the Go type of the resource identifiers.
func (s *Set) IdentifierType() reflect.Type {
	return s.idType
}

// Collection returns the default collection route for method.
func (s *Set) Collection(method string) (Route, bool) {
	r, ok := s.defaults[defaultKey{collection: true, method: method}]
	return r, ok
}

// Item returns the default item route for method.
func (s *Set) Item(method string) (Route, bool) {
	r, ok := s.defaults[defaultKey{collection: false, method: method}]
	return r, ok
}

// Nested returns the route serving this resource as a nested collection of
// items of the parent resource.
func (s *Set) Nested(parent string) (Route, bool) {
	r, ok := s.nested[parent]
	return r, ok
}

// Parents returns the names of every resource this resource is nested under,
// sorted.
func (s *Set) Parents() []string {
	parents := make([]string, 0, len(s.nested))
	for p := range s.nested {
		parents = append(parents, p)
	}
	slices.Sort(parents)
	return parents
}

// Custom returns the custom route with the given name and method.
func (s *Set) Custom(collection bool, name, method string) (Route, bool) {
	r, ok := s.customs[customKey{collection: collection, name: name, method: method}]
	return r, ok
}

// HasCustom reports whether any custom route is named name, whatever its
// method.
func (s *Set) HasCustom(collection bool, name string) bool {
	_, ok := s.customNames[customNameKey{collection: collection, name: name}]
	return ok
}

// Routes returns every route in registration order.
func (s *Set) Routes() []Route {
	return slices.Clone(s.ordered)
}

// Operations returns the operations of the collection or item level, in
// registration order. Nested collection routes are not included.
func (s *Set) Operations(collection bool) []operation.Operation {
	var ops []operation.Operation
	for _, r := range s.ordered {
		if r.Parent != "" || r.Operation.Collection != collection {
			continue
		}
		ops = append(ops, r.Operation)
	}
	return ops
}

// Forms returns the distinct forms referenced by the routes.
func (s *Set) Forms() []*form.Form {
	var forms []*form.Form
	for _, r := range s.ordered {
		f := r.Operation.Form
		if f == nil || slices.Contains(forms, f) {
			continue
		}
		forms = append(forms, f)
	}
	return forms
}

// DuplicateRouteError is returned when two routes of a resource would serve
// the same requests.
type DuplicateRouteError struct {
	Resource   string
	Method     string
	Collection bool

	// Name is the custom name or the parent resource of the route, if any.
	Name string
}

func (e DuplicateRouteError) Error() string {
	level := "item"
	if e.Collection {
		level = "collection"
	}
	if e.Name == "" {
		return fmt.Sprintf("duplicate %s %s route for resource %s", level, e.Method, e.Resource)
	}
	return fmt.Sprintf("duplicate %s %s route %s for resource %s", level, e.Method, e.Name, e.Resource)
}

// MissingFormError is returned when an operation which requires a body is
// registered without a form.
type MissingFormError struct {
	Operation string
}

func (e MissingFormError) Error() string {
	return fmt.Sprintf("operation requires a form: %s", e.Operation)
}

// UnsupportedMethodError is returned for custom routes with a method other
// than GET, POST, PUT, PATCH or DELETE.
type UnsupportedMethodError struct {
	Method string
}

func (e UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported http method: %s", e.Method)
}
