// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package registry maps resource names to everything needed to serve them.
//
// Resources may be registered at any time, including while requests are
// being served. Every registration publishes a new immutable snapshot, so a
// request never observes a partially registered resource.
package registry

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"slices"

	"github.com/z5labs/apio"
	"github.com/z5labs/apio/concurrent"
	"github.com/z5labs/apio/form"
	"github.com/z5labs/apio/identifier"
	"github.com/z5labs/apio/representor"
	"github.com/z5labs/apio/routes"
)

// Resource bundles the description, routes and identifier mapper of a
// resource type.
type Resource struct {
	Name        string
	Representor *representor.Representor
	Routes      *routes.Set
	Mapper      identifier.PathMapper
}

// DuplicateResourceError is returned when a resource name is registered twice.
type DuplicateResourceError struct {
	Name string
}

func (e DuplicateResourceError) Error() string {
	return fmt.Sprintf("resource already registered: %s", e.Name)
}

// TypeMismatchError is returned when the representor and the routes of a
// resource disagree on the model or identifier type.
type TypeMismatchError struct {
	Resource    string
	What        string
	Representor reflect.Type
	Routes      reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf(
		"%s type mismatch for resource %s: representor uses %v, routes use %v",
		e.What,
		e.Resource,
		e.Representor,
		e.Routes,
	)
}

// DuplicateFormError is returned when two different forms share an id.
type DuplicateFormError struct {
	ID string
}

func (e DuplicateFormError) Error() string {
	return fmt.Sprintf("form id already in use: %s", e.ID)
}

// Options configure a [Registry].
type Options struct {
	log *slog.Logger
}

// Option sets values on [Options].
type Option func(*Options)

// Logger sets the logger registration warnings are written to.
func Logger(log *slog.Logger) Option {
	return func(o *Options) {
		o.log = log
	}
}

// Registry is the process wide name → [Resource] mapping.
type Registry struct {
	log         *slog.Logger
	identifiers *identifier.Registry
	resources   concurrent.Snapshot[string, Resource]
}

// New returns an empty registry which resolves identifier mappers from ids.
func New(ids *identifier.Registry, opts ...Option) *Registry {
	o := &Options{
		log: apio.Logger("github.com/z5labs/apio/registry"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Registry{
		log:         o.log,
		identifiers: ids,
	}
}

// Register publishes a resource. It fails without side effects when the
// name is taken, the representor and routes disagree on types, no identifier
// mapper is registered for the identifier type or a form id is reused.
func (r *Registry) Register(rep *representor.Representor, set *routes.Set) error {
	name := set.Name()
	if rep.ModelType() != set.ModelType() {
		return TypeMismatchError{
			Resource:    name,
			What:        "model",
			Representor: rep.ModelType(),
			Routes:      set.ModelType(),
		}
	}
	if rep.IdentifierType() != set.IdentifierType() {
		return TypeMismatchError{
			Resource:    name,
			What:        "identifier",
			Representor: rep.IdentifierType(),
			Routes:      set.IdentifierType(),
		}
	}

	mapper, err := r.identifiers.LookupType(set.IdentifierType())
	if err != nil {
		return fmt.Errorf("registering resource %s: %w", name, err)
	}

	res := Resource{
		Name:        name,
		Representor: rep,
		Routes:      set,
		Mapper:      mapper,
	}
	err = r.resources.Update(name, func(_ Resource, exists bool) (Resource, error) {
		if exists {
			return Resource{}, DuplicateResourceError{Name: name}
		}
		for _, f := range set.Forms() {
			other, ok := r.form(f.ID())
			if ok && other != f {
				return Resource{}, DuplicateFormError{ID: f.ID()}
			}
		}
		return res, nil
	})
	if err != nil {
		return err
	}

	r.warnShadowedRoutes(res)
	return nil
}

// Custom item routes win over nested collections of the same name, which
// makes such nested collections unreachable.
func (r *Registry) warnShadowedRoutes(res Resource) {
	for name, other := range r.resources.All() {
		if name == res.Name {
			continue
		}
		r.warnIfShadowed(res, other)
		r.warnIfShadowed(other, res)
	}
}

func (r *Registry) warnIfShadowed(parent, child Resource) {
	if _, ok := child.Routes.Nested(parent.Name); !ok {
		return
	}
	if !parent.Routes.HasCustom(false, child.Name) {
		return
	}
	r.log.Warn(
		"custom item route shadows nested collection",
		slog.String("resource", parent.Name),
		slog.String("route", child.Name),
	)
}

// Lookup returns the resource registered under name.
func (r *Registry) Lookup(name string) (Resource, bool) {
	return r.resources.Load(name)
}

// Representor returns the representor of the named resource.
func (r *Registry) Representor(name string) (*representor.Representor, bool) {
	res, ok := r.resources.Load(name)
	if !ok {
		return nil, false
	}
	return res.Representor, true
}

// PathMapper returns the identifier mapper of the named resource.
func (r *Registry) PathMapper(name string) (identifier.PathMapper, bool) {
	res, ok := r.resources.Load(name)
	if !ok {
		return nil, false
	}
	return res.Mapper, true
}

// Form returns the form with the given id from any registered resource.
func (r *Registry) Form(id string) (*form.Form, bool) {
	return r.form(id)
}

func (r *Registry) form(id string) (*form.Form, bool) {
	for _, res := range r.resources.All() {
		for _, f := range res.Routes.Forms() {
			if f.ID() == id {
				return f, true
			}
		}
	}
	return nil, false
}

// Resources iterates over the registered resources sorted by name.
func (r *Registry) Resources() iter.Seq[Resource] {
	var all []Resource
	for _, res := range r.resources.All() {
		all = append(all, res)
	}
	slices.SortFunc(all, func(a, b Resource) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return slices.Values(all)
}
