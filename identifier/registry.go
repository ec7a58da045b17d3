// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package identifier

import (
	"fmt"
	"reflect"

	"github.com/z5labs/apio/concurrent"
	"github.com/z5labs/apio/resource"
)

// PathMapper is the type-erased form of a [Mapper]. It lets components which
// only know a resource by name, like writers resolving links, convert
// identifiers without knowing their static type.
type PathMapper interface {
	IdentifierType() reflect.Type
	Identifier(resource.Path) (any, error)
	Path(name string, id any) (resource.Path, error)
}

// IdentifierTypeError is returned by [PathMapper.Path] when the given
// identifier is not of the mapper's identifier type.
type IdentifierTypeError struct {
	Want reflect.Type
	Got  reflect.Type
}

func (e IdentifierTypeError) Error() string {
	return fmt.Sprintf("identifier type mismatch: want %s, got %v", e.Want, e.Got)
}

type erased[T any] struct {
	m Mapper[T]
}

// Erase wraps m so it can be stored alongside mappers of other types.
func Erase[T any](m Mapper[T]) PathMapper {
	return erased[T]{m: m}
}

// Unerase recovers the typed [Mapper] from a [PathMapper] created by [Erase].
func Unerase[T any](pm PathMapper) (Mapper[T], bool) {
	e, ok := pm.(erased[T])
	if !ok {
		return nil, false
	}
	return e.m, true
}

func (e erased[T]) IdentifierType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (e erased[T]) Identifier(p resource.Path) (any, error) {
	return e.m.ToIdentifier(p)
}

func (e erased[T]) Path(name string, id any) (resource.Path, error) {
	t, ok := id.(T)
	if !ok {
		return resource.Path{}, IdentifierTypeError{
			Want: reflect.TypeFor[T](),
			Got:  reflect.TypeOf(id),
		}
	}
	return e.m.ToPath(name, t), nil
}

// DuplicateMapperError is returned when a second mapper is registered for an
// identifier type.
type DuplicateMapperError struct {
	Type reflect.Type
}

func (e DuplicateMapperError) Error() string {
	return fmt.Sprintf("identifier mapper already registered for type: %s", e.Type)
}

// MissingMapperError reports that no mapper is registered for an identifier
// type. This is a configuration error detected during resource registration.
type MissingMapperError struct {
	Type reflect.Type
}

func (e MissingMapperError) Error() string {
	return fmt.Sprintf("no identifier mapper registered for type: %s", e.Type)
}

// Registry holds exactly one [Mapper] per identifier type.
type Registry struct {
	mappers concurrent.Snapshot[reflect.Type, PathMapper]
}

// NewRegistry returns a [Registry] with [LongMapper], [StringMapper] and
// [UUIDMapper] already registered.
func NewRegistry() *Registry {
	r := &Registry{}
	Register[int64](r, LongMapper{})
	Register[string](r, StringMapper{})
	Register(r, UUIDMapper{})
	return r
}

// Register adds m as the mapper for identifiers of type T.
func Register[T any](r *Registry, m Mapper[T]) error {
	t := reflect.TypeFor[T]()
	if !r.mappers.StoreIfAbsent(t, Erase(m)) {
		return DuplicateMapperError{Type: t}
	}
	return nil
}

// Lookup returns the mapper registered for identifiers of type T.
func Lookup[T any](r *Registry) (Mapper[T], error) {
	pm, err := r.LookupType(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	m, ok := Unerase[T](pm)
	if !ok {
		return nil, MissingMapperError{Type: reflect.TypeFor[T]()}
	}
	return m, nil
}

// LookupType returns the type-erased mapper registered for t.
func (r *Registry) LookupType(t reflect.Type) (PathMapper, error) {
	pm, ok := r.mappers.Load(t)
	if !ok {
		return nil, MissingMapperError{Type: t}
	}
	return pm, nil
}
