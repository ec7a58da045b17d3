// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package identifier converts between [resource.Path]s and strongly typed
// identifier values.
//
// A [Mapper] must satisfy the round-trip law: for every valid identifier v,
// ToIdentifier(ToPath(name, v)) == v.
package identifier

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/uuid"
	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/resource"
)

// Mapper converts between a [resource.Path] and an identifier of type T.
type Mapper[T any] interface {
	// ToIdentifier decodes the path's id. A malformed id must be reported
	// as an [apierror.BadRequestError].
	ToIdentifier(resource.Path) (T, error)

	// ToPath encodes id. It never fails for a valid T.
	ToPath(name string, id T) resource.Path
}

// MalformedIdentifierError describes an id which cannot be decoded into the
// mapper's identifier type. It is always wrapped in a [apierror.BadRequestError].
type MalformedIdentifierError struct {
	Path  resource.Path
	Type  reflect.Type
	Cause error
}

func (e MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q for %s: expected %s", e.Path.ID(), e.Path.Name(), e.Type)
}

// Unwrap returns the underlying parse error.
func (e MalformedIdentifierError) Unwrap() error {
	return e.Cause
}

func malformed[T any](p resource.Path, cause error) error {
	return apierror.BadRequestError{
		Cause: MalformedIdentifierError{
			Path:  p,
			Type:  reflect.TypeFor[T](),
			Cause: cause,
		},
	}
}

// LongMapper maps base 10 encoded int64 identifiers.
type LongMapper struct{}

// ToIdentifier implements the [Mapper] interface.
func (LongMapper) ToIdentifier(p resource.Path) (int64, error) {
	id, err := strconv.ParseInt(p.ID(), 10, 64)
	if err != nil {
		return 0, malformed[int64](p, err)
	}
	return id, nil
}

// ToPath implements the [Mapper] interface.
func (LongMapper) ToPath(name string, id int64) resource.Path {
	return resource.MustPath(name, strconv.FormatInt(id, 10))
}

// StringMapper passes the id through unchanged. Empty ids are rejected.
type StringMapper struct{}

// ToIdentifier implements the [Mapper] interface.
func (StringMapper) ToIdentifier(p resource.Path) (string, error) {
	if p.ID() == "" {
		return "", malformed[string](p, fmt.Errorf("empty identifier"))
	}
	return p.ID(), nil
}

// ToPath implements the [Mapper] interface.
func (StringMapper) ToPath(name string, id string) resource.Path {
	return resource.MustPath(name, id)
}

// UUIDMapper maps identifiers in the canonical textual UUID form.
type UUIDMapper struct{}

// ToIdentifier implements the [Mapper] interface.
func (UUIDMapper) ToIdentifier(p resource.Path) (uuid.UUID, error) {
	id, err := uuid.Parse(p.ID())
	if err != nil {
		return uuid.Nil, malformed[uuid.UUID](p, err)
	}
	return id, nil
}

// ToPath implements the [Mapper] interface.
func (UUIDMapper) ToPath(name string, id uuid.UUID) resource.Path {
	return resource.MustPath(name, id.String())
}
