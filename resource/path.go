// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource defines the universal address of a resource instance.
package resource

import (
	"fmt"
	"regexp"
)

var nameRegexp = regexp.MustCompile(`^[A-Za-z]+(-[A-Za-z]+)*$`)

// InvalidNameError is returned when a resource-type name contains anything
// other than letters separated by single hyphens.
type InvalidNameError struct {
	Name string
}

func (e InvalidNameError) Error() string {
	return fmt.Sprintf("invalid resource name: %q", e.Name)
}

// ValidateName reports whether name is usable as a resource-type name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return InvalidNameError{Name: name}
	}
	return nil
}

// Path is a (resource-type name, opaque id) pair. The id is only ever
// interpreted by the identifier mapper registered for the resource.
type Path struct {
	name string
	id   string
}

// NewPath validates name and returns the corresponding [Path].
func NewPath(name, id string) (Path, error) {
	err := ValidateName(name)
	if err != nil {
		return Path{}, err
	}
	return Path{name: name, id: id}, nil
}

// MustPath is like [NewPath] but panics on an invalid name.
func MustPath(name, id string) Path {
	p, err := NewPath(name, id)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the resource-type name.
func (p Path) Name() string {
	return p.name
}

// ID returns the opaque identifier segment.
func (p Path) ID() string {
	return p.id
}

// AsURI returns name + "/" + id.
func (p Path) AsURI() string {
	return p.name + "/" + p.id
}

// String implements the [fmt.Stringer] interface.
func (p Path) String() string {
	return p.AsURI()
}
