// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package form describes and validates the request bodies accepted by
// create, replace and custom operations.
package form

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/swaggest/jsonschema-go"
	"github.com/xeipuuv/gojsonschema"
	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/resource"
)

// Form is the expected body of an operation. Its JSON schema is reflected
// from a Go type, so struct tags like `required:"true"` or `minLength:"1"`
// are enforced when a body is validated.
type Form struct {
	id       string
	schema   jsonschema.Schema
	raw      []byte
	compiled *gojsonschema.Schema
}

// New reflects the JSON schema of B. id names the form in URLs and must be a
// valid resource name.
func New[B any](id string) (*Form, error) {
	err := resource.ValidateName(id)
	if err != nil {
		return nil, err
	}

	var b B
	var reflector jsonschema.Reflector

	schema, err := reflector.Reflect(b, jsonschema.InlineRefs)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(&schema)
	if err != nil {
		return nil, err
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compiling schema for form %s: %w", id, err)
	}

	return &Form{
		id:       id,
		schema:   schema,
		raw:      raw,
		compiled: compiled,
	}, nil
}

// MustNew is like [New] but panics on error.
func MustNew[B any](id string) *Form {
	f, err := New[B](id)
	if err != nil {
		panic(err)
	}
	return f
}

// ID returns the form identifier.
func (f *Form) ID() string {
	return f.id
}

// Schema returns the reflected JSON schema.
func (f *Form) Schema() jsonschema.Schema {
	return f.schema
}

// SchemaJSON returns the JSON encoding of the schema.
func (f *Form) SchemaJSON() []byte {
	return slices.Clone(f.raw)
}

// EmptyBodyError is returned when a body is required but none was sent.
type EmptyBodyError struct{}

func (EmptyBodyError) Error() string {
	return "request body is empty"
}

// ValidationError lists every way a body violates the form's schema.
type ValidationError struct {
	Form   string
	Errors []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Form, strings.Join(e.Errors, "; "))
}

// Validate checks body against the form's schema. All failures are reported
// as an [apierror.BadRequestError].
func (f *Form) Validate(body []byte) error {
	if len(body) == 0 {
		return apierror.BadRequestError{Cause: EmptyBodyError{}}
	}

	res, err := f.compiled.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apierror.BadRequestError{Cause: err}
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		msgs = append(msgs, re.String())
	}
	slices.Sort(msgs)

	return apierror.BadRequestError{
		Cause: ValidationError{
			Form:   f.id,
			Errors: msgs,
		},
	}
}

// Decode validates body against f and unmarshals it into a B.
func Decode[B any](f *Form, body []byte) (B, error) {
	var b B
	err := f.Validate(body)
	if err != nil {
		return b, err
	}
	err = json.Unmarshal(body, &b)
	if err != nil {
		return b, apierror.BadRequestError{Cause: err}
	}
	return b, nil
}
