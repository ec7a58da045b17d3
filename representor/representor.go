// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package representor describes, once per resource type, how to extract the
// fields and relations of a domain model.
//
// A [Representor] is created with a [Builder] and is immutable afterwards, so
// it can be shared across any number of concurrent requests. It is an ordered
// list of plain descriptors which writers walk to render a model and which can
// be introspected, e.g. to generate documentation.
package representor

import (
	"context"
	"reflect"
	"slices"

	"golang.org/x/text/language"
)

// Kind categorizes a [Field].
type Kind int

const (
	KindBoolean Kind = iota
	KindNumber
	KindString
	KindDate
	KindLocalizedString
	KindBinary
	KindLink
	KindRelativeURL
	KindBooleanList
	KindNumberList
	KindStringList
	KindNested
	KindNestedList
)

var kindNames = [...]string{
	KindBoolean:         "boolean",
	KindNumber:          "number",
	KindString:          "string",
	KindDate:            "date",
	KindLocalizedString: "localized-string",
	KindBinary:          "binary",
	KindLink:            "link",
	KindRelativeURL:     "relative-url",
	KindBooleanList:     "boolean-list",
	KindNumberList:      "number-list",
	KindStringList:      "string-list",
	KindNested:          "nested",
	KindNestedList:      "nested-list",
}

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Field describes a single key of the rendered model.
//
// The value returned by [Field.Value] depends on the kind:
//
//	KindBoolean       bool
//	KindNumber        json.Number
//	KindString        string
//	KindDate          time.Time
//	KindLink          string (absolute URL)
//	KindRelativeURL   string (relative to the server URL)
//	KindBooleanList   []bool
//	KindNumberList    []json.Number
//	KindStringList    []string
//	KindNested        any (nil when absent)
//	KindNestedList    []any
//
// Localized strings are read with [Field.Localized] and binaries with
// [Field.Content].
type Field struct {
	Key  string
	Kind Kind

	// Nested describes the embedded model for KindNested and KindNestedList.
	Nested *Representor

	value     func(any) any
	localized func(any, language.Tag) string
	content   func(context.Context, any) (BinaryFile, error)
}

// Value extracts the field from model.
func (f Field) Value(model any) any {
	if f.value == nil {
		return nil
	}
	return f.value(model)
}

// Localized extracts a KindLocalizedString field for the given language.
func (f Field) Localized(model any, tag language.Tag) string {
	if f.localized == nil {
		return ""
	}
	return f.localized(model, tag)
}

// Content opens the payload of a KindBinary field.
func (f Field) Content(ctx context.Context, model any) (BinaryFile, error) {
	if f.content == nil {
		return BinaryFile{}, BinaryNotFoundError{Key: f.Key}
	}
	return f.content(ctx, model)
}

// RelationKind categorizes a [Relation].
type RelationKind int

const (
	// LinkedModel is a single valued relation to another resource instance.
	LinkedModel RelationKind = iota

	// RelatedCollection is a to-many relation which is materialized by the
	// target resource's nested collection route.
	RelatedCollection
)

// String implements the [fmt.Stringer] interface.
func (k RelationKind) String() string {
	switch k {
	case LinkedModel:
		return "linked-model"
	case RelatedCollection:
		return "related-collection"
	default:
		return "unknown"
	}
}

// Relation links the model to other resources.
type Relation struct {
	Key    string
	Kind   RelationKind
	Target string

	identifier func(any) any
}

// Identifier returns the identifier of the linked model, or nil when the model
// has no such relation. It is always nil for RelatedCollection relations.
func (r Relation) Identifier(model any) any {
	if r.identifier == nil {
		return nil
	}
	return r.identifier(model)
}

// Representor is the immutable description of a resource type.
type Representor struct {
	modelType  reflect.Type
	idType     reflect.Type
	identifier func(any) any
	types      []string
	fields     []Field
	relations  []Relation
}

// ModelType returns the Go type of the models this representor describes.
func (r *Representor) ModelType() reflect.Type {
	return r.modelType
}

// IdentifierType returns the Go type of the model identifiers. It is nil for
// nested representors.
func (r *Representor) IdentifierType() reflect.Type {
	return r.idType
}

// Identifier extracts the identifier of model.
func (r *Representor) Identifier(model any) any {
	if r.identifier == nil {
		return nil
	}
	return r.identifier(model)
}

// Types returns the type tags in declaration order.
func (r *Representor) Types() []string {
	return slices.Clone(r.types)
}

// Fields returns the fields in declaration order.
func (r *Representor) Fields() []Field {
	return slices.Clone(r.fields)
}

// Relations returns the relations in declaration order.
func (r *Representor) Relations() []Relation {
	return slices.Clone(r.relations)
}

// Binary returns the binary field with the given key.
func (r *Representor) Binary(key string) (Field, bool) {
	for _, f := range r.fields {
		if f.Kind == KindBinary && f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}
