// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package representor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/z5labs/apio/resource"
	"golang.org/x/text/language"
)

// DuplicateKeyError is returned by [Builder.Build] when two fields or
// relations share a key.
type DuplicateKeyError struct {
	Key string
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate representor key: %s", e.Key)
}

// EmptyKeyError is returned by [Builder.Build] when a field or relation is
// declared without a key.
type EmptyKeyError struct {
	Kind string
}

func (e EmptyKeyError) Error() string {
	return fmt.Sprintf("empty key for %s", e.Kind)
}

// ReservedKeyError is returned by [Builder.Build] when a field or relation
// uses a key which a document format writes itself.
type ReservedKeyError struct {
	Key string
}

func (e ReservedKeyError) Error() string {
	return fmt.Sprintf("reserved representor key: %s", e.Key)
}

// reservedKeys are written by the document formats around the fields. Keys
// starting with "@" are JSON-LD keywords and reserved as well.
var reservedKeys = map[string]struct{}{
	"self":            {},
	"_links":          {},
	"_embedded":       {},
	"hydra:operation": {},
}

func isReserved(key string) bool {
	if strings.HasPrefix(key, "@") {
		return true
	}
	_, ok := reservedKeys[key]
	return ok
}

// Builder declaratively describes a model of type T. Methods may be chained.
// Declaration errors are collected and reported by [Builder.Build].
//
// Keys are unique across fields and relations, since every format renders
// them in the same document.
type Builder[T any] struct {
	r    Representor
	keys map[string]struct{}
	errs []error
}

// New starts describing a top level resource whose models are identified by
// the value id returns. An identifier mapper for ID must be registered before
// the resulting representor can be registered.
func New[T, ID any](id func(T) ID) *Builder[T] {
	b := newBuilder[T]()
	b.r.idType = reflect.TypeFor[ID]()
	b.r.identifier = func(m any) any {
		return id(m.(T))
	}
	return b
}

func newBuilder[T any]() *Builder[T] {
	return &Builder[T]{
		r: Representor{
			modelType: reflect.TypeFor[T](),
		},
		keys: make(map[string]struct{}),
	}
}

func (b *Builder[T]) claim(kind Kind, key string) bool {
	if key == "" {
		b.errs = append(b.errs, EmptyKeyError{Kind: kind.String()})
		return false
	}
	if isReserved(key) {
		b.errs = append(b.errs, ReservedKeyError{Key: key})
		return false
	}
	if _, exists := b.keys[key]; exists {
		b.errs = append(b.errs, DuplicateKeyError{Key: key})
		return false
	}
	b.keys[key] = struct{}{}
	return true
}

func (b *Builder[T]) field(kind Kind, key string, f func(T) any) *Builder[T] {
	if !b.claim(kind, key) {
		return b
	}
	b.r.fields = append(b.r.fields, Field{
		Key:  key,
		Kind: kind,
		value: func(m any) any {
			return f(m.(T))
		},
	})
	return b
}

// Types adds type tags, e.g. "Person". They are used for JSON-LD @type.
func (b *Builder[T]) Types(types ...string) *Builder[T] {
	b.r.types = append(b.r.types, types...)
	return b
}

func (b *Builder[T]) Boolean(key string, f func(T) bool) *Builder[T] {
	return b.field(KindBoolean, key, func(t T) any {
		return f(t)
	})
}

// Number adds a number field. NaN and infinite values have no JSON
// representation so the field is left out of the document for them.
func (b *Builder[T]) Number(key string, f func(T) float64) *Builder[T] {
	return b.field(KindNumber, key, func(t T) any {
		n, ok := floatNumber(f(t))
		if !ok {
			return nil
		}
		return n
	})
}

// Integer adds a number field which is rendered without a fractional part.
func (b *Builder[T]) Integer(key string, f func(T) int64) *Builder[T] {
	return b.field(KindNumber, key, func(t T) any {
		return json.Number(strconv.FormatInt(f(t), 10))
	})
}

func (b *Builder[T]) String(key string, f func(T) string) *Builder[T] {
	return b.field(KindString, key, func(t T) any {
		return f(t)
	})
}

// Date adds a timestamp field. Writers render it in RFC 3339 format, in UTC.
func (b *Builder[T]) Date(key string, f func(T) time.Time) *Builder[T] {
	return b.field(KindDate, key, func(t T) any {
		return f(t)
	})
}

// LocalizedString adds a string field whose value depends on the language
// negotiated for the request.
func (b *Builder[T]) LocalizedString(key string, f func(T, language.Tag) string) *Builder[T] {
	if !b.claim(KindLocalizedString, key) {
		return b
	}
	b.r.fields = append(b.r.fields, Field{
		Key:  key,
		Kind: KindLocalizedString,
		localized: func(m any, tag language.Tag) string {
			return f(m.(T), tag)
		},
	})
	return b
}

// Binary adds a binary payload under key. The document only links to
// /b/{name}/{id}/{key}, from which the payload returned by f is streamed.
func (b *Builder[T]) Binary(key string, f func(context.Context, T) (BinaryFile, error)) *Builder[T] {
	if !b.claim(KindBinary, key) {
		return b
	}
	b.r.fields = append(b.r.fields, Field{
		Key:  key,
		Kind: KindBinary,
		content: func(ctx context.Context, m any) (BinaryFile, error) {
			return f(ctx, m.(T))
		},
	})
	return b
}

// Link adds a static link, identical for every model.
func (b *Builder[T]) Link(key string, url string) *Builder[T] {
	return b.field(KindLink, key, func(T) any {
		return url
	})
}

// RelativeURL adds a link relative to the server URL, e.g. "/docs/people".
func (b *Builder[T]) RelativeURL(key string, f func(T) string) *Builder[T] {
	return b.field(KindRelativeURL, key, func(t T) any {
		return f(t)
	})
}

func (b *Builder[T]) BooleanList(key string, f func(T) []bool) *Builder[T] {
	return b.field(KindBooleanList, key, func(t T) any {
		return f(t)
	})
}

// NumberList adds a list of numbers. NaN and infinite elements are dropped.
func (b *Builder[T]) NumberList(key string, f func(T) []float64) *Builder[T] {
	return b.field(KindNumberList, key, func(t T) any {
		vs := f(t)
		ns := make([]json.Number, 0, len(vs))
		for _, v := range vs {
			if n, ok := floatNumber(v); ok {
				ns = append(ns, n)
			}
		}
		return ns
	})
}

func (b *Builder[T]) StringList(key string, f func(T) []string) *Builder[T] {
	return b.field(KindStringList, key, func(t T) any {
		return f(t)
	})
}

// LinkedModel links to a single instance of the target resource. f returns
// the identifier of the linked instance, or nil when there is none. Links
// which cannot be resolved to a path are omitted from the output.
func (b *Builder[T]) LinkedModel(key string, target string, f func(T) any) *Builder[T] {
	return b.relation(LinkedModel, key, target, func(m any) any {
		return f(m.(T))
	})
}

// RelatedCollection links to the collection of target resources which belong
// to the model, served at /p/{name}/{id}/{target}.
func (b *Builder[T]) RelatedCollection(key string, target string) *Builder[T] {
	return b.relation(RelatedCollection, key, target, nil)
}

func (b *Builder[T]) relation(kind RelationKind, key, target string, id func(any) any) *Builder[T] {
	if key == "" {
		b.errs = append(b.errs, EmptyKeyError{Kind: kind.String()})
		return b
	}
	if isReserved(key) {
		b.errs = append(b.errs, ReservedKeyError{Key: key})
		return b
	}
	if _, exists := b.keys[key]; exists {
		b.errs = append(b.errs, DuplicateKeyError{Key: key})
		return b
	}
	err := resource.ValidateName(target)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("relation %s: %w", key, err))
		return b
	}
	b.keys[key] = struct{}{}
	b.r.relations = append(b.r.relations, Relation{
		Key:        key,
		Kind:       kind,
		Target:     target,
		identifier: id,
	})
	return b
}

// Nested embeds the fields of S under key. get reports false when the model
// has nothing to embed.
func Nested[T, S any](b *Builder[T], key string, get func(T) (S, bool), describe func(*Builder[S])) *Builder[T] {
	nested, ok := buildNested(b, KindNested, key, describe)
	if !ok {
		return b
	}
	b.r.fields = append(b.r.fields, Field{
		Key:    key,
		Kind:   KindNested,
		Nested: nested,
		value: func(m any) any {
			s, ok := get(m.(T))
			if !ok {
				return nil
			}
			return s
		},
	})
	return b
}

// NestedList embeds a list of S under key.
func NestedList[T, S any](b *Builder[T], key string, get func(T) []S, describe func(*Builder[S])) *Builder[T] {
	nested, ok := buildNested(b, KindNestedList, key, describe)
	if !ok {
		return b
	}
	b.r.fields = append(b.r.fields, Field{
		Key:    key,
		Kind:   KindNestedList,
		Nested: nested,
		value: func(m any) any {
			ss := get(m.(T))
			vs := make([]any, 0, len(ss))
			for _, s := range ss {
				vs = append(vs, s)
			}
			return vs
		},
	})
	return b
}

func buildNested[T, S any](b *Builder[T], kind Kind, key string, describe func(*Builder[S])) (*Representor, bool) {
	if !b.claim(kind, key) {
		return nil, false
	}
	nb := newBuilder[S]()
	describe(nb)
	nested, err := nb.Build()
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("nested %s: %w", key, err))
		return nil, false
	}
	return nested, true
}

// Build returns the immutable [Representor]. The builder may keep being used
// afterwards without affecting representors it already built.
func (b *Builder[T]) Build() (*Representor, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	r := b.r
	r.types = append([]string(nil), b.r.types...)
	r.fields = append([]Field(nil), b.r.fields...)
	r.relations = append([]Relation(nil), b.r.relations...)
	return &r, nil
}

func floatNumber(v float64) (json.Number, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return json.Number(strconv.FormatFloat(v, 'f', -1, 64)), true
}
