// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package jsonobject provides the document builder message mappers write to.
//
// An [Object] keeps its keys in insertion order, so rendering the same model
// twice yields byte identical documents.
package jsonobject

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an ordered JSON object under construction. It is not safe for
// concurrent use; every document gets its own.
type Object struct {
	m *orderedmap.OrderedMap[string, any]
}

// New returns an empty [Object].
func New() *Object {
	return &Object{
		m: orderedmap.New[string, any](),
	}
}

// Set stores v under key. Setting an existing key keeps its position.
func (o *Object) Set(key string, v any) {
	o.m.Set(key, v)
}

// Get returns the value under key.
func (o *Object) Get(key string) (any, bool) {
	return o.m.Get(key)
}

// Delete removes key.
func (o *Object) Delete(key string) {
	o.m.Delete(key)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return o.m.Len()
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.m.Len())
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Object returns the object stored under key, creating it if absent. A non
// object value under key is replaced.
func (o *Object) Object(key string) *Object {
	v, ok := o.m.Get(key)
	if ok {
		if child, isObj := v.(*Object); isObj {
			return child
		}
	}
	child := New()
	o.m.Set(key, child)
	return child
}

// Path is like [Object.Object] for a sequence of nested keys.
func (o *Object) Path(keys ...string) *Object {
	cur := o
	for _, key := range keys {
		cur = cur.Object(key)
	}
	return cur
}

// Append adds v to the array stored under key, creating it if absent.
func (o *Object) Append(key string, v any) {
	cur, _ := o.m.Get(key)
	arr, _ := cur.([]any)
	o.m.Set(key, append(arr, v))
}

// MarshalJSON implements the [json.Marshaler] interface. HTML characters are
// not escaped so URLs are rendered verbatim.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	first := true
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			buf.WriteByte(',')
		}
		first = false

		err := enc.Encode(pair.Key)
		if err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteByte(':')

		err = enc.Encode(pair.Value)
		if err != nil {
			return nil, err
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func trimNewline(buf *bytes.Buffer) {
	b := buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		buf.Truncate(len(b) - 1)
	}
}

// Render returns the object as compact JSON.
func (o *Object) Render() (string, error) {
	b, err := o.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
