// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package writer renders resolved models, pages and errors by walking their
// representors and driving a message mapper in a fixed callback order.
//
// Every write allocates its own document, so writers may be used from any
// number of goroutines and abandoned at any point.
package writer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/z5labs/apio/identifier"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/jsonobject"
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/representor"
	"github.com/z5labs/apio/resource"
	"github.com/z5labs/apio/uri"

	"golang.org/x/text/language"
)

// Lookup resolves the representor and identifier mapper of a resource.
// It is implemented by *registry.Registry.
type Lookup interface {
	Representor(name string) (*representor.Representor, bool)
	PathMapper(name string) (identifier.PathMapper, bool)
}

// modelWriter holds what is shared by every model of one write pass.
type modelWriter struct {
	mapper   message.SingleModelMapper
	lookup   Lookup
	urls     uri.Creator
	language language.Tag
}

// write renders m into doc. It reports false if the representor of the
// resource or the path of m cannot be resolved.
func (w modelWriter) write(doc *jsonobject.Object, resourceName string, m any, ops []operation.Operation) bool {
	rep, ok := w.lookup.Representor(resourceName)
	if !ok {
		return false
	}
	pm, ok := w.lookup.PathMapper(resourceName)
	if !ok {
		return false
	}
	path, err := pm.Path(resourceName, rep.Identifier(m))
	if err != nil {
		return false
	}

	info := message.Model{
		ResourceName: resourceName,
		Types:        rep.Types(),
	}
	w.mapper.OnStart(doc, info)
	w.mapper.MapSelfURL(doc, w.urls.Single(path))
	w.mapper.MapTypes(doc, info.Types)
	w.fields(doc, rep, m, &path)
	w.relations(doc, rep, m, &path)
	for _, op := range ops {
		w.mapper.MapOperation(doc, itemOperation(w.urls, path, op))
	}
	w.mapper.OnFinish(doc, info)
	return true
}

// fields renders the fields of rep in declaration order. path is nil for
// nested models, which have no address of their own.
func (w modelWriter) fields(doc *jsonobject.Object, rep *representor.Representor, m any, path *resource.Path) {
	for _, f := range rep.Fields() {
		switch f.Kind {
		case representor.KindBoolean:
			if v, ok := f.Value(m).(bool); ok {
				w.mapper.MapBooleanField(doc, f.Key, v)
			}
		case representor.KindNumber:
			if v, ok := f.Value(m).(json.Number); ok {
				w.mapper.MapNumberField(doc, f.Key, v)
			}
		case representor.KindString:
			if v, ok := f.Value(m).(string); ok {
				w.mapper.MapStringField(doc, f.Key, v)
			}
		case representor.KindDate:
			if v, ok := f.Value(m).(time.Time); ok {
				w.mapper.MapStringField(doc, f.Key, v.UTC().Format(time.RFC3339))
			}
		case representor.KindLocalizedString:
			w.mapper.MapStringField(doc, f.Key, f.Localized(m, w.language))
		case representor.KindBinary:
			if path != nil {
				w.mapper.MapLink(doc, f.Key, w.urls.Binary(*path, f.Key))
			}
		case representor.KindLink:
			if v, ok := f.Value(m).(string); ok {
				w.mapper.MapLink(doc, f.Key, v)
			}
		case representor.KindRelativeURL:
			if v, ok := f.Value(m).(string); ok {
				w.mapper.MapLink(doc, f.Key, w.urls.Relative(v))
			}
		case representor.KindBooleanList:
			if v, ok := f.Value(m).([]bool); ok {
				w.mapper.MapBooleanListField(doc, f.Key, v)
			}
		case representor.KindNumberList:
			if v, ok := f.Value(m).([]json.Number); ok {
				w.mapper.MapNumberListField(doc, f.Key, v)
			}
		case representor.KindStringList:
			if v, ok := f.Value(m).([]string); ok {
				w.mapper.MapStringListField(doc, f.Key, v)
			}
		case representor.KindNested:
			v := f.Value(m)
			if v == nil {
				continue
			}
			nested := w.nested(doc, f, v)
			w.mapper.OnFinishNested(doc, f.Key, nested)
		case representor.KindNestedList:
			vs, _ := f.Value(m).([]any)
			objs := make([]*jsonobject.Object, 0, len(vs))
			for _, v := range vs {
				objs = append(objs, w.nested(doc, f, v))
			}
			w.mapper.OnFinishNestedList(doc, f.Key, objs)
		}
	}
}

func (w modelWriter) nested(doc *jsonobject.Object, f representor.Field, v any) *jsonobject.Object {
	nested := w.mapper.OnStartNested(doc, f.Key, f.Nested.Types())
	w.fields(nested, f.Nested, v, nil)
	w.relations(nested, f.Nested, v, nil)
	return nested
}

// relations renders links to other resources. Relations which cannot be
// resolved are left out.
func (w modelWriter) relations(doc *jsonobject.Object, rep *representor.Representor, m any, path *resource.Path) {
	for _, rel := range rep.Relations() {
		switch rel.Kind {
		case representor.LinkedModel:
			id := rel.Identifier(m)
			if id == nil {
				continue
			}
			pm, ok := w.lookup.PathMapper(rel.Target)
			if !ok {
				continue
			}
			target, err := pm.Path(rel.Target, id)
			if err != nil {
				continue
			}
			w.mapper.MapLinkedResourceURL(doc, rel.Key, w.urls.Single(target))
		case representor.RelatedCollection:
			if path == nil {
				continue
			}
			w.mapper.MapRelatedCollectionURL(doc, rel.Key, w.urls.Nested(*path, rel.Target))
		}
	}
}

func itemOperation(urls uri.Creator, path resource.Path, op operation.Operation) message.Operation {
	target := urls.Single(path)
	if op.Custom {
		target += "/" + customName(path.Name(), op)
	}
	return messageOperation(urls, target, op)
}

func collectionOperation(urls uri.Creator, collectionURL, resourceName string, op operation.Operation) message.Operation {
	target := collectionURL
	if op.Custom {
		target += "/" + customName(resourceName, op)
	}
	return messageOperation(urls, target, op)
}

func messageOperation(urls uri.Creator, target string, op operation.Operation) message.Operation {
	mo := message.Operation{
		ID:     op.Name,
		Method: op.Method,
		Target: target,
	}
	if op.Form != nil {
		mo.Expects = urls.Form(op.Form.ID())
	}
	return mo
}

func customName(resourceName string, op operation.Operation) string {
	return strings.TrimPrefix(op.Name, resourceName+"/")
}
