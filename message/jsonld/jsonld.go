// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package jsonld renders documents as "application/ld+json" using the
// schema.org vocabulary and Hydra for collections and operations.
//
// Every link key is declared in the document's "@context" as an IRI, so
// clients can tell links from plain strings.
package jsonld

import (
	"encoding/json"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/jsonobject"
)

// MediaType is the media type produced by this package.
const MediaType = "application/ld+json"

const (
	vocab = "http://schema.org/"
	hydra = "https://www.w3.org/ns/hydra/core#"
)

// Format returns the JSON-LD mappers.
func Format() message.Format {
	return message.Format{
		MediaType: MediaType,
		Single:    SingleModelMapper{},
		Page:      PageMapper{},
		Error:     ErrorMapper{},
	}
}

func startContext(doc *jsonobject.Object) {
	ctx := doc.Object("@context")
	ctx.Set("@vocab", vocab)
	ctx.Set("hydra", hydra)
}

func iri(doc *jsonobject.Object, key, url string) {
	term := jsonobject.New()
	term.Set("@type", "@id")
	doc.Object("@context").Set(key, term)
	doc.Set(key, url)
}

func operation(doc *jsonobject.Object, op message.Operation) {
	o := jsonobject.New()
	o.Set("@id", "_:"+op.ID)
	o.Set("@type", "hydra:Operation")
	o.Set("hydra:method", op.Method)
	if op.Target != "" {
		o.Set("hydra:target", op.Target)
	}
	if op.Expects != "" {
		o.Set("hydra:expects", op.Expects)
	}
	doc.Append("hydra:operation", o)
}

// SingleModelMapper implements [message.SingleModelMapper].
type SingleModelMapper struct{}

func (SingleModelMapper) MediaType() string { return MediaType }

func (SingleModelMapper) OnStart(doc *jsonobject.Object, _ message.Model) {
	startContext(doc)
}

func (SingleModelMapper) MapSelfURL(doc *jsonobject.Object, url string) {
	doc.Set("@id", url)
}

func (SingleModelMapper) MapTypes(doc *jsonobject.Object, types []string) {
	if len(types) == 0 {
		return
	}
	doc.Set("@type", types)
}

func (SingleModelMapper) MapBooleanField(doc *jsonobject.Object, key string, v bool) {
	doc.Set(key, v)
}

func (SingleModelMapper) MapNumberField(doc *jsonobject.Object, key string, v json.Number) {
	doc.Set(key, v)
}

func (SingleModelMapper) MapStringField(doc *jsonobject.Object, key string, v string) {
	doc.Set(key, v)
}

func (SingleModelMapper) MapBooleanListField(doc *jsonobject.Object, key string, vs []bool) {
	doc.Set(key, list(vs))
}

func (SingleModelMapper) MapNumberListField(doc *jsonobject.Object, key string, vs []json.Number) {
	doc.Set(key, list(vs))
}

func (SingleModelMapper) MapStringListField(doc *jsonobject.Object, key string, vs []string) {
	doc.Set(key, list(vs))
}

func (SingleModelMapper) MapLink(doc *jsonobject.Object, key string, url string) {
	iri(doc, key, url)
}

func (SingleModelMapper) OnStartNested(_ *jsonobject.Object, _ string, types []string) *jsonobject.Object {
	nested := jsonobject.New()
	if len(types) > 0 {
		nested.Set("@type", types)
	}
	return nested
}

func (SingleModelMapper) OnFinishNested(doc *jsonobject.Object, key string, nested *jsonobject.Object) {
	doc.Set(key, nested)
}

func (SingleModelMapper) OnFinishNestedList(doc *jsonobject.Object, key string, nested []*jsonobject.Object) {
	doc.Set(key, list(nested))
}

func (SingleModelMapper) MapLinkedResourceURL(doc *jsonobject.Object, key string, url string) {
	iri(doc, key, url)
}

func (SingleModelMapper) MapRelatedCollectionURL(doc *jsonobject.Object, key string, url string) {
	iri(doc, key, url)
}

func (SingleModelMapper) MapOperation(doc *jsonobject.Object, op message.Operation) {
	operation(doc, op)
}

func (SingleModelMapper) OnFinish(*jsonobject.Object, message.Model) {}

// PageMapper implements [message.PageMapper] as a hydra:Collection whose
// pagination links live in a hydra:PartialCollectionView.
type PageMapper struct{}

func (PageMapper) MediaType() string { return MediaType }

func (PageMapper) OnStart(doc *jsonobject.Object, _ message.Page) {
	startContext(doc)
	doc.Set("@type", "hydra:Collection")
}

func (PageMapper) MapCollectionURL(doc *jsonobject.Object, url string) {
	doc.Set("@id", url)
}

func view(doc *jsonobject.Object) *jsonobject.Object {
	v := doc.Object("hydra:view")
	if _, ok := v.Get("@type"); !ok {
		v.Set("@type", "hydra:PartialCollectionView")
	}
	return v
}

func (PageMapper) MapCurrentPageURL(doc *jsonobject.Object, url string) {
	v := view(doc)
	v.Set("@id", url)
}

func (PageMapper) MapFirstPageURL(doc *jsonobject.Object, url string) {
	view(doc).Set("hydra:first", url)
}

func (PageMapper) MapLastPageURL(doc *jsonobject.Object, url string) {
	view(doc).Set("hydra:last", url)
}

func (PageMapper) MapNextPageURL(doc *jsonobject.Object, url string) {
	view(doc).Set("hydra:next", url)
}

func (PageMapper) MapPreviousPageURL(doc *jsonobject.Object, url string) {
	view(doc).Set("hydra:previous", url)
}

func (PageMapper) MapItemTotalCount(doc *jsonobject.Object, total int) {
	doc.Set("hydra:totalItems", total)
}

func (PageMapper) MapPageCount(doc *jsonobject.Object, count int) {
	doc.Set("numberOfItems", count)
}

func (PageMapper) ItemMapper() message.SingleModelMapper {
	return SingleModelMapper{}
}

func (PageMapper) OnFinishItem(doc *jsonobject.Object, _ message.Page, item *jsonobject.Object) {
	doc.Append("hydra:member", item)
}

func (PageMapper) MapOperation(doc *jsonobject.Object, op message.Operation) {
	operation(doc, op)
}

func (PageMapper) OnFinish(doc *jsonobject.Object, _ message.Page) {
	if _, ok := doc.Get("hydra:member"); !ok {
		doc.Set("hydra:member", []any{})
	}
}

// ErrorMapper implements [message.ErrorMapper].
type ErrorMapper struct{}

func (ErrorMapper) MediaType() string { return MediaType }

func (ErrorMapper) OnStart(doc *jsonobject.Object, _ apierror.APIError) {
	startContext(doc)
	doc.Set("@type", "hydra:Error")
}

func (ErrorMapper) MapTitle(doc *jsonobject.Object, title string) {
	doc.Set("title", title)
}

func (ErrorMapper) MapDescription(doc *jsonobject.Object, description string) {
	doc.Set("description", description)
}

func (ErrorMapper) MapType(doc *jsonobject.Object, typ string) {
	doc.Set("type", typ)
}

func (ErrorMapper) MapStatusCode(doc *jsonobject.Object, status int) {
	doc.Set("statusCode", status)
}

func (ErrorMapper) OnFinish(*jsonobject.Object, apierror.APIError) {}

func list[T any](vs []T) []T {
	if vs == nil {
		return []T{}
	}
	return vs
}
