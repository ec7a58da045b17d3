// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package plainjson renders documents as "application/json".
//
// A single model is a flat object: its self URL under "self", then every
// field and link in declaration order. Types and operations are not rendered.
//
//	{"self":"http://localhost:8080/p/people/42","givenName":"Ada"}
package plainjson

import (
	"encoding/json"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/jsonobject"
)

// MediaType is the media type produced by this package.
const MediaType = "application/json"

// Format returns the plain JSON mappers.
func Format() message.Format {
	return message.Format{
		MediaType: MediaType,
		Single:    SingleModelMapper{},
		Page:      PageMapper{},
		Error:     ErrorMapper{},
	}
}

// SingleModelMapper implements [message.SingleModelMapper].
type SingleModelMapper struct{}

func (SingleModelMapper) MediaType() string { return MediaType }

func (SingleModelMapper) OnStart(*jsonobject.Object, message.Model) {}

func (SingleModelMapper) MapSelfURL(doc *jsonobject.Object, url string) {
	doc.Set("self", url)
}

func (SingleModelMapper) MapTypes(*jsonobject.Object, []string) {}

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
	doc.Set(key, nonNil(vs))
}

func (SingleModelMapper) MapNumberListField(doc *jsonobject.Object, key string, vs []json.Number) {
	doc.Set(key, nonNil(vs))
}

func (SingleModelMapper) MapStringListField(doc *jsonobject.Object, key string, vs []string) {
	doc.Set(key, nonNil(vs))
}

func (SingleModelMapper) MapLink(doc *jsonobject.Object, key string, url string) {
	doc.Set(key, url)
}

func (SingleModelMapper) OnStartNested(*jsonobject.Object, string, []string) *jsonobject.Object {
	return jsonobject.New()
}

func (SingleModelMapper) OnFinishNested(doc *jsonobject.Object, key string, nested *jsonobject.Object) {
	doc.Set(key, nested)
}

func (SingleModelMapper) OnFinishNestedList(doc *jsonobject.Object, key string, nested []*jsonobject.Object) {
	doc.Set(key, nonNil(nested))
}

func (SingleModelMapper) MapLinkedResourceURL(doc *jsonobject.Object, key string, url string) {
	doc.Set(key, url)
}

func (SingleModelMapper) MapRelatedCollectionURL(doc *jsonobject.Object, key string, url string) {
	doc.Set(key, url)
}

func (SingleModelMapper) MapOperation(*jsonobject.Object, message.Operation) {}

func (SingleModelMapper) OnFinish(*jsonobject.Object, message.Model) {}

// PageMapper implements [message.PageMapper].
//
//	{
//	  "collection": ".../p/people",
//	  "self": "...?page=2&per_page=10",
//	  "totalNumberOfItems": 25,
//	  "numberOfItems": 10,
//	  "pages": {"first": "...", "last": "...", "next": "...", "prev": "..."},
//	  "elements": [...]
//	}
type PageMapper struct{}

func (PageMapper) MediaType() string { return MediaType }

func (PageMapper) OnStart(*jsonobject.Object, message.Page) {}

func (PageMapper) MapCollectionURL(doc *jsonobject.Object, url string) {
	doc.Set("collection", url)
}

func (PageMapper) MapCurrentPageURL(doc *jsonobject.Object, url string) {
	doc.Set("self", url)
}

func (PageMapper) MapFirstPageURL(doc *jsonobject.Object, url string) {
	doc.Object("pages").Set("first", url)
}

func (PageMapper) MapLastPageURL(doc *jsonobject.Object, url string) {
	doc.Object("pages").Set("last", url)
}

func (PageMapper) MapNextPageURL(doc *jsonobject.Object, url string) {
	doc.Object("pages").Set("next", url)
}

func (PageMapper) MapPreviousPageURL(doc *jsonobject.Object, url string) {
	doc.Object("pages").Set("prev", url)
}

func (PageMapper) MapItemTotalCount(doc *jsonobject.Object, total int) {
	doc.Set("totalNumberOfItems", total)
}

func (PageMapper) MapPageCount(doc *jsonobject.Object, count int) {
	doc.Set("numberOfItems", count)
}

func (PageMapper) ItemMapper() message.SingleModelMapper {
	return SingleModelMapper{}
}

func (PageMapper) OnFinishItem(doc *jsonobject.Object, _ message.Page, item *jsonobject.Object) {
	doc.Append("elements", item)
}

func (PageMapper) MapOperation(*jsonobject.Object, message.Operation) {}

func (PageMapper) OnFinish(doc *jsonobject.Object, _ message.Page) {
	if _, ok := doc.Get("elements"); !ok {
		doc.Set("elements", []any{})
	}
}

// ErrorMapper implements [message.ErrorMapper].
type ErrorMapper struct{}

func (ErrorMapper) MediaType() string { return MediaType }

func (ErrorMapper) OnStart(*jsonobject.Object, apierror.APIError) {}

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
	doc.Set("status", status)
}

func (ErrorMapper) OnFinish(*jsonobject.Object, apierror.APIError) {}

func nonNil[T any](vs []T) []T {
	if vs == nil {
		return []T{}
	}
	return vs
}
