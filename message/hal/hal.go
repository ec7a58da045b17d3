// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package hal renders documents as "application/hal+json".
//
// Links, including self and pagination links, are rendered under "_links" as
// {"href": url} objects. Nested models and page items are embedded under
// "_embedded".
package hal

import (
	"encoding/json"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/jsonobject"
)

// MediaType is the media type produced by this package.
const MediaType = "application/hal+json"

// Format returns the HAL mappers.
func Format() message.Format {
	return message.Format{
		MediaType: MediaType,
		Single:    SingleModelMapper{},
		Page:      PageMapper{},
		Error:     ErrorMapper{},
	}
}

func link(doc *jsonobject.Object, rel, url string) {
	doc.Path("_links", rel).Set("href", url)
}

// SingleModelMapper implements [message.SingleModelMapper].
type SingleModelMapper struct{}

func (SingleModelMapper) MediaType() string { return MediaType }

func (SingleModelMapper) OnStart(*jsonobject.Object, message.Model) {}

func (SingleModelMapper) MapSelfURL(doc *jsonobject.Object, url string) {
	link(doc, "self", url)
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
	doc.Set(key, orEmpty(vs))
}

func (SingleModelMapper) MapNumberListField(doc *jsonobject.Object, key string, vs []json.Number) {
	doc.Set(key, orEmpty(vs))
}

func (SingleModelMapper) MapStringListField(doc *jsonobject.Object, key string, vs []string) {
	doc.Set(key, orEmpty(vs))
}

func (SingleModelMapper) MapLink(doc *jsonobject.Object, key string, url string) {
	link(doc, key, url)
}

func (SingleModelMapper) OnStartNested(*jsonobject.Object, string, []string) *jsonobject.Object {
	return jsonobject.New()
}

func (SingleModelMapper) OnFinishNested(doc *jsonobject.Object, key string, nested *jsonobject.Object) {
	doc.Object("_embedded").Set(key, nested)
}

func (SingleModelMapper) OnFinishNestedList(doc *jsonobject.Object, key string, nested []*jsonobject.Object) {
	doc.Object("_embedded").Set(key, orEmpty(nested))
}

func (SingleModelMapper) MapLinkedResourceURL(doc *jsonobject.Object, key string, url string) {
	link(doc, key, url)
}

func (SingleModelMapper) MapRelatedCollectionURL(doc *jsonobject.Object, key string, url string) {
	link(doc, key, url)
}

// MapOperation is a no-op, HAL has no notion of operations.
func (SingleModelMapper) MapOperation(*jsonobject.Object, message.Operation) {}

func (SingleModelMapper) OnFinish(*jsonobject.Object, message.Model) {}

// PageMapper implements [message.PageMapper]. Items are embedded under the
// resource name.
type PageMapper struct{}

func (PageMapper) MediaType() string { return MediaType }

func (PageMapper) OnStart(*jsonobject.Object, message.Page) {}

func (PageMapper) MapCollectionURL(doc *jsonobject.Object, url string) {
	link(doc, "collection", url)
}

func (PageMapper) MapCurrentPageURL(doc *jsonobject.Object, url string) {
	link(doc, "self", url)
}

func (PageMapper) MapFirstPageURL(doc *jsonobject.Object, url string) {
	link(doc, "first", url)
}

func (PageMapper) MapLastPageURL(doc *jsonobject.Object, url string) {
	link(doc, "last", url)
}

func (PageMapper) MapNextPageURL(doc *jsonobject.Object, url string) {
	link(doc, "next", url)
}

func (PageMapper) MapPreviousPageURL(doc *jsonobject.Object, url string) {
	link(doc, "prev", url)
}

func (PageMapper) MapItemTotalCount(doc *jsonobject.Object, total int) {
	doc.Set("total", total)
}

func (PageMapper) MapPageCount(doc *jsonobject.Object, count int) {
	doc.Set("count", count)
}

func (PageMapper) ItemMapper() message.SingleModelMapper {
	return SingleModelMapper{}
}

func (PageMapper) OnFinishItem(doc *jsonobject.Object, p message.Page, item *jsonobject.Object) {
	doc.Object("_embedded").Append(p.ResourceName, item)
}

func (PageMapper) MapOperation(*jsonobject.Object, message.Operation) {}

func (PageMapper) OnFinish(doc *jsonobject.Object, p message.Page) {
	embedded := doc.Object("_embedded")
	if _, ok := embedded.Get(p.ResourceName); !ok {
		embedded.Set(p.ResourceName, []any{})
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

func orEmpty[T any](vs []T) []T {
	if vs == nil {
		return []T{}
	}
	return vs
}
