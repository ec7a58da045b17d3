// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package message defines the callbacks through which writers render models,
// pages and errors in a specific media type.
//
// Writers call the callbacks in a fixed order. For a single model:
//
//	OnStart
//	MapSelfURL
//	MapTypes
//	Map*Field, in field declaration order (nested fields between
//	    OnStartNested and OnFinishNested)
//	MapLinkedResourceURL / MapRelatedCollectionURL, in declaration order
//	MapOperation, once per available operation
//	OnFinish
//
// Mappers only append to the [jsonobject.Object] they are given and keep no
// state between calls.
package message

import (
	"encoding/json"

	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/message/jsonobject"
)

// Operation is an operation as it is rendered in a document.
type Operation struct {
	// ID is the operation name, e.g. "people/create".
	ID     string
	Method string

	// Target is the URL the operation is executed against.
	Target string

	// Expects is the URL of the form describing the request body, if any.
	Expects string
}

// Model describes the model being rendered.
type Model struct {
	ResourceName string
	Types        []string
}

// SingleModelMapper renders a single model.
type SingleModelMapper interface {
	MediaType() string

	OnStart(doc *jsonobject.Object, m Model)
	MapSelfURL(doc *jsonobject.Object, url string)
	MapTypes(doc *jsonobject.Object, types []string)

	MapBooleanField(doc *jsonobject.Object, key string, v bool)
	MapNumberField(doc *jsonobject.Object, key string, v json.Number)
	MapStringField(doc *jsonobject.Object, key string, v string)
	MapBooleanListField(doc *jsonobject.Object, key string, vs []bool)
	MapNumberListField(doc *jsonobject.Object, key string, vs []json.Number)
	MapStringListField(doc *jsonobject.Object, key string, vs []string)

	// MapLink renders static links, binary links and application relative
	// URLs.
	MapLink(doc *jsonobject.Object, key string, url string)

	// OnStartNested returns the object the nested fields are written to.
	OnStartNested(doc *jsonobject.Object, key string, types []string) *jsonobject.Object
	OnFinishNested(doc *jsonobject.Object, key string, nested *jsonobject.Object)
	OnFinishNestedList(doc *jsonobject.Object, key string, nested []*jsonobject.Object)

	MapLinkedResourceURL(doc *jsonobject.Object, key string, url string)
	MapRelatedCollectionURL(doc *jsonobject.Object, key string, url string)

	MapOperation(doc *jsonobject.Object, op Operation)
	OnFinish(doc *jsonobject.Object, m Model)
}

// Page describes the page being rendered.
type Page struct {
	ResourceName  string
	PageNumber    int
	ItemsPerPage  int
	NumberOfItems int
	TotalCount    int
}

// PageMapper renders a page of a collection. Writers call:
//
//	OnStart
//	MapCollectionURL
//	MapCurrentPageURL, MapFirstPageURL, MapLastPageURL
//	MapNextPageURL (only if there is a next page)
//	MapPreviousPageURL (only if there is a previous page)
//	MapItemTotalCount, MapPageCount
//	OnFinishItem, once per item rendered with ItemMapper
//	MapOperation, once per available operation
//	OnFinish
type PageMapper interface {
	MediaType() string

	OnStart(doc *jsonobject.Object, p Page)
	MapCollectionURL(doc *jsonobject.Object, url string)
	MapCurrentPageURL(doc *jsonobject.Object, url string)
	MapFirstPageURL(doc *jsonobject.Object, url string)
	MapLastPageURL(doc *jsonobject.Object, url string)
	MapNextPageURL(doc *jsonobject.Object, url string)
	MapPreviousPageURL(doc *jsonobject.Object, url string)
	MapItemTotalCount(doc *jsonobject.Object, total int)
	MapPageCount(doc *jsonobject.Object, count int)

	// ItemMapper renders each item into its own object.
	ItemMapper() SingleModelMapper
	OnFinishItem(doc *jsonobject.Object, p Page, item *jsonobject.Object)

	MapOperation(doc *jsonobject.Object, op Operation)
	OnFinish(doc *jsonobject.Object, p Page)
}

// ErrorMapper renders an [apierror.APIError]. Writers call OnStart, MapTitle,
// MapDescription (only if the error has one), MapType, MapStatusCode and
// OnFinish, in that order.
type ErrorMapper interface {
	MediaType() string

	OnStart(doc *jsonobject.Object, e apierror.APIError)
	MapTitle(doc *jsonobject.Object, title string)
	MapDescription(doc *jsonobject.Object, description string)
	MapType(doc *jsonobject.Object, typ string)
	MapStatusCode(doc *jsonobject.Object, status int)
	OnFinish(doc *jsonobject.Object, e apierror.APIError)
}
