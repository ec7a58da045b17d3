// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writer

import (
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/jsonobject"
	"github.com/z5labs/apio/model"
	"github.com/z5labs/apio/uri"

	"golang.org/x/text/language"
)

// PageWriter renders one page of a collection.
type PageWriter struct {
	Page   model.Page[any]
	Mapper message.PageMapper
	Lookup Lookup
	URLs   uri.Creator

	// Language selects the value of localized string fields.
	Language language.Tag
}

// Write renders the page. Items whose path cannot be resolved are left out.
func (w PageWriter) Write() (string, error) {
	p := w.Page
	info := message.Page{
		ResourceName:  p.ResourceName,
		PageNumber:    p.PageNumber,
		ItemsPerPage:  p.ItemsPerPage,
		NumberOfItems: len(p.Items),
		TotalCount:    p.TotalCount,
	}

	collectionURL := w.URLs.Collection(p.ResourceName)
	if p.Path != nil {
		collectionURL = w.URLs.Nested(*p.Path, p.ResourceName)
	}
	pageURL := func(t model.PageType) string {
		return uri.Page(collectionURL, model.PageNumber(t, p), p.ItemsPerPage)
	}

	doc := jsonobject.New()
	w.Mapper.OnStart(doc, info)
	w.Mapper.MapCollectionURL(doc, collectionURL)
	w.Mapper.MapCurrentPageURL(doc, pageURL(model.Current))
	w.Mapper.MapFirstPageURL(doc, pageURL(model.First))
	w.Mapper.MapLastPageURL(doc, pageURL(model.Last))
	if p.HasNext() {
		w.Mapper.MapNextPageURL(doc, pageURL(model.Next))
	}
	if p.HasPrevious() {
		w.Mapper.MapPreviousPageURL(doc, pageURL(model.Previous))
	}
	w.Mapper.MapItemTotalCount(doc, p.TotalCount)
	w.Mapper.MapPageCount(doc, len(p.Items))

	mw := modelWriter{
		mapper:   w.Mapper.ItemMapper(),
		lookup:   w.Lookup,
		urls:     w.URLs,
		language: w.Language,
	}
	for _, item := range p.Items {
		itemDoc := jsonobject.New()
		if !mw.write(itemDoc, p.ResourceName, item, nil) {
			continue
		}
		w.Mapper.OnFinishItem(doc, info, itemDoc)
	}

	for _, op := range p.Operations {
		w.Mapper.MapOperation(doc, collectionOperation(w.URLs, collectionURL, p.ResourceName, op))
	}
	w.Mapper.OnFinish(doc, info)

	return doc.Render()
}
