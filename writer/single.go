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

// SingleModelWriter renders one resolved model.
type SingleModelWriter struct {
	Model  model.Single[any]
	Mapper message.SingleModelMapper
	Lookup Lookup
	URLs   uri.Creator

	// Language selects the value of localized string fields.
	Language language.Tag
}

// Write renders the model. It reports false, without error, when the
// representor of the resource or the path of the model cannot be resolved.
// Callers treat that as a retrieval miss.
func (w SingleModelWriter) Write() (string, bool, error) {
	mw := modelWriter{
		mapper:   w.Mapper,
		lookup:   w.Lookup,
		urls:     w.URLs,
		language: w.Language,
	}

	doc := jsonobject.New()
	ok := mw.write(doc, w.Model.ResourceName, w.Model.Model, w.Model.Operations)
	if !ok {
		return "", false, nil
	}
	s, err := doc.Render()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}
