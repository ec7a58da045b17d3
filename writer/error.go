// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package writer

import (
	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/jsonobject"
)

// ErrorWriter renders an [apierror.APIError].
type ErrorWriter struct {
	Error  apierror.APIError
	Mapper message.ErrorMapper
}

// Write renders the error. The description is only mapped when present.
func (w ErrorWriter) Write() (string, error) {
	doc := jsonobject.New()
	w.Mapper.OnStart(doc, w.Error)
	w.Mapper.MapTitle(doc, w.Error.Title)
	if w.Error.HasDescription() {
		w.Mapper.MapDescription(doc, w.Error.Description)
	}
	w.Mapper.MapType(doc, w.Error.Type)
	w.Mapper.MapStatusCode(doc, w.Error.StatusCode)
	w.Mapper.OnFinish(doc, w.Error)
	return doc.Render()
}
