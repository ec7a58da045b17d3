// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package problemjson renders errors as RFC 7807 "application/problem+json".
package problemjson

import (
	"github.com/z5labs/apio/apierror"
	"github.com/z5labs/apio/message"
	"github.com/z5labs/apio/message/jsonobject"
)

// MediaType is the media type produced by this package.
const MediaType = "application/problem+json"

// Format returns a format which only renders errors.
func Format() message.Format {
	return message.Format{
		MediaType: MediaType,
		Error:     ErrorMapper{},
	}
}

// ErrorMapper implements [message.ErrorMapper]. The description is rendered
// as "detail".
type ErrorMapper struct{}

func (ErrorMapper) MediaType() string { return MediaType }

func (ErrorMapper) OnStart(*jsonobject.Object, apierror.APIError) {}

func (ErrorMapper) MapTitle(doc *jsonobject.Object, title string) {
	doc.Set("title", title)
}

func (ErrorMapper) MapDescription(doc *jsonobject.Object, description string) {
	doc.Set("detail", description)
}

func (ErrorMapper) MapType(doc *jsonobject.Object, typ string) {
	doc.Set("type", typ)
}

func (ErrorMapper) MapStatusCode(doc *jsonobject.Object, status int) {
	doc.Set("status", status)
}

func (ErrorMapper) OnFinish(*jsonobject.Object, apierror.APIError) {}
