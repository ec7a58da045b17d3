// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package message

import (
	"cmp"
	"errors"
	"fmt"
	"mime"
	"slices"
	"strconv"
	"strings"
)

// Format groups the mappers of one media type. Formats which only render
// errors, like problem+json, leave Single and Page nil.
type Format struct {
	MediaType string
	Single    SingleModelMapper
	Page      PageMapper
	Error     ErrorMapper
}

// NotAcceptableError is returned when an Accept header only lists media types
// no registered format produces.
type NotAcceptableError struct {
	Accept string
}

func (e NotAcceptableError) Error() string {
	return fmt.Sprintf("no format matches accept header: %s", e.Accept)
}

// UnknownFallbackError is returned when a fallback media type has no format.
type UnknownFallbackError struct {
	MediaType string
}

func (e UnknownFallbackError) Error() string {
	return "no format registered for fallback media type: " + e.MediaType
}

// DuplicateFormatError is returned when two formats share a media type.
type DuplicateFormatError struct {
	MediaType string
}

func (e DuplicateFormatError) Error() string {
	return "duplicate format for media type: " + e.MediaType
}

// NegotiatorOptions configure a [Negotiator].
type NegotiatorOptions struct {
	documentFallback string
	errorFallback    string
}

// NegotiatorOption sets a value on [NegotiatorOptions].
type NegotiatorOption func(*NegotiatorOptions)

// DocumentFallback sets the media type used for models and pages when the
// client accepts anything. Defaults to "application/json".
func DocumentFallback(mediaType string) NegotiatorOption {
	return func(no *NegotiatorOptions) {
		no.documentFallback = mediaType
	}
}

// ErrorFallback sets the media type used for errors when the client accepts
// anything. Defaults to "application/problem+json".
func ErrorFallback(mediaType string) NegotiatorOption {
	return func(no *NegotiatorOptions) {
		no.errorFallback = mediaType
	}
}

// Negotiator selects mappers for an Accept header.
//
// Media ranges are tried in descending q order, ties keeping header order.
// A range matches a format when the media types are equal, parameters other
// than q are ignored. An empty header, "*/*" or a "type/*" range covering the
// fallback selects the fallback. A header which only lists unsupported types
// yields a [NotAcceptableError].
type Negotiator struct {
	documents map[string]Format
	errors    map[string]ErrorMapper

	documentFallback string
	errorFallback    string
}

// NewNegotiator returns a [Negotiator] over formats.
func NewNegotiator(formats []Format, opts ...NegotiatorOption) (*Negotiator, error) {
	no := &NegotiatorOptions{
		documentFallback: "application/json",
		errorFallback:    "application/problem+json",
	}
	for _, opt := range opts {
		opt(no)
	}

	n := &Negotiator{
		documents:        make(map[string]Format),
		errors:           make(map[string]ErrorMapper),
		documentFallback: no.documentFallback,
		errorFallback:    no.errorFallback,
	}

	var errs []error
	seen := make(map[string]bool, len(formats))
	for _, f := range formats {
		if seen[f.MediaType] {
			errs = append(errs, DuplicateFormatError{MediaType: f.MediaType})
			continue
		}
		seen[f.MediaType] = true

		if f.Single != nil && f.Page != nil {
			n.documents[f.MediaType] = f
		}
		if f.Error != nil {
			n.errors[f.MediaType] = f.Error
		}
	}
	if _, ok := n.documents[n.documentFallback]; !ok {
		errs = append(errs, UnknownFallbackError{MediaType: n.documentFallback})
	}
	if _, ok := n.errors[n.errorFallback]; !ok {
		errs = append(errs, UnknownFallbackError{MediaType: n.errorFallback})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return n, nil
}

// Document returns the format used to render models and pages.
func (n *Negotiator) Document(accept string) (Format, error) {
	mediaType, err := negotiate(accept, n.documentFallback, func(mt string) bool {
		_, ok := n.documents[mt]
		return ok
	})
	if err != nil {
		return Format{}, err
	}
	return n.documents[mediaType], nil
}

// Error returns the mapper used to render errors.
func (n *Negotiator) Error(accept string) (ErrorMapper, error) {
	mediaType, err := negotiate(accept, n.errorFallback, func(mt string) bool {
		_, ok := n.errors[mt]
		return ok
	})
	if err != nil {
		return nil, err
	}
	return n.errors[mediaType], nil
}

// MediaTypes returns the media types models and pages can be rendered in.
func (n *Negotiator) MediaTypes() []string {
	mts := make([]string, 0, len(n.documents))
	for mt := range n.documents {
		mts = append(mts, mt)
	}
	slices.Sort(mts)
	return mts
}

type mediaRange struct {
	mediaType string
	q         float64
}

func negotiate(accept, fallback string, supported func(string) bool) (string, error) {
	if strings.TrimSpace(accept) == "" {
		return fallback, nil
	}

	ranges := parseAccept(accept)
	for _, r := range ranges {
		if supported(r.mediaType) {
			return r.mediaType, nil
		}
		if covers(r.mediaType, fallback) {
			return fallback, nil
		}
	}
	return "", NotAcceptableError{Accept: accept}
}

func covers(mediaRange, mediaType string) bool {
	if mediaRange == "*/*" {
		return true
	}
	typ, ok := strings.CutSuffix(mediaRange, "/*")
	if !ok {
		return false
	}
	return strings.HasPrefix(mediaType, typ+"/")
}

func parseAccept(accept string) []mediaRange {
	var ranges []mediaRange
	for _, part := range strings.Split(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		q := 1.0
		if s, ok := params["q"]; ok {
			q, err = strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
		}
		if q <= 0 {
			continue
		}
		ranges = append(ranges, mediaRange{mediaType: mt, q: q})
	}
	slices.SortStableFunc(ranges, func(a, b mediaRange) int {
		return cmp.Compare(b.q, a.q)
	})
	return ranges
}
