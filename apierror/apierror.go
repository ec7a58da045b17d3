// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package apierror normalizes errors into documents which can be rendered by
// any message mapper.
//
// Route handlers return plain Go errors. Before an error reaches the client it
// is converted into an [APIError] by a [Converters] registry which matches
// converters against the dynamic type of each error in the wrap chain, from
// the outermost error inwards. Errors without a matching converter anywhere in
// their chain become a generic 500 Internal Server Error.
package apierror

// APIError is the normalized form of an error. It is immutable once created.
type APIError struct {
	Err         error
	Title       string
	Description string
	Type        string
	StatusCode  int
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Title
}

// Unwrap returns the error this APIError was converted from.
func (e APIError) Unwrap() error {
	return e.Err
}

// HasDescription reports whether the error carries a description.
// Mappers must not emit a description field when it is absent.
func (e APIError) HasDescription() bool {
	return e.Description != ""
}

// ProblemDetail lets route handlers fully control the rendered error.
// Embed it in a custom error type, or return it directly, and it will be
// converted without consulting any registered converter.
//
// Example:
//
//	return apierror.ProblemDetail{
//	    Type:   "out-of-stock",
//	    Title:  "Out of stock",
//	    Status: http.StatusConflict,
//	    Detail: "item 42 is no longer available",
//	}
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error implements the error interface.
// Returns the Detail field if present, otherwise returns the Title.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

type problemDetailer interface {
	problemDetail() ProblemDetail
}

func (p ProblemDetail) problemDetail() ProblemDetail {
	return p
}
