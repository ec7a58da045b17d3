// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package uri builds the canonical URLs of resources.
//
// The URL shapes are part of the wire contract:
//
//	{server}/p/{name}/{id}                 single resource
//	{server}/p/{name}/{id}/{nested}        nested collection
//	{server}/b/{name}/{id}/{binaryId}      binary payload
//	{server}/p/{name}                      collection
//	{collection}?page={n}&per_page={size}  collection page
//	{server}/f/{formId}                    form
package uri

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/z5labs/apio/resource"
)

// InvalidServerURLError is returned for server URLs which are not absolute
// http(s) URLs without query or fragment.
type InvalidServerURLError struct {
	URL    string
	Reason string
}

func (e InvalidServerURLError) Error() string {
	return fmt.Sprintf("invalid server url %q: %s", e.URL, e.Reason)
}

// Creator builds URLs relative to a server URL.
type Creator struct {
	server string
}

// ParseServerURL validates raw and returns a [Creator] for it. A trailing
// slash is ignored.
func ParseServerURL(raw string) (Creator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Creator{}, InvalidServerURLError{URL: raw, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Creator{}, InvalidServerURLError{URL: raw, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return Creator{}, InvalidServerURLError{URL: raw, Reason: "missing host"}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return Creator{}, InvalidServerURLError{URL: raw, Reason: "query and fragment are not allowed"}
	}
	return Creator{server: strings.TrimRight(raw, "/")}, nil
}

// MustParseServerURL is like [ParseServerURL] but panics on error.
func MustParseServerURL(raw string) Creator {
	c, err := ParseServerURL(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Server returns the server URL without trailing slash.
func (c Creator) Server() string {
	return c.server
}

// Single returns the URL of a single resource.
func (c Creator) Single(p resource.Path) string {
	return c.server + "/p/" + p.Name() + "/" + url.PathEscape(p.ID())
}

// Nested returns the URL of the nested collection of p.
func (c Creator) Nested(p resource.Path, nested string) string {
	return c.Single(p) + "/" + nested
}

// Binary returns the URL of a binary payload of p.
func (c Creator) Binary(p resource.Path, binaryID string) string {
	return c.server + "/b/" + p.Name() + "/" + url.PathEscape(p.ID()) + "/" + binaryID
}

// Collection returns the URL of a resource collection.
func (c Creator) Collection(name string) string {
	return c.server + "/p/" + name
}

// Form returns the URL of a form.
func (c Creator) Form(id string) string {
	return c.server + "/f/" + id
}

// Relative resolves an application relative URL like "/docs/people".
func (c Creator) Relative(rel string) string {
	return c.server + "/" + strings.TrimLeft(rel, "/")
}

// Page returns the URL of a single page of a collection.
func Page(collectionURL string, page, itemsPerPage int) string {
	return collectionURL + "?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(itemsPerPage)
}
