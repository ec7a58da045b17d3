// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package operation models the actions a resource supports.
package operation

import (
	"context"
	"net/http"

	"github.com/z5labs/apio/form"
)

// Operation is a named, HTTP method tagged action. Operations are created
// while registering routes and never change afterwards.
type Operation struct {
	// Name is unique within a resource, e.g. "people/create".
	Name   string
	Method string

	// Collection reports whether the operation targets the collection
	// rather than a single item.
	Collection bool

	// Custom reports whether the operation is a named custom action.
	Custom bool

	// Form describes the expected request body, if any.
	Form *form.Form
}

// Default operation names are formatted as "{resource}/{action}".
const (
	ActionRetrieve = "retrieve"
	ActionCreate   = "create"
	ActionReplace  = "replace"
	ActionRemove   = "remove"
)

// Name formats the name of an action on a resource.
func Name(resourceName, action string) string {
	return resourceName + "/" + action
}

// IsRetrieve reports whether op is a default, side effect free retrieve.
// These are implied by the document itself and are never listed as
// available operations.
func (op Operation) IsRetrieve() bool {
	return !op.Custom && op.Method == http.MethodGet
}

// Check is everything a [Permission] may base its decision on.
type Check struct {
	// Credentials identify the caller. They are opaque to this module.
	Credentials any
	Operation   Operation

	// Identifier is the decoded identifier of the targeted item. It is nil
	// for collection operations.
	Identifier any
}

// Permission decides whether the caller may execute an operation. A false
// result prevents the operation's handler from being invoked.
type Permission func(context.Context, Check) (bool, error)

// AllowAll permits every caller.
func AllowAll(context.Context, Check) (bool, error) {
	return true, nil
}

// DenyAll rejects every caller.
func DenyAll(context.Context, Check) (bool, error) {
	return false, nil
}
