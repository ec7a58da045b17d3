// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model wraps the results of route handlers.
//
// [Single] and [Page] are created per request and discarded once the
// response has been written.
package model

import (
	"github.com/z5labs/apio/operation"
	"github.com/z5labs/apio/resource"
)

// Single is one resolved item of a resource.
type Single[T any] struct {
	Model        T
	ResourceName string

	// Operations available to the caller on this item.
	Operations []operation.Operation
}

// Erase returns s with its model type erased.
func (s Single[T]) Erase() Single[any] {
	return Single[any]{
		Model:        s.Model,
		ResourceName: s.ResourceName,
		Operations:   s.Operations,
	}
}

// Items is what a page handler returns: the items of one page and the total
// number of items in the collection.
type Items[T any] struct {
	Items      []T
	TotalCount int
}

// Page is one slice of a resource collection.
type Page[T any] struct {
	ResourceName string
	Items        []T
	ItemsPerPage int
	PageNumber   int
	TotalCount   int

	// Path is set for nested collections and addresses the parent item.
	Path *resource.Path

	// Operations available to the caller on the collection.
	Operations []operation.Operation
}

// NewPage assembles a [Page] from a handler result.
func NewPage[T any](resourceName string, items Items[T], p Pagination) Page[T] {
	return Page[T]{
		ResourceName: resourceName,
		Items:        items.Items,
		ItemsPerPage: p.ItemsPerPage,
		PageNumber:   p.PageNumber,
		TotalCount:   items.TotalCount,
	}
}

// LastPageNumber is ceil(TotalCount / ItemsPerPage), or 1 for an empty
// collection.
func (p Page[T]) LastPageNumber() int {
	return lastPageNumber(p.TotalCount, p.ItemsPerPage)
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	return p.LastPageNumber() > p.PageNumber
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool {
	return p.PageNumber > 1
}

// Erase returns p with its item type erased.
func (p Page[T]) Erase() Page[any] {
	items := make([]any, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, item)
	}
	return Page[any]{
		ResourceName: p.ResourceName,
		Items:        items,
		ItemsPerPage: p.ItemsPerPage,
		PageNumber:   p.PageNumber,
		TotalCount:   p.TotalCount,
		Path:         p.Path,
		Operations:   p.Operations,
	}
}

func lastPageNumber(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// PageType selects one of the pages linked from a [Page].
type PageType int

const (
	Current PageType = iota
	First
	Last
	Next
	Previous
)

// String implements the [fmt.Stringer] interface.
func (t PageType) String() string {
	switch t {
	case Current:
		return "current"
	case First:
		return "first"
	case Last:
		return "last"
	case Next:
		return "next"
	case Previous:
		return "previous"
	default:
		return "unknown"
	}
}

// PageNumber returns the number of the page of this type relative to p.
func PageNumber[T any](t PageType, p Page[T]) int {
	last := p.LastPageNumber()
	switch t {
	case First:
		return 1
	case Last:
		return last
	case Next:
		return min(p.PageNumber+1, last)
	case Previous:
		return max(p.PageNumber-1, 1)
	default:
		return p.PageNumber
	}
}
