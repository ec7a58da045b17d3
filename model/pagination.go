// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"fmt"
	"math"

	"github.com/z5labs/apio/apierror"
)

// Pagination is the page a client asked for.
type Pagination struct {
	ItemsPerPage int
	PageNumber   int
}

// InvalidPaginationError describes a page request outside the allowed bounds.
type InvalidPaginationError struct {
	ItemsPerPage int
	PageNumber   int
	Max          int
}

func (e InvalidPaginationError) Error() string {
	return fmt.Sprintf(
		"invalid pagination: page=%d per_page=%d (page must be >= 1 with an offset fitting an int, per_page must be in [1, %d])",
		e.PageNumber,
		e.ItemsPerPage,
		e.Max,
	)
}

// NewPagination validates a page request. maxItemsPerPage bounds the items per page; a
// non-positive bound disables the bound. Violations are reported as an
// [apierror.BadRequestError], as is a page whose offset would overflow an int.
func NewPagination(itemsPerPage, pageNumber, maxItemsPerPage int) (Pagination, error) {
	invalid := itemsPerPage < 1 ||
		pageNumber < 1 ||
		(maxItemsPerPage > 0 && itemsPerPage > maxItemsPerPage) ||
		pageNumber > math.MaxInt/itemsPerPage
	if invalid {
		return Pagination{}, apierror.BadRequestError{
			Cause: InvalidPaginationError{
				ItemsPerPage: itemsPerPage,
				PageNumber:   pageNumber,
				Max:          maxItemsPerPage,
			},
		}
	}
	return Pagination{ItemsPerPage: itemsPerPage, PageNumber: pageNumber}, nil
}

// Offset is the zero based index of the first item on the page.
func (p Pagination) Offset() int {
	return (p.PageNumber - 1) * p.ItemsPerPage
}

// Limit is the maximum number of items on the page.
func (p Pagination) Limit() int {
	return p.ItemsPerPage
}
