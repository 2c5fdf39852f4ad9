// Copyright (c) 2026 Kanso. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides offset pagination primitives for list endpoints.
package pagination

import (
	"net/http"

	"github.com/taibuivan/kanso/internal/platform/constants"
	"github.com/taibuivan/kanso/internal/platform/request"
)

// Params carries the page window requested by a client.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Meta describes the full result set a page was cut from.
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// Page wraps a page of items with its pagination metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// FromRequest parses page and page_size query parameters, clamping them to
// sane bounds.
func FromRequest(r *http.Request) Params {
	p := Params{
		Page:     request.QueryInt(r, "page", 1),
		PageSize: request.QueryInt(r, "page_size", constants.DefaultPageSize),
	}
	return p.Normalize()
}

// Normalize clamps out-of-range values.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = constants.DefaultPageSize
	}
	if p.PageSize > constants.MaxPageSize {
		p.PageSize = constants.MaxPageSize
	}
	return p
}

// Offset returns the SQL OFFSET for the window.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the SQL LIMIT for the window.
func (p Params) Limit() int {
	return p.PageSize
}

// NewPage builds a Page from items and the total row count.
func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	return Page[T]{
		Items: items,
		Meta: Meta{
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}
}
