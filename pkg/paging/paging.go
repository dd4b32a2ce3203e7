// Package paging slices already-filtered rows into fixed-size pages.
package paging

import (
	"math"
	"strconv"
)

// PageSize is fixed for every table in the console.
const PageSize = 10

// TotalPages is max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size < 1 {
		size = PageSize
	}
	p := int(math.Ceil(float64(n) / float64(size)))
	if p < 1 {
		return 1
	}
	return p
}

// Clamp keeps page within [1, total].
func Clamp(page, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Parse reads a page query value, defaulting to 1.
func Parse(raw string) int {
	p, err := strconv.Atoi(raw)
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// Page is one window over a filtered result.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// Slice returns the requested page of rows. The page number is clamped, and
// Items is never nil.
func Slice[T any](rows []T, page int) Page[T] {
	total := TotalPages(len(rows), PageSize)
	page = Clamp(page, total)
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(rows) {
		end = len(rows)
	}
	items := make([]T, 0, end-start)
	items = append(items, rows[start:end]...)
	return Page[T]{Items: items, Page: page, TotalPages: total, Total: len(rows)}
}
