// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// Pagination bounds for list endpoints.
const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageParams parses raw page/per_page query values into sane bounds:
// page >= 1, 1 <= perPage <= MaxPerPage, with DefaultPerPage when absent.
func PageParams(rawPage, rawPerPage string) (page, perPage int) {
	page = AtoiDefault(rawPage, 1)
	if page < 1 {
		page = 1
	}
	perPage = AtoiDefault(rawPerPage, DefaultPerPage)
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
