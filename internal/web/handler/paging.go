package handler

import "github.com/gofiber/fiber/v2"

// Page is a paginated list response.
type Page[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// Paginate slices items according to the page and pageSize query parameters.
func Paginate[T any](c *fiber.Ctx, items []T) Page[T] {
	page, pageSize := paginationParams(c)
	totalPages, page := totalPagesAndAdjust(len(items), pageSize, page)
	start, end := pageSliceBounds(len(items), pageSize, page)

	out := items[start:end]
	if out == nil {
		out = []T{}
	}

	return Page[T]{
		Items:       out,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  len(items),
		TotalPages:  totalPages,
	}
}

// paginationParams parses and normalizes page and pageSize query parameters.
func paginationParams(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}

// totalPagesAndAdjust computes total pages and moves page into range.
func totalPagesAndAdjust(totalItems, pageSize, page int) (int, int) {
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	return totalPages, page
}

// pageSliceBounds calculates start and end indices for slicing a page.
func pageSliceBounds(totalItems, pageSize, page int) (int, int) {
	start := (page - 1) * pageSize
	end := min(start+pageSize, totalItems)
	start = max(0, min(start, end))

	return start, end
}
