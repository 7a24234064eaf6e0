// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package table

// Pagination is the page strip of a table view.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	PerPage     int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Pages       []Page
}

// Page is one entry of the page strip.
type Page struct {
	Number     int
	IsCurrent  bool
	IsEllipsis bool
}

// totalPages is never below 1.
func totalPages(totalItems, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	n := (totalItems + perPage - 1) / perPage
	if n < 1 {
		return 1
	}
	return n
}

func clampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// BuildPagination shows at most five pages around currentPage, plus the
// first and last page separated by an ellipsis when they fall outside.
func BuildPagination(currentPage, totalItems, perPage int) Pagination {
	total := totalPages(totalItems, perPage)
	currentPage = clampPage(currentPage, total)

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  total,
		TotalItems:  totalItems,
		PerPage:     perPage,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < total,
		PrevPage:    currentPage - 1,
		NextPage:    currentPage + 1,
	}

	start := currentPage - 2
	end := currentPage + 2
	if start < 1 {
		start = 1
		end = 5
	}
	if end > total {
		end = total
		start = max(end-4, 1)
	}

	if start > 1 {
		p.Pages = append(p.Pages, Page{Number: 1})
		if start > 2 {
			p.Pages = append(p.Pages, Page{IsEllipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		p.Pages = append(p.Pages, Page{Number: i, IsCurrent: i == currentPage})
	}
	if end < total {
		if end < total-1 {
			p.Pages = append(p.Pages, Page{IsEllipsis: true})
		}
		p.Pages = append(p.Pages, Page{Number: total})
	}
	return p
}

// ShouldShow reports whether there is more than one page.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// Range returns the 1-based item range of the current page.
func (p Pagination) Range() (first, last int) {
	if p.TotalItems == 0 {
		return 0, 0
	}
	first = (p.CurrentPage-1)*p.PerPage + 1
	last = min(p.CurrentPage*p.PerPage, p.TotalItems)
	return first, last
}
