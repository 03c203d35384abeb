// Package pagination derives the visible window of a list from a 1-indexed
// page cursor and a page size.
package pagination

// MaxPageNumbers is the widest page selector window.
const MaxPageNumbers = 5

// Page is the visible slice of a list plus its paging totals.
type Page[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// TotalPages returns ceil(totalItems/itemsPerPage), 0 for an empty list.
func TotalPages(totalItems, itemsPerPage int) int {
	if totalItems <= 0 || itemsPerPage <= 0 {
		return 0
	}
	return (totalItems-1)/itemsPerPage + 1
}

// ClampPage forces page into [1, totalPages]. With no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if totalPages <= 0 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns items[(page-1)*size : page*size] clipped to the list length.
// The page cursor is used as given; an out of range page yields an empty slice.
func Paginate[T any](items []T, currentPage, itemsPerPage int) Page[T] {
	total := len(items)
	p := Page[T]{
		Items:       []T{},
		CurrentPage: currentPage,
		TotalPages:  TotalPages(total, itemsPerPage),
		TotalItems:  total,
	}
	if itemsPerPage <= 0 || currentPage < 1 || currentPage > p.TotalPages {
		return p
	}

	start := (currentPage - 1) * itemsPerPage
	if start >= total {
		return p
	}
	end := start + itemsPerPage
	if end > total {
		end = total
	}
	p.Items = append(p.Items, items[start:end]...)
	return p
}

// PageNumbers returns up to MaxPageNumbers page numbers centred on currentPage,
// slid inward near the boundaries so exactly min(MaxPageNumbers, totalPages)
// numbers are returned.
func PageNumbers(currentPage, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	current := ClampPage(currentPage, totalPages)

	count := MaxPageNumbers
	if totalPages < count {
		count = totalPages
	}

	start := current - count/2
	if start < 1 {
		start = 1
	}
	if start+count-1 > totalPages {
		start = totalPages - count + 1
	}

	numbers := make([]int, count)
	for i := range numbers {
		numbers[i] = start + i
	}
	return numbers
}
