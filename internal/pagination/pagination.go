// Package pagination slices an ordered todo snapshot into pages. It holds
// no state: every request recomputes the page from the snapshot it is
// given, because the underlying list may have changed between a page being
// rendered and a navigation button being pressed.
package pagination

import "github.com/m3rciful/todobot/internal/domain"

// DefaultPageSize is the number of todos rendered per page.
const DefaultPageSize = 5

// Page describes one rendered slice of a todo listing plus the navigation
// affordances around it.
type Page struct {
	Items      []domain.Todo
	Number     int
	TotalPages int
	TotalItems int

	HasPrevious bool
	HasNext     bool
	// Previous and Next are the adjacent page numbers; only meaningful
	// when the corresponding Has flag is true.
	Previous int
	Next     int
}

// Empty reports whether the snapshot had no items at all.
func (p Page) Empty() bool {
	return p.TotalItems == 0
}

// Paginate clamps the requested page into [1, totalPages] and slices the
// snapshot. A non-positive pageSize falls back to DefaultPageSize. An
// empty snapshot short-circuits to a single empty page with no navigation.
func Paginate(todos []domain.Todo, requested, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(todos)
	if total == 0 {
		return Page{Number: 1, TotalPages: 1}
	}

	totalPages := (total + pageSize - 1) / pageSize

	page := requested
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	offset := (page - 1) * pageSize
	end := offset + pageSize
	if end > total {
		end = total
	}

	p := Page{
		Items:      todos[offset:end],
		Number:     page,
		TotalPages: totalPages,
		TotalItems: total,
	}
	if page > 1 {
		p.HasPrevious = true
		p.Previous = page - 1
	}
	if page < totalPages {
		p.HasNext = true
		p.Next = page + 1
	}
	return p
}
