// Package pagination splits an ordered collection into fixed-size, 1-based pages.
package pagination

import (
	"strconv"
	"strings"
)

// PageSize is the number of items on a listing page unless configured otherwise.
const PageSize = 10

// Page describes one page of a collection and where it sits among the others.
type Page struct {
	Number   int   `json:"number"`
	NumPages int   `json:"num_pages"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
}

// New resolves rawPage against a collection of total items. Anything that is
// not an integer selects the first page; numbers outside [1, NumPages] are
// clamped to the nearest valid page.
func New(total int64, rawPage string, perPage int) Page {
	if perPage <= 0 {
		perPage = PageSize
	}
	if total < 0 {
		total = 0
	}

	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	number, err := strconv.Atoi(strings.TrimSpace(rawPage))
	switch {
	case err != nil:
		number = 1
	case number < 1:
		number = 1
	case number > numPages:
		number = numPages
	}

	return Page{Number: number, NumPages: numPages, PerPage: perPage, Total: total}
}

// Offset is the number of items preceding this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the maximum number of items on this page.
func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasOtherPages() bool {
	return p.NumPages > 1
}

func (p Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

func (p Page) NextNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

// Range returns every page number, for rendering page links.
func (p Page) Range() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// StartIndex is the 1-based position of the first item on the page, or 0 when empty.
func (p Page) StartIndex() int64 {
	if p.Total == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

// EndIndex is the 1-based position of the last item on the page.
func (p Page) EndIndex() int64 {
	end := int64(p.Offset() + p.PerPage)
	if end > p.Total {
		return p.Total
	}
	return end
}
