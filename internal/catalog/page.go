package catalog

import "fmt"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	SortAsc  = "asc"
	SortDesc = "desc"
)

// sortColumns maps the sortable product attributes to their column names.
// Both camelCase and snake_case spellings are accepted because both appear
// in the wild among API clients.
var sortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"category":   "category",
	"stock":      "stock",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

// PageRequest describes one page of a sorted collection: zero-based page
// index, page size, sort field and direction.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// SortSpec is a validated ORDER BY instruction for the store. Ties on the
// primary column are always broken by ascending id so repeated reads of an
// unchanged collection return the same order.
type SortSpec struct {
	Column     string
	Descending bool
}

// Normalize applies defaults and caps: negative page becomes 0, non-positive
// size becomes DefaultPageSize, size is capped at MaxPageSize, and the sort
// direction defaults to ascending unless "desc" is requested.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	if r.SortBy == "" {
		r.SortBy = "name"
	}
	if r.SortDir != SortDesc {
		r.SortDir = SortAsc
	}
	return r
}

// Sort resolves the requested sort field into a SortSpec, or reports
// ErrInvalidSortField for anything outside the sortable attributes.
func (r PageRequest) Sort() (SortSpec, error) {
	column, ok := sortColumns[r.SortBy]
	if !ok {
		return SortSpec{}, fmt.Errorf("%w: %q", ErrInvalidSortField, r.SortBy)
	}
	return SortSpec{Column: column, Descending: r.SortDir == SortDesc}, nil
}

// Offset returns the index of the first row of the requested page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one window of a filtered, sorted collection together with the
// totals describing the whole collection.
type Page struct {
	Content    []Product `json:"content"`
	Page       int       `json:"page" example:"0"`
	Size       int       `json:"size" example:"10"`
	TotalItems int64     `json:"totalElements" example:"42"`
	TotalPages int       `json:"totalPages" example:"5"`
}

// NewPage assembles a Page from the store's slice and total count. A page
// index past the end of the collection yields empty content with the totals
// still populated.
func NewPage(items []Product, total int64, req PageRequest) Page {
	if items == nil {
		items = []Product{}
	}
	pages := 0
	if total > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page{
		Content:    items,
		Page:       req.Page,
		Size:       req.Size,
		TotalItems: total,
		TotalPages: pages,
	}
}

// Filter is the composable predicate applied before pagination. Fields
// combine with AND; the zero Filter matches everything.
type Filter struct {
	// Search matches case-insensitive substrings of name or description.
	Search string
	// Category matches the category exactly, ignoring case.
	Category string
	// MaxStock keeps products with stock at or below the threshold.
	MaxStock *int
	// MinPrice and MaxPrice bound the price inclusively.
	MinPrice *float64
	MaxPrice *float64
}
