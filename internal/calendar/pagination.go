package calendar

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`     // 1-based
	PageSize int  `json:"pageSize"` // items per page
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
	Total    int  `json:"total"` // items across all pages
}

// NormalizePage applies defaults and caps to a requested page.
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset of the first item of page.
func Offset(page, pageSize int) int {
	page, pageSize = NormalizePage(page, pageSize)
	return (page - 1) * pageSize
}

// NewPage wraps items already fetched with LIMIT/OFFSET.
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	page, pageSize = NormalizePage(page, pageSize)
	if items == nil {
		items = []T{}
	}
	end := (page-1)*pageSize + len(items)
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  int64(end) < total,
		HasPrev:  page > 1,
		Total:    int(total),
	}
}

// All wraps a complete listing as a single page.
func All[T any](items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     1,
		PageSize: len(items),
		Total:    len(items),
	}
}

// Map converts the items of a page keeping its metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, fn(it))
	}
	return Page[U]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}
