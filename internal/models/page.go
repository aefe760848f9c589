package models

// Page is one slice of an ordered post listing.
type Page struct {
	Items    []Post `json:"items"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int64  `json:"total"`
	Pages    int    `json:"pages"`
	HasNext  bool   `json:"has_next"`
	HasPrev  bool   `json:"has_prev"`
}

// NewPage fills in the derived paging fields.
func NewPage(items []Post, page, pageSize int, total int64) *Page {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if items == nil {
		items = []Post{}
	}
	return &Page{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
		HasNext:  page < pages,
		HasPrev:  page > 1,
	}
}
