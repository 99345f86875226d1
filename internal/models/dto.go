package models

// Pagination is the envelope attached to every list response. It is computed
// from a separate count query (offset pagination, single-field sort).
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination derives the envelope from a total count and the requested
// page/limit. Page is 1-based; limit is clamped to at least 1.
func NewPagination(total int64, page, limit int) Pagination {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && total > 0,
	}
}

// RevenueRow is one line of the admin revenue report.
type RevenueRow struct {
	Date   string  `json:"date"`
	Kind   string  `json:"kind"` // "booking" or "enrollment"
	Ref    uint    `json:"ref"`
	Amount float64 `json:"amount"`
}
