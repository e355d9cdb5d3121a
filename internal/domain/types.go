package domain

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total,omitempty"`
}

// Normalize clamps page/pageSize into a usable range.
func (p Pagination) Normalize(defSize, maxSize int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
