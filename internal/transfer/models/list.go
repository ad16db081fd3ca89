package models

import id "caseflow/pkg/domain"

// ListFilter is what stores query with. Scope, when set, restricts results to
// transfers where the institution is either party.
type ListFilter struct {
	LearnerID         *id.LearnerID
	FromInstitutionID *id.InstitutionID
	ToInstitutionID   *id.InstitutionID
	Status            *Status
	Priority          *Priority
	Scope             *id.InstitutionID
	Offset            int
	Limit             int
}

type PageMeta struct {
	Total           int  `json:"total"`
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalPages      int  `json:"total_pages"`
	HasNextPage     bool `json:"has_next_page"`
	HasPreviousPage bool `json:"has_previous_page"`
}

func NewPageMeta(total, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return PageMeta{
		Total:           total,
		Page:            page,
		Limit:           limit,
		TotalPages:      pages,
		HasNextPage:     page < pages,
		HasPreviousPage: page > 1,
	}
}

type TransferPage struct {
	Data []*Transfer `json:"data"`
	Meta PageMeta    `json:"meta"`
}

type Statistics struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
}
