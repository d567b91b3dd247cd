package repository

import (
	"strings"

	"taskboard/internal/domain"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByDueDate   SortField = "dueDate"
	SortByTitle     SortField = "title"
	SortByPriority  SortField = "priority"
	SortByStatus    SortField = "status"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TaskFilter narrows and orders a task listing. The zero value lists the
// first page, newest first.
type TaskFilter struct {
	Status    domain.TaskStatus
	Priority  domain.TaskPriority
	Search    string
	SortBy    SortField
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Normalized returns a copy with defaults applied: page and limit are clamped,
// unknown sort fields fall back to creation time, and unknown orders to desc.
func (f TaskFilter) Normalized() TaskFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	switch f.SortBy {
	case SortByCreatedAt, SortByDueDate, SortByTitle, SortByPriority, SortByStatus:
	default:
		f.SortBy = SortByCreatedAt
	}
	switch SortOrder(strings.ToLower(string(f.SortOrder))) {
	case SortAsc:
		f.SortOrder = SortAsc
	default:
		f.SortOrder = SortDesc
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Offset is the number of rows skipped before the requested page.
func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes where a page sits within the full result.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalTasks  int
	Limit       int
	HasNext     bool
	HasPrev     bool
}

// NewPagination computes page metadata. totalPages is 0 when total is 0.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalTasks:  total,
		Limit:       limit,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
