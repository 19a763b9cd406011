package helpers

import (
	"fmt"
	"net/http"
	"strconv"

	"eventregistration/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the query string. Missing values take
// the defaults, page_size is capped at MaxPageSize, and malformed or non-positive values
// are rejected.
func ParsePagination(r *http.Request) (domain.PaginationParams, error) {
	page, err := positiveQueryInt(r, "page", DefaultPage)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	pageSize, err := positiveQueryInt(r, "page_size", DefaultPageSize)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	return domain.PaginationParams{Page: page, PageSize: min(pageSize, MaxPageSize)}, nil
}

func positiveQueryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, key)
	}
	return v, nil
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta; TotalPages is ceil(total / pageSize).
func NewPaginationMeta(p domain.PaginationParams, total int) PaginationMeta {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}
	return PaginationMeta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
