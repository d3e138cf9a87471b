package model

import (
	"net/url"
	"strconv"
)

// ListFilters 列表查询参数，零值字段不会出现在查询串中。
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	Featured *bool
}

// Query encodes the filters the way the backend expects them.
func (f ListFilters) Query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Featured != nil {
		q.Set("featured", strconv.FormatBool(*f.Featured))
	}
	return q
}

// Pagination 列表分页信息。
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResponse 是列表接口统一的返回结构。
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Count      int        `json:"count"`
	Pagination Pagination `json:"pagination"`
}
