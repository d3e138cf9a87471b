package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized 后端返回 401。此时会话令牌已被清除。
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrNotFound 后端返回 404。
	ErrNotFound = errors.New("backend: not found")
	// ErrForbidden 后端返回 403。
	ErrForbidden = errors.New("backend: forbidden")
)

// APIError 描述后端返回的非 2xx 响应。
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// Is lets callers match status classes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// StatusOf 返回错误携带的 HTTP 状态码，非 APIError 时为 0。
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the backend's error message when there is one.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return ""
}
