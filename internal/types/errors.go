package types

import (
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// ErrorCode classifies an AppError. The prefix decides the HTTP status.
type ErrorCode string

const (
	// 400
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidField ErrorCode = "validation_invalid_field"
	ErrCodeValidationInvalidJSON  ErrorCode = "validation_invalid_json"

	// 404
	ErrCodeNotFoundRoute ErrorCode = "not_found_route"

	// 500
	ErrCodeInternalUnexpected    ErrorCode = "internal_unexpected_error"
	ErrCodeInternalPageStructure ErrorCode = "internal_page_structure"

	// 502, except rate limiting (429)
	ErrCodeUpstreamGeo          ErrorCode = "upstream_geo_unavailable"
	ErrCodeUpstreamForecastPage ErrorCode = "upstream_forecast_page_unavailable"
	ErrCodeUpstreamIPGeo        ErrorCode = "upstream_ipgeo_unavailable"
	ErrCodeUpstreamUnavailable  ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited  ErrorCode = "upstream_rate_limited"
)

// HTTPStatus maps c to a status code. Unknown prefixes map to 500.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the error type shared by the upstream clients, the parser and
// the HTTP layer. Err keeps the cause for errors.Is and errors.As; it is never
// serialized.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus is e.Code.HTTPStatus().
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of e with details merged over its own. e is not
// modified.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	maps.Copy(merged, e.Details)
	maps.Copy(merged, details)

	cp := *e
	cp.Details = merged
	return &cp
}

// NewAppError creates an AppError. err may be nil.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
