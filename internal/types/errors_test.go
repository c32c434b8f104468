package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeUpstreamGeo,
		Message: "city lookup failed",
	}

	expected := "upstream_geo_unavailable: city lookup failed"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	appErr := NewAppError(ErrCodeUpstreamForecastPage, "page fetch failed", underlying)

	if appErr.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", appErr.Unwrap(), underlying)
	}
	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
}

func TestAppErrorErrorsAs(t *testing.T) {
	appErr := NewAppError(ErrCodeInternalPageStructure, "city heading missing", nil)
	wrapped := fmt.Errorf("parse: %w", appErr)

	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeInternalPageStructure {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeInternalPageStructure)
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeNotFoundRoute, http.StatusNotFound},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeUpstreamGeo, http.StatusBadGateway},
		{ErrCodeUpstreamForecastPage, http.StatusBadGateway},
		{ErrCodeInternalPageStructure, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorWithDetailsDoesNotMutate(t *testing.T) {
	orig := NewAppError(ErrCodeUpstreamGeo, "no match", nil)
	withDetails := orig.WithDetails(map[string]any{"location": "南极洲"})

	if orig.Details != nil {
		t.Errorf("original Details mutated: %v", orig.Details)
	}
	if withDetails.Details["location"] != "南极洲" {
		t.Errorf("Details[location] = %v, want 南极洲", withDetails.Details["location"])
	}
}
