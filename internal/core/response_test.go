package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"weatherplugin/internal/types"
)

func TestData_WrapsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Data(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, types.Outcome{Action: types.ActionClarify, Text: "你好"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	if rec.Body.String() != `{"data":{"action":"clarify","text":"你好"}}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestJSON_MarshalFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]any{"ch": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{types.NewAppError(types.ErrCodeValidationInvalidField, "bad", nil), http.StatusBadRequest, "validation_invalid_field"},
		{types.NewAppError(types.ErrCodeNotFoundRoute, "missing", nil), http.StatusNotFound, "not_found_route"},
		{types.NewAppError(types.ErrCodeUpstreamRateLimited, "slow down", nil), http.StatusTooManyRequests, "upstream_rate_limited"},
		{types.NewAppError(types.ErrCodeUpstreamGeo, "geo down", nil), http.StatusBadGateway, "upstream_geo_unavailable"},
		{fmt.Errorf("wrapped: %w", types.NewAppError(types.ErrCodeValidationInvalidJSON, "bad json", nil)), http.StatusBadRequest, "validation_invalid_json"},
		{errors.New("db password is hunter2"), http.StatusInternalServerError, "internal_unexpected_error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

		if rec.Code != tt.status {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.status, rec.Code)
		}
		var resp APIErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Error.Code != tt.code {
			t.Errorf("%v: expected code %s, got %s", tt.err, tt.code, resp.Error.Code)
		}
		if strings.Contains(rec.Body.String(), "hunter2") {
			t.Error("generic error message leaked")
		}
	}
}

type decodeTarget struct {
	Location string `json:"location"`
	Lang     string `json:"lang"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"location":"北京","lang":"zh_CN"}`, ""},
		{"empty", ``, "request body must not be empty"},
		{"truncated", `{"location":`, "malformed JSON"},
		{"syntax", `{"location" "北京"}`, "malformed JSON"},
		{"unknown field", `{"city":"北京"}`, "unknown field"},
		{"type mismatch", `{"location":5}`, "invalid value for field"},
		{"two values", `{"lang":"zh_CN"}{"lang":"en"}`, "single JSON object"},
		{"too large", `{"location":"` + strings.Repeat("a", maxRequestBodySize) + `"}`, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst decodeTarget
			err := DecodeJSON(httptest.NewRecorder(), req, &dst)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Location != "北京" {
					t.Errorf("unexpected decode result %+v", dst)
				}
				return
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != types.ErrCodeValidationInvalidJSON {
				t.Errorf("expected validation_invalid_json, got %s", appErr.Code)
			}
			if !strings.Contains(appErr.Message, tt.wantErr) {
				t.Errorf("message %q does not contain %q", appErr.Message, tt.wantErr)
			}
		})
	}
}
