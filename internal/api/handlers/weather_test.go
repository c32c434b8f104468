package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"weatherplugin/internal/core"
	"weatherplugin/internal/types"
	"weatherplugin/internal/weather"
)

type mockTool struct {
	mock.Mock
}

func (m *mockTool) Call(ctx context.Context, call weather.ToolCall) types.Outcome {
	args := m.Called(ctx, call)
	return args.Get(0).(types.Outcome)
}

func newRouter(tool WeatherTool) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewWeatherHandler(tool, core.NewValidator(logger), logger)
	r := chi.NewRouter()
	r.Route("/v1/tools", h.RegisterRoutes)
	return r
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/tools/get_weather", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleGetWeather_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		out  types.Outcome
	}{
		{"delivered", types.Outcome{Action: types.ActionRequestLLM, Text: "您查询的位置是：北京"}},
		{"clarify", types.Outcome{Action: types.ActionClarify, Text: "未找到相关的城市: 南极洲，请确认地点是否正确"}},
		{"failed", types.Outcome{Action: types.ActionFailed, Text: "请求失败"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := new(mockTool)
			tool.On("Call", mock.Anything, weather.ToolCall{Location: "北京", Lang: "zh_CN"}).Return(tt.out).Once()

			rec := post(t, newRouter(tool), `{"location":"北京","lang":"zh_CN"}`)

			require.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				Data types.Outcome `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.out, resp.Data)
			tool.AssertExpectations(t)
		})
	}
}

func TestHandleGetWeather_PassesClientIP(t *testing.T) {
	tool := new(mockTool)
	tool.On("Call", mock.Anything, weather.ToolCall{Lang: "zh_CN", ClientIP: "203.0.113.8"}).
		Return(types.Outcome{Action: types.ActionRequestLLM}).Once()

	rec := post(t, newRouter(tool), `{"lang":"zh_CN","client_ip":"203.0.113.8"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	tool.AssertExpectations(t)
}

func TestHandleGetWeather_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code types.ErrorCode
	}{
		{"malformed", `{"location":`, types.ErrCodeValidationInvalidJSON},
		{"unknown field", `{"city":"北京"}`, types.ErrCodeValidationInvalidJSON},
		{"bad ip", `{"lang":"zh_CN","client_ip":"localhost"}`, types.ErrCodeValidationInvalidField},
		{"control chars", `{"location":"北京\u0000","lang":"zh_CN"}`, types.ErrCodeValidationInvalidField},
		{"long location", `{"location":"` + strings.Repeat("北", 65) + `"}`, types.ErrCodeValidationInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := new(mockTool)
			rec := post(t, newRouter(tool), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp core.APIErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Error.Code)
			tool.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleListTools(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(new(mockTool)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tools/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []weather.ToolDescriptor `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "get_weather", resp.Data[0].Function.Name)
	assert.Equal(t, []string{"lang"}, resp.Data[0].Function.Parameters.Required)
}
