// Package handlers contains the HTTP handlers of the weather tool API.
//
// Routes, mounted under /v1/tools:
//   - GET  /               function descriptors for the agent
//   - POST /get_weather    run a weather query
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"weatherplugin/internal/core"
	"weatherplugin/internal/types"
	"weatherplugin/internal/weather"
)

// WeatherTool is the contract the handler needs from weather.Tool.
type WeatherTool interface {
	Call(ctx context.Context, call weather.ToolCall) types.Outcome
}

// WeatherHandler maps tool HTTP requests to a WeatherTool.
type WeatherHandler struct {
	tool      WeatherTool
	validator *core.Validator
	logger    *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler.
func NewWeatherHandler(tool WeatherTool, val *core.Validator, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{tool: tool, validator: val, logger: logger}
}

// RegisterRoutes mounts the tool endpoints.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTools)
	r.Post("/"+weather.ToolName, h.HandleGetWeather)
}

// HandleListTools handles GET /v1/tools.
func (h *WeatherHandler) HandleListTools(w http.ResponseWriter, r *http.Request) {
	core.Data(w, r, http.StatusOK, []weather.ToolDescriptor{weather.Descriptor()})
}

// HandleGetWeather handles POST /v1/tools/get_weather. Every outcome,
// including failed ones, is a 200: the outcome is a result for the agent,
// not a transport error. Only malformed requests are rejected.
func (h *WeatherHandler) HandleGetWeather(w http.ResponseWriter, r *http.Request) {
	var call weather.ToolCall
	if err := core.DecodeJSON(w, r, &call); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(call); err != nil {
		core.Error(w, r, err)
		return
	}

	out := h.tool.Call(r.Context(), call)
	h.logger.InfoContext(r.Context(), "tool call completed",
		"tool", weather.ToolName,
		"action", string(out.Action),
		"request_id", types.GetRequestID(r.Context()),
	)
	core.Data(w, r, http.StatusOK, out)
}
