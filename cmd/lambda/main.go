// Package main is the entrypoint for the weather tool Lambda function.
//
// The function is invoked directly with a get_weather tool call as its event
// and returns the tool outcome. Wiring happens once per cold start; all query
// logic lives in internal/weather.
//
// With APP_ENV=local the event is read from stdin instead:
//
//	echo '{"location":"北京","lang":"zh_CN"}' | go run ./cmd/lambda
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"weatherplugin/internal/app"
	"weatherplugin/internal/config"
	"weatherplugin/internal/core"
	"weatherplugin/internal/types"
	"weatherplugin/internal/weather"
)

// weatherTool is the subset of *weather.Tool the handler calls.
type weatherTool interface {
	Call(ctx context.Context, call weather.ToolCall) types.Outcome
}

type handler struct {
	tool      weatherTool
	validator *core.Validator
	logger    *slog.Logger
}

// Handle validates the event and runs the tool. A malformed event fails the
// invocation; every other path returns an outcome.
func (h *handler) Handle(ctx context.Context, call weather.ToolCall) (types.Outcome, error) {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = types.WithRequestID(ctx, lc.AwsRequestID)
	}

	if err := h.validator.ValidateStruct(call); err != nil {
		h.logger.WarnContext(ctx, "rejected tool call", "request_id", types.GetRequestID(ctx), "error", err)
		return types.Outcome{}, err
	}

	out := h.tool.Call(ctx, call)
	h.logger.InfoContext(ctx, "tool call completed",
		"request_id", types.GetRequestID(ctx),
		"action", string(out.Action),
	)
	return out, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	h, err := coldStart(context.Background(), logger)
	if err != nil {
		logger.Error("cold start failed", "error", err)
		os.Exit(1)
	}

	if os.Getenv("APP_ENV") == "local" {
		if err := invokeFromReader(context.Background(), h, os.Stdin, os.Stdout); err != nil {
			logger.Error("local invocation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(h.Handle)
}

func coldStart(ctx context.Context, logger *slog.Logger) (*handler, error) {
	cfg, err := config.LoadConfig(config.ProviderForEnv(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return nil, fmt.Errorf("wiring weather tool: %w", err)
	}

	logger.Info("weather Lambda initialized",
		"environment", cfg.Environment,
		"default_location", cfg.Weather.DefaultLocation,
		"ipgeo_enabled", cfg.IPGeo.Enabled,
		"metrics_enabled", cfg.Observability.MetricsEnabled,
	)
	return &handler{tool: a.Tool, validator: core.NewValidator(logger), logger: logger}, nil
}

// invokeFromReader runs one event read from r and writes the outcome as JSON.
func invokeFromReader(ctx context.Context, h *handler, r io.Reader, w io.Writer) error {
	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading event: %w", err)
	}
	if len(payload) == 0 {
		return fmt.Errorf("no event received on stdin")
	}

	var call weather.ToolCall
	if err := json.Unmarshal(payload, &call); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}

	out, err := h.Handle(ctx, call)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
