// Package main implements the weather-query CLI, which runs one get_weather
// call against the live upstreams and prints the agent-facing text.
//
// It is meant for local development and for checking a deployment's settings.
//
// Usage:
//
//	go run ./cmd/tools/weather-query --location=北京
//	go run ./cmd/tools/weather-query --ip=113.108.1.1
//	go run ./cmd/tools/weather-query --location=上海 --json
//	go run ./cmd/tools/weather-query --describe
//
// Configuration is read the same way as the API (environment, then .env). When
// APP_ENV is unset the tool runs as APP_ENV=local.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weatherplugin/internal/app"
	"weatherplugin/internal/config"
	"weatherplugin/internal/types"
	"weatherplugin/internal/weather"
)

// options are the parsed command-line flags.
type options struct {
	Location string
	Lang     string
	IP       string
	Describe bool
	JSON     bool
	Verbose  bool
	Timeout  time.Duration
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("weather-query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.Location, "location", "", "Place name to query (default: resolved from --ip, then DEFAULT_LOCATION)")
	fs.StringVar(&o.Lang, "lang", types.DefaultLang, "Reply language code, logged only")
	fs.StringVar(&o.IP, "ip", "", "Client IP address used when --location is empty")
	fs.BoolVar(&o.Describe, "describe", false, "Print the get_weather function descriptor and exit")
	fs.BoolVar(&o.JSON, "json", false, "Print the full outcome as JSON")
	fs.BoolVar(&o.Verbose, "v", false, "Log at debug level to stderr")
	fs.DurationVar(&o.Timeout, "timeout", 30*time.Second, "Overall deadline for the query")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, stdout, stderr io.Writer) error {
	if o.Describe {
		return writeJSON(stdout, weather.Descriptor())
	}

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if _, ok := os.LookupEnv("APP_ENV"); !ok {
		_ = os.Setenv("APP_ENV", "local")
	}
	cfg, err := config.LoadConfig(config.ProviderForEnv(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return fmt.Errorf("wiring weather tool: %w", err)
	}
	defer func() {
		for _, c := range a.Clients {
			c.CloseIdleConnections()
		}
	}()

	return query(ctx, a.Tool, o, stdout)
}

// caller is the subset of *weather.Tool the CLI uses.
type caller interface {
	Call(ctx context.Context, call weather.ToolCall) types.Outcome
}

func query(ctx context.Context, tool caller, o options, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	out := tool.Call(ctx, weather.ToolCall{Location: o.Location, Lang: o.Lang, ClientIP: o.IP})
	if o.JSON {
		return writeJSON(stdout, out)
	}

	_, err := fmt.Fprintln(stdout, out.Text)
	if err != nil {
		return err
	}
	if out.Action == types.ActionFailed {
		return errors.New("weather query failed")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
