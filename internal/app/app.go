// Package app wires configuration into a ready weather tool. The HTTP API,
// the Lambda function and the CLI all start from New.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"weatherplugin/internal/config"
	"weatherplugin/internal/core"
	"weatherplugin/internal/external"
	"weatherplugin/internal/security"
	"weatherplugin/internal/telemetry"
	"weatherplugin/internal/weather"
)

// App holds the wired components.
type App struct {
	Tool    *weather.Tool
	Service *weather.Service

	// Metrics is nil when METRICS_ENABLED is false.
	Metrics *telemetry.CloudWatchMetrics

	// Probes report the circuit breaker of every upstream.
	Probes []core.HealthProbe

	// Clients are the outbound HTTP clients, closed on shutdown.
	Clients []*http.Client
}

// Options adjusts wiring for tests.
type Options struct {
	// CloudWatch replaces the client built from the AWS config.
	CloudWatch telemetry.CloudWatchClient
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wc := cfg.Weather

	retry := external.DefaultRetryPolicy()
	retry.MaxRetries = wc.UpstreamMaxRetries

	apiClient, err := external.NewHTTPClient(external.HTTPClientConfig{Timeout: wc.UpstreamTimeout})
	if err != nil {
		return nil, fmt.Errorf("building API client: %w", err)
	}
	pageHTTP, err := external.NewHTTPClient(external.HTTPClientConfig{
		Timeout:        wc.UpstreamTimeout,
		SSRFProtection: wc.PageSSRFProtection,
		MaxRedirects:   wc.PageMaxRedirects,
	})
	if err != nil {
		return nil, fmt.Errorf("building page client: %w", err)
	}

	geo := external.NewGeoClient(apiClient, external.GeoClientConfig{
		BaseURL:   wc.GeoURL,
		UserAgent: wc.UserAgent,
		Retry:     retry,
		Logger:    logger,
	})

	pageCfg := external.PageClientConfig{UserAgent: wc.UserAgent, Retry: retry, Logger: logger}
	if wc.PageSSRFProtection {
		pageCfg.Validator = security.NewLinkValidator()
	}
	pages := external.NewPageClient(pageHTTP, pageCfg)

	a := &App{
		Probes:  []core.HealthProbe{geo.Base(), pages.Base()},
		Clients: []*http.Client{apiClient, pageHTTP},
	}

	deps := weather.ServiceDeps{
		Directory: external.NewRateLimitedDirectory(geo, wc.GeoRateLimitRPS, wc.GeoRateLimitBurst),
		Pages:     pages,
		Logger:    logger,
	}

	if cfg.IPGeo.Enabled {
		locator := external.NewIPGeoClient(apiClient, external.IPGeoClientConfig{
			BaseURL:   cfg.IPGeo.URL,
			UserAgent: wc.UserAgent,
			Retry:     retry,
			Logger:    logger,
		})
		deps.Locator = locator
		a.Probes = append(a.Probes, locator.Base())
	}

	if cfg.Observability.MetricsEnabled {
		cw := opts.CloudWatch
		if cw == nil {
			cw, err = newCloudWatchClient(ctx, cfg.AWS)
			if err != nil {
				return nil, err
			}
		}
		a.Metrics = telemetry.NewCloudWatchMetrics(cw, cfg.Observability.MetricNamespace, logger)
		deps.Recorder = a.Metrics
	}

	a.Service = weather.NewService(deps)
	a.Tool = weather.NewTool(a.Service, wc.APIKey, wc.DefaultLocation)
	return a, nil
}

func newCloudWatchClient(ctx context.Context, awsCfg config.AWSConfig) (*cloudwatch.Client, error) {
	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for CloudWatch (region=%s): %w", awsCfg.Region, err)
	}
	return cloudwatch.NewFromConfig(sdkCfg, func(o *cloudwatch.Options) {
		if awsCfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(awsCfg.EndpointURL)
		}
	}), nil
}
