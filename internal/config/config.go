// Package config defines the configuration structure for the weather plugin.
// Configuration is loaded once at process start and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format fails startup.
package config

import (
	"time"

	"weatherplugin/internal/types"
)

// SecretString is an alias for types.SecretString so secrets loaded here are
// redacted wherever they end up.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"weather-plugin"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Weather       WeatherConfig
	IPGeo         IPGeoConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server configuration for the tool API.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s" validate:"gt=0"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// WeatherConfig holds the geocoding and forecast page settings. APIKey and
// DefaultLocation form the per-plugin bundle handed to every query.
type WeatherConfig struct {
	APIKey          SecretString `envconfig:"QWEATHER_API_KEY" validate:"required"`
	DefaultLocation string       `envconfig:"DEFAULT_LOCATION" default:"广州" validate:"required,max=64"`
	GeoURL          string       `envconfig:"QWEATHER_GEO_URL" default:"https://geoapi.qweather.com/v2/city/lookup" validate:"required,url"`
	UserAgent       string       `envconfig:"WEATHER_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36"`

	UpstreamTimeout    time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`
	UpstreamMaxRetries int           `envconfig:"UPSTREAM_MAX_RETRIES" default:"0" validate:"gte=0,lte=5"`
	GeoRateLimitRPS    float64       `envconfig:"GEO_RATE_LIMIT_RPS" default:"5" validate:"gt=0"`
	GeoRateLimitBurst  int           `envconfig:"GEO_RATE_LIMIT_BURST" default:"10" validate:"gte=1"`

	// The forecast link comes from the geocoding response, so page fetches
	// are dialled through the SSRF guard unless explicitly disabled.
	PageSSRFProtection bool `envconfig:"PAGE_SSRF_PROTECTION" default:"true"`
	PageMaxRedirects   int  `envconfig:"PAGE_MAX_REDIRECTS" default:"5" validate:"gte=0"`
}

// IPGeoConfig holds the client IP geolocation service settings.
type IPGeoConfig struct {
	Enabled bool   `envconfig:"IPGEO_ENABLED" default:"true"`
	URL     string `envconfig:"IPGEO_URL" default:"https://whois.pconline.com.cn/ipJson.jsp" validate:"required,url"`
}

// AWSConfig holds AWS regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"WeatherPlugin"`
}

// BuildInfo identifies the running binary in startup logs.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Set at link time:
//
//	go build -ldflags "-X weatherplugin/internal/config.version=$(git describe --tags) \
//	    -X weatherplugin/internal/config.commit=$(git rev-parse --short HEAD)" ./cmd/api
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func currentBuild() BuildInfo {
	return BuildInfo{Version: version, Commit: commit, BuildTime: buildTime}
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
