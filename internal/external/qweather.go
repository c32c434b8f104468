package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"weatherplugin/internal/types"
)

// qweatherGeoURL is the default QWeather city lookup endpoint.
const qweatherGeoURL = "https://geoapi.qweather.com/v2/city/lookup"

// geoLang is sent on every lookup so names come back in Chinese. The caller's
// lang is never forwarded.
const geoLang = "zh"

// QWeather status codes that carry no error: success, empty result, and
// "no such location".
var geoBenignCodes = map[string]bool{"": true, "200": true, "204": true, "404": true}

// GeoClientConfig holds the configuration for creating a GeoClient.
type GeoClientConfig struct {
	BaseURL   string // Override for testing; defaults to qweatherGeoURL
	UserAgent string
	Retry     RetryPolicy
	Logger    *slog.Logger
}

// geoLookupResponse is the city lookup response body.
type geoLookupResponse struct {
	Code     string        `json:"code"`
	Location []geoLocation `json:"location"`
}

type geoLocation struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Adm1    string `json:"adm1"`
	Adm2    string `json:"adm2"`
	Country string `json:"country"`
	FxLink  string `json:"fxLink"`
}

// GeoClient implements CityDirectory against the QWeather geocoding API.
type GeoClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewGeoClient creates a GeoClient with its own "qweather-geo" breaker.
func NewGeoClient(httpClient *http.Client, cfg GeoClientConfig) *GeoClient {
	return NewGeoClientWithBase(NewBaseClient(httpClient, "qweather-geo", cfg.Retry, cfg.UserAgent), cfg)
}

// NewGeoClientWithBase creates a GeoClient around a pre-configured
// BaseClient.
func NewGeoClientWithBase(base *BaseClient, cfg GeoClientConfig) *GeoClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = qweatherGeoURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoClient{base: base, baseURL: baseURL, logger: logger}
}

// Base exposes the underlying BaseClient for health probing.
func (c *GeoClient) Base() *BaseClient {
	return c.base
}

// LookupCity queries the directory for location and returns the first match.
// An empty location list is "no match" and yields (nil, nil).
func (c *GeoClient) LookupCity(ctx context.Context, location string, apiKey types.SecretString) (*types.CityRecord, error) {
	q := url.Values{}
	q.Set("key", apiKey.Unmask())
	q.Set("location", location)
	q.Set("lang", geoLang)

	resp, err := c.base.Get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, c.wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.WarnContext(ctx, "city lookup returned non-2xx",
			"status_code", resp.StatusCode,
			"response_body", string(body),
		)
		return nil, types.NewAppError(
			types.ErrCodeUpstreamGeo,
			fmt.Sprintf("city lookup returned %d", resp.StatusCode),
			nil,
		)
	}

	var payload geoLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamGeo, "failed to decode city lookup response", err)
	}

	if len(payload.Location) == 0 {
		if !geoBenignCodes[payload.Code] {
			return nil, types.NewAppError(
				types.ErrCodeUpstreamGeo,
				fmt.Sprintf("city lookup rejected with code %s", payload.Code),
				nil,
			)
		}
		return nil, nil
	}

	first := payload.Location[0]
	return &types.CityRecord{
		ID:           first.ID,
		Name:         first.Name,
		Adm1:         first.Adm1,
		Adm2:         first.Adm2,
		Country:      first.Country,
		ForecastLink: strings.TrimSpace(first.FxLink),
	}, nil
}

// wrapError keeps the rate-limit code from BaseClient and files every other
// failure under ErrCodeUpstreamGeo.
func (c *GeoClient) wrapError(err error) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Code == types.ErrCodeUpstreamRateLimited {
		return appErr
	}
	return types.NewAppError(types.ErrCodeUpstreamGeo, "city lookup failed", err)
}
