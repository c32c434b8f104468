package external

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"weatherplugin/internal/types"
)

// CityDirectory resolves a free-text place name to its best geocoding match.
type CityDirectory interface {
	// LookupCity returns the first match for location, or (nil, nil) when
	// the directory has no match. Transport and decoding failures are
	// returned as *types.AppError.
	LookupCity(ctx context.Context, location string, apiKey types.SecretString) (*types.CityRecord, error)
}

// ForecastPageFetcher retrieves the forecast web page for a city.
type ForecastPageFetcher interface {
	// FetchPage downloads link and returns it as a parsed document. Any
	// non-2xx status is an error.
	FetchPage(ctx context.Context, link string) (*goquery.Document, error)
}

// IPLocator maps a client network address to a city name.
type IPLocator interface {
	// LocateCity returns the city for addr. An empty string with a nil
	// error means the service knew nothing about the address.
	LocateCity(ctx context.Context, addr string) (string, error)
}

// Compile-time interface compliance checks.
var (
	_ CityDirectory       = (*GeoClient)(nil)
	_ CityDirectory       = (*RateLimitedDirectory)(nil)
	_ ForecastPageFetcher = (*PageClient)(nil)
	_ IPLocator           = (*IPGeoClient)(nil)
)
