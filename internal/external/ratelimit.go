package external

import (
	"context"

	"golang.org/x/time/rate"

	"weatherplugin/internal/types"
)

// RateLimitedDirectory throttles lookups against the geocoding quota. Waits
// honour the caller's context, so a request deadline turns into a rate-limit
// error instead of an unbounded queue.
type RateLimitedDirectory struct {
	next    CityDirectory
	limiter *rate.Limiter
}

// NewRateLimitedDirectory allows rps lookups per second with the given burst.
func NewRateLimitedDirectory(next CityDirectory, rps float64, burst int) *RateLimitedDirectory {
	return &RateLimitedDirectory{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// LookupCity waits for a token and delegates.
func (d *RateLimitedDirectory) LookupCity(ctx context.Context, location string, apiKey types.SecretString) (*types.CityRecord, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamRateLimited, "city lookup quota exhausted", err)
	}
	return d.next.LookupCity(ctx, location, apiKey)
}
