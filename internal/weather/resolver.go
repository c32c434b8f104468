package weather

import (
	"context"
	"log/slog"
	"strings"

	"weatherplugin/internal/external"
)

// Resolver picks the location to query: the caller's explicit location, then
// the city of the caller's address, then the configured default.
type Resolver struct {
	locator external.IPLocator
	logger  *slog.Logger
}

// NewResolver creates a Resolver. locator may be nil, which disables the
// address step.
func NewResolver(locator external.IPLocator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{locator: locator, logger: logger}
}

// Resolve never fails. A non-empty explicit location is used exactly as
// given. Locator errors are logged and fall through to defaultLocation.
func (r *Resolver) Resolve(ctx context.Context, explicit, clientAddr, defaultLocation string) string {
	if explicit != "" {
		r.logger.InfoContext(ctx, "using caller location", "location", explicit)
		return explicit
	}

	if clientAddr != "" && r.locator != nil {
		city, err := r.locator.LocateCity(ctx, clientAddr)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "ip geolocation failed, using default location",
				"client_addr", clientAddr,
				"default_location", defaultLocation,
				"error", err,
			)
		case strings.TrimSpace(city) != "":
			city = strings.TrimSpace(city)
			r.logger.InfoContext(ctx, "using ip-derived location", "client_addr", clientAddr, "location", city)
			return city
		default:
			r.logger.InfoContext(ctx, "ip geolocation returned no city", "client_addr", clientAddr)
		}
	}

	r.logger.InfoContext(ctx, "using default location", "location", defaultLocation)
	return defaultLocation
}
