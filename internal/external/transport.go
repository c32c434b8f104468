package external

import (
	"fmt"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"weatherplugin/internal/security"
)

// HTTPClientConfig shapes the *http.Client handed to a BaseClient.
type HTTPClientConfig struct {
	Timeout time.Duration

	// SSRFProtection dials through security.SafeTransport and validates
	// every redirect hop. Used for the forecast page, whose link comes from
	// the geocoding response.
	SSRFProtection bool

	// MaxRedirects is the number of redirects followed before giving up.
	// Zero keeps net/http's default policy.
	MaxRedirects int
}

// NewHTTPClient builds an *http.Client whose transport advertises gzip and
// decompresses responses transparently. The QWeather API always compresses
// its bodies.
func NewHTTPClient(cfg HTTPClientConfig) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	client := &http.Client{Timeout: cfg.Timeout}

	if cfg.SSRFProtection {
		safe, err := security.NewSafeTransport(base)
		if err != nil {
			return nil, fmt.Errorf("building guarded transport: %w", err)
		}
		client.Transport = gzhttp.Transport(safe)
		maxRedirects := cfg.MaxRedirects
		if maxRedirects <= 0 {
			maxRedirects = 10
		}
		client.CheckRedirect = security.CheckRedirect(maxRedirects, nil)
		return client, nil
	}

	client.Transport = gzhttp.Transport(base)
	if cfg.MaxRedirects > 0 {
		limit := cfg.MaxRedirects
		client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) > limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	}
	return client, nil
}
