package core

import (
	"net"
	"net/http"
	"strings"

	"weatherplugin/internal/types"
)

// ClientAddrMiddleware stores the caller's IP in the request context, where
// the weather handler picks it up when the agent gives no location.
func ClientAddrMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := types.WithClientAddr(r.Context(), ExtractClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractClientIP returns the first X-Forwarded-For entry, then X-Real-Ip,
// then the RemoteAddr host.
//
// No trusted-proxy check is made: any caller can set these headers and pick
// the address that gets geolocated. The result is only a location hint for
// callers that give no location, and is never used for access control.
func ExtractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may lack a port, e.g. behind some adapters.
		return r.RemoteAddr
	}
	return ip
}
