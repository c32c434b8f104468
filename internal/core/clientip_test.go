package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff, xreal string
		remote     string
		want       string
	}{
		{"forwarded first entry", "198.51.100.1, 10.0.0.2", "", "10.0.0.3:5000", "198.51.100.1"},
		{"blank forwarded falls through", " , 10.0.0.2", "198.51.100.7", "10.0.0.3:5000", "198.51.100.7"},
		{"real ip", "", "198.51.100.7", "10.0.0.3:5000", "198.51.100.7"},
		{"remote addr with port", "", "", "192.0.2.4:1234", "192.0.2.4"},
		{"remote addr ipv6", "", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"remote addr without port", "", "", "192.0.2.4", "192.0.2.4"},
		{"untrusted forwarded header wins over public peer", "203.0.113.9", "", "198.51.100.20:443", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xreal != "" {
				req.Header.Set("X-Real-Ip", tt.xreal)
			}
			if got := ExtractClientIP(req); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
