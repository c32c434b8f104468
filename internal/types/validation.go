package types

import (
	"fmt"
	"net/url"
)

// Request constraints for the weather tool.
const (
	MaxLocationLength = 64
	MaxLangLength     = 16
	DefaultLang       = "zh_CN"
)

// SSRFValidator checks an outbound URL before it is dialled.
type SSRFValidator func(url string) error

// ValidateForecastLink checks that a forecast link returned by the geocoding
// service is an absolute http(s) URL with a host.
func ValidateForecastLink(link string) error {
	if link == "" {
		return fmt.Errorf("%s: forecast link is empty", ErrCodeValidationMissingField)
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%s: invalid forecast link: %v", ErrCodeValidationInvalidField, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("%s: forecast link must use http or https", ErrCodeValidationInvalidField)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: forecast link has no host", ErrCodeValidationInvalidField)
	}
	return nil
}

// SSRFBlockedCIDRs defines the IP ranges that MUST be blocked for SSRF protection.
var SSRFBlockedCIDRs = []string{
	"127.0.0.0/8",    // Localhost
	"10.0.0.0/8",     // Private Class A
	"172.16.0.0/12",  // Private Class B
	"192.168.0.0/16", // Private Class C
	"169.254.0.0/16", // Link-local (AWS Metadata!)
	"0.0.0.0/8",      // Current network
	"224.0.0.0/4",    // Multicast
	"240.0.0.0/4",    // Reserved
	"100.64.0.0/10",  // Shared Address Space (CGN)
	"198.18.0.0/15",  // Benchmark testing
	"fc00::/7",       // IPv6 private
	"fe80::/10",      // IPv6 link-local
	"::1/128",        // IPv6 localhost
}
