// Package security guards outbound requests whose target is not under our
// control. The forecast page link is supplied by the geocoding service, so the
// page client dials through SafeTransport: every resolved address is checked
// against types.SSRFBlockedCIDRs before a connection is made, and redirects
// are re-validated hop by hop.
package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"sync"
	"time"

	"weatherplugin/internal/types"
)

// dnsTimeout bounds each DNS lookup made by the guard.
const dnsTimeout = 500 * time.Millisecond

var (
	// ErrSSRFBlocked is returned when a request targets a blocked IP range.
	ErrSSRFBlocked = errors.New("ssrf: request to blocked IP range")
	// ErrSSRFDNSTimeout is returned when DNS resolution exceeds dnsTimeout.
	ErrSSRFDNSTimeout = errors.New("ssrf: DNS resolution timeout")
	// ErrSSRFTooManyRedirects is returned when the redirect limit is exceeded.
	ErrSSRFTooManyRedirects = errors.New("ssrf: too many redirects")
	// ErrSSRFDNSFailed is returned when DNS resolution fails entirely.
	ErrSSRFDNSFailed = errors.New("ssrf: DNS resolution failed")
)

var blockedPrefixes = sync.OnceValues(func() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(types.SSRFBlockedCIDRs))
	for _, cidr := range types.SSRFBlockedCIDRs {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("ssrf: failed to parse CIDR %q: %w", cidr, err)
		}
		out = append(out, p)
	}
	return out, nil
})

// IsBlockedAddr reports whether addr falls inside a blocked range. IPv4-mapped
// IPv6 addresses are unmapped first.
func IsBlockedAddr(addr netip.Addr) bool {
	prefixes, err := blockedPrefixes()
	if err != nil {
		return true
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// IsPrivateHost reports whether host is an IP literal in a blocked range.
// Hostnames return false.
func IsPrivateHost(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return IsBlockedAddr(addr)
}

// Resolver abstracts DNS resolution for testability.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// resolveChecked resolves host and rejects the whole set if any address is
// blocked, so a safe record mixed with a private one cannot slip through.
func resolveChecked(ctx context.Context, r Resolver, host string) ([]netip.Addr, error) {
	dnsCtx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := r.LookupIPAddr(dnsCtx, host)
	if err != nil {
		if dnsCtx.Err() != nil {
			return nil, fmt.Errorf("%w: host %q", ErrSSRFDNSTimeout, host)
		}
		return nil, fmt.Errorf("%w: host %q: %v", ErrSSRFDNSFailed, host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: host %q resolved to no addresses", ErrSSRFDNSFailed, host)
	}

	addrs := make([]netip.Addr, 0, len(ips))
	for _, ip := range ips {
		addr, ok := netip.AddrFromSlice(ip.IP)
		addr = addr.Unmap()
		if !ok || IsBlockedAddr(addr) {
			return nil, fmt.Errorf("%w: %s (resolved from %s)", ErrSSRFBlocked, ip.IP, host)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// SafeTransport is an http.RoundTripper whose dialer refuses blocked
// addresses.
type SafeTransport struct {
	// Base carries the actual connections. Its DialContext is replaced.
	Base *http.Transport

	// Resolver is used for DNS lookups. Nil means net.DefaultResolver.
	Resolver Resolver

	dialer net.Dialer
}

// NewSafeTransport wraps base (a fresh http.Transport when nil) with the
// address check.
func NewSafeTransport(base *http.Transport) (*SafeTransport, error) {
	if _, err := blockedPrefixes(); err != nil {
		return nil, fmt.Errorf("ssrf: initialization failed: %w", err)
	}
	if base == nil {
		base = &http.Transport{}
	}
	st := &SafeTransport{Base: base}
	base.DialContext = st.dialContext
	return st, nil
}

// RoundTrip implements http.RoundTripper.
func (st *SafeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return st.Base.RoundTrip(req)
}

func (st *SafeTransport) dialContext(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("ssrf: invalid address %q: %w", address, err)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if IsBlockedAddr(addr) {
			return nil, fmt.Errorf("%w: %s", ErrSSRFBlocked, addr)
		}
		return st.dialer.DialContext(ctx, network, address)
	}

	addrs, err := resolveChecked(ctx, st.resolver(), host)
	if err != nil {
		return nil, err
	}
	// Dial the vetted address rather than the name to avoid a second lookup.
	return st.dialer.DialContext(ctx, network, net.JoinHostPort(addrs[0].String(), port))
}

func (st *SafeTransport) resolver() Resolver {
	if st.Resolver != nil {
		return st.Resolver
	}
	return net.DefaultResolver
}

// CheckRedirect returns an http.Client CheckRedirect func that enforces
// maxRedirects and re-validates every hop. resolver may be nil.
func CheckRedirect(maxRedirects int, resolver Resolver) func(req *http.Request, via []*http.Request) error {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("%w: limit is %d", ErrSSRFTooManyRedirects, maxRedirects)
		}
		host := req.URL.Hostname()
		if host == "" {
			return fmt.Errorf("%w: redirect URL has no host", ErrSSRFBlocked)
		}
		if addr, err := netip.ParseAddr(host); err == nil {
			if IsBlockedAddr(addr) {
				return fmt.Errorf("%w: redirect to %s", ErrSSRFBlocked, addr)
			}
			return nil
		}
		_, err := resolveChecked(req.Context(), resolver, host)
		return err
	}
}

// NewLinkValidator returns a types.SSRFValidator used as a pre-flight check
// on forecast links: the link must be an absolute http(s) URL and must not
// name a blocked IP literal. Hostnames are checked later at dial time.
func NewLinkValidator() types.SSRFValidator {
	return func(link string) error {
		if err := types.ValidateForecastLink(link); err != nil {
			return err
		}
		parsed, err := url.Parse(link)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSSRFBlocked, err)
		}
		if IsPrivateHost(parsed.Hostname()) {
			return fmt.Errorf("%w: %s", ErrSSRFBlocked, parsed.Hostname())
		}
		return nil
	}
}
