package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"weatherplugin/internal/security"
	"weatherplugin/internal/types"
)

const (
	// pconlineIPURL is the default IP geolocation endpoint.
	pconlineIPURL = "https://whois.pconline.com.cn/ipJson.jsp"

	// defaultIPGeoCharset applies when the response declares none; the
	// service answers in GBK.
	defaultIPGeoCharset = "gbk"
)

// IPGeoClientConfig holds the configuration for creating an IPGeoClient.
type IPGeoClientConfig struct {
	BaseURL   string // Override for testing; defaults to pconlineIPURL
	UserAgent string
	Retry     RetryPolicy

	// Charset is used when the response has no charset parameter.
	Charset string

	Logger *slog.Logger
}

type ipGeoResponse struct {
	IP   string `json:"ip"`
	Pro  string `json:"pro"`
	City string `json:"city"`
	Addr string `json:"addr"`
	Err  string `json:"err"`
}

// IPGeoClient implements IPLocator.
type IPGeoClient struct {
	base    *BaseClient
	baseURL string
	charset string
	logger  *slog.Logger
}

// NewIPGeoClient creates an IPGeoClient with its own "ip-geo" breaker.
func NewIPGeoClient(httpClient *http.Client, cfg IPGeoClientConfig) *IPGeoClient {
	return NewIPGeoClientWithBase(NewBaseClient(httpClient, "ip-geo", cfg.Retry, cfg.UserAgent), cfg)
}

// NewIPGeoClientWithBase creates an IPGeoClient around a pre-configured
// BaseClient.
func NewIPGeoClientWithBase(base *BaseClient, cfg IPGeoClientConfig) *IPGeoClient {
	c := &IPGeoClient{
		base:    base,
		baseURL: cfg.BaseURL,
		charset: cfg.Charset,
		logger:  cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = pconlineIPURL
	}
	if c.charset == "" {
		c.charset = defaultIPGeoCharset
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Base exposes the underlying BaseClient for health probing.
func (c *IPGeoClient) Base() *BaseClient {
	return c.base
}

// lookupIP reduces addr to the value sent as the ip parameter. Ports are
// dropped, and private or loopback addresses become empty so the service
// geolocates our egress address instead.
func lookupIP(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if security.IsPrivateHost(addr) {
		return ""
	}
	return addr
}

// LocateCity asks the geolocation service for the city of addr.
func (c *IPGeoClient) LocateCity(ctx context.Context, addr string) (string, error) {
	q := url.Values{}
	q.Set("json", "true")
	q.Set("ip", lookupIP(addr))

	resp, err := c.base.Get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamIPGeo, "ip geolocation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", types.NewAppError(
			types.ErrCodeUpstreamIPGeo,
			fmt.Sprintf("ip geolocation returned %d", resp.StatusCode),
			nil,
		)
	}

	body, err := c.decodedBody(resp)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamIPGeo, "unsupported ip geolocation charset", err)
	}

	var payload ipGeoResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamIPGeo, "failed to decode ip geolocation response", err)
	}
	if payload.Err != "" && payload.City == "" {
		c.logger.DebugContext(ctx, "ip geolocation has no city", "ip", payload.IP, "err", payload.Err)
	}
	return strings.TrimSpace(payload.City), nil
}

func (c *IPGeoClient) decodedBody(resp *http.Response) (io.Reader, error) {
	label := c.charset
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && params["charset"] != "" {
		label = params["charset"]
	}
	return charset.NewReaderLabel(label, io.LimitReader(resp.Body, 64<<10))
}
