package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"weatherplugin/internal/types"
)

func newPageTestClient(t *testing.T, validator types.SSRFValidator) *PageClient {
	t.Helper()
	return NewPageClientWithBase(newTestClient(t, DefaultRetryPolicy()), PageClientConfig{Validator: validator})
}

func TestPageClient_FetchPageParsesDocument(t *testing.T) {
	var ua string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><h1 class="c-submenu__location">北京</h1></body></html>`))
	}))
	defer server.Close()

	doc, err := newPageTestClient(t, nil).FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "北京", doc.Find("h1.c-submenu__location").Text())
	assert.Equal(t, "WeatherPlugin-Test/1.0", ua)
}

func TestPageClient_TranscodesDeclaredCharset(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(`<html><body><h1 class="c-submenu__location">广州</h1></body></html>`)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		_, _ = w.Write([]byte(gbk))
	}))
	defer server.Close()

	doc, err := newPageTestClient(t, nil).FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "广州", doc.Find("h1.c-submenu__location").Text())
}

func TestPageClient_Non2xxIsError(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := newPageTestClient(t, nil).FetchPage(context.Background(), server.URL)
		server.Close()

		require.Error(t, err, "status %d", status)
		assert.Equal(t, types.ErrCodeUpstreamForecastPage, asAppError(t, err).Code, "status %d", status)
	}
}

func TestPageClient_ValidatorRejectsLink(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	reject := func(string) error { return errors.New("blocked") }
	_, err := newPageTestClient(t, reject).FetchPage(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, types.ErrCodeUpstreamForecastPage, asAppError(t, err).Code)
	assert.False(t, called, "rejected link must not be fetched")
}

func TestPageClient_GuardedClientRefusesLoopback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("guarded client reached a loopback server")
	}))
	defer server.Close()

	httpClient, err := NewHTTPClient(HTTPClientConfig{SSRFProtection: true, MaxRedirects: 3})
	require.NoError(t, err)

	_, err = NewPageClient(httpClient, PageClientConfig{}).FetchPage(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeUpstreamForecastPage, asAppError(t, err).Code)
}
