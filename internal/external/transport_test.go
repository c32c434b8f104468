package external

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_RedirectLimit(t *testing.T) {
	var hops int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, server.URL+"/again", http.StatusFound)
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPClientConfig{Timeout: 2 * time.Second, MaxRedirects: 2})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, client.Timeout)

	_, err = client.Get(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
	assert.Equal(t, 3, hops)
}

func TestNewHTTPClient_FollowsUpToLimit(t *testing.T) {
	var hops int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		if hops <= 2 {
			http.Redirect(w, r, server.URL+"/again", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewHTTPClient(HTTPClientConfig{Timeout: 2 * time.Second, MaxRedirects: 2})
	require.NoError(t, err)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, hops)
}

func TestNewHTTPClient_GuardedHasRedirectCheck(t *testing.T) {
	client, err := NewHTTPClient(HTTPClientConfig{SSRFProtection: true})
	require.NoError(t, err)
	assert.NotNil(t, client.CheckRedirect)
	assert.NotNil(t, client.Transport)
}
