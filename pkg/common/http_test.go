package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Powerflow/"+Version(), r.Header.Get("User-Agent"), "User-Agent should match expected format")
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	timeout := 5 * time.Second
	client := HTTPClient(timeout)
	assert.Equal(t, timeout, client.Timeout, "Timeout should be set correctly")
	assert.NotNil(t, client.Transport, "Transport should not be nil")

	req, err := http.NewRequest("GET", server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBearerHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "Powerflow/"+Version(), r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	req, err := http.NewRequest("GET", server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer other")

	resp, err := BearerHTTPClient(time.Second, "secret").Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	// the caller's request is untouched
	assert.Equal(t, "Bearer other", req.Header.Get("Authorization"))
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version())
	assert.NotContains(t, Version(), "\n")
}
