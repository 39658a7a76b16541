package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

// Version returns the build version embedded in the binary.
func Version() string {
	return strings.TrimSpace(version)
}

type headerTransport struct {
	transport http.RoundTripper
	userAgent string
	bearer    string
}

// RoundTrip implements http.RoundTripper
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original request's headers
	// which might be shared or reused
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	if t.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+t.bearer)
	}
	return t.transport.RoundTrip(req)
}

// HTTPClient returns a default http client with a default user-agent set
func HTTPClient(timeout time.Duration) *http.Client {
	return BearerHTTPClient(timeout, "")
}

// BearerHTTPClient returns an http client that sends the given bearer token
// on every request. An empty token sends no Authorization header.
func BearerHTTPClient(timeout time.Duration, token string) *http.Client {
	return &http.Client{
		Transport: &headerTransport{
			transport: http.DefaultTransport,
			userAgent: "Powerflow/" + Version(),
			bearer:    token,
		},
		Timeout: timeout,
	}
}
