package polygon

import (
	"net/http"
	"time"
)

// baseTransportConfig returns the shared HTTP transport configuration used by Polygon clients.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
	}
}

// newHTTPClient creates an HTTP client configured for Polygon requests.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &http.Client{
		Transport: baseTransportConfig(),
		Timeout:   timeout,
	}
}
