package notifier

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Fetcher retrieves the raw body of a single URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is the production Fetcher. Every request is bounded by the
// client timeout configured at construction.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a Fetcher with a tuned transport
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout, Transport: tr},
	}
}

// Get performs a GET request and returns the response body. Non-2xx
// responses are fetch errors.
func (f *HTTPFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", url, err, ErrFetch)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", url, err, ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch %s: status %d: %w", url, resp.StatusCode, ErrFetch)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v: %w", url, err, ErrFetch)
	}

	return body, nil
}
