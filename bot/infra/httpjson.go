package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	userAgent      = "Mozilla/5.0 (AppStoreBot)"
	defaultTimeout = 4 * time.Second

	// upstream failures get at most one extra attempt; anything more is
	// a retry storm waiting to happen
	retryBackoff = 200 * time.Millisecond

	maxBodyBytes = 4 << 20
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getBody fetches url and returns the response body, retrying once on
// failure. The caller's ctx carries the outer deadline.
func getBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	body, err := getOnce(ctx, client, url)
	if err == nil {
		return body, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryBackoff):
	}
	return getOnce(ctx, client, url)
}

func getOnce(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", url, res.StatusCode)
	}
	return io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
}

// CheckURL reports whether a URL answers a HEAD request with 2xx within
// the client timeout. Used before advertising high-res artwork links.
func CheckURL(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := newHTTPClient(2 * time.Second).Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode >= 200 && res.StatusCode < 300
}
