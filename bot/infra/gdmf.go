package infra

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// GDMFClient fetches the OS-update catalog document.
//
// The endpoint serves a certificate chain that standard trust stores do
// not resolve, so verification is skipped for this one host — the data
// is public and read-only.
type GDMFClient struct {
	client *http.Client
	url    string
}

type GDMFOption func(*GDMFClient)

func WithGDMFURL(u string) GDMFOption {
	return func(c *GDMFClient) { c.url = u }
}

func NewGDMFClient(timeout time.Duration, opts ...GDMFOption) *GDMFClient {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	c := &GDMFClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		url: "https://gdmf.apple.com/v2/pmv",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch implements domain.FeedSource.
func (c *GDMFClient) Fetch(ctx context.Context) ([]byte, error) {
	body, err := getBody(ctx, c.client, c.url)
	if err != nil {
		return nil, fmt.Errorf("gdmf fetch: %w", err)
	}
	return body, nil
}
