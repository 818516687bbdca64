package infra

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// ExchangeClient implements domain.RateSource against the open
// exchange-rate API.
type ExchangeClient struct {
	client *http.Client
	base   string
}

type ExchangeOption func(*ExchangeClient)

func WithExchangeBase(base string) ExchangeOption {
	return func(c *ExchangeClient) { c.base = base }
}

func NewExchangeClient(timeout time.Duration, opts ...ExchangeOption) *ExchangeClient {
	c := &ExchangeClient{
		client: newHTTPClient(timeout),
		base:   "https://open.er-api.com",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ExchangeClient) RateToCNY(ctx context.Context, currency string) (float64, error) {
	u := fmt.Sprintf("%s/v6/latest/%s", c.base, url.PathEscape(currency))
	body, err := getBody(ctx, c.client, u)
	if err != nil {
		return 0, fmt.Errorf("exchange rate: %w", err)
	}

	rate := gjson.GetBytes(body, "rates.CNY").Float()
	if rate <= 0 {
		return 0, fmt.Errorf("exchange rate: no CNY rate for %s", currency)
	}
	return rate, nil
}
