package domain

import (
	"context"
	"time"
)

// App is one search result from the store catalog.
type App struct {
	ID       string
	Name     string
	URL      string
	Price    float64
	HasPrice bool
	Currency string

	Rating    float64
	SizeBytes int64
	Version   string
	MinimumOS string
	IconURL   string
	UpdatedAt time.Time
}

// ChartApp is one entry of a top chart.
type ChartApp struct {
	ID   string
	Name string
	URL  string
}

// ChartKind selects the free or paid top chart.
type ChartKind string

const (
	ChartFree ChartKind = "free"
	ChartPaid ChartKind = "paid"
)

// AppSearcher looks apps up by free-text term in one storefront.
type AppSearcher interface {
	Search(ctx context.Context, term, country string, limit int) ([]App, error)
}

// ChartSource returns the top chart for one storefront.
type ChartSource interface {
	TopApps(ctx context.Context, country string, kind ChartKind, limit int) ([]ChartApp, error)
}

// FeedSource fetches the raw OS-update catalog document. The normalizer
// makes no shape assumptions beyond what it can tolerate, so the source
// hands back the document as-is.
type FeedSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// RateSource converts one unit of a currency into CNY.
type RateSource interface {
	RateToCNY(ctx context.Context, currency string) (float64, error)
}

// ReplyCache memoizes formatted reply text under a TTL. Implementations
// must degrade to calling fill directly when the backing store is absent.
type ReplyCache interface {
	GetOrFill(ctx context.Context, key string, ttl time.Duration, fill func(ctx context.Context) (string, error)) (string, error)
}
