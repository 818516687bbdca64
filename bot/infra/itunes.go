package infra

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"appstore-bot/bot/domain"
)

// ITunesClient implements domain.AppSearcher and domain.ChartSource
// against the public catalog endpoints.
type ITunesClient struct {
	client *http.Client

	// base URLs are swappable for tests
	searchBase string
	chartBase  string
	rssBase    string
}

type ITunesOption func(*ITunesClient)

func WithSearchBase(base string) ITunesOption {
	return func(c *ITunesClient) { c.searchBase = base }
}

func WithChartBase(base string) ITunesOption {
	return func(c *ITunesClient) { c.chartBase = base }
}

func WithRSSBase(base string) ITunesOption {
	return func(c *ITunesClient) { c.rssBase = base }
}

func NewITunesClient(timeout time.Duration, opts ...ITunesOption) *ITunesClient {
	c := &ITunesClient{
		client:     newHTTPClient(timeout),
		searchBase: "https://itunes.apple.com",
		chartBase:  "https://rss.applemarketingtools.com",
		rssBase:    "https://itunes.apple.com",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the software catalog for term in one storefront. The
// first result is the upstream's best match.
func (c *ITunesClient) Search(ctx context.Context, term, country string, limit int) ([]domain.App, error) {
	if limit <= 0 {
		limit = 1
	}
	u := fmt.Sprintf("%s/search?term=%s&entity=software&country=%s&limit=%d",
		c.searchBase, url.QueryEscape(term), url.QueryEscape(country), limit)

	body, err := getBody(ctx, c.client, u)
	if err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}

	var apps []domain.App
	gjson.GetBytes(body, "results").ForEach(func(_, r gjson.Result) bool {
		app := domain.App{
			ID:        r.Get("trackId").String(),
			Name:      r.Get("trackName").String(),
			URL:       r.Get("trackViewUrl").String(),
			Currency:  r.Get("currency").String(),
			Rating:    r.Get("averageUserRating").Float(),
			SizeBytes: r.Get("fileSizeBytes").Int(),
			Version:   r.Get("version").String(),
			MinimumOS: r.Get("minimumOsVersion").String(),
		}
		if price := r.Get("price"); price.Exists() {
			app.Price = price.Float()
			app.HasPrice = true
		}
		if icon := r.Get("artworkUrl512"); icon.Exists() {
			app.IconURL = icon.String()
		} else {
			app.IconURL = r.Get("artworkUrl100").String()
		}
		if d := r.Get("currentVersionReleaseDate").String(); d != "" {
			if t, err := time.Parse(time.RFC3339, d); err == nil {
				app.UpdatedAt = t
			}
		}
		apps = append(apps, app)
		return true
	})
	return apps, nil
}

// TopApps fetches the top chart, preferring the marketing-tools feed and
// falling back to the legacy RSS feed when it yields nothing.
func (c *ITunesClient) TopApps(ctx context.Context, country string, kind domain.ChartKind, limit int) ([]domain.ChartApp, error) {
	if limit <= 0 {
		limit = 10
	}

	apps, errA := c.topAppsMarketing(ctx, country, kind, limit)
	if len(apps) > 0 {
		return apps, nil
	}

	apps, errB := c.topAppsLegacy(ctx, country, kind, limit)
	if len(apps) > 0 {
		return apps, nil
	}
	if errB != nil {
		return nil, fmt.Errorf("charts: %w", errB)
	}
	if errA != nil {
		return nil, fmt.Errorf("charts: %w", errA)
	}
	return nil, nil
}

func (c *ITunesClient) topAppsMarketing(ctx context.Context, country string, kind domain.ChartKind, limit int) ([]domain.ChartApp, error) {
	feedType := "top-free"
	if kind == domain.ChartPaid {
		feedType = "top-paid"
	}
	u := fmt.Sprintf("%s/api/v2/%s/apps/%s/%d/apps.json", c.chartBase, url.PathEscape(country), feedType, limit)

	body, err := getBody(ctx, c.client, u)
	if err != nil {
		return nil, err
	}

	var apps []domain.ChartApp
	gjson.GetBytes(body, "feed.results").ForEach(func(_, r gjson.Result) bool {
		apps = append(apps, domain.ChartApp{
			ID:   r.Get("id").String(),
			Name: r.Get("name").String(),
			URL:  r.Get("url").String(),
		})
		return true
	})
	return apps, nil
}

func (c *ITunesClient) topAppsLegacy(ctx context.Context, country string, kind domain.ChartKind, limit int) ([]domain.ChartApp, error) {
	feedType := "topfreeapplications"
	if kind == domain.ChartPaid {
		feedType = "toppaidapplications"
	}
	u := fmt.Sprintf("%s/%s/rss/%s/limit=%d/json", c.rssBase, url.PathEscape(country), feedType, limit)

	body, err := getBody(ctx, c.client, u)
	if err != nil {
		return nil, err
	}

	var apps []domain.ChartApp
	gjson.GetBytes(body, "feed.entry").ForEach(func(_, e gjson.Result) bool {
		name := e.Get("im:name.label").String()
		if name == "" {
			name = "未知应用"
		}
		apps = append(apps, domain.ChartApp{
			ID:   e.Get("id.attributes.im:id").String(),
			Name: name,
			URL:  e.Get("link.0.attributes.href").String(),
		})
		return true
	})
	return apps, nil
}
