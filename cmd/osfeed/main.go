package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"appstore-bot/bot/application"
	"appstore-bot/bot/domain"
	"appstore-bot/bot/infra"
)

// Dev tool: fetch the live release feed and print what the bot would
// answer for each platform. Handy for eyeballing feed changes without
// standing up the whole webhook.
func main() {
	timeout := 10 * time.Second
	if v := os.Getenv("FEED_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid FEED_TIMEOUT: %v", err)
		}
		timeout = d
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	doc, err := infra.NewGDMFClient(timeout).Fetch(ctx)
	if err != nil {
		log.Fatalf("feed fetch error: %v", err)
	}

	for _, p := range domain.Platforms {
		rs := application.CollectReleases(doc, p)
		latest, ok := application.Latest(rs)
		if !ok {
			fmt.Printf("%-10s (no releases)\n", p)
			continue
		}
		mark := ""
		if application.IsBeta(latest) {
			mark = " [beta]"
		} else if application.IsPrerelease(latest) {
			mark = " [pre]"
		}
		fmt.Printf("%-10s %s (%s) %s%s\n", p, latest.Version, latest.Build, latest.Date.Format("2006-01-02"), mark)
		for _, r := range application.History(rs)[1:] {
			fmt.Printf("           %s (%s) %s\n", r.Version, r.Build, r.Date.Format("2006-01-02"))
		}
	}
}
