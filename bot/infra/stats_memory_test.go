package infra

import (
	"context"
	"testing"
	"time"

	"appstore-bot/bot/domain"
)

func TestMemoryStatsStore_RecordAndTotals(t *testing.T) {
	s := NewMemoryStatsStore(WithMemoryTrackIdentities(true))
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []domain.StatsEvent{
		{Identity: "u1", Command: domain.FeatureChart, Allowed: true, At: at},
		{Identity: "u1", Command: domain.FeatureChart, Allowed: true, At: at},
		{Identity: "u2", Command: domain.FeatureIcon, Allowed: false, At: at},
	}
	for _, ev := range events {
		if err := s.Record(ctx, ev); err != nil {
			t.Fatalf("unexpected record error: %v", err)
		}
	}

	allowed, denied, err := s.Totals(ctx)
	if err != nil {
		t.Fatalf("unexpected totals error: %v", err)
	}
	if allowed != 2 || denied != 1 {
		t.Fatalf("expected totals 2/1, got %d/%d", allowed, denied)
	}

	byCmd := s.ByCommand()
	if c := byCmd[domain.FeatureChart]; c.Allowed != 2 || c.Denied != 0 {
		t.Fatalf("expected chart 2/0, got %d/%d", c.Allowed, c.Denied)
	}
	if c := byCmd[domain.FeatureIcon]; c.Allowed != 0 || c.Denied != 1 {
		t.Fatalf("expected icon 0/1, got %d/%d", c.Allowed, c.Denied)
	}

	byID := s.ByIdentity()
	if c := byID["u2"]; c.Denied != 1 {
		t.Fatalf("expected u2 denied=1, got %d", c.Denied)
	}
}

func TestMemoryStatsStore_IdentityTrackingOffByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	_ = s.Record(context.Background(), domain.StatsEvent{Identity: "u1", Command: domain.FeatureChart, Allowed: true})

	if got := s.ByIdentity(); len(got) != 0 {
		t.Fatalf("expected no identity counters by default, got %d", len(got))
	}
	if got := s.ByCommand(); len(got) != 1 {
		t.Fatalf("expected one command counter, got %d", len(got))
	}
}
