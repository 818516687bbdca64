package infra

import (
	"context"
	"sync"

	"appstore-bot/bot/domain"
)

type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryStatsStore is a simple in-memory stats store.
// Useful for tests and development.
//
// It never expires anything and is not meant for production.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byCommand  map[domain.Feature]Counters
	byIdentity map[string]Counters

	trackIdentities bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithMemoryTrackIdentities(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackIdentities = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byCommand:  make(map[domain.Feature]Counters),
		byIdentity: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bump := func(c Counters) Counters {
		if ev.Allowed {
			c.Allowed++
		} else {
			c.Denied++
		}
		return c
	}

	s.total = bump(s.total)
	s.byCommand[ev.Command] = bump(s.byCommand[ev.Command])
	if s.trackIdentities {
		s.byIdentity[ev.Identity] = bump(s.byIdentity[ev.Identity])
	}
	return nil
}

func (s *MemoryStatsStore) Totals(context.Context) (allowed, denied int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total.Allowed, s.total.Denied, nil
}

func (s *MemoryStatsStore) ByCommand() map[domain.Feature]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Feature]Counters, len(s.byCommand))
	for k, v := range s.byCommand {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByIdentity() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byIdentity))
	for k, v := range s.byIdentity {
		out[k] = v
	}
	return out
}
