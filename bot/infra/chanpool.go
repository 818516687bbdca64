package infra

import (
	"context"

	"appstore-bot/bot/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewSlotPool creates a simple channel-backed pool with capacity max,
// used to bound concurrently processed inbound messages.
func NewSlotPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
