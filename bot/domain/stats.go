package domain

import (
	"context"
	"time"
)

// StatsEvent records one routed command and the gate's verdict.
//
// Mind cardinality: Identity is only persisted by stores that opt in,
// since an uncontrolled identity dimension can blow up key counts in a
// backend like Redis.
type StatsEvent struct {
	Identity string
	Command  Feature
	Allowed  bool

	At time.Time
}

// StatsStore is the persistence strategy for command statistics.
//
// Recording is best-effort: callers must treat errors as non-fatal and
// never fail a request because stats could not be written.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// SlotPool represents a resource with finite capacity (e.g. concurrent
// in-flight messages).
//
// Acquire blocks until a slot is free or ctx ends. On success it returns
// a release function that must be called exactly once.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
