package domain

import (
	"context"
	"errors"
	"time"
)

// Feature tags a counted command family for per-feature quotas and stats.
type Feature string

const (
	FeatureChart  Feature = "chart"
	FeaturePrice  Feature = "price"
	FeatureDetail Feature = "detail"
	FeatureIcon   Feature = "icon"
	FeatureOS     Feature = "os"
)

// Capability declares how a route interacts with the usage gate.
type Capability int

const (
	// CapExempt routes are never gated.
	CapExempt Capability = iota
	// CapGated routes consume the global window plus their feature window.
	CapGated
	// CapGlobalOnly routes consume only the global window.
	CapGlobalOnly
)

// Decision is the gate's answer for one request.
//
// Reason is human-readable and intended for direct display to the end
// user when Allowed is false.
type Decision struct {
	Allowed bool
	Reason  string
	VIP     bool
	Used    int64
	Limit   int64
}

// KV is the persistence contract for counters, flags and cached replies.
//
// Implementations must make Incr a single atomic round trip; concurrent
// requests from the same identity race on it otherwise. Get returns
// ("", nil) for a missing key. ttl <= 0 on Set means no expiry.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	DBSize(ctx context.Context) (int64, error)
}

// ErrKVUnavailable reports that the backing store is absent or unreachable.
// Gate checks swallow it (fail-open); administrative VIP mutations do not.
var ErrKVUnavailable = errors.New("kv unavailable")

// GateConfig is the explicit configuration of the usage gate, passed in at
// construction time so tests never have to mutate the environment.
type GateConfig struct {
	// AdminIDs bypass every counted limit, checked by exact membership.
	AdminIDs []string
	// GlobalDailyLimit caps all counted commands per identity per day.
	GlobalDailyLimit int64
	// MinuteLimit additionally caps gated features per identity per
	// minute, to blunt bursts. 0 disables the minute window.
	MinuteLimit int64
	// FeatureLimits caps individual features per identity per day.
	// A feature with no entry (or a non-positive one) is not counted.
	FeatureLimits map[Feature]int64
	// Location fixes the time zone for day/minute bucket boundaries so
	// they are deterministic regardless of caller locale.
	Location *time.Location
}

func (c GateConfig) IsAdmin(identity string) bool {
	for _, id := range c.AdminIDs {
		if id == identity {
			return true
		}
	}
	return false
}
