package application

import (
	"context"
	"fmt"
	"time"

	"appstore-bot/bot/domain"
)

const (
	// Counter expiry gets a small margin past the window's natural
	// duration so a counter never outlives its bucket by much, but a
	// clock skewed a few seconds cannot expire it early either.
	dayTTL    = 24*time.Hour + 5*time.Minute
	minuteTTL = 60*time.Second + 10*time.Second
)

const (
	reasonGlobalLimit  = "今日查询次数已达上限，明天再来吧。"
	reasonFeatureLimit = "该功能今日次数已用完，明天再来吧。"
	reasonMinuteLimit  = "操作太频繁了，请稍等一分钟再试。"
)

// Gate is the multi-window counted access-control layer.
//
// Policy: availability beats strict quota accounting. Whenever the store
// is absent or a counter operation fails, the request is allowed — the
// single degraded-mode branch lives in bump. The one exception is
// ManageVIP, which is an explicit administrative action and fails loudly.
type Gate struct {
	Config domain.GateConfig
	// Store may be nil (unconfigured backend); every check then allows.
	Store domain.KV
	// Now is the clock, swappable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (g Gate) now() time.Time {
	if g.Now != nil {
		return g.Now().In(g.location())
	}
	return time.Now().In(g.location())
}

func (g Gate) location() *time.Location {
	if g.Config.Location != nil {
		return g.Config.Location
	}
	return time.UTC
}

// Check runs the gate for one identity/feature pair.
//
// Order matters: privileged bypass first (nothing counted), then the
// fail-open branch, then global day window, feature day window and the
// minute window — each increment-then-compare, so an over-limit request
// still consumes one unit of the windows it reached.
func (g Gate) Check(ctx context.Context, identity string, feature domain.Feature, capability domain.Capability) domain.Decision {
	if capability == domain.CapExempt || identity == "" {
		return domain.Decision{Allowed: true}
	}
	if g.Config.IsAdmin(identity) {
		return domain.Decision{Allowed: true}
	}
	if g.Store == nil {
		return domain.Decision{Allowed: true}
	}
	if g.IsVIP(ctx, identity) {
		return domain.Decision{Allowed: true, VIP: true}
	}

	now := g.now()
	day := now.Format("2006-01-02")

	if g.Config.GlobalDailyLimit > 0 {
		key := fmt.Sprintf("usage:global:%s:%s", day, identity)
		used, ok := g.bump(ctx, key, dayTTL)
		if ok && used > g.Config.GlobalDailyLimit {
			return domain.Decision{Reason: reasonGlobalLimit, Used: used, Limit: g.Config.GlobalDailyLimit}
		}
	}

	if capability != domain.CapGated {
		return domain.Decision{Allowed: true}
	}

	if limit := g.Config.FeatureLimits[feature]; limit > 0 {
		key := fmt.Sprintf("usage:%s:%s:%s", feature, day, identity)
		used, ok := g.bump(ctx, key, dayTTL)
		if ok && used > limit {
			return domain.Decision{Reason: reasonFeatureLimit, Used: used, Limit: limit}
		}
	}

	if g.Config.MinuteLimit > 0 {
		minute := now.Format("200601021504")
		key := fmt.Sprintf("usage:minute:%s:%s:%s", feature, minute, identity)
		used, ok := g.bump(ctx, key, minuteTTL)
		if ok && used > g.Config.MinuteLimit {
			return domain.Decision{Reason: reasonMinuteLimit, Used: used, Limit: g.Config.MinuteLimit}
		}
	}

	return domain.Decision{Allowed: true}
}

// bump is the increment-then-compare primitive shared by all windows.
// The first increment of a bucket sets its expiry. ok=false means the
// store failed and the caller must fall back to allowing.
func (g Gate) bump(ctx context.Context, key string, ttl time.Duration) (used int64, ok bool) {
	used, err := g.Store.Incr(ctx, key)
	if err != nil {
		// degraded mode: the backend is unreachable, let traffic through
		return 0, false
	}
	if used == 1 {
		_ = g.Store.Expire(ctx, key, ttl)
	}
	return used, true
}

// IsVIP reports whether identity carries the persisted exemption flag.
// Store errors read as "not VIP" so a flaky backend only withdraws the
// privilege, never the service.
func (g Gate) IsVIP(ctx context.Context, identity string) bool {
	if g.Store == nil || identity == "" {
		return false
	}
	v, err := g.Store.Get(ctx, vipKey(identity))
	if err != nil {
		return false
	}
	return v == "1" || v == "true"
}

// VIPOp selects a ManageVIP variant.
type VIPOp string

const (
	VIPGrant  VIPOp = "grant"
	VIPRevoke VIPOp = "revoke"
)

// ManageVIP grants (no expiry, permanent until revoked) or revokes the
// exemption flag. Unlike Check this fails loudly: an administrator must
// know when the mutation did not take effect.
func (g Gate) ManageVIP(ctx context.Context, op VIPOp, identity string) error {
	if g.Store == nil {
		return domain.ErrKVUnavailable
	}
	if identity == "" {
		return fmt.Errorf("manage vip: empty identity")
	}
	switch op {
	case VIPGrant:
		if err := g.Store.Set(ctx, vipKey(identity), "1", 0); err != nil {
			return fmt.Errorf("grant vip: %w", err)
		}
		return nil
	case VIPRevoke:
		if err := g.Store.Del(ctx, vipKey(identity)); err != nil {
			return fmt.Errorf("revoke vip: %w", err)
		}
		return nil
	}
	return fmt.Errorf("manage vip: unknown op %q", op)
}

func vipKey(identity string) string { return "vip:" + identity }
