// Package infra contains the concrete implementations of the contracts
// defined in bot/domain.
//
// Examples:
//   - RedisKV: counters, flags and cached replies on go-redis
//   - BurstStore: per-identity token bucket using golang.org/x/time/rate
//   - SlotPool: simple channel semaphore bounding in-flight messages
//   - upstream clients for the store catalog, the top charts, the
//     OS-update feed and the exchange-rate API
package infra
