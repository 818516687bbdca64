// Package bot provides the HTTP adapter of the chat bot.
//
// Layer overview:
//
//   - domain: contracts and domain types (no net/http)
//   - application: use cases (gate decisions, route dispatch, catalog
//     normalization, command handlers) without net/http
//   - infra: concrete backends (Redis KV, token buckets, upstream clients)
//   - bot (this package): webhook endpoint + envelope codec + wiring of
//     deadline, burst guard and concurrency bound
//
// Message flow:
//
//  1. verify the platform signature (GET echo) or decode the XML envelope
//  2. bound the work: concurrency slot, per-identity burst token, deadline
//  3. dispatch the text through the application router (gate included)
//  4. encode the reply envelope, or answer an empty 200 when there is
//     nothing to say — the platform retries on anything else
package bot
