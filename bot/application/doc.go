// Package application holds the bot's use cases: the usage gate, the
// ordered command router, the release-catalog normalizer and the command
// handlers. It depends on the contracts in bot/domain, never on net/http
// or on concrete backends, so every decision path is testable with fakes.
package application
