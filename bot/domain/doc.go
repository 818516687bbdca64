// Package domain defines the contracts and domain types of the bot.
//
// This package does not depend on net/http nor on concrete backends.
// The intent is to keep business rules unit-testable and decoupled from
// infrastructure details: the key-value store, the usage counters and the
// upstream catalog sources are all expressed here as interfaces that the
// infra package implements.
package domain
