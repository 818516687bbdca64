package domain

import (
	"context"
	"regexp"
)

// Command is one inbound text command, already attributed to a caller.
// Args holds the matcher's capture groups.
type Command struct {
	Identity string
	Text     string
	Args     []string
}

// Handler produces the reply text for a resolved command. An empty reply
// with a nil error is valid and means "nothing to say".
type Handler func(ctx context.Context, cmd Command) (string, error)

// Route binds a text pattern to a handler under a gating capability.
//
// Routes are evaluated strictly in declaration order and the first match
// wins, so an ordered route table is an implicit priority list: specific
// patterns must be declared before broad ones. Validate lets a route
// reject a syntactic match on semantic grounds (e.g. an unsupported
// region token), in which case resolution continues down the table.
type Route struct {
	Feature  Feature
	Pattern  *regexp.Regexp
	Cap      Capability
	Validate func(args []string) bool
	Handle   Handler
}
