package application

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"appstore-bot/bot/domain"
)

// Router resolves free-text input to exactly one route and runs it under
// the usage gate.
//
// The route table is static configuration built once at start-up; its
// declaration order is a correctness invariant (first match wins, no
// fallthrough), pinned by TestRouteTable_Order.
type Router struct {
	Routes []domain.Route
	Gate   Gate
	// Stats, when set, records every routed command best-effort.
	Stats  domain.StatsStore
	Logger *zap.Logger
}

// Resolve walks the table in declaration order and returns the first
// route whose pattern matches and whose semantic validation (if any)
// accepts the captures. ok=false signals "no actionable route".
func (r *Router) Resolve(text string) (*domain.Route, []string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil, false
	}
	for i := range r.Routes {
		route := &r.Routes[i]
		m := route.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		args := m[1:]
		if route.Validate != nil && !route.Validate(args) {
			// syntactic match, semantically invalid: keep trying
			continue
		}
		return route, args, true
	}
	return nil, nil, false
}

// Dispatch resolves text for identity and runs the chosen route. The
// gate is consulted before the handler per the route's capability; on
// denial the handler is never invoked and the denial text is the reply.
// Once a route is chosen it is committed: a handler that produces no
// output ends the dispatch, it does not fall through to other routes.
func (r *Router) Dispatch(ctx context.Context, identity, text string) (string, error) {
	route, args, ok := r.Resolve(text)
	if !ok {
		return "", nil
	}

	dec := domain.Decision{Allowed: true}
	if route.Cap != domain.CapExempt {
		dec = r.Gate.Check(ctx, identity, route.Feature, route.Cap)
	}
	if r.Stats != nil {
		_ = r.Stats.Record(ctx, domain.StatsEvent{
			Identity: identity,
			Command:  route.Feature,
			Allowed:  dec.Allowed,
			At:       time.Now(),
		})
	}
	if !dec.Allowed {
		if r.Logger != nil {
			r.Logger.Info("command denied",
				zap.String("feature", string(route.Feature)),
				zap.Int64("used", dec.Used),
				zap.Int64("limit", dec.Limit))
		}
		return dec.Reason, nil
	}

	return route.Handle(ctx, domain.Command{Identity: identity, Text: text, Args: args})
}
