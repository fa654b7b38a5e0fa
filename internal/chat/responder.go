package chat

import (
	"context"
	"strings"
	"time"

	"github.com/frost-bit-star/stackverify-bot/internal/observability"
	"github.com/frost-bit-star/stackverify-bot/internal/session"
)

// Responder is the full inbound-message pipeline: session resolution,
// history selection, completion. It always produces a reply string and
// never surfaces an error to the transport.
type Responder struct {
	resolver *session.Resolver
	selector *Selector
	gateway  *Gateway
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewResponder(resolver *session.Resolver, selector *Selector, gateway *Gateway, metrics *observability.Metrics) *Responder {
	return &Responder{
		resolver: resolver,
		selector: selector,
		gateway:  gateway,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Respond handles one incoming (userID, message) pair end to end.
func (r *Responder) Respond(ctx context.Context, userID, message string) string {
	userID = strings.TrimSpace(userID)
	message = strings.TrimSpace(message)
	if userID == "" || message == "" {
		return FallbackReply
	}

	resolveStart := time.Now()
	res := r.resolver.Resolve(ctx, userID, message, r.now())
	r.metrics.ObserveStage("resolve", time.Since(resolveStart))

	if res.Reply != "" {
		kind := "name"
		if session.IsGreeting(message) {
			kind = "greeting"
		}
		r.metrics.ShortCircuits.WithLabelValues(kind).Inc()
		return res.Reply
	}

	selectStart := time.Now()
	history := r.selector.Select(ctx, userID, message)
	r.metrics.ObserveStage("select", time.Since(selectStart))

	return r.gateway.Reply(ctx, userID, message, res.State.KnownName, history)
}
