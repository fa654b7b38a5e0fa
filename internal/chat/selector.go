package chat

import (
	"context"
	"log"
	"strings"

	"github.com/frost-bit-star/stackverify-bot/internal/memory"
)

// teachingKeywords flag messages that ask for instruction or detail and
// therefore deserve the full history window.
var teachingKeywords = map[string]struct{}{
	"teach":        {},
	"explain":      {},
	"how":          {},
	"help":         {},
	"guide":        {},
	"steps":        {},
	"start":        {},
	"link":         {},
	"website":      {},
	"store":        {},
	"stackverify":  {},
	"verify":       {},
	"verification": {},
	"billing":      {},
	"sms":          {},
	"email":        {},
	"whatsapp":     {},
	"marketing":    {},
	"integrate":    {},
	"integration":  {},
	"setup":        {},
	"price":        {},
	"cost":         {},
}

// TeachingIntent reports whether a message looks like a request for
// instruction or detail rather than a short exchange.
func TeachingIntent(message string) bool {
	for _, field := range strings.Fields(strings.ToLower(message)) {
		token := strings.Trim(field, ".,!?:;\"'()")
		if _, ok := teachingKeywords[token]; ok {
			return true
		}
	}
	return false
}

// Selector chooses how much prior conversation to attach to a prompt.
// Short acknowledgements get a small recency window; substantive
// questions get the full window, bounding token cost without losing
// continuity.
type Selector struct {
	store    memory.Store
	fullCap  int
	shortCap int
}

func NewSelector(store memory.Store, fullCap, shortCap int) *Selector {
	if fullCap <= 0 {
		fullCap = 20
	}
	if shortCap <= 0 || shortCap > fullCap {
		shortCap = 4
	}
	return &Selector{store: store, fullCap: fullCap, shortCap: shortCap}
}

// Select returns the bounded history window for the message, oldest
// first. Storage failures degrade to an empty window.
func (s *Selector) Select(ctx context.Context, userID, message string) []memory.Turn {
	limit := s.shortCap
	if TeachingIntent(message) {
		limit = s.fullCap
	}
	turns, err := s.store.RecentTurns(ctx, userID, limit)
	if err != nil {
		log.Printf("chat: recent turns for %s failed: %v", userID, err)
		return nil
	}
	return turns
}

// Window reports the limit Select would use, exposed for tests and the
// perf endpoint.
func (s *Selector) Window(message string) int {
	if TeachingIntent(message) {
		return s.fullCap
	}
	return s.shortCap
}
