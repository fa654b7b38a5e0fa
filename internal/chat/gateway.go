package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/frost-bit-star/stackverify-bot/internal/brain"
	"github.com/frost-bit-star/stackverify-bot/internal/memory"
	"github.com/frost-bit-star/stackverify-bot/internal/observability"
)

// FallbackReply is returned whenever the completion pipeline cannot
// produce a real answer.
const FallbackReply = "Sorry, the AI is currently unavailable."

// Gateway composes the outbound prompt, issues exactly one completion
// call, and persists the resulting turn pair.
type Gateway struct {
	adapter      brain.Adapter
	store        memory.Store
	metrics      *observability.Metrics
	systemPrompt string
	historyCap   int
}

func NewGateway(adapter brain.Adapter, store memory.Store, metrics *observability.Metrics, systemPrompt string, historyCap int) *Gateway {
	if historyCap <= 0 {
		historyCap = 20
	}
	return &Gateway{
		adapter:      adapter,
		store:        store,
		metrics:      metrics,
		systemPrompt: systemPrompt,
		historyCap:   historyCap,
	}
}

// Reply runs one completion turn. The user's message is persisted
// before the upstream call so continuity survives a failed completion;
// the assistant turn is persisted only on success. Every failure maps
// to FallbackReply, never to an error.
func (g *Gateway) Reply(ctx context.Context, userID, message, knownName string, history []memory.Turn) string {
	if err := g.store.AppendTurn(ctx, userID, memory.RoleUser, message); err != nil {
		log.Printf("chat: append user turn for %s failed: %v", userID, err)
		g.metrics.StoreErrors.WithLabelValues("append_user").Inc()
	}

	prompt := ComposePrompt(message, knownName, history, g.systemPrompt)

	start := time.Now()
	resp, err := g.adapter.Complete(ctx, brain.Request{UserID: userID, Prompt: prompt})
	elapsed := time.Since(start)
	if err != nil {
		g.metrics.ObserveCompletion("fallback", elapsed)
		log.Printf("chat: completion for %s failed: %v", userID, err)
		return FallbackReply
	}

	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		g.metrics.ObserveCompletion("fallback", elapsed)
		return FallbackReply
	}
	g.metrics.ObserveCompletion("ok", elapsed)

	if err := g.store.AppendTurn(ctx, userID, memory.RoleAssistant, reply); err != nil {
		log.Printf("chat: append assistant turn for %s failed: %v", userID, err)
		g.metrics.StoreErrors.WithLabelValues("append_assistant").Inc()
	}
	if err := g.store.Trim(ctx, userID, g.historyCap); err != nil {
		log.Printf("chat: trim for %s failed: %v", userID, err)
		g.metrics.StoreErrors.WithLabelValues("trim").Inc()
	}

	return reply
}

// ComposePrompt builds the single text block sent upstream. The user's
// input leads so it survives truncation on the service side; system
// instructions close the block.
func ComposePrompt(message, knownName string, history []memory.Turn, systemPrompt string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(message))

	if knownName != "" {
		b.WriteString("\n\nThe user's name is ")
		b.WriteString(knownName)
		b.WriteString(".")
	}

	if len(history) > 0 {
		b.WriteString("\n\nPrevious conversation:")
		for _, turn := range history {
			label := "User"
			if turn.Role == memory.RoleAssistant {
				label = "Assistant"
			}
			b.WriteString("\n")
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(turn.Content)
		}
	}

	if strings.TrimSpace(systemPrompt) != "" {
		b.WriteString("\n\nInstructions:\n")
		b.WriteString(strings.TrimSpace(systemPrompt))
	}

	return b.String()
}
