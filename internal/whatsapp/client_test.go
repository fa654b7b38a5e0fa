package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/frost-bit-star/stackverify-bot/internal/directory"
	"github.com/frost-bit-star/stackverify-bot/internal/observability"
)

type scriptedResponder struct{}

func (scriptedResponder) Respond(_ context.Context, userID, message string) string {
	return "reply to " + userID + ": " + message
}

func newDispatchClient(t *testing.T) (*Client, directory.Registry) {
	t.Helper()
	registry := directory.NewInMemoryRegistry()
	return &Client{
		responder: scriptedResponder{},
		registry:  registry,
		metrics:   observability.NewMetrics(fmt.Sprintf("test_whatsapp_%d", time.Now().UnixNano())),
	}, registry
}

func TestDispatchPing(t *testing.T) {
	c, _ := newDispatchClient(t)
	got := c.dispatch(context.Background(), "254700000001", ".ping")
	if got != "StackVerify bot is online." {
		t.Fatalf("dispatch(.ping) = %q", got)
	}
}

func TestDispatchAllowAndRecover(t *testing.T) {
	c, registry := newDispatchClient(t)
	ctx := context.Background()

	got := c.dispatch(ctx, "254700000001", "recover apikey")
	if got != "No API key found. Use 'allow me' first." {
		t.Fatalf("recover before allow = %q", got)
	}

	granted := c.dispatch(ctx, "254700000001", "allow me")
	if !strings.HasPrefix(granted, "Access granted. Your API key:\n") {
		t.Fatalf("allow me reply = %q", granted)
	}
	key := strings.TrimPrefix(granted, "Access granted. Your API key:\n")

	stored, err := registry.Recover(ctx, "254700000001")
	if err != nil || stored != key {
		t.Fatalf("registry holds %q, %v, want %q", stored, err, key)
	}

	recovered := c.dispatch(ctx, "254700000001", "Recover APIKey")
	if recovered != "Your API key: "+key {
		t.Fatalf("recover reply = %q", recovered)
	}
}

func TestDispatchForwardsToResponder(t *testing.T) {
	c, _ := newDispatchClient(t)
	got := c.dispatch(context.Background(), "254700000001", "explain billing")
	if got != "reply to 254700000001: explain billing" {
		t.Fatalf("dispatch(query) = %q", got)
	}
}

func TestSanitizePhone(t *testing.T) {
	cases := map[string]string{
		"+254 700-000-001":  "254700000001",
		"(254)700000001":    "254700000001",
		"254700000001":      "254700000001",
		"no digits at all!": "",
	}
	for in, want := range cases {
		if got := sanitizePhone(in); got != want {
			t.Errorf("sanitizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
