package session

import (
	"context"
	"testing"
	"time"

	"github.com/frost-bit-star/stackverify-bot/internal/memory"
)

var day1 = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func TestGreetingShortCircuitsOncePerDay(t *testing.T) {
	r := NewResolver(memory.NewInMemoryStore())
	ctx := context.Background()

	res := r.Resolve(ctx, "u1", "hi", day1)
	if res.Reply != GreetingReply {
		t.Fatalf("first hi reply = %q, want %q", res.Reply, GreetingReply)
	}
	if !res.State.Greeted {
		t.Fatalf("state.Greeted = false after greeting")
	}

	// Second greeting the same day falls through to the pipeline.
	res = r.Resolve(ctx, "u1", "hi", day1.Add(time.Hour))
	if res.Reply != "" {
		t.Fatalf("second hi reply = %q, want fall-through", res.Reply)
	}
}

func TestGreetingResetsAtDayRollover(t *testing.T) {
	r := NewResolver(memory.NewInMemoryStore())
	ctx := context.Background()

	if res := r.Resolve(ctx, "u1", "hello", day1); res.Reply != GreetingReply {
		t.Fatalf("day1 reply = %q, want greeting", res.Reply)
	}
	if res := r.Resolve(ctx, "u1", "hello", day1.AddDate(0, 0, 1)); res.Reply != GreetingReply {
		t.Fatalf("day2 reply = %q, want greeting again after rollover", res.Reply)
	}
}

func TestNameCaptureIsSticky(t *testing.T) {
	r := NewResolver(memory.NewInMemoryStore())
	ctx := context.Background()

	res := r.Resolve(ctx, "u1", "my name is Asha", day1)
	if res.Reply != "Thank you Asha. How can I support you today?" {
		t.Fatalf("name ack = %q", res.Reply)
	}
	if res.State.KnownName != "Asha" {
		t.Fatalf("KnownName = %q, want Asha", res.State.KnownName)
	}

	res = r.Resolve(ctx, "u1", "my name is Brian", day1.Add(time.Minute))
	if res.Reply != "" {
		t.Fatalf("second declaration reply = %q, want fall-through", res.Reply)
	}
	if res.State.KnownName != "Asha" {
		t.Fatalf("KnownName = %q, want original Asha", res.State.KnownName)
	}
}

func TestGreetingWinsOverNameOnSameMessage(t *testing.T) {
	r := NewResolver(memory.NewInMemoryStore())
	ctx := context.Background()

	res := r.Resolve(ctx, "u1", "hi, my name is Asha", day1)
	if res.Reply != GreetingReply {
		t.Fatalf("reply = %q, want greeting priority", res.Reply)
	}
	if res.State.KnownName != "" {
		t.Fatalf("KnownName = %q, want deferred to next turn", res.State.KnownName)
	}

	// The deferred declaration lands on the next turn.
	res = r.Resolve(ctx, "u1", "my name is Asha", day1.Add(time.Minute))
	if res.State.KnownName != "Asha" {
		t.Fatalf("KnownName = %q, want Asha on next turn", res.State.KnownName)
	}
}

func TestQueryFallsThroughWithState(t *testing.T) {
	store := memory.NewInMemoryStore()
	r := NewResolver(store)
	ctx := context.Background()

	r.Resolve(ctx, "u1", "hi", day1)
	r.Resolve(ctx, "u1", "my name is Asha", day1)

	res := r.Resolve(ctx, "u1", "explain billing", day1)
	if res.Reply != "" {
		t.Fatalf("query reply = %q, want fall-through", res.Reply)
	}
	if !res.State.Greeted || res.State.KnownName != "Asha" {
		t.Fatalf("state = %+v, want greeted with known name", res.State)
	}
}
