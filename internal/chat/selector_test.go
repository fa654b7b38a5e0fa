package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/frost-bit-star/stackverify-bot/internal/memory"
)

func TestTeachingIntent(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"explain how StackVerify works", true},
		{"can you teach me the steps", true},
		{"where is the website?", true},
		{"help!", true},
		{"ok thanks", false},
		{"sounds good", false},
		{"show me", false}, // "how" inside "show" must not match
		{"", false},
	}
	for _, tc := range cases {
		if got := TeachingIntent(tc.message); got != tc.want {
			t.Errorf("TeachingIntent(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}

func TestSelectorWindowBoundaries(t *testing.T) {
	s := NewSelector(memory.NewInMemoryStore(), 20, 4)
	if got := s.Window("explain how StackVerify works"); got != 20 {
		t.Fatalf("Window(teaching) = %d, want 20", got)
	}
	if got := s.Window("ok thanks"); got != 4 {
		t.Fatalf("Window(short) = %d, want 4", got)
	}
}

func TestSelectorBoundsHistory(t *testing.T) {
	store := memory.NewInMemoryStore()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		if err := store.AppendTurn(ctx, "u1", memory.RoleUser, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	s := NewSelector(store, 20, 4)

	short := s.Select(ctx, "u1", "ok thanks")
	if len(short) != 4 {
		t.Fatalf("short window = %d turns, want 4", len(short))
	}
	if short[len(short)-1].Content != "m11" {
		t.Fatalf("short window newest = %q, want m11", short[len(short)-1].Content)
	}

	full := s.Select(ctx, "u1", "explain billing")
	if len(full) != 12 {
		t.Fatalf("full window = %d turns, want all 12", len(full))
	}
}
