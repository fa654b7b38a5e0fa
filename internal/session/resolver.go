package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frost-bit-star/stackverify-bot/internal/memory"
)

// GreetingReply is sent once per user per day in response to a greeting.
const GreetingReply = "Hi there — what is your name?"

// Resolution is the outcome of resolving one incoming message. When
// Reply is non-empty the caller must send it verbatim and skip the
// completion pipeline.
type Resolution struct {
	Reply string
	State memory.DayState
}

// Resolver loads per-user-per-day state and short-circuits greeting and
// name-capture turns before they reach the completion gateway.
type Resolver struct {
	store memory.Store
}

func NewResolver(store memory.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve determines whether the message is a greeting, a name
// declaration, or a normal query, updating day state accordingly.
// Storage failures are logged and swallowed so the conversation
// continues with default state.
func (r *Resolver) Resolve(ctx context.Context, userID, message string, now time.Time) Resolution {
	day := memory.DayOf(now)

	state := memory.DayState{UserID: userID, Day: day}
	if loaded, err := r.store.DayStateFor(ctx, userID, day); err != nil {
		log.Printf("session: load state for %s failed: %v", userID, err)
	} else if loaded != nil {
		state = *loaded
	}

	// Greeting wins over name declaration on the same message; the name
	// is picked up on the next turn instead.
	if IsGreeting(message) {
		if state.Greeted {
			return Resolution{State: state}
		}
		state.Greeted = true
		r.persist(ctx, state)
		return Resolution{Reply: GreetingReply, State: state}
	}

	if name, ok := ExtractName(message); ok && state.KnownName == "" {
		state.KnownName = name
		r.persist(ctx, state)
		return Resolution{
			Reply: fmt.Sprintf("Thank you %s. How can I support you today?", name),
			State: state,
		}
	}

	return Resolution{State: state}
}

func (r *Resolver) persist(ctx context.Context, state memory.DayState) {
	if err := r.store.PutDayState(ctx, state); err != nil {
		log.Printf("session: persist state for %s failed: %v", state.UserID, err)
	}
}
