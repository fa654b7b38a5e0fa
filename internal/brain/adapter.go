package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request carries one fully composed prompt to the completion service.
type Request struct {
	UserID string `json:"user_id"`
	Prompt string `json:"prompt"`
}

// Response is the parsed completion reply.
type Response struct {
	Text string `json:"text"`
}

// Adapter bridges the chat pipeline with an external completion service.
type Adapter interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ErrEmptyReply marks a 2xx response whose reply field is missing or
// not a usable string.
var ErrEmptyReply = errors.New("completion reply missing or empty")

// Config controls adapter construction.
type Config struct {
	Mode    string
	URL     string
	Timeout time.Duration
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "http"
	}

	switch mode {
	case "http":
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, errors.New("completion URL is required for http mode")
		}
		return NewHTTPAdapter(cfg.URL, cfg.Timeout), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported completion adapter mode %q", cfg.Mode)
	}
}
