package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/frost-bit-star/stackverify-bot/internal/config"
	"github.com/frost-bit-star/stackverify-bot/internal/directory"
	"github.com/frost-bit-star/stackverify-bot/internal/observability"
	"github.com/frost-bit-star/stackverify-bot/internal/otp"
)

// Responder produces a reply for one inbound user message.
type Responder interface {
	Respond(ctx context.Context, userID, message string) string
}

// Sender delivers an outbound text to a phone number over the
// messaging transport.
type Sender interface {
	SendText(ctx context.Context, number, text string) error
	Connected() bool
}

type Server struct {
	cfg       config.Config
	responder Responder
	registry  directory.Registry
	otps      otp.Service
	sender    Sender
	metrics   *observability.Metrics
	startedAt time.Time
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, responder Responder, registry directory.Registry, otps otp.Service, sender Sender, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:       cfg,
		responder: responder,
		registry:  registry,
		otps:      otps,
		sender:    sender,
		metrics:   metrics,
		startedAt: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("StackVerify bot is running\n"))
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/status", s.handleStatus)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/v1/otp/request", s.handleOTPRequest)
		r.Post("/v1/otp/verify", s.handleOTPVerify)
		r.Post("/v1/messages", s.handleSendMessage)
		r.Post("/v1/messages/bulk", s.handleBulkMessage)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ready",
		"whatsapp_connected": s.sender != nil && s.sender.Connected(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"uptime_ms":          time.Since(s.startedAt).Milliseconds(),
		"whatsapp_enabled":   s.cfg.WhatsAppEnabled,
		"whatsapp_connected": s.sender != nil && s.sender.Connected(),
		"completion_mode":    s.cfg.CompletionMode,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
