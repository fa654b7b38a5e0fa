package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/frost-bit-star/stackverify-bot/internal/protocol"
)

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	UserID  string `json:"user_id"`
	ReplyID string `json:"reply_id"`
	Reply   string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id and message are required")
		return
	}

	reply := s.responder.Respond(r.Context(), req.UserID, req.Message)
	respondJSON(w, http.StatusOK, chatResponse{
		UserID:  req.UserID,
		ReplyID: uuid.NewString(),
		Reply:   reply,
	})
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.ActiveWSChats.Inc()
	defer s.metrics.ActiveWSChats.Dec()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.metrics.WSMessages.WithLabelValues("outbound", string(protocol.TypeErrorEvent)).Inc()
			if werr := s.writeWS(conn, protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			}); werr != nil {
				return
			}
			continue
		}

		switch msg := parsed.(type) {
		case protocol.ClientMessage:
			s.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeClientMessage)).Inc()
			reply := s.responder.Respond(r.Context(), msg.UserID, msg.Text)
			s.metrics.WSMessages.WithLabelValues("outbound", string(protocol.TypeAssistantMessage)).Inc()
			if err := s.writeWS(conn, protocol.AssistantMessage{
				Type:    protocol.TypeAssistantMessage,
				UserID:  msg.UserID,
				ReplyID: uuid.NewString(),
				Text:    reply,
				TSMs:    time.Now().UnixMilli(),
			}); err != nil {
				return
			}
		case protocol.ClientControl:
			s.metrics.WSMessages.WithLabelValues("inbound", string(protocol.TypeClientControl)).Inc()
			if err := s.writeWS(conn, protocol.SystemEvent{
				Type:   protocol.TypeSystemEvent,
				UserID: msg.UserID,
				Code:   "control_ack",
				Detail: msg.Action,
			}); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg)
}
