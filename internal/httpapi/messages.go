package httpapi

import (
	"fmt"
	"net/http"
	"strings"
)

type otpRequest struct {
	Phone string `json:"phone"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (s *Server) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Phone) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "phone is required")
		return
	}
	if s.sender == nil || !s.sender.Connected() {
		respondError(w, http.StatusServiceUnavailable, "whatsapp_unavailable", "messaging transport is not connected")
		return
	}

	code, err := s.otps.Issue(r.Context(), req.Phone)
	if err != nil {
		s.metrics.OTPEvents.WithLabelValues("issue_error").Inc()
		respondError(w, http.StatusInternalServerError, "otp_error", err.Error())
		return
	}

	text := fmt.Sprintf("%s is your verification code.", code)
	if err := s.sender.SendText(r.Context(), req.Phone, text); err != nil {
		s.metrics.OTPEvents.WithLabelValues("send_error").Inc()
		s.metrics.MessagesSent.WithLabelValues("otp", "failed").Inc()
		respondError(w, http.StatusInternalServerError, "send_failed", "failed to send OTP")
		return
	}

	s.metrics.OTPEvents.WithLabelValues("issued").Inc()
	s.metrics.MessagesSent.WithLabelValues("otp", "sent").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"message": "OTP sent"})
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := decodeJSON(r, &req); err != nil ||
		strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Code) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "phone and code are required")
		return
	}

	valid, err := s.otps.Verify(r.Context(), req.Phone, req.Code)
	if err != nil {
		s.metrics.OTPEvents.WithLabelValues("verify_error").Inc()
		respondError(w, http.StatusInternalServerError, "otp_error", err.Error())
		return
	}
	if !valid {
		s.metrics.OTPEvents.WithLabelValues("verify_rejected").Inc()
		respondJSON(w, http.StatusBadRequest, map[string]any{"valid": false})
		return
	}

	s.metrics.OTPEvents.WithLabelValues("verified").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"valid": true})
}

type sendMessageRequest struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil ||
		strings.TrimSpace(req.Number) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "number and message are required")
		return
	}
	if s.sender == nil || !s.sender.Connected() {
		respondError(w, http.StatusServiceUnavailable, "whatsapp_unavailable", "messaging transport is not connected")
		return
	}

	text := fmt.Sprintf("From %s:\n%s", callerNumber(r), req.Message)
	if err := s.sender.SendText(r.Context(), req.Number, text); err != nil {
		s.metrics.MessagesSent.WithLabelValues("api", "failed").Inc()
		respondError(w, http.StatusInternalServerError, "send_failed", "failed to send message")
		return
	}

	s.metrics.MessagesSent.WithLabelValues("api", "sent").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"sent": true})
}

type bulkMessageRequest struct {
	Numbers  []string `json:"numbers"`
	Template string   `json:"template"`
}

type bulkResult struct {
	Number string `json:"number"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleBulkMessage(w http.ResponseWriter, r *http.Request) {
	var req bulkMessageRequest
	if err := decodeJSON(r, &req); err != nil ||
		len(req.Numbers) == 0 || strings.TrimSpace(req.Template) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "numbers (array) and template are required")
		return
	}
	if s.sender == nil || !s.sender.Connected() {
		respondError(w, http.StatusServiceUnavailable, "whatsapp_unavailable", "messaging transport is not connected")
		return
	}

	sender := callerNumber(r)
	results := make([]bulkResult, 0, len(req.Numbers))
	for _, number := range req.Numbers {
		text := strings.ReplaceAll(req.Template, "{number}", number)
		text = strings.ReplaceAll(text, "{sender}", sender)
		if err := s.sender.SendText(r.Context(), number, text); err != nil {
			s.metrics.MessagesSent.WithLabelValues("bulk", "failed").Inc()
			results = append(results, bulkResult{Number: number, Status: "failed", Error: err.Error()})
			continue
		}
		s.metrics.MessagesSent.WithLabelValues("bulk", "sent").Inc()
		results = append(results, bulkResult{Number: number, Status: "sent"})
	}

	respondJSON(w, http.StatusOK, map[string]any{"results": results})
}
