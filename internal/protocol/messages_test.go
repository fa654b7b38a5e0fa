package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessage(t *testing.T) {
	raw := []byte(`{"type":"client_message","user_id":"u1","text":"hello","ts_ms":1712345678}`)
	parsed, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	msg, ok := parsed.(ClientMessage)
	if !ok {
		t.Fatalf("parsed type = %T, want ClientMessage", parsed)
	}
	if msg.UserID != "u1" || msg.Text != "hello" || msg.TSMs != 1712345678 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseClientControl(t *testing.T) {
	raw := []byte(`{"type":"client_control","user_id":"u1","action":"reset"}`)
	parsed, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	ctl, ok := parsed.(ClientControl)
	if !ok {
		t.Fatalf("parsed type = %T, want ClientControl", parsed)
	}
	if ctl.Action != "reset" {
		t.Fatalf("action = %q, want reset", ctl.Action)
	}
}

func TestParseRejectsInvalidPayloads(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"bad json", `{`},
		{"missing text", `{"type":"client_message","user_id":"u1"}`},
		{"missing user", `{"type":"client_message","text":"hi"}`},
		{"missing action", `{"type":"client_control","user_id":"u1"}`},
	}
	for _, tc := range cases {
		if _, err := ParseClientMessage([]byte(tc.raw)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"assistant_message","user_id":"u1","text":"x"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}
