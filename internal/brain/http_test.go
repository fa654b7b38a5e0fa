package brain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPAdapterParsesReply(t *testing.T) {
	var gotText string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotText = r.URL.Query().Get("text")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{"prompt":"  Visit stackverify.vercel.app for details.  "}}`))
	}))
	defer ts.Close()

	a := NewHTTPAdapter(ts.URL, 5*time.Second)
	resp, err := a.Complete(context.Background(), Request{UserID: "u1", Prompt: "explain billing\nsome context"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "Visit stackverify.vercel.app for details." {
		t.Fatalf("resp.Text = %q, want trimmed reply", resp.Text)
	}
	if gotText != "explain billing\nsome context" {
		t.Fatalf("query text = %q, want full prompt", gotText)
	}
}

func TestHTTPAdapterNonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewHTTPAdapter(ts.URL, 5*time.Second)
	if _, err := a.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatalf("Complete() expected error on 500")
	}
}

func TestHTTPAdapterMissingReplyField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":{}}`))
	}))
	defer ts.Close()

	a := NewHTTPAdapter(ts.URL, 5*time.Second)
	_, err := a.Complete(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("Complete() error = %v, want ErrEmptyReply", err)
	}
}

func TestHTTPAdapterMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer ts.Close()

	a := NewHTTPAdapter(ts.URL, 5*time.Second)
	if _, err := a.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatalf("Complete() expected error on malformed body")
	}
}

func TestHTTPAdapterTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"result":{"prompt":"late"}}`))
	}))
	defer ts.Close()

	a := NewHTTPAdapter(ts.URL, 20*time.Millisecond)
	if _, err := a.Complete(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Fatalf("Complete() expected timeout error")
	}
}

func TestNewAdapterModes(t *testing.T) {
	if _, err := NewAdapter(Config{Mode: "http"}); err == nil {
		t.Fatalf("NewAdapter(http) without URL should fail")
	}
	if _, err := NewAdapter(Config{Mode: "mock"}); err != nil {
		t.Fatalf("NewAdapter(mock) error = %v", err)
	}
	if _, err := NewAdapter(Config{Mode: "carrier-pigeon"}); err == nil {
		t.Fatalf("NewAdapter() should reject unknown mode")
	}
}
