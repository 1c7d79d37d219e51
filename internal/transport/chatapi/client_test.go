package chatapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bankdesk/bankdesk/internal/transport"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewValidatesURL(t *testing.T) {
	if _, err := New("http://chat.local", discardLogger()); err != nil {
		t.Fatalf("expected valid url to be accepted: %v", err)
	}
	if _, err := New("http://bad host", discardLogger()); err == nil {
		t.Fatal("expected error for unparsable url")
	}
	if _, err := New("/relative", discardLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestSendText(t *testing.T) {
	var (
		gotPath string
		payload map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	keyboard := transport.Row{{Label: "Banks", Data: "menu_banks"}}
	if err := client.SendText(context.Background(), 42, "hello", keyboard); err != nil {
		t.Fatalf("send text failed: %v", err)
	}

	if gotPath != "/sendText" {
		t.Fatalf("expected /sendText, got %q", gotPath)
	}
	if payload["chat_id"].(float64) != 42 {
		t.Fatalf("expected chat id 42, got %v", payload["chat_id"])
	}
	if payload["text"] != "hello" {
		t.Fatalf("expected text hello, got %v", payload["text"])
	}
	if payload["keyboard"] == nil {
		t.Fatal("expected keyboard in payload")
	}
}

func TestSendPhoto(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendPhoto" {
			t.Errorf("expected /sendPhoto, got %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if err := client.SendPhoto(context.Background(), 7, "media-1", "caption"); err != nil {
		t.Fatalf("send photo failed: %v", err)
	}
	if payload["photo"] != "media-1" || payload["caption"] != "caption" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["keyboard"]; ok {
		t.Fatal("expected keyboard to be omitted when empty")
	}
}

func TestAnswerCallback(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/answerCallback" {
			t.Errorf("expected /answerCallback, got %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if err := client.AnswerCallback(context.Background(), "cb-1", "done"); err != nil {
		t.Fatalf("answer callback failed: %v", err)
	}
	if payload["callback_id"] != "cb-1" || payload["text"] != "done" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestPostSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(server.URL, discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	if err := client.SendText(context.Background(), 1, "hi"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestPostHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := New(server.URL, discardLogger())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.SendText(ctx, 1, "hi"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
