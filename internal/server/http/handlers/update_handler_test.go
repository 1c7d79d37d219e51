package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	testhelpers "github.com/bankdesk/bankdesk/internal/test"
	"github.com/bankdesk/bankdesk/internal/transport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHandlerRouter(sink UpdateSink, health HealthChecker) *gin.Engine {
	handler := NewUpdateHandler(sink, health)
	router := gin.New()
	router.POST("/api/updates", handler.Receive)
	router.GET("/healthz", handler.Health)
	return router
}

func postUpdate(t *testing.T, router *gin.Engine, update transport.Update) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(update)
	if err != nil {
		t.Fatalf("marshal update: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/updates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestReceiveAcceptsMessage(t *testing.T) {
	sink := &testhelpers.UpdateSinkStub{}
	router := newHandlerRouter(sink, &testhelpers.HealthCheckerStub{})

	resp := postUpdate(t, router, transport.Update{
		Message: &transport.IncomingMessage{ChatID: 1, SenderID: 1, Text: "/start"},
	})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}

	if len(sink.Updates) != 1 {
		t.Fatalf("expected one enqueued update, got %d", len(sink.Updates))
	}
	if sink.Updates[0].CorrelationID == "" {
		t.Fatal("expected correlation id to be assigned")
	}

	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["correlation_id"] != sink.Updates[0].CorrelationID {
		t.Fatalf("expected response to echo correlation id, got %q", payload["correlation_id"])
	}
	if got := resp.Header().Get("X-Correlation-Id"); got != sink.Updates[0].CorrelationID {
		t.Fatalf("expected correlation id header, got %q", got)
	}
}

func TestReceiveRejectsMalformed(t *testing.T) {
	sink := &testhelpers.UpdateSinkStub{}
	router := newHandlerRouter(sink, &testhelpers.HealthCheckerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/updates", bytes.NewReader([]byte("{broken")))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken json, got %d", resp.Code)
	}

	resp = postUpdate(t, router, transport.Update{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", resp.Code)
	}

	resp = postUpdate(t, router, transport.Update{
		Message:  &transport.IncomingMessage{ChatID: 1},
		Callback: &transport.CallbackQuery{ID: "cb"},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for ambiguous update, got %d", resp.Code)
	}

	if len(sink.Updates) != 0 {
		t.Fatalf("expected nothing enqueued, got %d", len(sink.Updates))
	}
}

func TestReceiveFullBuffer(t *testing.T) {
	sink := &testhelpers.UpdateSinkStub{Full: true}
	router := newHandlerRouter(sink, &testhelpers.HealthCheckerStub{})

	resp := postUpdate(t, router, transport.Update{
		Callback: &transport.CallbackQuery{ID: "cb", ChatID: 1, SenderID: 1, Data: "menu_banks"},
	})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when buffer is full, got %d", resp.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newHandlerRouter(&testhelpers.UpdateSinkStub{}, &testhelpers.HealthCheckerStub{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	router = newHandlerRouter(&testhelpers.UpdateSinkStub{}, &testhelpers.HealthCheckerStub{Err: errors.New("db down")})
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}
