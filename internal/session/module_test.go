package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bankdesk/bankdesk/internal/config"
	testhelpers "github.com/bankdesk/bankdesk/internal/test"
)

func TestNewStoreWithoutRedis(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	store := newStore(storeParams{
		Lifecycle: recorder,
		Config:    &config.Config{},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
	if len(recorder.Hooks) != 0 {
		t.Fatalf("expected no lifecycle hooks, got %d", len(recorder.Hooks))
	}
}

func TestNewStoreWithRedis(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	store := newStore(storeParams{
		Lifecycle: recorder,
		Config:    &config.Config{RedisAddr: "localhost:6379", SessionTTL: time.Hour},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	if _, ok := store.(*RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}
	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected close hook, got %d", len(recorder.Hooks))
	}
	if err := recorder.Hooks[0].OnStop(context.Background()); err != nil {
		t.Fatalf("close hook failed: %v", err)
	}
}
