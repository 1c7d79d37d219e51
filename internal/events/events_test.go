package events

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/bankdesk/bankdesk/internal/config"
	"go.uber.org/fx"
)

// lifecycleRecorder mirrors internal/test.LifecycleRecorder; it is redefined
// here because importing internal/test from an in-package test would create
// an import cycle (internal/test imports internal/events).
type lifecycleRecorder struct {
	Hooks []fx.Hook
}

func (l *lifecycleRecorder) Append(h fx.Hook) {
	l.Hooks = append(l.Hooks, h)
}

func TestPartitionKey(t *testing.T) {
	if got := string(PartitionKey(42)); got != "42" {
		t.Fatalf("expected key 42, got %q", got)
	}
	if got := string(PartitionKey(-7)); got != "-7" {
		t.Fatalf("expected key -7, got %q", got)
	}
}

func TestNopPublisher(t *testing.T) {
	NopPublisher{}.Publish(EventOrderCreated, 1, OrderPayload{CustomerID: 1})
}

func TestNewPublisherWithoutBrokers(t *testing.T) {
	recorder := &lifecycleRecorder{}
	pub := newPublisher(publisherParams{
		Lifecycle: recorder,
		Config:    &config.Config{},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	if _, ok := pub.(NopPublisher); !ok {
		t.Fatalf("expected nop publisher, got %T", pub)
	}
	if len(recorder.Hooks) != 0 {
		t.Fatalf("expected no lifecycle hooks, got %d", len(recorder.Hooks))
	}
}

func TestNewPublisherWithBrokers(t *testing.T) {
	recorder := &lifecycleRecorder{}
	pub := newPublisher(publisherParams{
		Lifecycle: recorder,
		Config:    &config.Config{KafkaBrokers: []string{"localhost:9092"}},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})

	if _, ok := pub.(*KafkaPublisher); !ok {
		t.Fatalf("expected kafka publisher, got %T", pub)
	}
	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected close hook, got %d", len(recorder.Hooks))
	}
	if err := recorder.Hooks[0].OnStop(context.Background()); err != nil {
		t.Fatalf("close hook failed: %v", err)
	}
}
