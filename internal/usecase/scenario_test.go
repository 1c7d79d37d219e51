package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// TestForceCompleteSeatsWaitingCustomer walks the full order lifecycle
// with two channels and three customers: the third waits in the queue
// until an admin force-completes the first order, then takes the freed
// channel and receives the opening notice before the first step.
func TestForceCompleteSeatsWaitingCustomer(t *testing.T) {
	ctx := context.Background()
	e, admin := newAdminEnv(t)
	_ = e.channels.Add(ctx, -100, "ops-a")
	_ = e.channels.Add(ctx, -200, "ops-b")

	start := func(customerID int64, name string) *model.Order {
		t.Helper()
		order, err := e.orders.Create(ctx, customerID, name, "alpha", model.OperationRegister, model.StatusQueued)
		if err != nil {
			t.Fatalf("create order: %v", err)
		}
		assigned, err := e.assignment.AssignOrQueue(ctx, order)
		if err != nil || !assigned {
			t.Fatalf("assign order: assigned=%v err=%v", assigned, err)
		}
		if err := e.instruction.Emit(ctx, order); err != nil {
			t.Fatalf("emit first step: %v", err)
		}
		return order
	}

	first := start(1, "alice")
	_ = start(2, "bob")

	third, err := e.orders.Create(ctx, 3, "carol", "alpha", model.OperationRegister, model.StatusQueued)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if assigned, err := e.assignment.AssignOrQueue(ctx, third); err != nil || assigned {
		t.Fatalf("third customer should wait: assigned=%v err=%v", assigned, err)
	}
	if got := e.messenger.LastText(3); !strings.Contains(got, "in the queue") {
		t.Fatalf("expected queue notice, got %q", got)
	}
	if entries, _ := e.queue.List(ctx); len(entries) != 1 {
		t.Fatalf("expected one waiting customer, got %d", len(entries))
	}

	if err := admin.FinishOrder(ctx, adminID, adminID, first.ID); err != nil {
		t.Fatalf("finish order: %v", err)
	}

	if got := e.orders.Orders[first.ID].Status; got != model.StatusTerminated {
		t.Fatalf("expected first order closed, got %q", got)
	}
	if got := e.messenger.LastText(1); !strings.Contains(got, "closed by the administrator") {
		t.Fatalf("first customer should see the closing notice, got %q", got)
	}
	if entries, _ := e.queue.List(ctx); len(entries) != 0 {
		t.Fatalf("queue should be drained, got %d entries", len(entries))
	}
	for _, channel := range e.channels.Channels {
		if !channel.Busy {
			t.Fatalf("channel %d should be occupied after the drain", channel.ChatID)
		}
	}

	if got := e.orders.Orders[third.ID].Status; got != model.StatusStageInProgress(0) {
		t.Fatalf("seated customer should be on the first stage, got %q", got)
	}
	texts := e.messenger.TextsFor(3)
	opened, step := -1, -1
	for i, text := range texts {
		if strings.Contains(text, "A slot has opened") {
			opened = i
		}
		if strings.Contains(text, "Step one") {
			step = i
		}
	}
	if opened < 0 || step < 0 {
		t.Fatalf("seated customer should get the opening notice and the first step, got %v", texts)
	}
	if opened > step {
		t.Fatalf("opening notice must precede the first step, got %v", texts)
	}
}
