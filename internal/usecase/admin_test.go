package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bankdesk/bankdesk/internal/adminlist"
	domainErrors "github.com/bankdesk/bankdesk/internal/domain/errors"
	"github.com/bankdesk/bankdesk/internal/domain/model"
)

const adminID int64 = 900

func newAdminEnv(t *testing.T) (*env, *AdminUseCase) {
	t.Helper()
	e := newEnv(t, twoStageScripts)

	path := filepath.Join(t.TempDir(), "admins.txt")
	if err := os.WriteFile(path, []byte("900\n"), 0o600); err != nil {
		t.Fatalf("write admins: %v", err)
	}
	admins, err := adminlist.Open(path)
	if err != nil {
		t.Fatalf("open admins: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	admin := NewAdminUseCase(admins, e.orders, e.photos, e.channels, e.queue, e.instruction, e.messenger, logger)
	return e, admin
}

func TestAdminAuthorization(t *testing.T) {
	ctx := context.Background()
	_, admin := newAdminEnv(t)

	if err := admin.Stats(ctx, 123, 123); !errors.Is(err, domainErrors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := admin.Stats(ctx, adminID, adminID); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
}

func TestAdminHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("recent orders", func(t *testing.T) {
		e, admin := newAdminEnv(t)
		_, _ = e.orders.Create(ctx, 1, "a", "alpha", model.OperationRegister, model.StatusCompleted)
		_, _ = e.orders.Create(ctx, 2, "b", "beta", model.OperationChange, model.StatusQueued)

		if err := admin.History(ctx, adminID, adminID, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := e.messenger.LastText(adminID)
		if !strings.Contains(got, "Order #2") || !strings.Contains(got, "Order #1") {
			t.Fatalf("unexpected history: %q", got)
		}
	})

	t.Run("single customer with photos", func(t *testing.T) {
		e, admin := newAdminEnv(t)
		order, _ := e.orders.Create(ctx, 7, "g", "alpha", model.OperationRegister, model.StatusCompleted)
		_, _, _ = e.photos.Add(ctx, order.ID, 1, "ref-1")

		target := int64(7)
		if err := admin.History(ctx, adminID, adminID, &target); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(e.messenger.Photos) != 1 || e.messenger.Photos[0].MediaRef != "ref-1" {
			t.Fatalf("expected stored photo, got %+v", e.messenger.Photos)
		}
	})

	t.Run("unknown customer", func(t *testing.T) {
		e, admin := newAdminEnv(t)
		target := int64(404)
		if err := admin.History(ctx, adminID, adminID, &target); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := e.messenger.LastText(adminID); !strings.Contains(got, "No orders found") {
			t.Fatalf("unexpected reply: %q", got)
		}
	})
}

func TestAdminChannels(t *testing.T) {
	ctx := context.Background()
	e, admin := newAdminEnv(t)

	if err := admin.AddChannel(ctx, adminID, adminID, -100, "ops-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.channels.Channels) != 1 {
		t.Fatalf("channel not registered: %+v", e.channels.Channels)
	}

	if err := admin.ListChannels(ctx, adminID, adminID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.messenger.LastText(adminID); !strings.Contains(got, "ops-a") || !strings.Contains(got, "free") {
		t.Fatalf("unexpected listing: %q", got)
	}

	if err := admin.RemoveChannel(ctx, adminID, adminID, -100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.channels.Channels) != 0 {
		t.Fatalf("channel not removed: %+v", e.channels.Channels)
	}
}

func TestAdminAddChannelDrainsQueue(t *testing.T) {
	ctx := context.Background()
	e, admin := newAdminEnv(t)
	_, _ = e.queue.Enqueue(ctx, 7, "g", "alpha", model.OperationRegister)

	if err := admin.AddChannel(ctx, adminID, adminID, -100, "ops-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.queue.Entries) != 0 {
		t.Fatal("waiting customer should be seated on the new channel")
	}
	if got := e.messenger.LastText(7); !strings.Contains(got, "Step one") {
		t.Fatalf("seated customer should get the first step, got %q", got)
	}
}

func TestAdminFinishOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("open order", func(t *testing.T) {
		e, admin := newAdminEnv(t)
		_ = e.channels.Add(ctx, -100, "ops-a")
		order := startedOrder(t, e, 42)

		if err := admin.FinishOrder(ctx, adminID, adminID, order.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := e.orders.Orders[order.ID].Status; got != model.StatusTerminated {
			t.Fatalf("expected terminated, got %q", got)
		}
		if e.channels.Channels[0].Busy {
			t.Fatal("channel should be freed")
		}
	})

	t.Run("already finished", func(t *testing.T) {
		e, admin := newAdminEnv(t)
		order, _ := e.orders.Create(ctx, 42, "a", "alpha", model.OperationRegister, model.StatusCompleted)

		if err := admin.FinishOrder(ctx, adminID, adminID, order.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := e.messenger.LastText(adminID); !strings.Contains(got, "already finished") {
			t.Fatalf("unexpected reply: %q", got)
		}
	})
}

func TestAdminFinishAllOrders(t *testing.T) {
	ctx := context.Background()
	e, admin := newAdminEnv(t)
	_, _ = e.orders.Create(ctx, 1, "a", "alpha", model.OperationRegister, model.StatusStageInProgress(0))
	_, _ = e.orders.Create(ctx, 2, "b", "alpha", model.OperationRegister, model.StatusQueued)
	_, _ = e.orders.Create(ctx, 3, "c", "alpha", model.OperationRegister, model.StatusCompleted)

	if err := admin.FinishAllOrders(ctx, adminID, adminID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []int64{1, 2} {
		if got := e.orders.Orders[id].Status; got != model.StatusTerminated {
			t.Fatalf("order %d should be terminated, got %q", id, got)
		}
	}
	if got := e.orders.Orders[3].Status; got != model.StatusCompleted {
		t.Fatalf("completed order must stay completed, got %q", got)
	}
	if got := e.messenger.LastText(adminID); !strings.Contains(got, "2") {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	e, admin := newAdminEnv(t)
	_, _ = e.orders.Create(ctx, 1, "a", "alpha", model.OperationRegister, model.StatusCompleted)
	_, _ = e.orders.Create(ctx, 2, "b", "alpha", model.OperationRegister, model.StatusQueued)

	if err := admin.Stats(ctx, adminID, adminID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := e.messenger.LastText(adminID)
	if !strings.Contains(got, "Total: 2") || !strings.Contains(got, "Finished: 1") || !strings.Contains(got, "Open: 1") {
		t.Fatalf("unexpected stats: %q", got)
	}
}

func TestAdminAllowList(t *testing.T) {
	ctx := context.Background()
	e, admin := newAdminEnv(t)

	if err := admin.AddAdmin(ctx, adminID, adminID, 901); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := admin.Stats(ctx, 901, 901); err != nil {
		t.Fatalf("new admin should pass: %v", err)
	}

	if err := admin.AddAdmin(ctx, adminID, adminID, 901); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.messenger.LastText(adminID); !strings.Contains(got, "already an admin") {
		t.Fatalf("unexpected reply: %q", got)
	}

	if err := admin.RemoveAdmin(ctx, adminID, adminID, 901); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := admin.Stats(ctx, 901, 901); !errors.Is(err, domainErrors.ErrNotAuthorized) {
		t.Fatalf("removed admin should be refused, got %v", err)
	}

	if err := admin.ListAdmins(ctx, adminID, adminID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.messenger.LastText(adminID); !strings.Contains(got, "900") {
		t.Fatalf("unexpected listing: %q", got)
	}
}
