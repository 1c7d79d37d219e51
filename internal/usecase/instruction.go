package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainErrors "github.com/bankdesk/bankdesk/internal/domain/errors"
	"github.com/bankdesk/bankdesk/internal/domain/model"
	"github.com/bankdesk/bankdesk/internal/domain/repository"
	"github.com/bankdesk/bankdesk/internal/events"
	"github.com/bankdesk/bankdesk/internal/script"
	"github.com/bankdesk/bankdesk/internal/session"
	"github.com/bankdesk/bankdesk/internal/transport"
)

// InstructionUseCase walks an order through its scripted stages. It owns
// order termination: every path that ends an order goes through Terminate
// or the completion branch of Emit, both of which free the channel and
// seat the next customer from the queue.
type InstructionUseCase struct {
	orders     repository.OrderRepository
	assignment *AssignmentUseCase
	catalog    *script.Catalog
	sessions   session.Store
	messenger  transport.Messenger
	publisher  events.Publisher
	logger     *slog.Logger

	escalationChatID int64
}

// NewInstructionUseCase constructs InstructionUseCase.
func NewInstructionUseCase(
	orders repository.OrderRepository,
	assignment *AssignmentUseCase,
	catalog *script.Catalog,
	sessions session.Store,
	messenger transport.Messenger,
	publisher events.Publisher,
	logger *slog.Logger,
	escalationChatID int64,
) *InstructionUseCase {
	return &InstructionUseCase{
		orders:           orders,
		assignment:       assignment,
		catalog:          catalog,
		sessions:         sessions,
		messenger:        messenger,
		publisher:        publisher,
		logger:           logger,
		escalationChatID: escalationChatID,
	}
}

// Begin publishes order creation and emits the first stage.
func (u *InstructionUseCase) Begin(ctx context.Context, order *model.Order) error {
	u.publisher.Publish(events.EventOrderCreated, order.ID, events.OrderPayload{
		CustomerID: order.CustomerID,
		Bank:       order.Bank,
		Operation:  string(order.Operation),
		Status:     order.Status,
	})
	return u.Emit(ctx, order)
}

// Emit delivers the instruction for the order's current stage to the
// customer. Past the last stage the order completes, the channel is
// freed and the queue drains.
func (u *InstructionUseCase) Emit(ctx context.Context, order *model.Order) error {
	steps := u.catalog.Steps(order.Bank, order.Operation)
	if len(steps) == 0 {
		return u.failNoScript(ctx, order)
	}

	if order.Stage >= len(steps) {
		return u.complete(ctx, order)
	}

	status := model.StatusStageInProgress(order.Stage)
	if err := u.orders.SetStage(ctx, order.ID, order.Stage, status); err != nil {
		return err
	}
	order.Status = status
	if err := u.saveSession(ctx, order); err != nil {
		u.logger.Warn("failed to save session", "customer_id", order.CustomerID, "error", err)
	}

	step := steps[order.Stage]
	if step.Text != "" {
		if err := u.messenger.SendText(ctx, order.CustomerID, step.Text); err != nil {
			u.logger.Warn("failed to send instruction text", "customer_id", order.CustomerID, "error", err)
		}
	}
	for _, image := range step.Images {
		if err := u.messenger.SendPhoto(ctx, order.CustomerID, image, ""); err != nil {
			u.logger.Warn("failed to send instruction image", "customer_id", order.CustomerID, "image", image, "error", err)
		}
	}
	return nil
}

// Advance moves the order one stage forward and emits the next
// instruction. Advancement is always an explicit operator action.
func (u *InstructionUseCase) Advance(ctx context.Context, order *model.Order) error {
	if order.Terminal() {
		return domainErrors.ErrOrderFinished
	}
	order.Stage++
	u.publisher.Publish(events.EventStageAdvanced, order.ID, events.OrderPayload{
		CustomerID: order.CustomerID,
		Bank:       order.Bank,
		Operation:  string(order.Operation),
		Stage:      order.Stage,
	})
	return u.Emit(ctx, order)
}

// Terminate ends the order with the given reason, frees its channel and
// seats the next waiting customer.
func (u *InstructionUseCase) Terminate(ctx context.Context, order *model.Order, notice string) error {
	if order.Terminal() {
		return domainErrors.ErrOrderFinished
	}
	if err := u.orders.SetStatus(ctx, order.ID, model.StatusTerminated); err != nil {
		return err
	}
	order.Status = model.StatusTerminated
	if err := u.assignment.queue.RemoveByCustomer(ctx, order.CustomerID); err != nil {
		return err
	}
	if err := u.sessions.Delete(ctx, order.CustomerID); err != nil {
		u.logger.Warn("failed to delete session", "customer_id", order.CustomerID, "error", err)
	}
	u.publisher.Publish(events.EventOrderTerminated, order.ID, events.OrderPayload{
		CustomerID: order.CustomerID,
		Bank:       order.Bank,
		Operation:  string(order.Operation),
		Stage:      order.Stage,
		Status:     order.Status,
		Reason:     notice,
	})
	if notice != "" {
		if err := u.messenger.SendText(ctx, order.CustomerID, notice); err != nil {
			u.logger.Warn("failed to notify customer about termination", "customer_id", order.CustomerID, "error", err)
		}
	}
	u.logger.Info("order terminated", "order_id", order.ID)
	return u.releaseAndDrain(ctx, order)
}

// Reconstruct returns the session for the customer, rebuilding it from
// the latest order when the store has no entry.
func (u *InstructionUseCase) Reconstruct(ctx context.Context, customerID int64) (*model.Session, error) {
	sess, ok, err := u.sessions.Get(ctx, customerID)
	if err != nil {
		u.logger.Warn("session lookup failed", "customer_id", customerID, "error", err)
	}
	if ok {
		return sess, nil
	}

	order, err := u.orders.LatestByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrNoSession
		}
		return nil, err
	}
	sess = &model.Session{
		CustomerID: customerID,
		OrderID:    order.ID,
		Bank:       order.Bank,
		Operation:  order.Operation,
		Stage:      order.Stage,
	}
	if age, ok := u.catalog.AgeRequirement(order.Bank, order.Operation); ok {
		sess.AgeRequired = &age
	}
	if err := u.sessions.Put(ctx, sess); err != nil {
		u.logger.Warn("failed to save reconstructed session", "customer_id", customerID, "error", err)
	}
	return sess, nil
}

func (u *InstructionUseCase) complete(ctx context.Context, order *model.Order) error {
	if err := u.orders.SetStage(ctx, order.ID, order.Stage, model.StatusCompleted); err != nil {
		return err
	}
	order.Status = model.StatusCompleted
	if err := u.sessions.Delete(ctx, order.CustomerID); err != nil {
		u.logger.Warn("failed to delete session", "customer_id", order.CustomerID, "error", err)
	}
	u.publisher.Publish(events.EventOrderCompleted, order.ID, events.OrderPayload{
		CustomerID: order.CustomerID,
		Bank:       order.Bank,
		Operation:  string(order.Operation),
		Stage:      order.Stage,
		Status:     order.Status,
	})
	if err := u.messenger.SendText(ctx, order.CustomerID, "Your order is complete. Thank you!"); err != nil {
		u.logger.Warn("failed to notify customer about completion", "customer_id", order.CustomerID, "error", err)
	}
	notice := fmt.Sprintf("Order %d completed for %s (ID: %d)", order.ID, order.DisplayName, order.CustomerID)
	if err := u.messenger.SendText(ctx, u.escalationChatID, notice); err != nil {
		u.logger.Warn("failed to notify escalation channel", "error", err)
	}
	u.logger.Info("order completed", "order_id", order.ID)
	return u.releaseAndDrain(ctx, order)
}

func (u *InstructionUseCase) failNoScript(ctx context.Context, order *model.Order) error {
	if err := u.orders.SetStage(ctx, order.ID, order.Stage, model.StatusNoScript); err != nil {
		return err
	}
	order.Status = model.StatusNoScript
	if err := u.sessions.Delete(ctx, order.CustomerID); err != nil {
		u.logger.Warn("failed to delete session", "customer_id", order.CustomerID, "error", err)
	}
	u.publisher.Publish(events.EventOrderTerminated, order.ID, events.OrderPayload{
		CustomerID: order.CustomerID,
		Bank:       order.Bank,
		Operation:  string(order.Operation),
		Status:     order.Status,
		Reason:     "no instructions",
	})
	if err := u.messenger.SendText(ctx, order.CustomerID, "No instructions are available for the selected bank and operation. Please contact support."); err != nil {
		u.logger.Warn("failed to notify customer about missing script", "customer_id", order.CustomerID, "error", err)
	}
	notice := fmt.Sprintf("No instructions for order %d: %s %s", order.ID, order.Bank, order.Operation)
	if err := u.messenger.SendText(ctx, u.escalationChatID, notice); err != nil {
		u.logger.Warn("failed to notify escalation channel", "error", err)
	}
	u.logger.Warn("no script for order", "order_id", order.ID, "bank", order.Bank, "operation", order.Operation)
	return u.releaseAndDrain(ctx, order)
}

// releaseAndDrain frees the order's channel, then starts every order the
// drain seated.
func (u *InstructionUseCase) releaseAndDrain(ctx context.Context, order *model.Order) error {
	if order.ChannelID == nil {
		return nil
	}
	started, err := u.assignment.ReleaseChannel(ctx, *order.ChannelID)
	if err != nil {
		return err
	}
	for _, next := range started {
		if err := u.Emit(ctx, next); err != nil {
			u.logger.Error("failed to start dequeued order", "order_id", next.ID, "error", err)
		}
	}
	return nil
}

func (u *InstructionUseCase) saveSession(ctx context.Context, order *model.Order) error {
	sess := &model.Session{
		CustomerID: order.CustomerID,
		OrderID:    order.ID,
		Bank:       order.Bank,
		Operation:  order.Operation,
		Stage:      order.Stage,
	}
	if age, ok := u.catalog.AgeRequirement(order.Bank, order.Operation); ok {
		sess.AgeRequired = &age
	}
	return u.sessions.Put(ctx, sess)
}
