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
	"github.com/bankdesk/bankdesk/internal/transport"
)

// AssignmentUseCase routes orders onto free operator channels and keeps
// the waiting queue moving. A channel serves at most one order at a time.
type AssignmentUseCase struct {
	orders    repository.OrderRepository
	channels  repository.ChannelRepository
	queue     repository.QueueRepository
	messenger transport.Messenger
	publisher events.Publisher
	logger    *slog.Logger
}

// NewAssignmentUseCase constructs AssignmentUseCase.
func NewAssignmentUseCase(
	orders repository.OrderRepository,
	channels repository.ChannelRepository,
	queue repository.QueueRepository,
	messenger transport.Messenger,
	publisher events.Publisher,
	logger *slog.Logger,
) *AssignmentUseCase {
	return &AssignmentUseCase{
		orders:    orders,
		channels:  channels,
		queue:     queue,
		messenger: messenger,
		publisher: publisher,
		logger:    logger,
	}
}

// AssignOrQueue binds the order to the free channel with the lowest
// registration id, or enqueues the customer when no channel is free.
// Returns true when the order was assigned.
func (u *AssignmentUseCase) AssignOrQueue(ctx context.Context, order *model.Order) (bool, error) {
	channel, err := u.channels.ClaimFree(ctx)
	if err != nil {
		if !errors.Is(err, domainErrors.ErrNoFreeChannel) {
			return false, err
		}
		if _, err := u.queue.Enqueue(ctx, order.CustomerID, order.DisplayName, order.Bank, order.Operation); err != nil {
			return false, err
		}
		if err := u.orders.SetStatus(ctx, order.ID, model.StatusQueued); err != nil {
			return false, err
		}
		order.Status = model.StatusQueued
		u.publisher.Publish(events.EventOrderQueued, order.ID, events.OrderPayload{
			CustomerID: order.CustomerID,
			Bank:       order.Bank,
			Operation:  string(order.Operation),
			Status:     order.Status,
		})
		if err := u.messenger.SendText(ctx, order.CustomerID, "All operators are busy right now. You are in the queue and will be notified when a slot opens."); err != nil {
			u.logger.Warn("failed to notify queued customer", "customer_id", order.CustomerID, "error", err)
		}
		u.logger.Info("customer enqueued", "customer_id", order.CustomerID, "order_id", order.ID)
		return false, nil
	}

	if err := u.bind(ctx, order, channel); err != nil {
		return false, err
	}
	return true, nil
}

// DrainQueue moves waiting customers onto channels that became free.
// Returned orders are bound and ready to start.
func (u *AssignmentUseCase) DrainQueue(ctx context.Context) ([]*model.Order, error) {
	var started []*model.Order
	for {
		channel, err := u.channels.ClaimFree(ctx)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNoFreeChannel) {
				return started, nil
			}
			return started, err
		}

		entry, err := u.queue.PopOldest(ctx)
		if err != nil {
			if releaseErr := u.channels.Release(ctx, channel.ChatID); releaseErr != nil {
				u.logger.Warn("failed to release channel after empty queue", "chat_id", channel.ChatID, "error", releaseErr)
			}
			if errors.Is(err, domainErrors.ErrQueueEmpty) {
				return started, nil
			}
			return started, err
		}

		order, err := u.orderForEntry(ctx, entry)
		if err != nil {
			return started, err
		}
		if err := u.bind(ctx, order, channel); err != nil {
			return started, err
		}
		if err := u.messenger.SendText(ctx, order.CustomerID, "A slot has opened. Let's begin."); err != nil {
			u.logger.Warn("failed to notify dequeued customer", "customer_id", order.CustomerID, "error", err)
		}
		started = append(started, order)
	}
}

// orderForEntry revives the queued order for the entry, creating a fresh
// one when none survived.
func (u *AssignmentUseCase) orderForEntry(ctx context.Context, entry *model.QueueEntry) (*model.Order, error) {
	order, err := u.orders.LatestQueuedByCustomer(ctx, entry.CustomerID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}
	order, err = u.orders.Create(ctx, entry.CustomerID, entry.DisplayName, entry.Bank, entry.Operation, model.StatusStageInProgress(0))
	if err != nil {
		return nil, err
	}
	u.publisher.Publish(events.EventOrderCreated, order.ID, events.OrderPayload{
		CustomerID: order.CustomerID,
		Bank:       order.Bank,
		Operation:  string(order.Operation),
		Status:     order.Status,
	})
	return order, nil
}

func (u *AssignmentUseCase) bind(ctx context.Context, order *model.Order, channel *model.OperatorChannel) error {
	if err := u.orders.BindChannel(ctx, order.ID, channel.ChatID); err != nil {
		if releaseErr := u.channels.Release(ctx, channel.ChatID); releaseErr != nil {
			u.logger.Warn("failed to release channel after bind error", "chat_id", channel.ChatID, "error", releaseErr)
		}
		return err
	}
	order.ChannelID = &channel.ChatID
	if err := u.orders.SetStage(ctx, order.ID, order.Stage, model.StatusStageInProgress(order.Stage)); err != nil {
		return err
	}
	order.Status = model.StatusStageInProgress(order.Stage)

	u.publisher.Publish(events.EventOrderAssigned, order.ID, events.OrderPayload{
		CustomerID: order.CustomerID,
		Bank:       order.Bank,
		Operation:  string(order.Operation),
		Stage:      order.Stage,
		Status:     order.Status,
		ChannelID:  order.ChannelID,
	})

	notice := fmt.Sprintf("New order from %s (ID: %d)\nBank: %s, operation: %s\nOrder #%d",
		order.DisplayName, order.CustomerID, order.Bank, order.Operation, order.ID)
	if err := u.messenger.SendText(ctx, channel.ChatID, notice); err != nil {
		u.logger.Warn("failed to notify operator channel", "chat_id", channel.ChatID, "error", err)
	}
	u.logger.Info("order assigned", "order_id", order.ID, "chat_id", channel.ChatID, "channel", channel.Name)
	return nil
}

// ReleaseChannel frees the channel and immediately tries to seat the
// next waiting customer.
func (u *AssignmentUseCase) ReleaseChannel(ctx context.Context, chatID int64) ([]*model.Order, error) {
	if err := u.channels.Release(ctx, chatID); err != nil {
		return nil, err
	}
	return u.DrainQueue(ctx)
}
