package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bankdesk/bankdesk/internal/adminlist"
	domainErrors "github.com/bankdesk/bankdesk/internal/domain/errors"
	"github.com/bankdesk/bankdesk/internal/domain/repository"
	"github.com/bankdesk/bankdesk/internal/transport"
)

const accessDenied = "You do not have permission for this command."

// AdminUseCase implements the operator command surface: channel pool
// management, queue inspection, forced completion and the admin
// allow-list itself.
type AdminUseCase struct {
	admins      *adminlist.List
	orders      repository.OrderRepository
	photos      repository.PhotoRepository
	channels    repository.ChannelRepository
	queue       repository.QueueRepository
	instruction *InstructionUseCase
	messenger   transport.Messenger
	logger      *slog.Logger
}

// NewAdminUseCase constructs AdminUseCase.
func NewAdminUseCase(
	admins *adminlist.List,
	orders repository.OrderRepository,
	photos repository.PhotoRepository,
	channels repository.ChannelRepository,
	queue repository.QueueRepository,
	instruction *InstructionUseCase,
	messenger transport.Messenger,
	logger *slog.Logger,
) *AdminUseCase {
	return &AdminUseCase{
		admins:      admins,
		orders:      orders,
		photos:      photos,
		channels:    channels,
		queue:       queue,
		instruction: instruction,
		messenger:   messenger,
		logger:      logger,
	}
}

// authorize replies with a fixed refusal for non-admins.
func (u *AdminUseCase) authorize(ctx context.Context, senderID, chatID int64) bool {
	if u.admins.Contains(senderID) {
		return true
	}
	if err := u.messenger.SendText(ctx, chatID, accessDenied); err != nil {
		u.logger.Warn("failed to send refusal", "chat_id", chatID, "error", err)
	}
	return false
}

// History shows the ten most recent orders, or one customer's latest
// order with its photos when a customer id is given.
func (u *AdminUseCase) History(ctx context.Context, senderID, chatID int64, customerID *int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}

	if customerID == nil {
		orders, err := u.orders.ListRecent(ctx, 10)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return u.messenger.SendText(ctx, chatID, "No orders yet.")
		}
		var b strings.Builder
		b.WriteString("Last 10 orders:\n\n")
		for _, order := range orders {
			fmt.Fprintf(&b, "Order #%d\nCustomer: %d (%s)\n%s, %s\n%s\n\n",
				order.ID, order.CustomerID, order.DisplayName, order.Bank, order.Operation, order.Status)
		}
		return u.messenger.SendText(ctx, chatID, b.String())
	}

	order, err := u.orders.LatestByCustomer(ctx, *customerID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return u.messenger.SendText(ctx, chatID, "No orders found for this customer.")
		}
		return err
	}
	if err := u.messenger.SendText(ctx, chatID, fmt.Sprintf("Order history:\nBank: %s, operation: %s", order.Bank, order.Operation)); err != nil {
		return err
	}
	photos, err := u.photos.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	for _, photo := range photos {
		if err := u.messenger.SendPhoto(ctx, chatID, photo.MediaRef, fmt.Sprintf("Stage %d", photo.Stage)); err != nil {
			u.logger.Warn("failed to send history photo", "photo_id", photo.ID, "error", err)
		}
	}
	return nil
}

// AddChannel registers an operator channel in the pool.
func (u *AdminUseCase) AddChannel(ctx context.Context, senderID, chatID, channelChatID int64, name string) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	if err := u.channels.Add(ctx, channelChatID, name); err != nil {
		return err
	}
	started, err := u.instruction.assignment.DrainQueue(ctx)
	if err != nil {
		u.logger.Error("failed to drain queue after adding channel", "error", err)
	}
	for _, order := range started {
		if err := u.instruction.Emit(ctx, order); err != nil {
			u.logger.Error("failed to start dequeued order", "order_id", order.ID, "error", err)
		}
	}
	return u.messenger.SendText(ctx, chatID, fmt.Sprintf("Channel %q added.", name))
}

// RemoveChannel drops an operator channel from the pool.
func (u *AdminUseCase) RemoveChannel(ctx context.Context, senderID, chatID, channelChatID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	if err := u.channels.Remove(ctx, channelChatID); err != nil {
		return err
	}
	return u.messenger.SendText(ctx, chatID, "Channel removed.")
}

// ListChannels shows the pool with per-channel busy state.
func (u *AdminUseCase) ListChannels(ctx context.Context, senderID, chatID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	channels, err := u.channels.List(ctx)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return u.messenger.SendText(ctx, chatID, "No channels registered.")
	}
	var b strings.Builder
	b.WriteString("Channels:\n")
	for _, channel := range channels {
		state := "free"
		if channel.Busy {
			state = "busy"
		}
		fmt.Fprintf(&b, "- %s (%d): %s\n", channel.Name, channel.ChatID, state)
	}
	return u.messenger.SendText(ctx, chatID, b.String())
}

// ShowQueue lists waiting customers in arrival order.
func (u *AdminUseCase) ShowQueue(ctx context.Context, senderID, chatID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	entries, err := u.queue.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return u.messenger.SendText(ctx, chatID, "The queue is empty.")
	}
	var b strings.Builder
	b.WriteString("Queue:\n\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "#%d: %s (ID: %d), %s / %s, %s\n",
			entry.ID, entry.DisplayName, entry.CustomerID, entry.Bank, entry.Operation,
			entry.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return u.messenger.SendText(ctx, chatID, b.String())
}

// FinishOrder force-completes one order.
func (u *AdminUseCase) FinishOrder(ctx context.Context, senderID, chatID, orderID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return u.messenger.SendText(ctx, chatID, "Order not found or already finished.")
		}
		return err
	}
	if order.Terminal() {
		return u.messenger.SendText(ctx, chatID, "Order not found or already finished.")
	}
	if err := u.instruction.Terminate(ctx, order, "Your order was closed by the administrator."); err != nil {
		return err
	}
	u.logger.Info("order force-finished", "order_id", orderID, "admin_id", senderID)
	return u.messenger.SendText(ctx, chatID, fmt.Sprintf("Order %d finished.", orderID))
}

// FinishAllOrders force-completes every open order.
func (u *AdminUseCase) FinishAllOrders(ctx context.Context, senderID, chatID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	open, err := u.orders.ListOpen(ctx)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return u.messenger.SendText(ctx, chatID, "No open orders.")
	}
	finished := 0
	for i := range open {
		order := open[i]
		if err := u.instruction.Terminate(ctx, &order, "Your order was closed by the administrator."); err != nil {
			if errors.Is(err, domainErrors.ErrOrderFinished) {
				continue
			}
			u.logger.Error("failed to finish order", "order_id", order.ID, "error", err)
			continue
		}
		finished++
	}
	u.logger.Info("all open orders finished", "count", finished, "admin_id", senderID)
	return u.messenger.SendText(ctx, chatID, fmt.Sprintf("Finished all open orders: %d.", finished))
}

// Stats reports order totals.
func (u *AdminUseCase) Stats(ctx context.Context, senderID, chatID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	counts, err := u.orders.Counts(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Order statistics:\nTotal: %d\nFinished: %d\nOpen: %d", counts.Total, counts.Finished, counts.Open)
	return u.messenger.SendText(ctx, chatID, text)
}

// AddAdmin extends the allow-list.
func (u *AdminUseCase) AddAdmin(ctx context.Context, senderID, chatID, newAdminID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	added, err := u.admins.Add(newAdminID)
	if err != nil {
		return err
	}
	if !added {
		return u.messenger.SendText(ctx, chatID, "This user is already an admin.")
	}
	return u.messenger.SendText(ctx, chatID, fmt.Sprintf("Admin added: %d", newAdminID))
}

// RemoveAdmin shrinks the allow-list.
func (u *AdminUseCase) RemoveAdmin(ctx context.Context, senderID, chatID, adminID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	removed, err := u.admins.Remove(adminID)
	if err != nil {
		return err
	}
	if !removed {
		return u.messenger.SendText(ctx, chatID, "This user is not an admin.")
	}
	return u.messenger.SendText(ctx, chatID, fmt.Sprintf("Admin removed: %d", adminID))
}

// ListAdmins shows the allow-list.
func (u *AdminUseCase) ListAdmins(ctx context.Context, senderID, chatID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	var b strings.Builder
	b.WriteString("Administrators:\n")
	for _, id := range u.admins.All() {
		fmt.Fprintf(&b, "%d\n", id)
	}
	return u.messenger.SendText(ctx, chatID, b.String())
}

// Help lists the admin commands.
func (u *AdminUseCase) Help(ctx context.Context, senderID, chatID int64) error {
	if !u.authorize(ctx, senderID, chatID) {
		return domainErrors.ErrNotAuthorized
	}
	text := "Admin commands:\n\n" +
		"/history [customer_id] - last 10 orders, or one customer's latest order\n" +
		"/addgroup <chat_id> <name> - register an operator channel\n" +
		"/delgroup <chat_id> - remove an operator channel\n" +
		"/groups - list channels and their state\n" +
		"/queue - show the waiting queue\n" +
		"/finish_order <order_id> - force-complete one order\n" +
		"/finish_all_orders - force-complete every open order\n" +
		"/orders_stats - order statistics\n" +
		"/add_admin <user_id> - add an administrator\n" +
		"/remove_admin <user_id> - remove an administrator\n" +
		"/list_admins - show administrators\n" +
		"/help - this help"
	return u.messenger.SendText(ctx, chatID, text)
}
