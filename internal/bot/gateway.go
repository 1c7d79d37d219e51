package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bankdesk/bankdesk/internal/domain/model"
	"github.com/bankdesk/bankdesk/internal/transport"
	"github.com/bankdesk/bankdesk/internal/usecase"
)

const updateBufferSize = 256

// Gateway consumes chat updates one at a time and dispatches them to
// the use cases. Single-consumer: ordering per run is the arrival
// order, and use case state never sees concurrent updates.
type Gateway struct {
	menu        *usecase.MenuUseCase
	review      *usecase.ReviewUseCase
	admin       *usecase.AdminUseCase
	instruction *usecase.InstructionUseCase
	messenger   transport.Messenger
	logger      *slog.Logger

	updates chan transport.Update
	done    chan struct{}
	stopped chan struct{}
}

// NewGateway constructs Gateway.
func NewGateway(
	menu *usecase.MenuUseCase,
	review *usecase.ReviewUseCase,
	admin *usecase.AdminUseCase,
	instruction *usecase.InstructionUseCase,
	messenger transport.Messenger,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		menu:        menu,
		review:      review,
		admin:       admin,
		instruction: instruction,
		messenger:   messenger,
		logger:      logger,
		updates:     make(chan transport.Update, updateBufferSize),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Enqueue hands an update to the consumer loop. Returns false when the
// buffer is full or the gateway is shutting down.
func (g *Gateway) Enqueue(update transport.Update) bool {
	select {
	case <-g.done:
		return false
	default:
	}
	select {
	case g.updates <- update:
		return true
	default:
		g.logger.Warn("update buffer full, dropping update", "correlation_id", update.CorrelationID)
		return false
	}
}

// Run consumes updates until Stop is called.
func (g *Gateway) Run() {
	defer close(g.stopped)
	for {
		select {
		case <-g.done:
			return
		case update := <-g.updates:
			g.handle(update)
		}
	}
}

// Stop signals the loop to exit and waits for it.
func (g *Gateway) Stop() {
	close(g.done)
	<-g.stopped
}

func (g *Gateway) handle(update transport.Update) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("panic while handling update", "correlation_id", update.CorrelationID, "panic", r)
			chatID := int64(0)
			if update.Message != nil {
				chatID = update.Message.ChatID
			} else if update.Callback != nil {
				chatID = update.Callback.ChatID
			}
			if chatID != 0 {
				_ = g.messenger.SendText(context.Background(), chatID, "A technical error occurred. We are already working on it.")
			}
		}
	}()

	ctx := context.Background()
	logger := g.logger.With("correlation_id", update.CorrelationID)

	switch {
	case update.Callback != nil:
		g.handleCallback(ctx, logger, update.Callback)
	case update.Message != nil:
		g.handleMessage(ctx, logger, update.Message)
	}
}

func (g *Gateway) handleMessage(ctx context.Context, logger *slog.Logger, msg *transport.IncomingMessage) {
	if len(msg.PhotoRefs) > 0 {
		if err := g.review.SubmitPhotos(ctx, msg.SenderID, msg.SenderName, msg.PhotoRefs, msg.MediaBatchID); err != nil {
			logger.Warn("photo submission failed", "customer_id", msg.SenderID, "error", err)
			_ = g.messenger.SendText(ctx, msg.ChatID, "Please choose a bank first with /start")
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		g.handleCommand(ctx, logger, msg, text)
		return
	}

	// Operator follow-up text (rejection reason or direct message)
	// takes precedence over customer captures.
	handled, err := g.review.ConsumeCapture(ctx, msg.SenderID, msg.ChatID, text)
	if err != nil {
		logger.Warn("capture handling failed", "operator_id", msg.SenderID, "error", err)
	}
	if handled {
		return
	}

	handled, err = g.menu.ConsumeCooperation(ctx, msg.SenderID, msg.SenderName, text)
	if err != nil {
		logger.Warn("cooperation handling failed", "customer_id", msg.SenderID, "error", err)
	}
	if handled {
		return
	}
}

func (g *Gateway) handleCommand(ctx context.Context, logger *slog.Logger, msg *transport.IncomingMessage, text string) {
	fields := strings.Fields(text)
	command := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	var err error
	switch command {
	case "start":
		err = g.menu.Start(ctx, msg.ChatID)
	case "status":
		err = g.menu.Status(ctx, msg.SenderID)
	case "cancel":
		err = g.menu.CancelCooperation(ctx, msg.SenderID)
	case "history":
		var target *int64
		if len(args) > 0 {
			id, parseErr := strconv.ParseInt(args[0], 10, 64)
			if parseErr != nil {
				_ = g.messenger.SendText(ctx, msg.ChatID, "Invalid id format.")
				return
			}
			target = &id
		}
		err = g.admin.History(ctx, msg.SenderID, msg.ChatID, target)
	case "addgroup":
		if len(args) < 2 {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Usage: /addgroup <chat_id> <name>")
			return
		}
		chatID, parseErr := strconv.ParseInt(args[0], 10, 64)
		if parseErr != nil {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Channel id must be a number.")
			return
		}
		err = g.admin.AddChannel(ctx, msg.SenderID, msg.ChatID, chatID, strings.Join(args[1:], " "))
	case "delgroup":
		if len(args) < 1 {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Usage: /delgroup <chat_id>")
			return
		}
		chatID, parseErr := strconv.ParseInt(args[0], 10, 64)
		if parseErr != nil {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Channel id must be a number.")
			return
		}
		err = g.admin.RemoveChannel(ctx, msg.SenderID, msg.ChatID, chatID)
	case "groups":
		err = g.admin.ListChannels(ctx, msg.SenderID, msg.ChatID)
	case "queue":
		err = g.admin.ShowQueue(ctx, msg.SenderID, msg.ChatID)
	case "finish_order":
		if len(args) < 1 {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Usage: /finish_order <order_id>")
			return
		}
		orderID, parseErr := strconv.ParseInt(args[0], 10, 64)
		if parseErr != nil {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Order id must be a number.")
			return
		}
		err = g.admin.FinishOrder(ctx, msg.SenderID, msg.ChatID, orderID)
	case "finish_all_orders":
		err = g.admin.FinishAllOrders(ctx, msg.SenderID, msg.ChatID)
	case "orders_stats":
		err = g.admin.Stats(ctx, msg.SenderID, msg.ChatID)
	case "add_admin":
		id, ok := parseIDArg(args)
		if !ok {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Usage: /add_admin <user_id>")
			return
		}
		err = g.admin.AddAdmin(ctx, msg.SenderID, msg.ChatID, id)
	case "remove_admin":
		id, ok := parseIDArg(args)
		if !ok {
			_ = g.messenger.SendText(ctx, msg.ChatID, "Usage: /remove_admin <user_id>")
			return
		}
		err = g.admin.RemoveAdmin(ctx, msg.SenderID, msg.ChatID, id)
	case "list_admins":
		err = g.admin.ListAdmins(ctx, msg.SenderID, msg.ChatID)
	case "help":
		err = g.admin.Help(ctx, msg.SenderID, msg.ChatID)
	default:
		return
	}
	if err != nil {
		logger.Warn("command failed", "command", command, "error", err)
	}
}

func (g *Gateway) handleCallback(ctx context.Context, logger *slog.Logger, cb *transport.CallbackQuery) {
	if err := g.messenger.AnswerCallback(ctx, cb.ID, ""); err != nil {
		logger.Warn("failed to answer callback", "error", err)
	}

	var err error
	data := cb.Data
	switch {
	case data == usecase.CallbackBackToMain:
		err = g.menu.Start(ctx, cb.ChatID)
	case data == usecase.CallbackMenuBanks:
		err = g.menu.ShowOperations(ctx, cb.ChatID)
	case data == usecase.CallbackMenuInfo:
		err = g.menu.ShowInfo(ctx, cb.ChatID)
	case data == usecase.CallbackMenuCoop:
		err = g.menu.StartCooperation(ctx, cb.SenderID)
	case data == usecase.CallbackAgeConfirm:
		err = g.menu.ConfirmAge(ctx, cb.SenderID, cb.SenderName, true)
	case data == usecase.CallbackAgeDecline:
		err = g.menu.ConfirmAge(ctx, cb.SenderID, cb.SenderName, false)
	case strings.HasPrefix(data, usecase.CallbackTypePrefix+"_"):
		op := model.OperationKind(strings.TrimPrefix(data, usecase.CallbackTypePrefix+"_"))
		if !op.Valid() {
			g.rejectCallback(ctx, logger, cb)
			return
		}
		err = g.menu.ShowBanks(ctx, cb.ChatID, op)
	case strings.HasPrefix(data, usecase.CallbackBankPrefix+"_"):
		bank, op, ok := parseBankCallback(data)
		if !ok {
			g.rejectCallback(ctx, logger, cb)
			return
		}
		err = g.menu.SelectBank(ctx, cb.SenderID, bank, op)
	case strings.HasPrefix(data, usecase.CallbackApprove+"_"):
		customerID, photoID, ok := parsePairCallback(data)
		if !ok {
			g.rejectCallback(ctx, logger, cb)
			return
		}
		err = g.review.Approve(ctx, cb.ChatID, customerID, photoID)
	case strings.HasPrefix(data, usecase.CallbackReject+"_"):
		customerID, photoID, ok := parsePairCallback(data)
		if !ok {
			g.rejectCallback(ctx, logger, cb)
			return
		}
		g.review.RequestReject(cb.SenderID, customerID, photoID)
		err = g.messenger.SendText(ctx, cb.ChatID, "Type the rejection reason in the chat.")
	case strings.HasPrefix(data, usecase.CallbackSkip+"_"):
		customerID, _, ok := parsePairCallback(data)
		if !ok {
			g.rejectCallback(ctx, logger, cb)
			return
		}
		err = g.review.Skip(ctx, customerID)
	case strings.HasPrefix(data, usecase.CallbackFinish+"_"):
		customerID, ok := parseSingleCallback(data)
		if !ok {
			g.rejectCallback(ctx, logger, cb)
			return
		}
		err = g.review.Finish(ctx, customerID)
	case strings.HasPrefix(data, usecase.CallbackMessage+"_"):
		customerID, ok := parseSingleCallback(data)
		if !ok {
			g.rejectCallback(ctx, logger, cb)
			return
		}
		g.review.RequestMessage(cb.SenderID, customerID)
		err = g.messenger.SendText(ctx, cb.ChatID, "Type the message for the customer in the chat.")
	default:
		logger.Warn("unknown callback", "data", data)
		return
	}
	if err != nil {
		logger.Warn("callback failed", "data", data, "error", err)
	}
}

// rejectCallback reports a malformed button payload back to the sender.
// Nothing is mutated on this path.
func (g *Gateway) rejectCallback(ctx context.Context, logger *slog.Logger, cb *transport.CallbackQuery) {
	logger.Warn("malformed callback", "data", cb.Data)
	if err := g.messenger.SendText(ctx, cb.ChatID, "Malformed request data."); err != nil {
		logger.Warn("failed to report malformed callback", "error", err)
	}
}

// parseBankCallback splits "bank_<name>_<operation>". Bank names may
// contain underscores, so the operation is cut from the right.
func parseBankCallback(data string) (string, model.OperationKind, bool) {
	rest := strings.TrimPrefix(data, usecase.CallbackBankPrefix+"_")
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", "", false
	}
	bank, op := rest[:i], model.OperationKind(rest[i+1:])
	if !op.Valid() {
		return "", "", false
	}
	return bank, op, true
}

// parsePairCallback splits "<verb>_<customer>_<number>".
func parsePairCallback(data string) (int64, int64, bool) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 {
		return 0, 0, false
	}
	customerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	second, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return customerID, second, true
}

// parseSingleCallback splits "<verb>_<customer>".
func parseSingleCallback(data string) (int64, bool) {
	parts := strings.Split(data, "_")
	if len(parts) != 2 {
		return 0, false
	}
	customerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return customerID, true
}

func parseIDArg(args []string) (int64, bool) {
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
