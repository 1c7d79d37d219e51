package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainErrors "github.com/bankdesk/bankdesk/internal/domain/errors"
	"github.com/bankdesk/bankdesk/internal/domain/model"
	"github.com/bankdesk/bankdesk/internal/domain/repository"
	"github.com/bankdesk/bankdesk/internal/script"
	"github.com/bankdesk/bankdesk/internal/session"
	"github.com/bankdesk/bankdesk/internal/transport"
)

// Menu callback identifiers.
const (
	CallbackMenuBanks  = "menu_banks"
	CallbackMenuInfo   = "menu_info"
	CallbackMenuCoop   = "menu_coop"
	CallbackBackToMain = "back_to_main"
	CallbackTypePrefix = "type"
	CallbackBankPrefix = "bank"
	CallbackAgeConfirm = "age_confirm_yes"
	CallbackAgeDecline = "age_confirm_no"
)

// MenuUseCase drives the customer-facing flow from greeting to a
// created, assigned order.
type MenuUseCase struct {
	orders       repository.OrderRepository
	cooperations repository.CooperationRepository
	assignment   *AssignmentUseCase
	instruction  *InstructionUseCase
	catalog      *script.Catalog
	sessions     session.Store
	messenger    transport.Messenger
	logger       *slog.Logger

	escalationChatID int64

	mu          sync.Mutex
	coopPending map[int64]struct{}
}

// NewMenuUseCase constructs MenuUseCase.
func NewMenuUseCase(
	orders repository.OrderRepository,
	cooperations repository.CooperationRepository,
	assignment *AssignmentUseCase,
	instruction *InstructionUseCase,
	catalog *script.Catalog,
	sessions session.Store,
	messenger transport.Messenger,
	logger *slog.Logger,
	escalationChatID int64,
) *MenuUseCase {
	return &MenuUseCase{
		orders:           orders,
		cooperations:     cooperations,
		assignment:       assignment,
		instruction:      instruction,
		catalog:          catalog,
		sessions:         sessions,
		messenger:        messenger,
		logger:           logger,
		escalationChatID: escalationChatID,
		coopPending:      make(map[int64]struct{}),
	}
}

// Start shows the main menu.
func (u *MenuUseCase) Start(ctx context.Context, chatID int64) error {
	keyboard := []transport.Row{
		{{Label: "Available banks", Data: CallbackMenuBanks}},
		{{Label: "Information and payment", Data: CallbackMenuInfo}},
		{{Label: "Apply for cooperation", Data: CallbackMenuCoop}},
	}
	return u.messenger.SendText(ctx, chatID, "Welcome! Choose an option:", keyboard...)
}

// ShowOperations offers the operation kind selection.
func (u *MenuUseCase) ShowOperations(ctx context.Context, chatID int64) error {
	keyboard := []transport.Row{
		{{Label: "Registration", Data: CallbackTypePrefix + "_" + string(model.OperationRegister)}},
		{{Label: "Rebinding", Data: CallbackTypePrefix + "_" + string(model.OperationChange)}},
		{{Label: "Back", Data: CallbackBackToMain}},
	}
	return u.messenger.SendText(ctx, chatID, "Choose an operation type:", keyboard...)
}

// ShowInfo sends the payment details blurb.
func (u *MenuUseCase) ShowInfo(ctx context.Context, chatID int64) error {
	info := "Payment goes to card XXXX XXXX XXXX XXXX\n" +
		"After paying, be sure to send the receipt to the chat.\n\n" +
		"If you have questions, contact the operator."
	keyboard := []transport.Row{{{Label: "Back", Data: CallbackBackToMain}}}
	return u.messenger.SendText(ctx, chatID, info, keyboard...)
}

// ShowBanks lists the banks that have a script for the operation.
func (u *MenuUseCase) ShowBanks(ctx context.Context, chatID int64, operation model.OperationKind) error {
	banks := u.catalog.Banks(operation)
	if len(banks) == 0 {
		keyboard := []transport.Row{{{Label: "Back", Data: CallbackMenuBanks}}}
		return u.messenger.SendText(ctx, chatID, "Nothing is available for this operation type yet. Try again later.", keyboard...)
	}
	keyboard := make([]transport.Row, 0, len(banks)+1)
	for _, bank := range banks {
		keyboard = append(keyboard, transport.Row{
			{Label: bank, Data: fmt.Sprintf("%s_%s_%s", CallbackBankPrefix, bank, operation)},
		})
	}
	keyboard = append(keyboard, transport.Row{{Label: "Back", Data: CallbackMenuBanks}})
	return u.messenger.SendText(ctx, chatID, "Choose a bank:", keyboard...)
}

// SelectBank stores the customer's choice and asks for the eligibility
// confirmation, including the age requirement when the script has one.
func (u *MenuUseCase) SelectBank(ctx context.Context, customerID int64, bank string, operation model.OperationKind) error {
	if !operation.Valid() {
		return domainErrors.ErrBadCallback
	}
	sess := &model.Session{CustomerID: customerID, Bank: bank, Operation: operation}
	if age, ok := u.catalog.AgeRequirement(bank, operation); ok {
		sess.AgeRequired = &age
	}
	if err := u.sessions.Put(ctx, sess); err != nil {
		return err
	}

	label := "registration"
	if operation == model.OperationChange {
		label = "rebinding"
	}
	text := fmt.Sprintf("You chose bank %s (%s).\n", bank, label)
	if sess.AgeRequired != nil {
		text += fmt.Sprintf("Requirement: minimum age %d years.\n", *sess.AgeRequired)
	}
	text += "Please confirm that you meet these requirements."
	keyboard := []transport.Row{
		{
			{Label: "Yes, I meet the requirements", Data: CallbackAgeConfirm},
			{Label: "No, I do not qualify", Data: CallbackAgeDecline},
		},
	}
	return u.messenger.SendText(ctx, customerID, text, keyboard...)
}

// ConfirmAge creates the order and routes it when the customer confirms,
// or clears the selection when they decline.
func (u *MenuUseCase) ConfirmAge(ctx context.Context, customerID int64, displayName string, confirmed bool) error {
	sess, ok, err := u.sessions.Get(ctx, customerID)
	if err != nil {
		return err
	}
	if !ok || sess.Bank == "" {
		return u.messenger.SendText(ctx, customerID, "Something went wrong, please start over with /start")
	}

	if !confirmed {
		if err := u.sessions.Delete(ctx, customerID); err != nil {
			u.logger.Warn("failed to delete session", "customer_id", customerID, "error", err)
		}
		return u.messenger.SendText(ctx, customerID, "You do not meet the age requirements. Please choose another bank.")
	}

	order, err := u.orders.Create(ctx, customerID, displayName, sess.Bank, sess.Operation, model.StatusQueued)
	if err != nil {
		return err
	}
	sess.OrderID = order.ID
	sess.Stage = 0
	if err := u.sessions.Put(ctx, sess); err != nil {
		u.logger.Warn("failed to save session", "customer_id", customerID, "error", err)
	}

	assigned, err := u.assignment.AssignOrQueue(ctx, order)
	if err != nil {
		return err
	}
	if !assigned {
		return nil
	}
	if err := u.messenger.SendText(ctx, customerID, "Confirmed. Starting the instructions."); err != nil {
		u.logger.Warn("failed to confirm start", "customer_id", customerID, "error", err)
	}
	return u.instruction.Begin(ctx, order)
}

// Status reports the customer's latest order.
func (u *MenuUseCase) Status(ctx context.Context, customerID int64) error {
	order, err := u.orders.LatestByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return u.messenger.SendText(ctx, customerID, "You have no orders yet.")
		}
		return err
	}
	text := fmt.Sprintf("Order #%d\nBank: %s, operation: %s\nStatus: %s\nStage: %d",
		order.ID, order.Bank, order.Operation, order.Status, order.Stage+1)
	return u.messenger.SendText(ctx, customerID, text)
}

// StartCooperation parks the customer until the next text message.
func (u *MenuUseCase) StartCooperation(ctx context.Context, customerID int64) error {
	u.mu.Lock()
	u.coopPending[customerID] = struct{}{}
	u.mu.Unlock()
	return u.messenger.SendText(ctx, customerID, "Please write your application in the next message.")
}

// CancelCooperation drops the parked application input.
func (u *MenuUseCase) CancelCooperation(ctx context.Context, customerID int64) error {
	u.mu.Lock()
	_, ok := u.coopPending[customerID]
	delete(u.coopPending, customerID)
	u.mu.Unlock()
	if !ok {
		return nil
	}
	return u.messenger.SendText(ctx, customerID, "Application input cancelled.")
}

// ConsumeCooperation stores the application text if the customer was
// parked for it. Returns false otherwise.
func (u *MenuUseCase) ConsumeCooperation(ctx context.Context, customerID int64, displayName, text string) (bool, error) {
	u.mu.Lock()
	_, ok := u.coopPending[customerID]
	delete(u.coopPending, customerID)
	u.mu.Unlock()
	if !ok {
		return false, nil
	}

	request, err := u.cooperations.Create(ctx, customerID, displayName, text)
	if err != nil {
		return true, err
	}
	notice := fmt.Sprintf("New cooperation application\nCustomer: %s (ID: %d)\nText:\n%s", displayName, customerID, text)
	if err := u.messenger.SendText(ctx, u.escalationChatID, notice); err != nil {
		u.logger.Warn("failed to forward cooperation application", "request_id", request.ID, "error", err)
	}
	if err := u.messenger.SendText(ctx, customerID, "Your application has been received. We will contact you shortly."); err != nil {
		u.logger.Warn("failed to confirm cooperation application", "customer_id", customerID, "error", err)
	}
	return true, nil
}
