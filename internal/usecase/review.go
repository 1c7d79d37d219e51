package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	domainErrors "github.com/bankdesk/bankdesk/internal/domain/errors"
	"github.com/bankdesk/bankdesk/internal/domain/model"
	"github.com/bankdesk/bankdesk/internal/domain/repository"
	"github.com/bankdesk/bankdesk/internal/transport"
)

// Callback data prefixes understood by operator keyboards.
const (
	CallbackApprove = "approve"
	CallbackReject  = "reject"
	CallbackSkip    = "skip"
	CallbackFinish  = "finish"
	CallbackMessage = "msg"
)

type captureKind int

const (
	captureRejectReason captureKind = iota
	captureOperatorMessage
)

// capture parks an operator between pressing a keyboard button and
// typing the follow-up text. Keyed by operator id so two operators in
// the same channel cannot cross wires.
type capture struct {
	kind       captureKind
	customerID int64
	photoID    int64
}

// ReviewUseCase handles photo submission and the operator review
// protocol around it.
type ReviewUseCase struct {
	orders      repository.OrderRepository
	photos      repository.PhotoRepository
	instruction *InstructionUseCase
	messenger   transport.Messenger
	logger      *slog.Logger

	escalationChatID int64

	mu       sync.Mutex
	captures map[int64]capture
}

// NewReviewUseCase constructs ReviewUseCase.
func NewReviewUseCase(
	orders repository.OrderRepository,
	photos repository.PhotoRepository,
	instruction *InstructionUseCase,
	messenger transport.Messenger,
	logger *slog.Logger,
	escalationChatID int64,
) *ReviewUseCase {
	return &ReviewUseCase{
		orders:           orders,
		photos:           photos,
		instruction:      instruction,
		messenger:        messenger,
		logger:           logger,
		escalationChatID: escalationChatID,
		captures:         make(map[int64]capture),
	}
}

// SubmitPhotos records the customer's screenshots for the current stage
// and forwards the new ones to the reviewing channel. Duplicate media
// within a stage is silently dropped, which makes redelivery of the
// same album idempotent.
func (u *ReviewUseCase) SubmitPhotos(ctx context.Context, customerID int64, displayName string, refs []string, batchID string) error {
	sess, err := u.instruction.Reconstruct(ctx, customerID)
	if err != nil {
		return err
	}
	order, err := u.orders.GetByID(ctx, sess.OrderID)
	if err != nil {
		return err
	}
	if order.Terminal() {
		return domainErrors.ErrOrderFinished
	}

	// Photos are recorded against the one-based stage under review.
	reviewStage := order.Stage + 1

	var added []*model.PhotoSubmission
	for _, ref := range refs {
		photo, created, err := u.photos.Add(ctx, order.ID, reviewStage, ref)
		if err != nil {
			return err
		}
		if created {
			added = append(added, photo)
		}
	}

	if len(added) > 0 {
		status := model.StatusAwaitingReview(order.Stage)
		if err := u.orders.SetStage(ctx, order.ID, order.Stage, status); err != nil {
			return err
		}
		order.Status = status
	}

	target := u.escalationChatID
	if order.ChannelID != nil {
		target = *order.ChannelID
	}
	for i, photo := range added {
		caption := u.reviewCaption(order, displayName, reviewStage, i+1, len(added), batchID != "")
		keyboard := reviewKeyboard(customerID, photo.ID, reviewStage)
		if err := u.messenger.SendPhoto(ctx, target, photo.MediaRef, caption, keyboard...); err != nil {
			u.logger.Warn("failed to forward photo for review", "order_id", order.ID, "chat_id", target, "error", err)
		}
	}

	confirmation := "Your screenshots were submitted for review. Please wait."
	if batchID != "" {
		confirmation = "Your album was submitted for review. Please wait."
	}
	if err := u.messenger.SendText(ctx, customerID, confirmation); err != nil {
		u.logger.Warn("failed to confirm submission", "customer_id", customerID, "error", err)
	}
	return nil
}

// Approve confirms a single photo and reports stage progress back to
// the reviewing chat. It never advances the stage.
func (u *ReviewUseCase) Approve(ctx context.Context, reviewChatID, customerID, photoID int64) error {
	photo, err := u.photos.Confirm(ctx, photoID)
	if err != nil {
		return err
	}
	counts, err := u.photos.CountsForStage(ctx, photo.OrderID, photo.Stage)
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("%d of %d screenshots confirmed", counts.Confirmed, counts.Total)
	if err := u.messenger.SendText(ctx, reviewChatID, summary); err != nil {
		u.logger.Warn("failed to report approval", "chat_id", reviewChatID, "error", err)
	}
	return nil
}

// RequestReject parks the operator until they type the rejection reason.
func (u *ReviewUseCase) RequestReject(operatorID, customerID, photoID int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.captures[operatorID] = capture{kind: captureRejectReason, customerID: customerID, photoID: photoID}
}

// RequestMessage parks the operator until they type the message body.
func (u *ReviewUseCase) RequestMessage(operatorID, customerID int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.captures[operatorID] = capture{kind: captureOperatorMessage, customerID: customerID}
}

// ConsumeCapture routes the operator's next text to the parked action.
// Returns false when the operator has nothing parked.
func (u *ReviewUseCase) ConsumeCapture(ctx context.Context, operatorID int64, reviewChatID int64, text string) (bool, error) {
	u.mu.Lock()
	parked, ok := u.captures[operatorID]
	if ok {
		delete(u.captures, operatorID)
	}
	u.mu.Unlock()
	if !ok {
		return false, nil
	}

	switch parked.kind {
	case captureRejectReason:
		notice := fmt.Sprintf("Your screenshot was rejected.\nReason: %s", text)
		if err := u.messenger.SendText(ctx, parked.customerID, notice); err != nil {
			return true, err
		}
		if err := u.messenger.SendText(ctx, reviewChatID, fmt.Sprintf("Rejection reason saved: %s", text)); err != nil {
			u.logger.Warn("failed to acknowledge rejection", "chat_id", reviewChatID, "error", err)
		}
	case captureOperatorMessage:
		if err := u.messenger.SendText(ctx, parked.customerID, fmt.Sprintf("Operator message: %s", text)); err != nil {
			return true, err
		}
		if err := u.messenger.SendText(ctx, reviewChatID, "Message sent."); err != nil {
			u.logger.Warn("failed to acknowledge message", "chat_id", reviewChatID, "error", err)
		}
	}
	return true, nil
}

// Skip advances the customer's order past the stage under review.
func (u *ReviewUseCase) Skip(ctx context.Context, customerID int64) error {
	order, err := u.activeOrder(ctx, customerID)
	if err != nil {
		return err
	}
	return u.instruction.Advance(ctx, order)
}

// Finish closes the customer's order on the operator's behalf.
func (u *ReviewUseCase) Finish(ctx context.Context, customerID int64) error {
	order, err := u.activeOrder(ctx, customerID)
	if err != nil {
		return err
	}
	return u.instruction.Terminate(ctx, order, "Your order was closed by the operator.")
}

func (u *ReviewUseCase) activeOrder(ctx context.Context, customerID int64) (*model.Order, error) {
	sess, err := u.instruction.Reconstruct(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return u.orders.GetByID(ctx, sess.OrderID)
}

func (u *ReviewUseCase) reviewCaption(order *model.Order, displayName string, reviewStage, index, total int, album bool) string {
	header := "Screenshot review"
	if album {
		header = "Screenshot review (album)"
	}
	return fmt.Sprintf("%s (%d of %d)\nCustomer: %s (ID: %d)\nBank: %s\nOperation: %s\nStage: %d",
		header, index, total, displayName, order.CustomerID, order.Bank, order.Operation, reviewStage)
}

func reviewKeyboard(customerID, photoID int64, reviewStage int) []transport.Row {
	return []transport.Row{
		{
			{Label: "Approve", Data: fmt.Sprintf("%s_%d_%d", CallbackApprove, customerID, photoID)},
			{Label: "Reject", Data: fmt.Sprintf("%s_%d_%d", CallbackReject, customerID, photoID)},
		},
		{{Label: "Skip stage", Data: fmt.Sprintf("%s_%d_%d", CallbackSkip, customerID, reviewStage)}},
		{{Label: "Finish order", Data: fmt.Sprintf("%s_%d", CallbackFinish, customerID)}},
		{{Label: "Message customer", Data: fmt.Sprintf("%s_%d", CallbackMessage, customerID)}},
	}
}
