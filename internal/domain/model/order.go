package model

import (
	"fmt"
	"time"
)

// OperationKind distinguishes the two supported request types.
type OperationKind string

const (
	OperationRegister OperationKind = "register"
	OperationChange   OperationKind = "change"
)

// Valid reports whether the operation kind is one of the known values.
func (k OperationKind) Valid() bool {
	return k == OperationRegister || k == OperationChange
}

// Order statuses. Statuses are stored as text; stage-bound statuses are
// produced by the helpers below.
const (
	StatusQueued     = "queued"
	StatusCompleted  = "completed"
	StatusTerminated = "terminated"
	StatusNoScript   = "error: no instructions"
)

// StatusStageInProgress renders the status for a stage the customer is
// currently working on. Stages are zero-based internally and one-based in
// every user-visible string.
func StatusStageInProgress(stage int) string {
	return fmt.Sprintf("stage %d in progress", stage+1)
}

// StatusAwaitingReview renders the status set after a photo submission.
func StatusAwaitingReview(stage int) string {
	return fmt.Sprintf("awaiting review (stage %d)", stage+1)
}

// IsTerminalStatus reports whether an order status admits no further
// transitions.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusTerminated, StatusNoScript:
		return true
	}
	return false
}

// Order is one customer's registration or re-linking request.
type Order struct {
	ID          int64
	CustomerID  int64
	DisplayName string
	Bank        string
	Operation   OperationKind
	Stage       int
	Status      string
	ChannelID   *int64
	CreatedAt   time.Time
}

// Bound reports whether the order currently holds an operator channel.
func (o *Order) Bound() bool {
	return o.ChannelID != nil
}

// Terminal reports whether the order reached an absorbing state.
func (o *Order) Terminal() bool {
	return IsTerminalStatus(o.Status)
}
