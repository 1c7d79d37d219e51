package repository

import (
	"context"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// QueueRepository holds requests waiting for a free operator channel.
// PopOldest removes and returns the entry atomically so that the same
// customer is never handed to two channels.
type QueueRepository interface {
	Enqueue(ctx context.Context, customerID int64, displayName, bank string, operation model.OperationKind) (*model.QueueEntry, error)
	// PopOldest returns ErrQueueEmpty when nothing is waiting.
	PopOldest(ctx context.Context) (*model.QueueEntry, error)
	// RemoveByCustomer drops every waiting entry of the customer, so a
	// terminated order cannot be revived by a later drain.
	RemoveByCustomer(ctx context.Context, customerID int64) error
	List(ctx context.Context) ([]model.QueueEntry, error)
}
