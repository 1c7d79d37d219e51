package repository

import (
	"context"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// OrderCounts aggregates ledger totals for the stats command.
type OrderCounts struct {
	Total    int64
	Finished int64
	Open     int64
}

// OrderRepository describes persistence operations with the order ledger.
// Orders are append-only: they are never deleted, only status-terminated.
type OrderRepository interface {
	Create(ctx context.Context, customerID int64, displayName, bank string, operation model.OperationKind, status string) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	LatestByCustomer(ctx context.Context, customerID int64) (*model.Order, error)
	LatestQueuedByCustomer(ctx context.Context, customerID int64) (*model.Order, error)
	SetStage(ctx context.Context, orderID int64, stage int, status string) error
	SetStatus(ctx context.Context, orderID int64, status string) error
	BindChannel(ctx context.Context, orderID, channelChatID int64) error
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
	ListOpen(ctx context.Context) ([]model.Order, error)
	Counts(ctx context.Context) (OrderCounts, error)
}
