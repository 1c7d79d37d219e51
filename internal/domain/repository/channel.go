package repository

import (
	"context"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// ChannelRepository manages the operator pool. ClaimFree is the only way a
// channel becomes busy and Release the only way it becomes free again; both
// must behave as atomic test-and-set operations.
type ChannelRepository interface {
	Add(ctx context.Context, chatID int64, name string) error
	Remove(ctx context.Context, chatID int64) error
	List(ctx context.Context) ([]model.OperatorChannel, error)
	// ClaimFree picks the free channel with the lowest registration order,
	// marks it busy and returns it. Returns ErrNoFreeChannel when the pool
	// is fully occupied.
	ClaimFree(ctx context.Context) (*model.OperatorChannel, error)
	Release(ctx context.Context, chatID int64) error
}
