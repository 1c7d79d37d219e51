package repository

import (
	"context"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// StageCounts is the confirmed/total ratio reported back to operators.
type StageCounts struct {
	Confirmed int64
	Total     int64
}

// PhotoRepository stores proof-of-completion submissions. Add is the dedup
// point: a submission with an existing (order, stage, media ref) triple is
// not inserted again and reported with created=false.
type PhotoRepository interface {
	Add(ctx context.Context, orderID int64, stage int, mediaRef string) (*model.PhotoSubmission, bool, error)
	GetByID(ctx context.Context, id int64) (*model.PhotoSubmission, error)
	Confirm(ctx context.Context, id int64) (*model.PhotoSubmission, error)
	CountsForStage(ctx context.Context, orderID int64, stage int) (StageCounts, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.PhotoSubmission, error)
}
