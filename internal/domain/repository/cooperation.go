package repository

import (
	"context"

	"github.com/bankdesk/bankdesk/internal/domain/model"
)

// CooperationRepository persists partnership applications. Write-once.
type CooperationRepository interface {
	Create(ctx context.Context, customerID int64, displayName, body string) (*model.CooperationRequest, error)
}
