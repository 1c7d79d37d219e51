package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/bankdesk/bankdesk/internal/config"
	"github.com/bankdesk/bankdesk/internal/domain/repository"
	"github.com/bankdesk/bankdesk/internal/events"
	"github.com/bankdesk/bankdesk/internal/script"
	"github.com/bankdesk/bankdesk/internal/session"
	"github.com/bankdesk/bankdesk/internal/transport"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAssignmentUseCase,
	newInstructionUseCase,
	newReviewUseCase,
	newMenuUseCase,
	NewAdminUseCase,
)

type instructionParams struct {
	fx.In

	Orders     repository.OrderRepository
	Assignment *AssignmentUseCase
	Catalog    *script.Catalog
	Sessions   session.Store
	Messenger  transport.Messenger
	Publisher  events.Publisher
	Logger     *slog.Logger
	Config     *config.Config
}

func newInstructionUseCase(p instructionParams) *InstructionUseCase {
	return NewInstructionUseCase(p.Orders, p.Assignment, p.Catalog, p.Sessions, p.Messenger, p.Publisher, p.Logger, p.Config.EscalationChatID)
}

type reviewParams struct {
	fx.In

	Orders      repository.OrderRepository
	Photos      repository.PhotoRepository
	Instruction *InstructionUseCase
	Messenger   transport.Messenger
	Logger      *slog.Logger
	Config      *config.Config
}

func newReviewUseCase(p reviewParams) *ReviewUseCase {
	return NewReviewUseCase(p.Orders, p.Photos, p.Instruction, p.Messenger, p.Logger, p.Config.EscalationChatID)
}

type menuParams struct {
	fx.In

	Orders       repository.OrderRepository
	Cooperations repository.CooperationRepository
	Assignment   *AssignmentUseCase
	Instruction  *InstructionUseCase
	Catalog      *script.Catalog
	Sessions     session.Store
	Messenger    transport.Messenger
	Logger       *slog.Logger
	Config       *config.Config
}

func newMenuUseCase(p menuParams) *MenuUseCase {
	return NewMenuUseCase(p.Orders, p.Cooperations, p.Assignment, p.Instruction, p.Catalog, p.Sessions, p.Messenger, p.Logger, p.Config.EscalationChatID)
}
