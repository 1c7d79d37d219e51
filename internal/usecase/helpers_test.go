package usecase

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bankdesk/bankdesk/internal/script"
	"github.com/bankdesk/bankdesk/internal/session"
	"github.com/bankdesk/bankdesk/internal/test"
)

const testEscalationChatID int64 = -999

const twoStageScripts = `banks:
  alpha:
    register:
      - text: "Step one: open the app"
        age: 18
      - text: "Step two: send the screenshot"
        images: ["guide-1"]
  beta:
    change:
      - text: "Rebind step"
`

type env struct {
	orders    *test.OrderRepositoryStub
	photos    *test.PhotoRepositoryStub
	channels  *test.ChannelRepositoryStub
	queue     *test.QueueRepositoryStub
	coops     *test.CooperationRepositoryStub
	sessions  *session.MemoryStore
	messenger *test.MessengerRecorder
	publisher *test.PublisherStub
	catalog   *script.Catalog

	assignment  *AssignmentUseCase
	instruction *InstructionUseCase
	review      *ReviewUseCase
	menu        *MenuUseCase
}

func newEnv(t *testing.T, scripts string) *env {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	path := filepath.Join(t.TempDir(), "scripts.yaml")
	if scripts != "" {
		if err := os.WriteFile(path, []byte(scripts), 0o600); err != nil {
			t.Fatalf("write scripts: %v", err)
		}
	}
	catalog, err := script.New(path, logger)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	e := &env{
		orders:    test.NewOrderRepositoryStub(),
		photos:    test.NewPhotoRepositoryStub(),
		channels:  test.NewChannelRepositoryStub(),
		queue:     test.NewQueueRepositoryStub(),
		coops:     test.NewCooperationRepositoryStub(),
		sessions:  session.NewMemoryStore(),
		messenger: &test.MessengerRecorder{},
		publisher: &test.PublisherStub{},
		catalog:   catalog,
	}
	e.assignment = NewAssignmentUseCase(e.orders, e.channels, e.queue, e.messenger, e.publisher, logger)
	e.instruction = NewInstructionUseCase(e.orders, e.assignment, e.catalog, e.sessions, e.messenger, e.publisher, logger, testEscalationChatID)
	e.review = NewReviewUseCase(e.orders, e.photos, e.instruction, e.messenger, logger, testEscalationChatID)
	e.menu = NewMenuUseCase(e.orders, e.coops, e.assignment, e.instruction, e.catalog, e.sessions, e.messenger, logger, testEscalationChatID)
	return e
}
