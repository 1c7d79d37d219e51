package test

import (
	"context"

	"github.com/bankdesk/bankdesk/internal/transport"
)

// UpdateSinkStub records enqueued updates and optionally refuses them.
type UpdateSinkStub struct {
	Updates []transport.Update
	Full    bool
}

// Enqueue stores the update unless the stub simulates a full buffer.
func (s *UpdateSinkStub) Enqueue(update transport.Update) bool {
	if s.Full {
		return false
	}
	s.Updates = append(s.Updates, update)
	return true
}

// HealthCheckerStub reports the configured readiness error.
type HealthCheckerStub struct {
	Err error
}

// HealthCheck returns the configured error.
func (s *HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}
