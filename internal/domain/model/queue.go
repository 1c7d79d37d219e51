package model

import "time"

// QueueEntry is a customer request waiting for a free operator channel.
// Entries are served strictly in id order.
type QueueEntry struct {
	ID          int64
	CustomerID  int64
	DisplayName string
	Bank        string
	Operation   OperationKind
	CreatedAt   time.Time
}
