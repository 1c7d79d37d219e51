package model

import "time"

// CooperationRequest is a write-once partnership application left by a
// customer through the menu.
type CooperationRequest struct {
	ID          int64
	CustomerID  int64
	DisplayName string
	Body        string
	CreatedAt   time.Time
}
