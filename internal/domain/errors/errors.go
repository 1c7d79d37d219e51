package errors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoFreeChannel = errors.New("no free operator channel")
	ErrQueueEmpty    = errors.New("queue is empty")
	ErrNoScript      = errors.New("no instructions for bank and operation")
	ErrNoSession     = errors.New("no active session")
	ErrOrderFinished = errors.New("order already finished")
	ErrNotAuthorized = errors.New("not authorized")
	ErrBadCallback   = errors.New("malformed callback payload")
)
