package model

// OperatorChannel is an exclusive operator work unit: a group chat that holds
// at most one active order at a time. ID is the registration order used for
// deterministic assignment; ChatID is the external chat identifier.
type OperatorChannel struct {
	ID     int64
	ChatID int64
	Name   string
	Busy   bool
}
