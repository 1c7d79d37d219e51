package events

import (
	"encoding/json"
	"strconv"
	"time"
)

// Event types published on the order lifecycle stream.
const (
	EventOrderCreated    = "OrderCreated"
	EventOrderQueued     = "OrderQueued"
	EventOrderAssigned   = "OrderAssigned"
	EventStageAdvanced   = "StageAdvanced"
	EventOrderCompleted  = "OrderCompleted"
	EventOrderTerminated = "OrderTerminated"
)

// Topic carries every order lifecycle event; the partition key is the order
// id so per-order ordering is preserved.
const Topic = "bankdesk.orders"

// Envelope wraps event payloads with delivery metadata.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	OrderID    int64           `json:"order_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// OrderPayload describes the order snapshot attached to lifecycle events.
type OrderPayload struct {
	CustomerID int64  `json:"customer_id"`
	Bank       string `json:"bank"`
	Operation  string `json:"operation"`
	Stage      int    `json:"stage"`
	Status     string `json:"status"`
	ChannelID  *int64 `json:"channel_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// PartitionKey keeps all events of one order on one partition.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
