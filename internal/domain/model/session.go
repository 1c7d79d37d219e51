package model

// Session is the volatile per-customer context. It is advisory: any consumer
// must be able to rebuild it from the customer's latest order when absent.
// OrderID is zero until the order row exists.
type Session struct {
	CustomerID  int64         `json:"customer_id"`
	OrderID     int64         `json:"order_id"`
	Bank        string        `json:"bank"`
	Operation   OperationKind `json:"operation"`
	Stage       int           `json:"stage"`
	AgeRequired *int          `json:"age_required,omitempty"`
}
