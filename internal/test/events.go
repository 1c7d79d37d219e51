package test

import "github.com/bankdesk/bankdesk/internal/events"

// PublishedEvent captures one Publish invocation.
type PublishedEvent struct {
	EventType string
	OrderID   int64
	Payload   events.OrderPayload
}

// PublisherStub records published order events.
type PublisherStub struct {
	Events []PublishedEvent
}

func (p *PublisherStub) Publish(eventType string, orderID int64, payload events.OrderPayload) {
	p.Events = append(p.Events, PublishedEvent{EventType: eventType, OrderID: orderID, Payload: payload})
}

// Types returns the event types in publish order.
func (p *PublisherStub) Types() []string {
	result := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		result = append(result, e.EventType)
	}
	return result
}
