package domain

import "time"

type OrderEventType string

const (
	OrderEventCreated  OrderEventType = "order.created"
	OrderEventCanceled OrderEventType = "order.canceled"
)

// OrderEvent is published on the order lifecycle topic after a state change
// has been committed.
type OrderEvent struct {
	Type        OrderEventType `json:"type"`
	OrderID     string         `json:"order_id"`
	CustomerID  string         `json:"customer_id"`
	TotalAmount float64        `json:"total_amount"`
	Lines       []OrderLine    `json:"lines,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}
