package domain

import "time"

type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "CREATED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// OrderLine is a purchased line item. Name and price are snapshots taken
// from the catalog at orchestration time; later catalog edits never change
// them.
type OrderLine struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type Order struct {
	ID          string      `json:"id"`
	CustomerID  string      `json:"customerId"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   time.Time   `json:"createdAt"`
	Lines       []OrderLine `json:"productItems"`
}

// LineRequest is what a customer submits. The snapshot fields are filled in
// by the orchestrator.
type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type OrderStats struct {
	TotalOrders    int     `json:"totalOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
	CanceledOrders int     `json:"canceledOrders"`
}

type CustomerStats struct {
	Count  int     `json:"count"`
	Spent  float64 `json:"spent"`
	Active int     `json:"active"`
}
