package models

import "time"

// OrderStatus tracks an ingredient order from request to delivery.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderApproved  OrderStatus = "Approved"
	OrderDelivered OrderStatus = "Delivered"
	OrderRejected  OrderStatus = "Rejected"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderDelivered, OrderRejected:
		return true
	}
	return false
}

// CanBecome reports whether an order may move from s to next.
// Delivered and Rejected are terminal.
func (s OrderStatus) CanBecome(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderApproved || next == OrderDelivered || next == OrderRejected
	case OrderApproved:
		return next == OrderDelivered || next == OrderRejected
	default:
		return false
	}
}

// Order is a request to restock one ingredient.
type Order struct {
	ID             int64       `json:"id"`
	IngredientID   int64       `json:"ingredientId"`
	IngredientName string      `json:"ingredientName"`
	Quantity       float64     `json:"quantity"`
	Unit           Unit        `json:"unit"`
	Status         OrderStatus `json:"status"`
	CreatedBy      int64       `json:"createdBy,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}
