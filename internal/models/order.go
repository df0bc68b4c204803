package models

import "time"

// OrderItem is one line of a placed order, carried over from the cart line
// it was checked out from (same snapshot semantics).
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // Price at the time the item entered the cart
}

// Order represents a customer order produced by checking out a cart.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status"` // "pending", "processing", "shipped", "delivered", "cancelled"
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
