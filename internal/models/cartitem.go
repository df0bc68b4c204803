package models

import "time"

// PlaceholderImage is used for line items added without a product image.
const PlaceholderImage = "/images/placeholder.jpg"

// CartItem is one line of a user's cart. Name, Price and Image are a
// snapshot of the product at add time; later product edits do not touch
// existing lines. A user never has two lines for the same product — the
// composite unique index backs the atomic add-or-increment upsert.
type CartItem struct {
	ID          uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID      string    `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_cart_user_product;not null"`
	ProductID   string    `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_user_product;not null"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Quantity    int       `json:"quantity"` // always >= 1 when persisted
	AddedAt     time.Time `json:"added_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// ProductSnapshot is the validated add-to-cart input: the product reference
// plus the display fields to freeze onto the new line item.
type ProductSnapshot struct {
	ProductID string  `json:"product_id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	Image     string  `json:"image" validate:"omitempty"`
}
