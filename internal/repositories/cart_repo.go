package repositories

import (
	"time"

	"warung/internal/models"
)

// CartRepository defines the interface for a user's cart line items.
// Implementations must apply every mutation as a single atomic statement
// scoped by (userID, productID): concurrent AddOrIncrement calls for the
// same product must all take effect, never read-modify-write.
type CartRepository interface {
	// GetByUser returns the user's cart in insertion order.
	GetByUser(userID string) ([]models.CartItem, error)
	// AddOrIncrement inserts a quantity-1 line with the given snapshot, or,
	// if a line for the product already exists, bumps its quantity by one.
	// The existing line's snapshot fields are left untouched.
	AddOrIncrement(userID string, snapshot models.ProductSnapshot, now time.Time) error
	// SetQuantity overwrites the quantity of an existing line (quantity >= 1).
	// Returns an error wrapping gorm.ErrRecordNotFound if the line is absent.
	SetQuantity(userID, productID string, quantity int, now time.Time) error
	// Remove deletes the line for productID. Removing an absent line is a no-op.
	Remove(userID, productID string) error
	// Clear deletes every line of the user's cart.
	Clear(userID string) error
}
