package repositories

import (
	"fmt"
	"sync"
	"time"

	"warung/internal/models"

	"gorm.io/gorm"
)

// MockCartRepository is an in-memory implementation of CartRepository.
// The mutex gives each mutation the same all-or-nothing behavior the GORM
// implementation gets from single-statement updates.
type MockCartRepository struct {
	carts map[string][]models.CartItem
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string][]models.CartItem),
	}
}

// GetByUser returns the user's cart in insertion order.
func (r *MockCartRepository) GetByUser(userID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]models.CartItem, len(r.carts[userID]))
	copy(items, r.carts[userID])
	return items, nil
}

// AddOrIncrement bumps the quantity of an existing line or appends a new
// quantity-1 line. Snapshot fields of an existing line are not touched.
func (r *MockCartRepository) AddOrIncrement(userID string, snapshot models.ProductSnapshot, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.carts[userID]
	for i := range items {
		if items[i].ProductID == snapshot.ProductID {
			items[i].Quantity++
			items[i].LastUpdated = now
			return nil
		}
	}

	r.carts[userID] = append(items, models.CartItem{
		UserID:      userID,
		ProductID:   snapshot.ProductID,
		Name:        snapshot.Name,
		Price:       snapshot.Price,
		Image:       snapshot.Image,
		Quantity:    1,
		AddedAt:     now,
		LastUpdated: now,
	})
	return nil
}

// SetQuantity overwrites the quantity of an existing line item.
func (r *MockCartRepository) SetQuantity(userID, productID string, quantity int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			items[i].LastUpdated = now
			return nil
		}
	}
	return fmt.Errorf("cart item for product %s not found: %w", productID, gorm.ErrRecordNotFound)
}

// Remove deletes the line for productID; removing an absent line is a no-op.
func (r *MockCartRepository) Remove(userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			r.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Clear deletes every line of the user's cart.
func (r *MockCartRepository) Clear(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, userID)
	return nil
}
