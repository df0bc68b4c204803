package repositories

import (
	"fmt"
	"time"

	"warung/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByUser returns the user's cart ordered by insertion (the autoincrement
// key preserves the order lines were first added).
func (r *GORMCartRepository) GetByUser(userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return items, nil
}

// AddOrIncrement runs a single INSERT ... ON CONFLICT DO UPDATE against the
// (user_id, product_id) unique index. The conflict branch only bumps the
// quantity and the timestamp; name, price and image stay the add-time
// snapshot. Being one statement, concurrent calls for the same product all
// apply.
func (r *GORMCartRepository) AddOrIncrement(userID string, snapshot models.ProductSnapshot, now time.Time) error {
	item := models.CartItem{
		UserID:      userID,
		ProductID:   snapshot.ProductID,
		Name:        snapshot.Name,
		Price:       snapshot.Price,
		Image:       snapshot.Image,
		Quantity:    1,
		AddedAt:     now,
		LastUpdated: now,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":     gorm.Expr("cart_items.quantity + 1"),
			"last_updated": now,
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to add product %s to cart of user %s: %w", snapshot.ProductID, userID, err)
	}
	return nil
}

// SetQuantity overwrites the quantity of an existing line item. It never
// creates a line: zero rows affected means the target is absent.
func (r *GORMCartRepository) SetQuantity(userID, productID string, quantity int, now time.Time) error {
	res := r.db.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]interface{}{
			"quantity":     quantity,
			"last_updated": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to set quantity for product %s in cart of user %s: %w", productID, userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item for product %s not found: %w", productID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Remove deletes the line for productID. Deleting an absent line succeeds
// with no effect.
func (r *GORMCartRepository) Remove(userID, productID string) error {
	res := r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove product %s from cart of user %s: %w", productID, userID, res.Error)
	}
	return nil
}

// Clear deletes every line of the user's cart.
func (r *GORMCartRepository) Clear(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart of user %s: %w", userID, err)
	}
	return nil
}
