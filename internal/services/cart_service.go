package services

import (
	"errors"
	"fmt"
	"time"

	"warung/internal/models"
	"warung/internal/repositories"

	"gorm.io/gorm"
)

// CartService implements the five cart contracts. Every operation resolves
// the owning user from the session descriptor first, then delegates to a
// single atomic statement in the cart repository, and finally returns the
// full authoritative cart so clients can replace their local copy wholesale.
type CartService struct {
	resolver *PrincipalResolver
	cartRepo repositories.CartRepository
	now      func() time.Time
}

// NewCartService creates a new CartService.
func NewCartService(resolver *PrincipalResolver, cartRepo repositories.CartRepository) *CartService {
	return &CartService{
		resolver: resolver,
		cartRepo: cartRepo,
		now:      time.Now,
	}
}

// GetCart returns the user's cart in insertion order. No side effects.
func (s *CartService) GetCart(session models.Session) ([]models.CartItem, error) {
	user, err := s.resolver.Resolve(session)
	if err != nil {
		return nil, err
	}
	return s.currentCart(user.ID)
}

// AddItem adds one unit of the product to the cart: a new quantity-1 line
// when the product is not yet present, otherwise an increment of the
// existing line. The existing line keeps its add-time name/price/image.
// Repeated calls keep incrementing; this is "add one more", not an upsert
// to a fixed state. Returns the full updated cart.
func (s *CartService) AddItem(session models.Session, snapshot models.ProductSnapshot) ([]models.CartItem, error) {
	if snapshot.ProductID == "" || snapshot.Name == "" || snapshot.Price <= 0 {
		return nil, fmt.Errorf("product descriptor needs id, name and a positive price: %w", ErrInvalidProductData)
	}
	if snapshot.Image == "" {
		snapshot.Image = models.PlaceholderImage
	}

	user, err := s.resolver.Resolve(session)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.AddOrIncrement(user.ID, snapshot, s.now()); err != nil {
		return nil, fmt.Errorf("failed to add product %s: %w", snapshot.ProductID, ErrStoreUnavailable)
	}
	return s.currentCart(user.ID)
}

// SetQuantity overwrites the quantity of an existing line item. Quantity 0
// removes the line (a zero-quantity row is never stored); negative
// quantities are rejected. SetQuantity never creates a line: an absent
// target is ErrItemNotFound. Returns the full updated cart.
func (s *CartService) SetQuantity(session models.Session, productID string, quantity int) ([]models.CartItem, error) {
	if productID == "" || quantity < 0 {
		return nil, fmt.Errorf("quantity must be a non-negative integer for an identified product: %w", ErrInvalidRequestData)
	}

	user, err := s.resolver.Resolve(session)
	if err != nil {
		return nil, err
	}

	if quantity == 0 {
		// The caller asked for zero; the line goes away entirely. The
		// target must still exist for the operation to make sense.
		items, err := s.cartRepo.GetByUser(user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read cart: %w", ErrStoreUnavailable)
		}
		if !containsProduct(items, productID) {
			return nil, fmt.Errorf("no line item for product %s: %w", productID, ErrItemNotFound)
		}
		if err := s.cartRepo.Remove(user.ID, productID); err != nil {
			return nil, fmt.Errorf("failed to remove product %s: %w", productID, ErrStoreUnavailable)
		}
		return s.currentCart(user.ID)
	}

	if err := s.cartRepo.SetQuantity(user.ID, productID, quantity, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no line item for product %s: %w", productID, ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to set quantity for product %s: %w", productID, ErrStoreUnavailable)
	}
	return s.currentCart(user.ID)
}

// RemoveItem deletes the line for productID. Removing a product that is not
// in the cart succeeds with the unchanged cart; deletion has set semantics.
// Returns the full updated cart.
func (s *CartService) RemoveItem(session models.Session, productID string) ([]models.CartItem, error) {
	if productID == "" {
		return nil, fmt.Errorf("product id is required: %w", ErrInvalidRequestData)
	}

	user, err := s.resolver.Resolve(session)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Remove(user.ID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove product %s: %w", productID, ErrStoreUnavailable)
	}
	return s.currentCart(user.ID)
}

// ClearCart replaces the whole cart with the empty collection.
func (s *CartService) ClearCart(session models.Session) ([]models.CartItem, error) {
	user, err := s.resolver.Resolve(session)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Clear(user.ID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", ErrStoreUnavailable)
	}
	return []models.CartItem{}, nil
}

func (s *CartService) currentCart(userID string) ([]models.CartItem, error) {
	items, err := s.cartRepo.GetByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back cart: %w", ErrStoreUnavailable)
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

func containsProduct(items []models.CartItem, productID string) bool {
	for _, item := range items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
