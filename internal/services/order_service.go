package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"warung/internal/models"
	"warung/internal/repositories"
	"warung/pkg/rabbitmq"

	"github.com/google/uuid"
)

// OrderService turns carts into orders. Checkout is the only way a cart
// leaves the system: the cart is read and cleared through the cart
// contracts, never mutated directly.
type OrderService struct {
	resolver  *PrincipalResolver
	cartSvc   *CartService
	orderRepo repositories.OrderRepository
	mqClient  *rabbitmq.Client // RabbitMQ client, may be nil in tests
}

// NewOrderService creates a new OrderService.
func NewOrderService(resolver *PrincipalResolver, cartSvc *CartService, orderRepo repositories.OrderRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		resolver:  resolver,
		cartSvc:   cartSvc,
		orderRepo: orderRepo,
		mqClient:  mqClient,
	}
}

// GetOrders retrieves the session user's orders.
func (s *OrderService) GetOrders(session models.Session) ([]models.Order, error) {
	user, err := s.resolver.Resolve(session)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetAllByUser(user.ID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// Checkout converts the user's current cart into a pending order, clears
// the cart, and publishes a checkout event. Totals come from the cart's
// snapshot prices, not current product prices.
func (s *OrderService) Checkout(session models.Session) (*models.Order, error) {
	user, err := s.resolver.Resolve(session)
	if err != nil {
		return nil, err
	}

	items, err := s.cartSvc.GetCart(session)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", ErrInvalidRequestData)
	}

	var totalAmount float64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		totalAmount += item.Price * float64(item.Quantity)
	}

	newOrder := &models.Order{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Items:       orderItems,
		TotalAmount: totalAmount,
		Status:      "pending",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if _, err := s.cartSvc.ClearCart(session); err != nil {
		// The order exists; a stale cart is recoverable by the client
		// re-clearing, so log rather than fail the checkout.
		log.Printf("Warning: failed to clear cart after checkout of order %s: %v", newOrder.ID, err)
	}

	s.publishCheckoutEvent(newOrder)
	return newOrder, nil
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	validStatuses := map[string]bool{"pending": true, "processing": true, "shipped": true, "delivered": true, "cancelled": true}
	if _, ok := validStatuses[status]; !ok {
		return fmt.Errorf("invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}

func (s *OrderService) publishCheckoutEvent(order *models.Order) {
	if s.mqClient == nil {
		log.Println("RabbitMQ client is not initialized. Skipping checkout event.")
		return
	}

	event := map[string]interface{}{
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
		"total":   order.TotalAmount,
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal checkout event: %v", err)
		return
	}
	if err := s.mqClient.Publish("checkout.completed", body); err != nil {
		log.Printf("Warning: failed to publish checkout event for order %s: %v", order.ID, err)
	} else {
		log.Printf("Published checkout event for order %s", order.ID)
	}
}
