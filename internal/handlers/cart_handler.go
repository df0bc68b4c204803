package handlers

import (
	"errors"
	"log"

	"warung/internal/middleware"
	"warung/internal/models"
	"warung/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the authenticated user's cart.
// Every success response carries the full authoritative cart; clients are
// expected to replace their local copy with it wholesale.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app. All routes
// require an authenticated session.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:productId", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:productId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// HandleGetCart returns the cart in insertion order.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	items, err := h.service.GetCart(middleware.SessionFromContext(c))
	if err != nil {
		return cartError(c, "Could not retrieve cart", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// HandleAddItem adds one unit of a product to the cart. The body is the
// product descriptor: required id, name and price, optional image.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var snapshot models.ProductSnapshot
	if err := c.BodyParser(&snapshot); err != nil {
		log.Printf("Error parsing add-to-cart request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(snapshot); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	items, err := h.service.AddItem(middleware.SessionFromContext(c), snapshot)
	if err != nil {
		return cartError(c, "Could not add item to cart", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// SetQuantityRequest represents the request body for a quantity update.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// HandleSetQuantity overwrites the quantity of an existing line item.
// Quantity 0 removes the line.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	var req SetQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing set-quantity request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationMessages(err),
		})
	}

	items, err := h.service.SetQuantity(middleware.SessionFromContext(c), c.Params("productId"), *req.Quantity)
	if err != nil {
		return cartError(c, "Could not update item quantity", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// HandleRemoveItem removes a line item. Removing an absent product still
// succeeds with the unchanged cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	items, err := h.service.RemoveItem(middleware.SessionFromContext(c), c.Params("productId"))
	if err != nil {
		return cartError(c, "Could not remove item from cart", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	items, err := h.service.ClearCart(middleware.SessionFromContext(c))
	if err != nil {
		return cartError(c, "Could not clear cart", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// cartError maps the service error kinds onto HTTP statuses.
func cartError(c *fiber.Ctx, message string, err error) error {
	log.Printf("%s: %v", message, err)

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrPrincipalNotFound), errors.Is(err, services.ErrItemNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidProductData), errors.Is(err, services.ErrInvalidRequestData):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrStoreUnavailable):
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
