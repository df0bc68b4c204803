// Package cartclient is the client-side mirror of the authoritative cart.
// It never predicts state locally: every mutation round-trips to the server
// and replaces the cached cart with the exact response payload, so the
// visible cart is always a server-confirmed snapshot. On any failure
// (including timeouts, where the mutation must not be assumed applied) the
// last-known-good cart stays intact.
package cartclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"warung/internal/models"
)

// ErrNotLoggedIn is returned by every operation attempted without a session
// token.
var ErrNotLoggedIn = errors.New("cartclient: not logged in")

// Summary is the derived cart view: total unit count and subtotal. It is
// computed on demand from the cached cart and stored nowhere.
type Summary struct {
	TotalItems int     `json:"total_items"`
	Subtotal   float64 `json:"subtotal"`
}

// Client caches the last-known cart for one user session.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
	items []models.CartItem
	busy  bool
}

// New creates a cart client against the given API base URL
// (e.g. "http://localhost:8080/api/v1").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Login stores the session token and fetches the authoritative cart.
func (c *Client) Login(token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return c.Refresh()
}

// Logout drops the session and the cached cart.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.items = nil
}

// Items returns a copy of the cached cart in insertion order.
func (c *Client) Items() []models.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]models.CartItem, len(c.items))
	copy(items, c.items)
	return items
}

// Busy reports whether a request is currently in flight.
func (c *Client) Busy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy
}

// GetCartSummary computes the unit count and subtotal of the cached cart.
func (c *Client) GetCartSummary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s Summary
	for _, item := range c.items {
		s.TotalItems += item.Quantity
		s.Subtotal += item.Price * float64(item.Quantity)
	}
	return s
}

// Refresh refetches the authoritative cart.
func (c *Client) Refresh() error {
	return c.roundTrip(http.MethodGet, "/cart", nil)
}

// AddItem adds one unit of the product to the cart.
func (c *Client) AddItem(snapshot models.ProductSnapshot) error {
	return c.roundTrip(http.MethodPost, "/cart/items", snapshot)
}

// SetQuantity overwrites the quantity of an existing line item; 0 removes it.
func (c *Client) SetQuantity(productID string, quantity int) error {
	return c.roundTrip(http.MethodPut, "/cart/items/"+productID, map[string]int{"quantity": quantity})
}

// RemoveItem removes the line item for the product.
func (c *Client) RemoveItem(productID string) error {
	return c.roundTrip(http.MethodDelete, "/cart/items/"+productID, nil)
}

// Clear empties the cart.
func (c *Client) Clear() error {
	return c.roundTrip(http.MethodDelete, "/cart", nil)
}

// cartResponse is the envelope every cart endpoint returns on success.
type cartResponse struct {
	Items []models.CartItem `json:"items"`
}

// errorResponse is the envelope the API returns on failure.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// roundTrip performs one request and, on success, replaces the cached cart
// with the response cart wholesale. On any failure the cache is untouched.
func (c *Client) roundTrip(method, path string, body interface{}) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return ErrNotLoggedIn
	}
	token := c.token
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cartclient: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("cartclient: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cartclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("cartclient: %s (status %d): %s", apiErr.Message, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("cartclient: server returned status %d", resp.StatusCode)
	}

	var cart cartResponse
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return fmt.Errorf("cartclient: failed to decode cart: %w", err)
	}

	c.mu.Lock()
	c.items = cart.Items
	c.mu.Unlock()
	return nil
}
