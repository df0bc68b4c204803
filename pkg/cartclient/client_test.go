package cartclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"warung/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cartStub is a minimal in-memory cart API the client talks to. Every
// successful response carries the full cart, like the real server.
type cartStub struct {
	mu    sync.Mutex
	token string
	items []models.CartItem
	fail  bool // when set, every request returns 503
}

func (s *cartStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+s.token {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
			return
		}
		if s.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"message": "Cart unavailable", "error": "store down"})
			return
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/cart/items":
			var snap models.ProductSnapshot
			json.NewDecoder(r.Body).Decode(&snap)
			found := false
			for i := range s.items {
				if s.items[i].ProductID == snap.ProductID {
					s.items[i].Quantity++
					found = true
				}
			}
			if !found {
				s.items = append(s.items, models.CartItem{
					ProductID: snap.ProductID,
					Name:      snap.Name,
					Price:     snap.Price,
					Image:     snap.Image,
					Quantity:  1,
				})
			}
		case r.Method == http.MethodPut:
			productID := strings.TrimPrefix(r.URL.Path, "/cart/items/")
			var body struct {
				Quantity int `json:"quantity"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			for i := range s.items {
				if s.items[i].ProductID == productID {
					s.items[i].Quantity = body.Quantity
				}
			}
		case r.Method == http.MethodDelete && r.URL.Path == "/cart":
			s.items = nil
		case r.Method == http.MethodDelete:
			productID := strings.TrimPrefix(r.URL.Path, "/cart/items/")
			kept := s.items[:0]
			for _, item := range s.items {
				if item.ProductID != productID {
					kept = append(kept, item)
				}
			}
			s.items = kept
		}

		items := s.items
		if items == nil {
			items = []models.CartItem{}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	}
}

func newTestClient(t *testing.T) (*Client, *cartStub) {
	t.Helper()
	stub := &cartStub{token: "session-token"}
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)
	return New(server.URL), stub
}

func TestClient_RequiresLogin(t *testing.T) {
	client, _ := newTestClient(t)

	assert.ErrorIs(t, client.Refresh(), ErrNotLoggedIn)
	assert.ErrorIs(t, client.AddItem(models.ProductSnapshot{ProductID: "p1"}), ErrNotLoggedIn)
	assert.ErrorIs(t, client.SetQuantity("p1", 2), ErrNotLoggedIn)
	assert.ErrorIs(t, client.RemoveItem("p1"), ErrNotLoggedIn)
	assert.ErrorIs(t, client.Clear(), ErrNotLoggedIn)
	assert.Empty(t, client.Items())
}

func TestClient_LoginFetchesCart(t *testing.T) {
	client, stub := newTestClient(t)
	stub.items = []models.CartItem{
		{ProductID: "p1", Name: "Mug", Price: 10, Quantity: 2},
	}

	require.NoError(t, client.Login("session-token"))

	items := client.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestClient_MutationsReplaceCache(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Login("session-token"))

	require.NoError(t, client.AddItem(models.ProductSnapshot{ProductID: "p1", Name: "Mug", Price: 10}))
	require.NoError(t, client.AddItem(models.ProductSnapshot{ProductID: "p1", Name: "Mug", Price: 10}))
	items := client.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, client.SetQuantity("p1", 5))
	assert.Equal(t, 5, client.Items()[0].Quantity)

	require.NoError(t, client.RemoveItem("p1"))
	assert.Empty(t, client.Items())
}

func TestClient_FailureKeepsLastKnownGood(t *testing.T) {
	client, stub := newTestClient(t)
	require.NoError(t, client.Login("session-token"))
	require.NoError(t, client.AddItem(models.ProductSnapshot{ProductID: "p1", Name: "Mug", Price: 10}))

	stub.mu.Lock()
	stub.fail = true
	stub.mu.Unlock()

	err := client.AddItem(models.ProductSnapshot{ProductID: "p2", Name: "Plate", Price: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cart unavailable")

	// The cache still shows the last confirmed state.
	items := client.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestClient_GetCartSummary(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Login("session-token"))

	assert.Equal(t, Summary{}, client.GetCartSummary())

	require.NoError(t, client.AddItem(models.ProductSnapshot{ProductID: "p1", Name: "Mug", Price: 10}))
	require.NoError(t, client.AddItem(models.ProductSnapshot{ProductID: "p2", Name: "Plate", Price: 5}))
	require.NoError(t, client.SetQuantity("p1", 3))

	summary := client.GetCartSummary()
	assert.Equal(t, 4, summary.TotalItems)
	assert.Equal(t, 35.0, summary.Subtotal)
}

func TestClient_ClearAndLogout(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Login("session-token"))
	require.NoError(t, client.AddItem(models.ProductSnapshot{ProductID: "p1", Name: "Mug", Price: 10}))

	require.NoError(t, client.Clear())
	assert.Empty(t, client.Items())

	require.NoError(t, client.AddItem(models.ProductSnapshot{ProductID: "p1", Name: "Mug", Price: 10}))
	client.Logout()
	assert.Empty(t, client.Items())
	assert.ErrorIs(t, client.Refresh(), ErrNotLoggedIn)
}

func TestClient_BusyIsFalseWhenIdle(t *testing.T) {
	client, _ := newTestClient(t)
	assert.False(t, client.Busy())

	require.NoError(t, client.Login("session-token"))
	assert.False(t, client.Busy())
}
