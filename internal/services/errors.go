package services

import "errors"

// Error kinds surfaced by the cart and auth contracts. Handlers map these to
// HTTP statuses with errors.Is; services wrap them with context via fmt.Errorf.
var (
	// ErrUnauthenticated means no valid session descriptor was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPrincipalNotFound means the session is valid but no user row backs
	// it (e.g. the account was deleted after the token was issued).
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrUserNotFound is the same condition under its other name; either
	// spelling matches with errors.Is.
	ErrUserNotFound = ErrPrincipalNotFound
	// ErrInvalidProductData means the add-to-cart product descriptor is
	// missing required fields. Callers must correct and resubmit.
	ErrInvalidProductData = errors.New("invalid product data")
	// ErrInvalidRequestData means malformed caller input, e.g. a negative
	// quantity.
	ErrInvalidRequestData = errors.New("invalid request data")
	// ErrItemNotFound means the targeted cart line item does not exist.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrStoreUnavailable means a transient infrastructure failure; safe to
	// retry with backoff, no partial mutation has been applied.
	ErrStoreUnavailable = errors.New("store unavailable")
)
