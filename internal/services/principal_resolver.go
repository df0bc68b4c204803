package services

import (
	"errors"
	"fmt"

	"warung/internal/models"
	"warung/internal/repositories"

	"gorm.io/gorm"
)

// PrincipalResolver locates the user row backing an authenticated session.
// Password sessions carry an email, LINE sessions carry the federated
// subject (and possibly no email); one OR lookup covers both.
type PrincipalResolver struct {
	userRepo repositories.UserRepository
}

// NewPrincipalResolver creates a new PrincipalResolver.
func NewPrincipalResolver(userRepo repositories.UserRepository) *PrincipalResolver {
	return &PrincipalResolver{userRepo: userRepo}
}

// Resolve returns the user owning the session. A session without identity
// fields is unauthenticated; a session whose row is gone resolves to
// ErrPrincipalNotFound rather than being silently recovered.
func (r *PrincipalResolver) Resolve(session models.Session) (*models.User, error) {
	if !session.HasIdentity() {
		return nil, fmt.Errorf("session carries no identity: %w", ErrUnauthenticated)
	}
	user, err := r.userRepo.FindByIdentity(session.Email, session.LineUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no user backs this session: %w", ErrPrincipalNotFound)
		}
		return nil, fmt.Errorf("principal lookup failed: %w", ErrStoreUnavailable)
	}
	return user, nil
}
