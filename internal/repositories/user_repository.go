package repositories

import "warung/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByLineUserID(lineUserID string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	// FindByIdentity resolves a user by email OR LINE subject in a single
	// lookup. Empty arguments are excluded from the match, so a password
	// session can never land on a federated row that has no email.
	FindByIdentity(email, lineUserID string) (*models.User, error)
}
