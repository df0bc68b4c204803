package repositories

import (
	"fmt"
	"warung/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user with username %s not found: %w", username, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user with email %s not found: %w", email, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByLineUserID retrieves a user by their LINE subject from the database.
func (r *GORMUserRepository) GetByLineUserID(lineUserID string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "line_user_id = ?", lineUserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user with LINE subject %s not found: %w", lineUserID, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user by LINE subject %s: %w", lineUserID, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user with ID %s not found: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// FindByIdentity resolves a user by email OR LINE subject in a single query.
// Clauses are built only for the identity fields actually supplied, so a
// session carrying only an email can never match a federated row with a NULL
// email. Ordering by created_at keeps the result deterministic should both
// clauses ever match different rows.
func (r *GORMUserRepository) FindByIdentity(email, lineUserID string) (*models.User, error) {
	q := r.db
	switch {
	case email != "" && lineUserID != "":
		q = q.Where("email = ? OR line_user_id = ?", email, lineUserID)
	case email != "":
		q = q.Where("email = ?", email)
	case lineUserID != "":
		q = q.Where("line_user_id = ?", lineUserID)
	default:
		return nil, fmt.Errorf("no identity fields to resolve user by")
	}

	var user models.User
	if err := q.Order("created_at asc").First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("no user for email %q / LINE subject %q: %w", email, lineUserID, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to resolve user by identity: %w", err)
	}
	return &user, nil
}
