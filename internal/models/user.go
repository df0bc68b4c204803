package models

import "gorm.io/gorm"

// User represents a user of the store. Two login paths share this shape:
// password accounts carry Username/Email/Password, LINE accounts carry
// LineUserID and may have no email at all. The three identity columns are
// pointers so that absent values are stored as NULL and never collide on
// their unique indexes.
type User struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username    *string    `json:"username,omitempty" gorm:"uniqueIndex;type:varchar(100)" validate:"omitempty,min=3,max=100"`
	Email       *string    `json:"email,omitempty" gorm:"uniqueIndex;type:varchar(255)" validate:"omitempty,email"`
	Password    string     `gorm:"type:varchar(255)"` // No json tag for security
	LineUserID  *string    `json:"line_user_id,omitempty" gorm:"uniqueIndex;type:varchar(64)"`
	DisplayName string     `json:"display_name,omitempty" gorm:"type:varchar(100)"`
	CartItems   []CartItem `json:"cart_items,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	gorm.Model             // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// IsFederated reports whether this user logs in through LINE rather than
// with a local username/password pair.
func (u *User) IsFederated() bool {
	return u.LineUserID != nil && *u.LineUserID != ""
}

// Session is the descriptor extracted from a validated token. At least one
// of Email or LineUserID must be present for cart operations to resolve the
// owning user row.
type Session struct {
	UserID     string
	Username   string
	Email      string
	LineUserID string
}

// HasIdentity reports whether the session carries any identity field usable
// for principal resolution.
func (s Session) HasIdentity() bool {
	return s.Email != "" || s.LineUserID != ""
}
