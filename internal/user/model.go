package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the domain model for an account.
// ResetToken and ResetTokenExpiration are both nil unless a password reset is
// outstanding; they are always written and cleared together.
type User struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"` // Never expose password hash in JSON
	ResetToken           *string    `json:"-"`
	ResetTokenExpiration *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// HasPendingReset reports whether a reset token is currently outstanding.
func (u *User) HasPendingReset() bool {
	return u.ResetToken != nil && u.ResetTokenExpiration != nil
}
