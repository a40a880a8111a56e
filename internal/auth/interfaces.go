package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"account-service/internal/user"
)

// TokenService defines the interface for access token creation and validation.
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, ttl time.Duration) (string, error)
	VerifyToken(tokenStr string) (*SessionClaims, error)
}

// UserDirectory is the full user storage surface the auth service depends on.
type UserDirectory interface {
	ResetUserDirectory
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error
}

// Notifier delivers messages to users. Delivery failure never rolls back an
// issued reset token; the user simply requests another reset.
type Notifier interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// SessionStore persists refresh sessions. Implementations receive the raw
// refresh token and are responsible for hashing it; the raw value must never
// reach durable storage.
type SessionStore interface {
	Store(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	Get(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}
