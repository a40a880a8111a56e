package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"account-service/internal/user"
)

// ErrInvalidResetToken is the single outcome for every failed verification:
// malformed, forged, expired, superseded, consumed, or bound to an unknown
// user. Callers must not be able to tell these apart.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// DefaultResetTokenValidity is the window during which an issued reset token
// may be verified.
const DefaultResetTokenValidity = 600 * time.Second

const resetUserIDClaim = "reset_user_id"

// ResetUserDirectory is the storage surface the reset token manager needs.
// *user.Repository implements it; tests substitute an in-memory stub.
type ResetUserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	SetResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	ClearResetTokenAndUpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// ResetTokenManager owns the lifecycle of single-use, time-limited password
// reset tokens. The token itself is a PASETO v4.local structure binding the
// user id, issue time, and expiry, but the persisted reset_token and
// reset_token_expiration on the user row stay authoritative: a token that no
// longer matches the row, or whose stored expiration has passed, never
// verifies regardless of what its own claims say.
type ResetTokenManager struct {
	users    ResetUserDirectory
	key      paseto.V4SymmetricKey
	validity time.Duration
	now      func() time.Time
}

// NewResetTokenManager creates a manager with the given validity window.
// A validity of zero falls back to DefaultResetTokenValidity.
func NewResetTokenManager(users ResetUserDirectory, symmetricKey []byte, validity time.Duration) (*ResetTokenManager, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	if validity <= 0 {
		validity = DefaultResetTokenValidity
	}

	return &ResetTokenManager{
		users:    users,
		key:      key,
		validity: validity,
		now:      time.Now,
	}, nil
}

// Issue generates a reset token for the user and persists it, overwriting any
// previously outstanding token. The caller hands the returned token to the
// notifier; Issue itself never sends anything.
func (m *ResetTokenManager) Issue(ctx context.Context, u *user.User) (string, error) {
	now := m.now()
	expiresAt := now.Add(m.validity)

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(expiresAt)
	token.SetString(resetUserIDClaim, u.ID.String())

	encoded := token.V4Encrypt(m.key, nil)

	if err := m.users.SetResetToken(ctx, u.ID, encoded, expiresAt); err != nil {
		return "", fmt.Errorf("failed to persist reset token: %w", err)
	}

	u.ResetToken = &encoded
	u.ResetTokenExpiration = &expiresAt

	return encoded, nil
}

// Verify checks an untrusted token string and returns the user it belongs to.
// Every failure mode collapses into ErrInvalidResetToken; only unexpected
// storage errors surface separately. Verify is read-only: a failed check does
// not clear the stored token.
func (m *ResetTokenManager) Verify(ctx context.Context, tokenStr string) (*user.User, error) {
	// Expiry is checked against the injected clock and the stored row below,
	// not by the parser.
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(m.key, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidResetToken
	}

	idStr, err := token.GetString(resetUserIDClaim)
	if err != nil {
		return nil, ErrInvalidResetToken
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, ErrInvalidResetToken
	}

	expiration, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidResetToken
	}

	now := m.now()
	if !now.Before(expiration) {
		return nil, ErrInvalidResetToken
	}

	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to load user for reset token: %w", err)
	}

	// The stored row is authoritative: a superseded or consumed token fails
	// here even though its own claims still validate, and shortening the
	// stored expiration takes effect immediately.
	if !u.HasPendingReset() {
		return nil, ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare([]byte(*u.ResetToken), []byte(tokenStr)) != 1 {
		return nil, ErrInvalidResetToken
	}
	if !now.Before(*u.ResetTokenExpiration) {
		return nil, ErrInvalidResetToken
	}

	return u, nil
}

// Consume replaces the user's password hash and clears the reset token fields
// in the same write. The user must have been validated by Verify within the
// same request.
func (m *ResetTokenManager) Consume(ctx context.Context, u *user.User, newPassword string) error {
	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := m.users.ClearResetTokenAndUpdatePassword(ctx, u.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiration = nil

	return nil
}
