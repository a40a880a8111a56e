package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// tokenIssuer is stamped into every access token so tokens minted by other
// services sharing the same key material are rejected.
const tokenIssuer = "account-service"

// SessionClaims is the identity carried by a verified access token.
type SessionClaims struct {
	UserID    uuid.UUID
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionTokenService mints and verifies short-lived access tokens as
// PASETO v4.local (XChaCha20-Poly1305 symmetric encryption).
type SessionTokenService struct {
	key paseto.V4SymmetricKey
}

func NewSessionTokenService(keyBytes []byte) (*SessionTokenService, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(keyBytes))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &SessionTokenService{key: key}, nil
}

// CreateToken mints an access token for the given user, valid for ttl.
func (s *SessionTokenService) CreateToken(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(ttl))
	token.SetString("user_id", userID.String())
	token.SetString("email", email)

	return token.V4Encrypt(s.key, nil), nil
}

// VerifyToken decrypts and validates an access token and returns its claims.
// Expired tokens surface as ErrExpiredToken; everything else that fails
// decryption or claim extraction is ErrInvalidToken.
func (s *SessionTokenService) VerifyToken(tokenStr string) (*SessionClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.key, tokenStr, nil)
	if err != nil {
		// The only default parser rule is expiry
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	issuer, err := token.GetIssuer()
	if err != nil || issuer != tokenIssuer {
		return nil, ErrInvalidToken
	}

	rawUserID, err := token.GetString("user_id")
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &SessionClaims{
		UserID:    userID,
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
