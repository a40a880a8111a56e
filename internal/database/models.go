package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table.
// ResetToken and ResetTokenExpiration are both null or both set; a pending
// password reset is the only state in which they carry values.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                   uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email                string     `bun:"email,notnull,unique"`
	PasswordHash         string     `bun:"password_hash,notnull"`
	ResetToken           *string    `bun:"reset_token,unique,nullzero"`
	ResetTokenExpiration *time.Time `bun:"reset_token_expiration,nullzero"`
	CreatedAt            time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt            time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is the bun model for the sessions table, one row per refresh
// session. Only the SHA-256 hash of the token is stored.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID        int64      `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	TokenHash string     `bun:"token_hash,notnull,unique"`
	ExpiresAt time.Time  `bun:"expires_at,notnull"`
	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	RevokedAt *time.Time `bun:"revoked_at,nullzero"`
}
