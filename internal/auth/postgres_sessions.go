package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"account-service/internal/database"
)

// PostgresSessionStore keeps refresh sessions in the sessions table.
// Revocation is a soft delete (revoked_at) so a replayed token can be told
// apart from one that never existed; expired and revoked rows are reaped by
// DeleteExpired.
type PostgresSessionStore struct {
	db *bun.DB
}

func NewPostgresSessionStore(db *bun.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Store(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	row := &database.Session{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	row := new(database.Session)

	err := s.db.NewSelect().
		Model(row).
		Where("token_hash = ?", hashToken(token)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &Session{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
		RevokedAt: row.RevokedAt,
	}, nil
}

func (s *PostgresSessionStore) Revoke(ctx context.Context, token string) error {
	res, err := s.db.NewUpdate().
		Model((*database.Session)(nil)).
		Set("revoked_at = ?", time.Now()).
		Where("token_hash = ?", hashToken(token)).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresSessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.NewUpdate().
		Model((*database.Session)(nil)).
		Set("revoked_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that can never be redeemed again and
// returns how many rows were dropped. Called periodically from the
// composition root.
func (s *PostgresSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*database.Session)(nil)).
		Where("expires_at < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	return res.RowsAffected()
}
