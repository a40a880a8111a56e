package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps refresh sessions in Redis. Each session is a hash
// keyed by token digest with a TTL matching its expiry, so expired sessions
// disappear on their own and no sweeper is needed. A per-user set of digests
// backs RevokeAllForUser; revocation deletes the session outright.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(tokenHash string) string {
	return "session:" + tokenHash
}

func userSessionsKey(userID uuid.UUID) string {
	return "user_sessions:" + userID.String()
}

func (s *RedisSessionStore) Store(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	hash := hashToken(token)
	now := time.Now()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(hash),
		"user_id", userID.String(),
		"created_at", now.Unix(),
		"expires_at", expiresAt.Unix(),
	)
	pipe.ExpireAt(ctx, sessionKey(hash), expiresAt)
	pipe.SAdd(ctx, userSessionsKey(userID), hash)
	// The index outlives individual sessions; new sessions always carry the
	// latest expiry, so this only ever extends the index TTL.
	pipe.ExpireAt(ctx, userSessionsKey(userID), expiresAt)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	hash := hashToken(token)

	fields, err := s.client.HGetAll(ctx, sessionKey(hash)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(fields) == 0 {
		// Missing means expired (TTL fired) or revoked (deleted); either way
		// the token is not redeemable.
		return nil, ErrSessionNotFound
	}

	userID, err := uuid.Parse(fields["user_id"])
	if err != nil {
		return nil, ErrSessionNotFound
	}

	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	expiresAt, _ := strconv.ParseInt(fields["expires_at"], 10, 64)

	return &Session{
		UserID:    userID,
		TokenHash: hash,
		CreatedAt: time.Unix(createdAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, token string) error {
	hash := hashToken(token)

	// Look up the owner first so the index entry goes with the session.
	owner, err := s.client.HGet(ctx, sessionKey(hash), "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(hash))
	if userID, parseErr := uuid.Parse(owner); parseErr == nil {
		pipe.SRem(ctx, userSessionsKey(userID), hash)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	hashes, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, hash := range hashes {
		pipe.Del(ctx, sessionKey(hash))
	}
	pipe.Del(ctx, userSessionsKey(userID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}
