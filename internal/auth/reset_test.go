package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/user"
)

var testResetKey = []byte("0123456789abcdef0123456789abcdef")

// memoryUserStore is an in-memory ResetUserDirectory for tests
type memoryUserStore struct {
	users map[uuid.UUID]*user.User
}

func newMemoryUserStore(users ...*user.User) *memoryUserStore {
	store := &memoryUserStore{users: make(map[uuid.UUID]*user.User)}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (s *memoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryUserStore) SetResetToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	u, ok := s.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiration = &expiresAt
	return nil
}

func (s *memoryUserStore) ClearResetTokenAndUpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	u, ok := s.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiration = nil
	return nil
}

func newTestUser(t *testing.T, email, password string) *user.User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	return &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
}

func newTestManager(t *testing.T, store *memoryUserStore, validity time.Duration) *ResetTokenManager {
	t.Helper()

	manager, err := NewResetTokenManager(store, testResetKey, validity)
	require.NoError(t, err)
	return manager
}

func TestNewResetTokenManager_RejectsShortKey(t *testing.T) {
	_, err := NewResetTokenManager(newMemoryUserStore(), []byte("too short"), 0)
	require.Error(t, err)
}

func TestResetTokenManager_IssueThenVerify(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	store := newMemoryUserStore(u)
	manager := newTestManager(t, store, 0)

	ctx := context.Background()

	token, err := manager.Issue(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.LessOrEqual(t, len(token), 300, "token must fit in the reset_token column")
	assert.False(t, strings.ContainsAny(token, " +/"), "token must be URL-safe")

	verified, err := manager.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, verified.ID)
	assert.Equal(t, u.Email, verified.Email)
}

func TestResetTokenManager_IssuePersistsBothFields(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	store := newMemoryUserStore(u)
	manager := newTestManager(t, store, 0)

	token, err := manager.Issue(context.Background(), u)
	require.NoError(t, err)

	stored := store.users[u.ID]
	require.NotNil(t, stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiration)
	assert.Equal(t, token, *stored.ResetToken)
	assert.True(t, stored.HasPendingReset())
}

func TestResetTokenManager_VerifyExpiredToken(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	store := newMemoryUserStore(u)
	manager := newTestManager(t, store, 600*time.Second)

	t0 := time.Now()
	manager.now = func() time.Time { return t0 }

	ctx := context.Background()

	token, err := manager.Issue(ctx, u)
	require.NoError(t, err)

	// One second before the window closes the token still verifies
	manager.now = func() time.Time { return t0.Add(599 * time.Second) }
	verified, err := manager.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, verified.ID)

	// One second after the window it does not, even though the token
	// structure itself is still well-formed
	manager.now = func() time.Time { return t0.Add(601 * time.Second) }
	_, err = manager.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokenManager_SecondIssueSupersedesFirst(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	store := newMemoryUserStore(u)
	manager := newTestManager(t, store, 0)

	ctx := context.Background()

	// Force distinct issue times so the two tokens differ
	t0 := time.Now()
	manager.now = func() time.Time { return t0 }
	first, err := manager.Issue(ctx, u)
	require.NoError(t, err)

	manager.now = func() time.Time { return t0.Add(time.Second) }
	second, err := manager.Issue(ctx, u)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = manager.Verify(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidResetToken, "superseded token must not verify")

	verified, err := manager.Verify(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, u.ID, verified.ID)
}

func TestResetTokenManager_ConsumeClearsToken(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	store := newMemoryUserStore(u)
	manager := newTestManager(t, store, 0)

	ctx := context.Background()

	token, err := manager.Issue(ctx, u)
	require.NoError(t, err)

	verified, err := manager.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, manager.Consume(ctx, verified, "brand-new-pass"))

	// The stored credential now validates the new password and no longer the old
	stored := store.users[u.ID]
	assert.True(t, VerifyPassword(stored.PasswordHash, "brand-new-pass"))
	assert.False(t, VerifyPassword(stored.PasswordHash, "original-pass"))

	// Both token fields cleared together
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiration)

	// A consumed token never verifies again, even inside its validity window
	_, err = manager.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokenManager_VerifyFailsClosedUniformly(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	deleted := newTestUser(t, "gone@x.com", "whatever")
	store := newMemoryUserStore(u, deleted)
	manager := newTestManager(t, store, 600*time.Second)

	ctx := context.Background()

	t0 := time.Now()
	manager.now = func() time.Time { return t0 }

	// Token bound to a user that subsequently disappears
	orphanToken, err := manager.Issue(ctx, deleted)
	require.NoError(t, err)
	delete(store.users, deleted.ID)

	// Correctly structured but expired token
	expiredToken, err := manager.Issue(ctx, u)
	require.NoError(t, err)

	manager.now = func() time.Time { return t0.Add(601 * time.Second) }

	cases := map[string]string{
		"malformed":    "not-a-token",
		"empty":        "",
		"forged":       "v4.local.AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		"unknown user": orphanToken,
		"expired":      expiredToken,
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			verified, err := manager.Verify(ctx, token)
			assert.Nil(t, verified)
			// Every failure is the same observable outcome
			assert.ErrorIs(t, err, ErrInvalidResetToken)
			assert.EqualError(t, err, ErrInvalidResetToken.Error())
		})
	}
}

func TestResetTokenManager_VerifyIsReadOnlyOnFailure(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	store := newMemoryUserStore(u)
	manager := newTestManager(t, store, 0)

	ctx := context.Background()

	token, err := manager.Issue(ctx, u)
	require.NoError(t, err)

	// A failed verify with garbage input must not clear the pending token
	_, err = manager.Verify(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidResetToken)

	verified, err := manager.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, verified.ID)
}

func TestResetTokenManager_TokenSignedWithDifferentKey(t *testing.T) {
	u := newTestUser(t, "a@x.com", "original-pass")
	store := newMemoryUserStore(u)
	manager := newTestManager(t, store, 0)

	otherManager, err := NewResetTokenManager(store, []byte("ffffffffffffffffffffffffffffffff"), 0)
	require.NoError(t, err)

	ctx := context.Background()

	token, err := otherManager.Issue(ctx, u)
	require.NoError(t, err)

	_, err = manager.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}
