package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memoryStore implements UserStore and RefreshTokenStore for service tests,
// standing in for the Postgres repository.
type memoryStore struct {
	mu     sync.Mutex
	users  map[string]User               // by username
	byID   map[string]User               // by id
	tokens map[string]RefreshTokenRecord // by raw token value
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:  make(map[string]User),
		byID:   make(map[string]User),
		tokens: make(map[string]RefreshTokenRecord),
	}
}

func (m *memoryStore) GetByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (m *memoryStore) GetByID(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (m *memoryStore) Create(_ context.Context, username, passwordHash string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	m.users[username] = user
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryStore) CreateRefreshToken(_ context.Context, userID, rawToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[rawToken] = RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *memoryStore) DeleteRefreshToken(_ context.Context, rawToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[rawToken]; !ok {
		return ErrNotFound
	}
	delete(m.tokens, rawToken)
	return nil
}

func newTestService() (*Service, *memoryStore, *TokenIssuer) {
	store := newMemoryStore()
	issuer := NewTokenIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
	return NewService(store, store, issuer), store, issuer
}

func TestRegister(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates a user with a hashed password", func(t *testing.T) {
		service, store, _ := newTestService()

		user, err := service.Register(ctx, "alice", "secret123")
		require.NoError(t, err)
		require.NotEmpty(t, user.ID)
		require.Equal(t, "alice", user.Username)
		require.NotEmpty(t, user.PasswordHash)
		require.NotEqual(t, "secret123", user.PasswordHash)

		stored, err := store.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, user.ID, stored.ID)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.Register(ctx, "", "secret123")
		require.ErrorIs(t, err, ErrMissingFields)

		_, err = service.Register(ctx, "alice", "")
		require.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("rejects duplicate username regardless of password", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.Register(ctx, "alice", "secret123")
		require.NoError(t, err)

		_, err = service.Register(ctx, "alice", "different-password")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("register then login round trip", func(t *testing.T) {
		service, store, issuer := newTestService()

		_, err := service.Register(ctx, "alice", "secret123")
		require.NoError(t, err)

		pair, err := service.Login(ctx, "alice", "secret123")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)

		identity, err := issuer.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "alice", identity.Username)

		record, ok := store.tokens[pair.RefreshToken]
		require.True(t, ok)
		require.Equal(t, identity.UserID, record.UserID)
		require.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), record.ExpiresAt, 5*time.Second)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.Register(ctx, "alice", "secret123")
		require.NoError(t, err)

		_, unknownErr := service.Login(ctx, "nobody", "secret123")
		require.ErrorIs(t, unknownErr, ErrInvalidCredentials)

		_, wrongErr := service.Login(ctx, "alice", "wrong-password")
		require.ErrorIs(t, wrongErr, ErrInvalidCredentials)

		require.Equal(t, unknownErr, wrongErr)
	})

	t.Run("corrupted stored hash fails closed", func(t *testing.T) {
		service, store, _ := newTestService()

		store.mu.Lock()
		user := User{ID: uuid.NewString(), Username: "mallory", PasswordHash: "not-a-bcrypt-hash"}
		store.users[user.Username] = user
		store.byID[user.ID] = user
		store.mu.Unlock()

		_, err := service.Login(ctx, "mallory", "anything")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("multiple logins keep concurrent refresh tokens", func(t *testing.T) {
		service, store, _ := newTestService()

		_, err := service.Register(ctx, "alice", "secret123")
		require.NoError(t, err)

		first, err := service.Login(ctx, "alice", "secret123")
		require.NoError(t, err)
		second, err := service.Login(ctx, "alice", "secret123")
		require.NoError(t, err)

		require.NotEqual(t, first.RefreshToken, second.RefreshToken)
		require.Len(t, store.tokens, 2)
	})
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, store, _ := newTestService()

	_, err := service.Register(ctx, "alice", "secret123")
	require.NoError(t, err)
	pair, err := service.Login(ctx, "alice", "secret123")
	require.NoError(t, err)

	require.NoError(t, service.Invalidate(ctx, pair.RefreshToken))
	require.NotContains(t, store.tokens, pair.RefreshToken)

	// Second invalidation of the same token reports not found.
	require.ErrorIs(t, service.Invalidate(ctx, pair.RefreshToken), ErrTokenNotFound)
}

func TestProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _, _ := newTestService()

	user, err := service.Register(ctx, "alice", "secret123")
	require.NoError(t, err)

	t.Run("returns the user for a valid identity", func(t *testing.T) {
		got, err := service.Profile(ctx, Identity{UserID: user.ID, Username: user.Username})
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.Equal(t, "alice", got.Username)
	})

	t.Run("reports a user deleted out-of-band", func(t *testing.T) {
		_, err := service.Profile(ctx, Identity{UserID: uuid.NewString()})
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}
