package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields      = errors.New("username and password are required")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrUserNotFound       = errors.New("user not found")
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, username, passwordHash string) (User, error)
}

type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, userID, rawToken string, expiresAt time.Time) error
	DeleteRefreshToken(ctx context.Context, rawToken string) error
}

type Service struct {
	users  UserStore
	tokens RefreshTokenStore
	issuer *TokenIssuer
}

func NewService(users UserStore, tokens RefreshTokenStore, issuer *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, issuer: issuer}
}

// Register creates a new credential record. The uniqueness check is
// lookup-then-insert; the schema's unique index backstops the race window.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrMissingFields
	}

	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return User{}, ErrUsernameTaken
	case !errors.Is(err, ErrNotFound):
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.users.Create(ctx, username, string(hash))
}

// Login verifies the credentials and issues an access/refresh token pair,
// persisting the refresh token in the ledger. Unknown username and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.issuer.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, expiresAt, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.CreateRefreshToken(ctx, user.ID, refresh, expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Invalidate removes the refresh token from the ledger. It only prevents
// the token from being honored going forward; outstanding access tokens
// stay valid until natural expiry.
func (s *Service) Invalidate(ctx context.Context, rawToken string) error {
	if err := s.tokens.DeleteRefreshToken(ctx, rawToken); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	return nil
}

func (s *Service) Profile(ctx context.Context, identity Identity) (User, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	return user, nil
}
