package auth

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenRecord is the persisted ledger entry for one issued refresh
// token. Only a sha256 digest of the token is stored at rest; the raw value
// never touches the database.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Identity is attached to the request context after a successful access
// token verification. Request-scoped only.
type Identity struct {
	UserID   string
	Username string
}
