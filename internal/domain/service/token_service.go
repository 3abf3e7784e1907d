package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned when a token cannot be parsed or verified.
var ErrInvalidToken = errors.New("invalid token")

// Claims defines the custom claims for the JWT tokens.
// The registered Subject carries the user ID.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	Type  string   `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject as a user ID.
func (c *Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, errors.Wrap(ErrInvalidToken, "subject is not a user id")
	}

	return id, nil
}

// TokenSubject identifies who a token is minted for.
type TokenSubject struct {
	UserID uuid.UUID
	Email  string
	Roles  []string
}

// TokenService defines the interface for generating and validating JWTs.
type TokenService interface {
	// Issue creates a signed access token.
	Issue(subject TokenSubject) (string, error)

	// IssueRefresh creates a signed refresh token.
	IssueRefresh(subject TokenSubject) (string, error)

	// Validate reports whether the token verifies, is well formed and has not expired.
	Validate(token string) bool

	// Parse verifies the token and returns its claims, or ErrInvalidToken.
	Parse(token string) (*Claims, error)

	// ExtractSubject returns the subject claim, or ErrInvalidToken.
	ExtractSubject(token string) (string, error)

	// RemainingLifetime returns the time left before expiry, or a negative
	// duration when the token is invalid or expired.
	RemainingLifetime(token string) time.Duration

	// IsExpiringSoon reports whether 0 < remaining lifetime < threshold.
	IsExpiringSoon(token string, threshold time.Duration) bool

	// RefreshTokenDuration returns the configured refresh token lifetime.
	RefreshTokenDuration() time.Duration
}
