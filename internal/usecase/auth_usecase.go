// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Name     string
	Email    string
	CPF      string
	Password string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshTokenInput carries the refresh token to rotate.
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput carries the tokens presented on logout. Either may be empty.
type LogoutInput struct {
	AccessToken  string
	RefreshToken string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created user.
type RegisterOutput struct {
	User *entity.User
}

// LoginOutput returns the generated tokens after a successful login or refresh.
type LoginOutput struct {
	AccessToken  string
	RefreshToken string
	User         *entity.User
}

// AuthUsecase covers credentials, sessions and request authentication.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	// RefreshToken rotates a stored refresh token and issues a new pair.
	RefreshToken(ctx context.Context, input *RefreshTokenInput) (*LoginOutput, error)
	// Logout revokes the access token until it expires and ends the refresh session.
	Logout(ctx context.Context, input *LogoutInput) error
	// Authenticate resolves an access token into a principal. It fails with
	// ErrUnauthorized for refresh, revoked, expired or malformed tokens.
	Authenticate(ctx context.Context, token string) (*entity.Principal, error)
	// PurgeExpiredSessions drops expired refresh tokens and revocation entries.
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}
