package impl

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, err := env.auth.Register(ctx, &usecase.RegisterInput{
		Name:     " Maria ",
		Email:    "maria@example.com",
		CPF:      "12345678900",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria", out.User.Name)
	assert.Equal(t, entity.Roles{entity.RoleUser}, out.User.Roles)
	assert.NotEqual(t, "secret123", out.User.PasswordHash)

	// Registration opens the cart.
	cart, err := env.repos.NewCartRepository().FindByUserID(ctx, out.User.ID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestAuthService_Register_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Maria", "maria@example.com", "12345678900")

	tests := []struct {
		name    string
		input   usecase.RegisterInput
		wantErr error
	}{
		{
			name:    "missing fields",
			input:   usecase.RegisterInput{Name: "João", Email: "joao@example.com", Password: "secret123"},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "short password",
			input:   usecase.RegisterInput{Name: "João", Email: "joao@example.com", CPF: "98765432100", Password: "123"},
			wantErr: domainerrors.ErrPasswordStrength,
		},
		{
			name:    "email in use",
			input:   usecase.RegisterInput{Name: "João", Email: "maria@example.com", CPF: "98765432100", Password: "secret123"},
			wantErr: domainerrors.ErrEmailInUse,
		},
		{
			name:    "cpf in use",
			input:   usecase.RegisterInput{Name: "João", Email: "joao@example.com", CPF: "12345678900", Password: "secret123"},
			wantErr: domainerrors.ErrCPFInUse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, &tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			requireHTTPCode(t, err, http.StatusBadRequest)
		})
	}
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "Maria", "maria@example.com", "12345678900")

	_, err := env.auth.Login(ctx, &usecase.LoginInput{Email: "maria@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	requireHTTPCode(t, err, http.StatusUnauthorized)

	_, err = env.auth.Login(ctx, &usecase.LoginInput{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	out, err := env.auth.Login(ctx, &usecase.LoginInput{Email: "maria@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)

	principal, err := env.auth.Authenticate(ctx, out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, principal.UserID)
	assert.Equal(t, "maria@example.com", principal.Email)
	assert.True(t, principal.Roles.Contains(entity.RoleUser))

	// A refresh token is not accepted where an access token is expected.
	_, err = env.auth.Authenticate(ctx, out.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = env.auth.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_Authenticate_CarriesRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token, err := env.tokens.Issue(service.TokenSubject{
		UserID: env.register(t, "Admin", "admin@example.com", "1").UserID,
		Email:  "admin@example.com",
		Roles:  []string{"ROLE_ADMIN", "ROLE_VENDEDOR"},
	})
	require.NoError(t, err)

	principal, err := env.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.True(t, principal.Roles.Contains(entity.RoleAdmin))
	assert.True(t, principal.Roles.Contains(entity.RoleSeller))
	assert.False(t, principal.Roles.Contains(entity.RoleUser))
}

func TestAuthService_RefreshTokenRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Maria", "maria@example.com", "12345678900")

	login, err := env.auth.Login(ctx, &usecase.LoginInput{Email: "maria@example.com", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := env.auth.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The consumed token is gone.
	_, err = env.auth.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
	requireHTTPCode(t, err, http.StatusUnauthorized)

	// Access tokens cannot be used to refresh.
	_, err = env.auth.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: rotated.AccessToken})
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)
}

func TestAuthService_SessionLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "Maria", "maria@example.com", "12345678900")

	var sessions []*usecase.LoginOutput
	for range 4 {
		out, err := env.auth.Login(ctx, &usecase.LoginInput{Email: "maria@example.com", Password: "secret123"})
		require.NoError(t, err)
		sessions = append(sessions, out)
	}

	stored, err := env.repos.NewRefreshTokenRepository().FindRefreshTokensByUserID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	_, err = env.auth.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: sessions[0].RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)

	_, err = env.auth.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: sessions[3].RefreshToken})
	assert.NoError(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Maria", "maria@example.com", "12345678900")

	login, err := env.auth.Login(ctx, &usecase.LoginInput{Email: "maria@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, &usecase.LogoutInput{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	}))

	_, err = env.auth.Authenticate(ctx, login.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = env.auth.RefreshToken(ctx, &usecase.RefreshTokenInput{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, domainerrors.ErrRefreshTokenInvalid)

	// Logging out twice is harmless.
	assert.NoError(t, env.auth.Logout(ctx, &usecase.LogoutInput{RefreshToken: login.RefreshToken}))
}

func TestAuthService_PurgeExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Maria", "maria@example.com", "12345678900")

	_, err := env.auth.Login(ctx, &usecase.LoginInput{Email: "maria@example.com", Password: "secret123"})
	require.NoError(t, err)

	removed, err := env.auth.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	env.auth.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	removed, err = env.auth.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
