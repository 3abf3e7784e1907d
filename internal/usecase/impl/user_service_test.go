package impl

import (
	"context"
	"net/http"
	"testing"

	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	maria := env.register(t, "Maria", "maria@example.com", "12345678900")
	env.register(t, "João", "joao@example.com", "98765432100")

	updated, err := env.users.UpdateProfile(ctx, maria.UserID, &usecase.UpdateProfileInput{
		Name:     ptr("Maria Silva"),
		Password: ptr("new-secret"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", updated.Name)
	assert.Equal(t, "maria@example.com", updated.Email)

	_, err = env.auth.Login(ctx, &usecase.LoginInput{Email: "maria@example.com", Password: "new-secret"})
	assert.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, maria.UserID, &usecase.UpdateProfileInput{Email: ptr("joao@example.com")})
	assert.ErrorIs(t, err, domainerrors.ErrEmailInUse)

	_, err = env.users.UpdateProfile(ctx, maria.UserID, &usecase.UpdateProfileInput{Name: ptr("  ")})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	_, err = env.users.UpdateProfile(ctx, maria.UserID, &usecase.UpdateProfileInput{Password: ptr("1")})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)

	// Keeping one's own email is not a conflict.
	_, err = env.users.UpdateProfile(ctx, maria.UserID, &usecase.UpdateProfileInput{Email: ptr("maria@example.com")})
	assert.NoError(t, err)
}

func TestUserService_AdminOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	maria := env.register(t, "Maria", "maria@example.com", "12345678900")
	env.register(t, "João", "joao@example.com", "98765432100")

	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	user, err := env.users.GetUser(ctx, maria.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", user.Name)

	_, err = env.users.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	requireHTTPCode(t, err, http.StatusNotFound)

	require.NoError(t, env.users.DeleteUser(ctx, maria.UserID))
	_, err = env.users.GetProfile(ctx, maria.UserID)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	count, err := env.carts.Count(ctx, maria.UserID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
