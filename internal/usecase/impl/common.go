// Package impl contains the implementation of the application's business logic.
package impl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/pkg/errors"
)

// repositoryErrors maps persistence sentinels onto the errors shown to clients.
var repositoryErrors = []struct {
	sentinel error
	appErr   *domainerrors.BaseError
}{
	{repository.ErrUserNotFound, domainerrors.ErrUserNotFound},
	{repository.ErrUserEmailTaken, domainerrors.ErrEmailInUse},
	{repository.ErrUserCPFTaken, domainerrors.ErrCPFInUse},
	{repository.ErrStoreNotFound, domainerrors.ErrStoreNotFound},
	{repository.ErrStoreCNPJTaken, domainerrors.ErrCNPJInUse},
	{repository.ErrProductNotFound, domainerrors.ErrProductNotFound},
	{repository.ErrAddressNotFound, domainerrors.ErrAddressNotFound},
	{repository.ErrCartItemNotFound, domainerrors.ErrCartItemNotFound},
	{repository.ErrInsufficientStock, domainerrors.ErrInsufficientStock},
	{repository.ErrRefreshTokenNotFound, domainerrors.ErrRefreshTokenInvalid},
	{repository.ErrRefreshTokenExpired, domainerrors.ErrRefreshTokenInvalid},
}

// translateRepoError replaces a repository sentinel with its AppError. Errors
// that already carry an AppError, or unknown ones, pass through unchanged.
func translateRepoError(err error) error {
	if err == nil {
		return nil
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	for _, m := range repositoryErrors {
		if errors.Is(err, m.sentinel) {
			return errors.Wrap(m.appErr, err.Error())
		}
	}

	return err
}

// hashToken returns the hex SHA-256 of a raw refresh token.
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))

	return hex.EncodeToString(sum[:])
}

// canManageStore reports whether actor may change the store.
func canManageStore(actor *entity.Principal, store *entity.Store) bool {
	return actor != nil && (store.IsOwnedBy(actor.UserID) || actor.Roles.Contains(entity.RoleAdmin))
}

func requireActor(actor *entity.Principal) error {
	if actor == nil {
		return errors.WithStack(domainerrors.ErrUnauthorized)
	}

	return nil
}

// checkPasswordStrength enforces the configured length bounds. MaxLength 0 means unbounded.
func checkPasswordStrength(policy config.PasswordStrengthConfig, password string) error {
	n := len(password)
	if policy.MaxLength <= 0 {
		if n < policy.MinLength {
			return errors.WithStack(domainerrors.ErrPasswordStrength.Messagef(
				"A senha deve ter no mínimo %d caracteres", policy.MinLength))
		}

		return nil
	}
	if n < policy.MinLength || n > policy.MaxLength {
		return errors.WithStack(domainerrors.ErrPasswordStrength.Messagef(
			"A senha deve ter entre %d e %d caracteres", policy.MinLength, policy.MaxLength))
	}

	return nil
}

// containsFold reports whether substr occurs in s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func buildAddress(input *usecase.AddressInput) *entity.Address {
	return &entity.Address{
		Street:       strings.TrimSpace(input.Street),
		Neighborhood: strings.TrimSpace(input.Neighborhood),
		City:         strings.TrimSpace(input.City),
		Number:       strings.TrimSpace(input.Number),
		State:        strings.TrimSpace(input.State),
	}
}
