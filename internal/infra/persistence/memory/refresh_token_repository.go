package memory

import (
	"context"
	"slices"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"

	"github.com/google/uuid"
)

type refreshTokenRepository struct {
	access accessor
	now    func() time.Time
}

func (repo *refreshTokenRepository) CreateRefreshToken(_ context.Context, token *entity.RefreshToken) error {
	return repo.access(func(st *state) error {
		if _, ok := st.users[token.UserID]; !ok {
			return errors.ErrUserNotFound
		}
		if token.ID == uuid.Nil {
			token.ID = uuid.New()
		}
		if token.CreatedAt.IsZero() {
			token.CreatedAt = repo.now()
		}
		st.refreshTokens[token.ID] = copyRefreshToken(token)

		return nil
	})
}

func (repo *refreshTokenRepository) FindRefreshTokenByHash(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	var found *entity.RefreshToken
	now := repo.now()
	err := repo.access(func(st *state) error {
		for _, token := range st.refreshTokens {
			if token.TokenHash == tokenHash && !token.IsExpired(now) {
				found = copyRefreshToken(token)

				return nil
			}
		}

		return repository.ErrRefreshTokenNotFound
	})

	return found, err
}

func (repo *refreshTokenRepository) FindRefreshTokensByUserID(_ context.Context, userID uuid.UUID) ([]*entity.RefreshToken, error) {
	var tokens []*entity.RefreshToken
	now := repo.now()
	_ = repo.access(func(st *state) error {
		for _, token := range st.refreshTokens {
			if token.UserID == userID && !token.IsExpired(now) {
				tokens = append(tokens, copyRefreshToken(token))
			}
		}

		return nil
	})
	slices.SortFunc(tokens, func(a, b *entity.RefreshToken) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return tokens, nil
}

func (repo *refreshTokenRepository) DeleteRefreshToken(_ context.Context, id uuid.UUID) error {
	return repo.access(func(st *state) error {
		if _, ok := st.refreshTokens[id]; !ok {
			return repository.ErrRefreshTokenNotFound
		}
		delete(st.refreshTokens, id)

		return nil
	})
}

func (repo *refreshTokenRepository) DeleteRefreshTokenByHash(_ context.Context, tokenHash string) error {
	return repo.access(func(st *state) error {
		for id, token := range st.refreshTokens {
			if token.TokenHash == tokenHash {
				delete(st.refreshTokens, id)

				return nil
			}
		}

		return repository.ErrRefreshTokenNotFound
	})
}

func (repo *refreshTokenRepository) DeleteRefreshTokensByUserID(_ context.Context, userID uuid.UUID) error {
	return repo.access(func(st *state) error {
		for id, token := range st.refreshTokens {
			if token.UserID == userID {
				delete(st.refreshTokens, id)
			}
		}

		return nil
	})
}

func (repo *refreshTokenRepository) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	err := repo.access(func(st *state) error {
		for id, token := range st.refreshTokens {
			if token.IsExpired(now) {
				delete(st.refreshTokens, id)
				removed++
			}
		}

		return nil
	})

	return removed, err
}
