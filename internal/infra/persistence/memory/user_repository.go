package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	access accessor
	now    func() time.Time
}

func (repo *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(func(u *entity.User) bool { return u.ID == id })
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return repo.findOne(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (repo *userRepository) FindByCPF(_ context.Context, cpf string) (*entity.User, error) {
	return repo.findOne(func(u *entity.User) bool { return u.CPF == cpf })
}

func (repo *userRepository) findOne(match func(*entity.User) bool) (*entity.User, error) {
	var found *entity.User
	err := repo.access(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				found = copyUser(u)

				return nil
			}
		}

		return repository.ErrUserNotFound
	})

	return found, err
}

func (repo *userRepository) List(_ context.Context) ([]*entity.User, error) {
	var users []*entity.User
	_ = repo.access(func(st *state) error {
		users = make([]*entity.User, 0, len(st.users))
		for _, u := range st.users {
			users = append(users, copyUser(u))
		}

		return nil
	})
	slices.SortFunc(users, func(a, b *entity.User) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return users, nil
}

func (repo *userRepository) Create(_ context.Context, user *entity.User) error {
	return repo.access(func(st *state) error {
		if err := checkUserUnique(st, user); err != nil {
			return err
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if len(user.Roles) == 0 {
			user.Roles = entity.Roles{entity.RoleUser}
		}
		stamp(&user.CreatedAt, &user.UpdatedAt, repo.now())
		st.users[user.ID] = copyUser(user)

		return nil
	})
}

func (repo *userRepository) Update(_ context.Context, user *entity.User) error {
	return repo.access(func(st *state) error {
		current, ok := st.users[user.ID]
		if !ok {
			return repository.ErrUserNotFound
		}
		if err := checkUserUnique(st, user); err != nil {
			return err
		}
		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = repo.now()
		st.users[user.ID] = copyUser(user)

		return nil
	})
}

func (repo *userRepository) Delete(_ context.Context, id uuid.UUID) error {
	return repo.access(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrUserNotFound
		}
		st.deleteUser(id)

		return nil
	})
}

func checkUserUnique(st *state, user *entity.User) error {
	for _, other := range st.users {
		if other.ID == user.ID {
			continue
		}
		if strings.EqualFold(other.Email, user.Email) {
			return repository.ErrUserEmailTaken
		}
		if other.CPF == user.CPF {
			return repository.ErrUserCPFTaken
		}
	}

	return nil
}
