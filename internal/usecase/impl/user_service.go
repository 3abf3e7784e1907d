package impl

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/repository"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager      repository.TransactionManager
	userRepo       repository.UserRepository
	hasher         service.PasswordHasher
	passwordPolicy config.PasswordStrengthConfig
	logger         *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Config    *config.Config
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	srv := &userService{
		txManager:      params.TxManager,
		userRepo:       params.UserRepo,
		hasher:         params.Hasher,
		passwordPolicy: config.PasswordStrengthConfig{MinLength: 6, MaxLength: 72},
		logger:         params.Logger,
	}
	if params.Config != nil && params.Config.PasswordStrength != nil {
		srv.passwordPolicy = *params.Config.PasswordStrength
	}

	return srv
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load profile"))
	}

	return user, nil
}

// UpdateProfile changes name, email or password. A new email must not belong to another account.
func (srv *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *usecase.UpdateProfileInput) (*entity.User, error) {
	var passwordHash string
	if input.Password != nil {
		if err := checkPasswordStrength(srv.passwordPolicy, *input.Password); err != nil {
			return nil, err
		}

		hash, err := srv.hasher.Hash(*input.Password)
		if err != nil {
			return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
		}
		passwordHash = hash
	}

	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to load profile")
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Nome é obrigatório"))
			}
			user.Name = name
		}

		if input.Email != nil {
			email := strings.TrimSpace(*input.Email)
			if email == "" {
				return errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Email é obrigatório"))
			}
			existing, err := userRepo.FindByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return errors.WithStack(domainerrors.ErrEmailInUse)
			case err != nil && !errors.Is(err, repository.ErrUserNotFound):
				return errors.Wrap(err, "failed to check email")
			}
			user.Email = email
		}

		if passwordHash != "" {
			user.PasswordHash = passwordHash
		}

		if err := userRepo.Update(ctx, user); err != nil {
			return errors.Wrap(err, "failed to update profile")
		}
		updated = user

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Profile update failed", slog.Any("userID", userID), slog.Any("error", err))

		return nil, translateRepoError(err)
	}

	return updated, nil
}

func (srv *userService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	users, err := srv.userRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return users, nil
}

func (srv *userService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to load user"))
	}

	return user, nil
}

// DeleteUser removes the account together with its cart, addresses, sessions and stores.
func (srv *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := srv.userRepo.Delete(ctx, userID); err != nil {
		return translateRepoError(errors.Wrap(err, "failed to delete user"))
	}
	srv.log(ctx).Info("User deleted", slog.Any("userID", userID))

	return nil
}
