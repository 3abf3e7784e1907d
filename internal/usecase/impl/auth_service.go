package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

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

// authService implements the AuthUsecase interface.
type authService struct {
	txManager         repository.TransactionManager
	userRepo          repository.UserRepository
	refreshTokenRepo  repository.RefreshTokenRepository
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	revocations       service.TokenRevocationList
	passwordPolicy    config.PasswordStrengthConfig
	maxActiveSessions int
	now               func() time.Time
	logger            *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	Revocations      service.TokenRevocationList
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return newAuthService(params, time.Now)
}

func newAuthService(params AuthServiceParams, now func() time.Time) *authService {
	srv := &authService{
		txManager:        params.TxManager,
		userRepo:         params.UserRepo,
		refreshTokenRepo: params.RefreshTokenRepo,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		revocations:      params.Revocations,
		passwordPolicy:   config.PasswordStrengthConfig{MinLength: 6, MaxLength: 72},
		now:              now,
		logger:           params.Logger,
	}
	if params.Config != nil {
		if params.Config.PasswordStrength != nil {
			srv.passwordPolicy = *params.Config.PasswordStrength
		}
		if params.Config.Auth != nil {
			srv.maxActiveSessions = params.Config.Auth.MaxActiveSessions
		}
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates the account and its empty cart in one transaction.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	cpf := strings.TrimSpace(input.CPF)
	if name == "" || email == "" || cpf == "" || input.Password == "" {
		return nil, errors.WithStack(domainerrors.ErrValidationFailed.WithMessage("Nome, CPF, email e senha são obrigatórios"))
	}

	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if err := checkPasswordStrength(srv.passwordPolicy, input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	newUser := &entity.User{
		Name:         name,
		Email:        email,
		CPF:          cpf,
		PasswordHash: hashedPassword,
		Roles:        entity.Roles{entity.RoleUser},
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return errors.WithStack(domainerrors.ErrEmailInUse)
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check email")
		}

		if _, err := userRepo.FindByCPF(ctx, cpf); err == nil {
			return errors.WithStack(domainerrors.ErrCPFInUse)
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check cpf")
		}

		if err := userRepo.Create(ctx, newUser); err != nil {
			return errors.Wrap(err, "failed to create user during registration")
		}

		if err := repoFactory.NewCartRepository().Create(ctx, &entity.Cart{UserID: newUser.ID}); err != nil {
			return errors.Wrap(err, "failed to create cart during registration")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", email), slog.Any("error", err))

		return nil, translateRepoError(err)
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.RegisterOutput{User: newUser}, nil
}

// Login orchestrates the user login process.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := strings.TrimSpace(input.Email)
	srv.log(ctx).Debug("Starting user login", slog.String("email", email))

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.Any("error", err))
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load user for login")
	}

	// bcrypt is CPU-bound, keep it outside any transaction.
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	if srv.hasher.NeedsRehash(user.PasswordHash) {
		srv.rehashPassword(ctx, user, input.Password)
	}

	output, err := srv.issueSession(ctx, user, nil)
	if err != nil {
		srv.log(ctx).Warn("Login failed", slog.String("email", email), slog.Any("error", err))

		return nil, err
	}
	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return output, nil
}

// rehashPassword upgrades a hash made with an older cost. Failures only cost
// another attempt on the next login.
func (srv *authService) rehashPassword(ctx context.Context, user *entity.User, password string) {
	hash, err := srv.hasher.Hash(password)
	if err != nil {
		srv.log(ctx).Warn("Failed to rehash password", slog.Any("userID", user.ID), slog.Any("error", err))

		return
	}

	user.PasswordHash = hash
	if err := srv.userRepo.Update(ctx, user); err != nil {
		srv.log(ctx).Warn("Failed to store rehashed password", slog.Any("userID", user.ID), slog.Any("error", err))
	}
}

// issueSession mints a token pair and stores the refresh token. When replaced
// is set, that stored token is deleted in the same transaction.
func (srv *authService) issueSession(ctx context.Context, user *entity.User, replaced *entity.RefreshToken) (*usecase.LoginOutput, error) {
	subject := service.TokenSubject{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  user.Roles.ToStrings(),
	}

	accessToken, err := srv.tokenService.Issue(subject)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}
	refreshToken, err := srv.tokenService.IssueRefresh(subject)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.NewRefreshTokenRepository()

		if replaced != nil {
			if err := refreshRepo.DeleteRefreshToken(ctx, replaced.ID); err != nil {
				return errors.Wrap(err, "failed to delete rotated refresh token")
			}
		}

		if err := srv.enforceSessionLimit(ctx, refreshRepo, user.ID); err != nil {
			return err
		}

		return refreshRepo.CreateRefreshToken(ctx, &entity.RefreshToken{
			UserID:    user.ID,
			TokenHash: hashToken(refreshToken),
			ExpiresAt: srv.now().Add(srv.tokenService.RefreshTokenDuration()),
		})
	})
	if err != nil {
		return nil, errors.Wrap(translateRepoError(err), "failed to store refresh token")
	}

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// enforceSessionLimit drops the oldest sessions so a new one fits under maxActiveSessions.
func (srv *authService) enforceSessionLimit(ctx context.Context, refreshRepo repository.RefreshTokenRepository, userID uuid.UUID) error {
	if srv.maxActiveSessions <= 0 {
		return nil
	}

	sessions, err := refreshRepo.FindRefreshTokensByUserID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to list active sessions")
	}

	for len(sessions) >= srv.maxActiveSessions {
		oldest := sessions[0]
		if err := refreshRepo.DeleteRefreshToken(ctx, oldest.ID); err != nil {
			return errors.Wrap(err, "failed to evict oldest session")
		}
		sessions = sessions[1:]
	}

	return nil
}

// RefreshToken rotates the presented refresh token.
func (srv *authService) RefreshToken(ctx context.Context, input *usecase.RefreshTokenInput) (*usecase.LoginOutput, error) {
	srv.log(ctx).Info("Attempting to refresh token")

	claims, err := srv.tokenService.Parse(input.RefreshToken)
	if err != nil || claims.Type != service.TokenTypeRefresh {
		srv.log(ctx).Debug("Rejected refresh token", slog.Any("error", err))

		return nil, errors.WithStack(domainerrors.ErrRefreshTokenInvalid)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, errors.WithStack(domainerrors.ErrRefreshTokenInvalid)
	}

	stored, err := srv.refreshTokenRepo.FindRefreshTokenByHash(ctx, hashToken(input.RefreshToken))
	if err != nil || stored.UserID != userID {
		srv.log(ctx).Warn("Refresh token not found or expired", slog.Any("userID", userID), slog.Any("error", err))

		return nil, errors.WithStack(domainerrors.ErrRefreshTokenInvalid)
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, translateRepoError(errors.Wrap(err, "failed to find user"))
	}

	output, err := srv.issueSession(ctx, user, stored)
	if err != nil {
		// A concurrent refresh that consumed the same token surfaces as ErrRefreshTokenInvalid.
		srv.log(ctx).Warn("Failed to rotate refresh token", slog.Any("error", err))

		return nil, err
	}

	return output, nil
}

// Logout blocks the access token until its expiry and ends the refresh session.
func (srv *authService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	srv.log(ctx).Info("Attempting to log out")

	if input.AccessToken != "" {
		claims, err := srv.tokenService.Parse(input.AccessToken)
		if err != nil {
			srv.log(ctx).Debug("Logout with invalid access token", slog.Any("error", err))
		} else if ttl := srv.tokenService.RemainingLifetime(input.AccessToken); ttl > 0 && claims.ID != "" {
			if err := srv.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
				srv.log(ctx).Error("Failed to revoke access token", slog.Any("error", err))

				return errors.Wrap(err, "failed to revoke access token")
			}
		}
	}

	if input.RefreshToken != "" {
		err := srv.refreshTokenRepo.DeleteRefreshTokenByHash(ctx, hashToken(input.RefreshToken))
		if err != nil && !errors.Is(err, repository.ErrRefreshTokenNotFound) {
			srv.log(ctx).Error("Failed to delete refresh token", slog.Any("error", err))

			return errors.Wrap(err, "failed to delete refresh token")
		}
	}
	srv.log(ctx).Info("Successfully logged out")

	return nil
}

// Authenticate resolves an access token into the request principal.
func (srv *authService) Authenticate(ctx context.Context, token string) (*entity.Principal, error) {
	claims, err := srv.tokenService.Parse(token)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, err.Error())
	}
	if claims.Type != service.TokenTypeAccess {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "not an access token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, err.Error())
	}

	revoked, err := srv.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check token revocation")
	}
	if revoked {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "token revoked")
	}

	roles := entity.RolesFromStrings(claims.Roles)
	if len(roles) == 0 {
		roles = entity.Roles{entity.RoleUser}
	}

	return &entity.Principal{
		UserID:  userID,
		Email:   claims.Email,
		Roles:   roles,
		TokenID: claims.ID,
	}, nil
}

// PurgeExpiredSessions drops expired refresh tokens and revocation entries.
func (srv *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := srv.refreshTokenRepo.DeleteExpiredRefreshTokens(ctx, srv.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired refresh tokens")
	}

	if err := srv.revocations.Purge(ctx); err != nil {
		return removed, errors.Wrap(err, "failed to purge revocation list")
	}

	srv.log(ctx).Debug("Purged expired sessions", slog.Int64("removed", removed))

	return removed, nil
}
