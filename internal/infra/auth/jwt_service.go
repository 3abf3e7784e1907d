// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"io"
	"strings"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// MinSigningKeyLength is the minimum HMAC-SHA256 key size in bytes.
const MinSigningKeyLength = 32

// invalidLifetime is returned by RemainingLifetime for unusable tokens.
const invalidLifetime = -time.Second

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	return newJWTService(cfg, time.Now)
}

func newJWTService(cfg *config.Config, now func() time.Time) (*jwtService, error) {
	if cfg.SecretKey.Access == "" || cfg.SecretKey.Refresh == "" {
		return nil, errors.New("jwt secrets must be provided")
	}

	authCfg := cfg.Auth
	if authCfg == nil {
		authCfg = &config.AuthConfig{}
	}

	accessKey, err := DeriveSigningKey(cfg.SecretKey.Access, authCfg.KeyDerivation, service.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refreshKey, err := DeriveSigningKey(cfg.SecretKey.Refresh, authCfg.KeyDerivation, service.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	s := &jwtService{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		issuer:     authCfg.Issuer,
		accessTTL:  authCfg.AccessTokenTTL,
		refreshTTL: authCfg.RefreshTokenTTL,
		now:        now,
	}
	if s.issuer == "" {
		s.issuer = "marketplace-api"
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 24 * time.Hour
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 7 * 24 * time.Hour
	}

	return s, nil
}

// DeriveSigningKey turns a configured secret into an HMAC key of at least
// MinSigningKeyLength bytes. "hkdf" stretches the secret with HKDF-SHA256 using
// purpose as context; "pad" right-pads short secrets with '0' bytes, matching
// keys minted by the legacy system.
func DeriveSigningKey(secret, mode, purpose string) ([]byte, error) {
	switch mode {
	case config.KeyDerivationPad:
		if len(secret) >= MinSigningKeyLength {
			return []byte(secret), nil
		}

		return []byte(secret + strings.Repeat("0", MinSigningKeyLength-len(secret))), nil
	case config.KeyDerivationHKDF, "":
		key := make([]byte, MinSigningKeyLength)
		reader := hkdf.New(sha256.New, []byte(secret), nil, []byte("nalojatem/jwt/"+purpose))
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, errors.Wrap(err, "derive signing key")
		}

		return key, nil
	default:
		return nil, errors.Errorf("unknown key derivation mode %q", mode)
	}
}

// Issue creates a signed access token.
func (s *jwtService) Issue(subject service.TokenSubject) (string, error) {
	return s.sign(subject, subject.Roles, service.TokenTypeAccess, s.accessTTL, s.accessKey)
}

// IssueRefresh creates a signed refresh token. Refresh tokens carry no roles.
func (s *jwtService) IssueRefresh(subject service.TokenSubject) (string, error) {
	return s.sign(subject, nil, service.TokenTypeRefresh, s.refreshTTL, s.refreshKey)
}

func (s *jwtService) sign(subject service.TokenSubject, roles []string, tokenType string, ttl time.Duration, key []byte) (string, error) {
	now := s.now()
	claims := &service.Claims{
		Email: subject.Email,
		Roles: roles,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject.UserID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return signed, nil
}

// Parse verifies the token and returns its claims. The verification key is
// chosen by the token type, so a refresh token never verifies as an access
// token and vice versa.
func (s *jwtService) Parse(token string) (*service.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.Wrap(service.ErrInvalidToken, "empty token")
	}

	claims := &service.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFor,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrap(service.ErrInvalidToken, err.Error())
	}
	if !parsed.Valid {
		return nil, errors.Wrap(service.ErrInvalidToken, "token is not valid")
	}

	return claims, nil
}

func (s *jwtService) keyFor(token *jwt.Token) (any, error) {
	claims, ok := token.Claims.(*service.Claims)
	if !ok {
		return nil, service.ErrInvalidToken
	}

	switch claims.Type {
	case service.TokenTypeAccess:
		return s.accessKey, nil
	case service.TokenTypeRefresh:
		return s.refreshKey, nil
	default:
		return nil, errors.Errorf("unknown token type %q", claims.Type)
	}
}

// Validate reports whether the token verifies and has not expired.
func (s *jwtService) Validate(token string) bool {
	_, err := s.Parse(token)

	return err == nil
}

// ExtractSubject returns the subject claim.
func (s *jwtService) ExtractSubject(token string) (string, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}

// RemainingLifetime returns the time until expiry, or a negative duration
// when the token is unusable.
func (s *jwtService) RemainingLifetime(token string) time.Duration {
	claims, err := s.Parse(token)
	if err != nil {
		return invalidLifetime
	}

	remaining := claims.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return invalidLifetime
	}

	return remaining
}

// IsExpiringSoon reports whether the token is still valid but expires within threshold.
func (s *jwtService) IsExpiringSoon(token string, threshold time.Duration) bool {
	remaining := s.RemainingLifetime(token)

	return remaining > 0 && remaining < threshold
}

// RefreshTokenDuration returns the configured duration for refresh tokens.
func (s *jwtService) RefreshTokenDuration() time.Duration {
	return s.refreshTTL
}
