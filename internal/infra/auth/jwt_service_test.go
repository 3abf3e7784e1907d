package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			Issuer:          "marketplace-api",
			AccessTokenTTL:  24 * time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			KeyDerivation:   config.KeyDerivationHKDF,
		},
	}
	cfg.SecretKey.Access = "test_access_secret"
	cfg.SecretKey.Refresh = "test_refresh_secret"

	return cfg
}

func newTestJWTService(t *testing.T) (*jwtService, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := newJWTService(newTestConfig(), clock.Now)
	require.NoError(t, err)

	return svc, clock
}

func testSubject() service.TokenSubject {
	return service.TokenSubject{
		UserID: uuid.New(),
		Email:  "ana@example.com",
		Roles:  []string{"ROLE_USER", "ROLE_ADMIN"},
	}
}

func TestJWTService_IssueAndParseAccessToken(t *testing.T) {
	svc, _ := newTestJWTService(t)
	subject := testSubject()

	token, err := svc.Issue(subject)
	require.NoError(t, err)
	assert.True(t, svc.Validate(token))

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, subject.UserID.String(), claims.Subject)
	assert.Equal(t, subject.Email, claims.Email)
	assert.Equal(t, subject.Roles, claims.Roles)
	assert.Equal(t, service.TokenTypeAccess, claims.Type)
	assert.Equal(t, "marketplace-api", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, subject.UserID, userID)
}

func TestJWTService_RefreshTokenHasNoRoles(t *testing.T) {
	svc, _ := newTestJWTService(t)

	token, err := svc.IssueRefresh(testSubject())
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, service.TokenTypeRefresh, claims.Type)
	assert.Nil(t, claims.Roles)
}

func TestJWTService_ExpiresAfterTTL(t *testing.T) {
	svc, clock := newTestJWTService(t)

	token, err := svc.Issue(testSubject())
	require.NoError(t, err)
	assert.True(t, svc.Validate(token))

	clock.Advance(24*time.Hour - time.Second)
	assert.True(t, svc.Validate(token))

	clock.Advance(2 * time.Second)
	assert.False(t, svc.Validate(token))
	assert.Negative(t, svc.RemainingLifetime(token))

	_, err = svc.ExtractSubject(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestJWTService_RejectsInvalidTokens(t *testing.T) {
	svc, clock := newTestJWTService(t)
	subject := testSubject()

	valid, err := svc.Issue(subject)
	require.NoError(t, err)

	otherCfg := newTestConfig()
	otherCfg.SecretKey.Access = "another_secret"
	other, err := newJWTService(otherCfg, clock.Now)
	require.NoError(t, err)
	foreign, err := other.Issue(subject)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  subject.UserID.String(),
		"iss":  "marketplace-api",
		"type": service.TokenTypeAccess,
		"exp":  clock.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject.UserID.String(),
		"iss":  "someone-else",
		"type": service.TokenTypeAccess,
		"exp":  clock.Now().Add(time.Hour).Unix(),
	}).SignedString(svc.accessKey)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := map[string]string{
		"empty":        "",
		"blank":        "   ",
		"malformed":    "clearly-not-a-jwt",
		"bad-sig":      foreign,
		"alg-none":     unsigned,
		"wrong-issuer": wrongIssuer,
		"tampered":     tampered,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			assert.False(t, svc.Validate(token))

			_, err := svc.Parse(token)
			assert.ErrorIs(t, err, service.ErrInvalidToken)
			assert.Equal(t, invalidLifetime, svc.RemainingLifetime(token))
			assert.False(t, svc.IsExpiringSoon(token, time.Hour))
		})
	}
}

func TestJWTService_RefreshTokenDoesNotVerifyWithAccessKey(t *testing.T) {
	svc, _ := newTestJWTService(t)

	refresh, err := svc.IssueRefresh(testSubject())
	require.NoError(t, err)

	// Re-sign the refresh claims as an access token using the refresh key.
	claims, err := svc.Parse(refresh)
	require.NoError(t, err)
	claims.Type = service.TokenTypeAccess
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.refreshKey)
	require.NoError(t, err)

	assert.False(t, svc.Validate(forged))
}

func TestJWTService_RemainingLifetimeAndExpiringSoon(t *testing.T) {
	svc, clock := newTestJWTService(t)

	token, err := svc.Issue(testSubject())
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, svc.RemainingLifetime(token))
	assert.False(t, svc.IsExpiringSoon(token, time.Hour))

	clock.Advance(23*time.Hour + 30*time.Minute)
	assert.Equal(t, 30*time.Minute, svc.RemainingLifetime(token))
	assert.True(t, svc.IsExpiringSoon(token, time.Hour))
	assert.False(t, svc.IsExpiringSoon(token, 10*time.Minute))
}

func TestJWTService_ExtractSubject(t *testing.T) {
	svc, _ := newTestJWTService(t)
	subject := testSubject()

	token, err := svc.Issue(subject)
	require.NoError(t, err)

	got, err := svc.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, subject.UserID.String(), got)
}

func TestNewJWTService_RequiresSecrets(t *testing.T) {
	cfg := newTestConfig()
	cfg.SecretKey.Refresh = ""

	_, err := NewJWTService(cfg)
	assert.Error(t, err)
}

func TestDeriveSigningKey(t *testing.T) {
	t.Run("pad short secret", func(t *testing.T) {
		key, err := DeriveSigningKey("abc", config.KeyDerivationPad, "access")
		require.NoError(t, err)
		assert.Len(t, key, MinSigningKeyLength)
		assert.Equal(t, "abc"+strings.Repeat("0", MinSigningKeyLength-3), string(key))
	})

	t.Run("pad keeps long secret", func(t *testing.T) {
		secret := strings.Repeat("s", 40)
		key, err := DeriveSigningKey(secret, config.KeyDerivationPad, "access")
		require.NoError(t, err)
		assert.Equal(t, secret, string(key))
	})

	t.Run("hkdf is deterministic and purpose bound", func(t *testing.T) {
		a1, err := DeriveSigningKey("abc", config.KeyDerivationHKDF, "access")
		require.NoError(t, err)
		a2, err := DeriveSigningKey("abc", config.KeyDerivationHKDF, "access")
		require.NoError(t, err)
		r, err := DeriveSigningKey("abc", config.KeyDerivationHKDF, "refresh")
		require.NoError(t, err)

		assert.Len(t, a1, MinSigningKeyLength)
		assert.Equal(t, a1, a2)
		assert.NotEqual(t, a1, r)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := DeriveSigningKey("abc", "rot13", "access")
		assert.Error(t, err)
	})
}
