package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
)

func TestAuthService_Register(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		env := newTestEnv(t)

		tokens, err := env.auth.Register(t.Context(), &models.CreateUserRequest{
			Username: "ayse",
			Password: "sifre12345",
			Email:    "ayse@example.com",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.NotEmpty(t, tokens.User.ID)
		// Hash response'a asla sızmaz
		assert.Empty(t, tokens.User.PasswordHash)

		claims, err := env.auth.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, tokens.User.ID, claims.UserID)
		assert.Equal(t, "ayse", claims.Username)
	})

	t.Run("sad path - duplicate username", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "ayse", "")

		_, err := env.auth.Register(t.Context(), &models.CreateUserRequest{
			Username: "ayse",
			Password: "baska-sifre",
		})
		require.ErrorIs(t, err, pkg.ErrAlreadyExists)
	})

	t.Run("sad path - invalid request", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.auth.Register(t.Context(), &models.CreateUserRequest{
			Username: "ab", // çok kısa
			Password: "sifre12345",
		})
		require.ErrorIs(t, err, pkg.ErrBadRequest)
	})
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ayse", "")

	t.Run("happy path", func(t *testing.T) {
		tokens, err := env.auth.Login(t.Context(), &models.LoginRequest{
			Username: "ayse",
			Password: "sifre12345",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
	})

	t.Run("sad path - wrong password", func(t *testing.T) {
		_, err := env.auth.Login(t.Context(), &models.LoginRequest{
			Username: "ayse",
			Password: "yanlis-sifre",
		})
		require.ErrorIs(t, err, pkg.ErrUnauthorized)
	})

	t.Run("sad path - unknown username gets same error", func(t *testing.T) {
		_, err := env.auth.Login(t.Context(), &models.LoginRequest{
			Username: "hayalet",
			Password: "sifre12345",
		})
		require.ErrorIs(t, err, pkg.ErrUnauthorized)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ayse", "")

	tokens, err := env.auth.Login(t.Context(), &models.LoginRequest{
		Username: "ayse", Password: "sifre12345",
	})
	require.NoError(t, err)

	t.Run("happy path - rotation", func(t *testing.T) {
		renewed, err := env.auth.RefreshToken(t.Context(), tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, renewed.AccessToken)
		assert.NotEqual(t, tokens.RefreshToken, renewed.RefreshToken)

		// Eski refresh token artık geçersiz — rotation tek kullanımlık
		_, err = env.auth.RefreshToken(t.Context(), tokens.RefreshToken)
		require.ErrorIs(t, err, pkg.ErrUnauthorized)
	})

	t.Run("sad path - garbage token", func(t *testing.T) {
		_, err := env.auth.RefreshToken(t.Context(), "not-a-real-token")
		require.ErrorIs(t, err, pkg.ErrUnauthorized)
	})
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ayse", "")

	tokens, err := env.auth.Login(t.Context(), &models.LoginRequest{
		Username: "ayse", Password: "sifre12345",
	})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(t.Context(), tokens.RefreshToken))

	// Session silindi — refresh artık çalışmaz
	_, err = env.auth.RefreshToken(t.Context(), tokens.RefreshToken)
	require.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Bilinmeyen token'la logout sessizce başarılı
	require.NoError(t, env.auth.Logout(t.Context(), "unknown-token"))
}

func TestAuthService_ValidateAccessToken(t *testing.T) {
	env := newTestEnv(t)

	t.Run("sad path - malformed token", func(t *testing.T) {
		_, err := env.auth.ValidateAccessToken("garbage")
		require.ErrorIs(t, err, pkg.ErrUnauthorized)
	})

	t.Run("sad path - token signed with another secret", func(t *testing.T) {
		other := NewAuthService(env.userRepo, env.sessionRepo, "another-secret", 15, 7)
		tokens, err := other.Register(t.Context(), &models.CreateUserRequest{
			Username: "mehmet",
			Password: "sifre12345",
		})
		require.NoError(t, err)

		_, err = env.auth.ValidateAccessToken(tokens.AccessToken)
		require.ErrorIs(t, err, pkg.ErrUnauthorized)
	})
}
