package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateUserRequest_Validate(t *testing.T) {
	valid := func() CreateUserRequest {
		return CreateUserRequest{
			Username:    "ayse_bahce",
			Password:    "sifre12345",
			DisplayName: "Ayşe",
			Email:       "ayse@example.com",
		}
	}

	t.Run("happy path", func(t *testing.T) {
		req := valid()
		require.NoError(t, req.Validate())
	})

	t.Run("optional fields can be empty", func(t *testing.T) {
		req := CreateUserRequest{Username: "mehmet", Password: "sifre12345"}
		require.NoError(t, req.Validate())
	})

	t.Run("sad path - username too short", func(t *testing.T) {
		req := valid()
		req.Username = "ab"
		require.Error(t, req.Validate())
	})

	t.Run("sad path - username with invalid chars", func(t *testing.T) {
		req := valid()
		req.Username = "ayşe bahçe"
		require.Error(t, req.Validate())
	})

	t.Run("sad path - password too short", func(t *testing.T) {
		req := valid()
		req.Password = "1234567"
		require.Error(t, req.Validate())
	})

	t.Run("sad path - invalid email", func(t *testing.T) {
		req := valid()
		req.Email = "not-an-email"
		require.Error(t, req.Validate())
	})
}

func TestLoginRequest_Validate(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		req := LoginRequest{Username: "ayse", Password: "sifre12345"}
		require.NoError(t, req.Validate())
	})

	t.Run("sad path - missing username", func(t *testing.T) {
		req := LoginRequest{Password: "sifre12345"}
		require.Error(t, req.Validate())
	})

	t.Run("sad path - missing password", func(t *testing.T) {
		req := LoginRequest{Username: "ayse"}
		require.Error(t, req.Validate())
	})
}
