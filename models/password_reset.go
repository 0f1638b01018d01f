// Package models — Password reset token ve ilgili request struct'ları.
package models

import (
	"fmt"
	"strings"
	"time"
)

// PasswordResetToken, şifre sıfırlama token'ının DB kaydı.
//
// TokenHash: Token'ın SHA256 hash'i (hex, 64 karakter). Plaintext token
// kullanıcıya email ile gönderilir, DB'de SADECE hash saklanır — DB sızsa
// bile token'lar kullanılamaz.
type PasswordResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ForgotPasswordRequest, "şifremi unuttum" isteği.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate, email formatını kontrol eder.
func (r *ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || !emailRegex.MatchString(r.Email) {
		return fmt.Errorf("valid email is required")
	}
	return nil
}

// ResetPasswordRequest, reset linkindeki token ile yeni şifre isteği.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate, token ve yeni şifreyi kontrol eder.
func (r *ResetPasswordRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return fmt.Errorf("token is required")
	}
	if len(r.NewPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
