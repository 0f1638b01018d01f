package repository

import (
	"context"

	"github.com/eakyurek/bostan/models"
)

// ResetTokenRepository, şifre sıfırlama token'ları için interface.
//
// Token'lar tek kullanımlıktır: doğrulama sonrası DeleteByUserID ile
// kullanıcının TÜM bekleyen token'ları silinir (eski linkler de ölür).
type ResetTokenRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
