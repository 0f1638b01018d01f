package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
	"github.com/eakyurek/bostan/pkg/cache"
	"github.com/eakyurek/bostan/pkg/email"
	"github.com/eakyurek/bostan/repository"
)

const (
	// resetTokenTTL, reset linkinin geçerlilik süresi.
	resetTokenTTL = 20 * time.Minute

	// forgotCooldown, aynı email'e iki istek arasındaki minimum süre.
	forgotCooldown = 90 * time.Second
)

// PasswordResetService, şifre sıfırlama akışını yönetir.
//
// Akış:
//  1. ForgotPassword: email'e plaintext token'lı link gönderilir,
//     DB'ye token'ın SHA256 hash'i yazılır.
//  2. ResetPassword: linkten gelen token hash'lenip DB'de aranır,
//     şifre güncellenir, kullanıcının tüm token'ları VE session'ları silinir.
type PasswordResetService interface {
	// ForgotPassword, sıfırlama emaili gönderir. Cooldown aktifse kalan
	// süreyi saniye cinsinden döner (0 = email gönderildi).
	ForgotPassword(ctx context.Context, emailAddr string) (int, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.ResetTokenRepository
	sessionRepo repository.SessionRepository
	sender      email.EmailSender

	// cooldowns: email → son istek zamanı. Enumeration'dan bağımsız olarak
	// DB'de olmayan email'ler için de cooldown tutulur — timing farkı sızmaz.
	cooldowns *cache.TTLCache[string, time.Time]
}

// NewPasswordResetService, constructor.
// sender nil olabilir — email yapılandırılmamışsa ForgotPassword no-op olur
// (yine success döner, enumeration koruması).
func NewPasswordResetService(
	userRepo repository.UserRepository,
	tokenRepo repository.ResetTokenRepository,
	sessionRepo repository.SessionRepository,
	sender email.EmailSender,
) PasswordResetService {
	return &passwordResetService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		sessionRepo: sessionRepo,
		sender:      sender,
		cooldowns:   cache.New[string, time.Time](forgotCooldown, 5*time.Minute),
	}
}

// hashToken, plaintext token'ın DB'de saklanan SHA256 hash'ini üretir.
// DB sızsa bile hash'ten token üretilemez — linkteki plaintext gerekir.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ForgotPassword, şifre sıfırlama emaili gönderir.
//
// Güvenlik: email DB'de yoksa da nil hata döner — caller her durumda aynı
// success yanıtını verir (user enumeration koruması).
func (s *passwordResetService) ForgotPassword(ctx context.Context, emailAddr string) (int, error) {
	// Cooldown kontrolü — spam ve email kotası koruması
	if requestedAt, ok := s.cooldowns.Get(emailAddr); ok {
		remaining := forgotCooldown - time.Since(requestedAt)
		if remaining > 0 {
			return int(remaining.Seconds()) + 1, nil
		}
	}
	s.cooldowns.Set(emailAddr, time.Now())

	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Email kayıtlı değil — sessizce başarılı görün.
			return 0, nil
		}
		return 0, err
	}

	if s.sender == nil {
		log.Printf("[reset] email sender not configured, skipping reset mail for user %s", user.ID)
		return 0, nil
	}

	// Plaintext token üret — sadece email'de bulunur, DB'ye hash yazılır.
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return 0, fmt.Errorf("failed to generate reset token: %w", err)
	}
	plaintext := hex.EncodeToString(tokenBytes)

	// Eski token'lar ölür — kullanıcı başına tek aktif link.
	if err := s.tokenRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return 0, err
	}

	resetToken := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(plaintext),
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, resetToken); err != nil {
		return 0, err
	}

	if err := s.sender.SendPasswordReset(ctx, emailAddr, plaintext); err != nil {
		return 0, fmt.Errorf("%w: %v", pkg.ErrInternal, err)
	}

	return 0, nil
}

// ResetPassword, email'deki token ile şifreyi sıfırlar.
//
// Token tek kullanımlıktır: başarılı sıfırlamada kullanıcının tüm reset
// token'ları silinir. Tüm session'lar da silinir — çalınmış bir oturum
// şifre değişikliğinden sonra yaşayamaz.
func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	resetToken, err := s.tokenRepo.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrUnauthorized)
		}
		return err
	}

	if time.Now().After(resetToken.ExpiresAt) {
		if delErr := s.tokenRepo.DeleteByUserID(ctx, resetToken.UserID); delErr != nil {
			return delErr
		}
		return fmt.Errorf("%w: invalid or expired reset token", pkg.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, resetToken.UserID, string(hash)); err != nil {
		return err
	}

	if err := s.tokenRepo.DeleteByUserID(ctx, resetToken.UserID); err != nil {
		return err
	}

	return s.sessionRepo.DeleteByUserID(ctx, resetToken.UserID)
}
