package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
)

// sqliteResetTokenRepo, ResetTokenRepository interface'inin SQLite implementasyonu.
type sqliteResetTokenRepo struct {
	db *sql.DB
}

// NewSQLiteResetTokenRepo, constructor — interface döner.
func NewSQLiteResetTokenRepo(db *sql.DB) ResetTokenRepository {
	return &sqliteResetTokenRepo{db: db}
}

func (r *sqliteResetTokenRepo) Create(ctx context.Context, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at)
		VALUES (?, ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)

	if err != nil {
		return fmt.Errorf("%w: failed to create reset token: %v", pkg.ErrUnavailable, err)
	}
	return nil
}

func (r *sqliteResetTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	token := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, created_at FROM password_reset_tokens WHERE token_hash = ?",
		tokenHash,
	).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reset token not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get reset token: %v", pkg.ErrUnavailable, err)
	}

	return token, nil
}

func (r *sqliteResetTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("%w: failed to delete reset tokens: %v", pkg.ErrUnavailable, err)
	}
	return nil
}
