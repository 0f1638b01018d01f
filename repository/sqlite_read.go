package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
)

// sqliteReadRepo, ReadRepository interface'inin SQLite implementasyonu.
type sqliteReadRepo struct {
	db *sql.DB
}

// NewSQLiteReadRepo, constructor — interface döner.
func NewSQLiteReadRepo(db *sql.DB) ReadRepository {
	return &sqliteReadRepo{db: db}
}

// MarkRead, kullanıcıyı mesajın readBy kümesine ekler. INSERT OR IGNORE
// sayesinde idempotent — ikinci çağrı sessizce no-op olur.
func (r *sqliteReadRepo) MarkRead(ctx context.Context, conversationID, messageID, userID string) error {
	// Mesaj gerçekten bu konuşmaya mı ait? Yanlış conversation_id ile
	// gelen istek not found sayılır, başka konuşmanın mesajı işaretlenemez.
	var owner string
	err := r.db.QueryRowContext(ctx,
		"SELECT conversation_id FROM messages WHERE id = ?", messageID,
	).Scan(&owner)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to check message: %v", pkg.ErrUnavailable, err)
	}
	if owner != conversationID {
		return fmt.Errorf("%w: message not found in conversation", pkg.ErrNotFound)
	}

	if _, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO message_reads (message_id, user_id) VALUES (?, ?)",
		messageID, userID); err != nil {
		return fmt.Errorf("%w: failed to mark read: %v", pkg.ErrUnavailable, err)
	}
	return nil
}

// GetUnreadCounts, kullanıcının üyesi olduğu her konuşma için okunmamış
// mesaj sayısını döner. Kullanıcının kendi gönderdikleri sayılmaz —
// gönderen mesajını tanım gereği okumuştur.
func (r *sqliteReadRepo) GetUnreadCounts(ctx context.Context, userID string) ([]models.UnreadInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cm.conversation_id, COUNT(m.id)
		FROM conversation_members cm
		LEFT JOIN messages m
			ON m.conversation_id = cm.conversation_id
			AND m.sender_id != ?
			AND NOT EXISTS (
				SELECT 1 FROM message_reads mr
				WHERE mr.message_id = m.id AND mr.user_id = ?
			)
		WHERE cm.user_id = ?
		GROUP BY cm.conversation_id`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get unread counts: %v", pkg.ErrUnavailable, err)
	}
	defer rows.Close()

	var infos []models.UnreadInfo
	for rows.Next() {
		var info models.UnreadInfo
		if err := rows.Scan(&info.ConversationID, &info.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan unread count: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unread counts: %w", err)
	}

	if infos == nil {
		infos = []models.UnreadInfo{}
	}
	return infos, nil
}
