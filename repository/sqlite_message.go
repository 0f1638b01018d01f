package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eakyurek/bostan/database"
	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// Create, mesajı stream'e ekler ve göndereni readBy kümesine yazar.
// ID ve created_at veritabanı tarafından atanır, RETURNING ile geri okunur.
func (r *sqliteMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			"INSERT INTO messages (conversation_id, sender_id, text) VALUES (?, ?, ?) RETURNING id, created_at",
			msg.ConversationID, msg.SenderID, msg.Text,
		).Scan(&msg.ID, &msg.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		// Gönderen kendi mesajını okumuş sayılır.
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO message_reads (message_id, user_id) VALUES (?, ?)",
			msg.ID, msg.SenderID); err != nil {
			return fmt.Errorf("failed to insert sender read: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("%w: failed to create message: %v", pkg.ErrUnavailable, err)
	}

	msg.ReadBy = []string{msg.SenderID}
	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	msg := &models.Message{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, conversation_id, sender_id, text, created_at FROM messages WHERE id = ?",
		id,
	).Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &msg.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get message: %v", pkg.ErrUnavailable, err)
	}

	reads, err := r.GetReadsByMessageIDs(ctx, []string{msg.ID})
	if err != nil {
		return nil, err
	}
	msg.ReadBy = reads[msg.ID]
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}

	return msg, nil
}

// ListByConversation, mesajları yeniden eskiye doğru sayfalar. beforeID
// verilirse o mesajdan öncekiler döner (cursor tabanlı sayfalama); bu
// konuşmada olmayan bir cursor ErrNotFound'dur — stream sonuyla (boş sayfa)
// karışmaz. Sıralama (created_at, id) üzerindendir — aynı milisaniyedeki
// mesajlar id ile deterministik ayrışır.
func (r *sqliteMessageRepo) ListByConversation(ctx context.Context, conversationID, beforeID string, limit int) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, text, created_at
		FROM messages
		WHERE conversation_id = ?`
	args := []any{conversationID}

	if beforeID != "" {
		var one int
		err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM messages WHERE id = ? AND conversation_id = ?",
			beforeID, conversationID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: cursor message not found", pkg.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to resolve cursor: %v", pkg.ErrUnavailable, err)
		}

		query += ` AND (created_at, id) < (SELECT created_at, id FROM messages WHERE id = ?)`
		args = append(args, beforeID)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list messages: %v", pkg.ErrUnavailable, err)
	}
	defer rows.Close()

	return r.collectMessages(ctx, rows)
}

// ListAllOrdered, konuşmanın tüm stream'ini eskiden yeniye döner.
// Snapshot yayını ve unread hesabı bu sıralamayı kullanır.
func (r *sqliteMessageRepo) ListAllOrdered(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, text, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list messages: %v", pkg.ErrUnavailable, err)
	}
	defer rows.Close()

	return r.collectMessages(ctx, rows)
}

// GetReadsByMessageIDs, verilen mesajların readBy kümelerini tek sorguda
// yükler — mesaj başına ayrı sorgu yerine batch.
func (r *sqliteMessageRepo) GetReadsByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(messageIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(messageIDs))
	for i, id := range messageIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT message_id, user_id
		FROM message_reads
		WHERE message_id IN (%s)
		ORDER BY message_id, user_id`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load reads: %v", pkg.ErrUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, userID string
		if err := rows.Scan(&messageID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan read: %w", err)
		}
		result[messageID] = append(result[messageID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reads: %w", err)
	}

	return result, nil
}

// collectMessages, satırları toplar ve readBy kümelerini batch yükler.
func (r *sqliteMessageRepo) collectMessages(ctx context.Context, rows *sql.Rows) ([]models.Message, error) {
	var messages []models.Message
	var ids []string

	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
		ids = append(ids, msg.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	reads, err := r.GetReadsByMessageIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].ReadBy = reads[messages[i].ID]
		if messages[i].ReadBy == nil {
			messages[i].ReadBy = []string{}
		}
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}
