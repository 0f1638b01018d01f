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

// sqliteConversationRepo, ConversationRepository interface'inin SQLite implementasyonu.
type sqliteConversationRepo struct {
	db *sql.DB
}

// NewSQLiteConversationRepo, constructor — interface döner.
func NewSQLiteConversationRepo(db *sql.DB) ConversationRepository {
	return &sqliteConversationRepo{db: db}
}

func (r *sqliteConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := scanConversation(r.db.QueryRowContext(ctx, `
		SELECT id, kind, group_name, created_at, updated_at,
		       last_message_text, last_message_sender_id, last_message_at
		FROM conversations WHERE id = ?`, id))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversation not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get conversation: %v", pkg.ErrUnavailable, err)
	}

	members, err := r.loadMembers(ctx, []string{conv.ID})
	if err != nil {
		return nil, err
	}
	conv.Members = members[conv.ID]

	return conv, nil
}

// CreateIfAbsent, kanonik ID ile direct konuşma oluşturur.
//
// Tek transaction içinde:
//  1. ON CONFLICT(id) DO NOTHING ile conditional insert — yarış kaybedildiyse
//     hiçbir şey yazılmaz, (false, nil) döner.
//  2. Üyeler çağrıdaki orijinal sırayla yazılır (position kolonu).
//  3. Stream'e gerçek bir "Chat started" sistem mesajı eklenir — böylece
//     last_message cache'i her zaman stream'den türetilebilir kalır.
//  4. last_message_* cache alanları sistem mesajından doldurulur.
func (r *sqliteConversationRepo) CreateIfAbsent(ctx context.Context, conv *models.Conversation) (bool, error) {
	created := false

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO conversations (id, kind) VALUES (?, 'direct') ON CONFLICT(id) DO NOTHING",
			conv.ID)
		if err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check insert result: %w", err)
		}
		if affected == 0 {
			// Yarışı başka bir caller kazandı — mevcut kayıt dokunulmadan kalır.
			return nil
		}
		created = true

		return r.seedConversation(ctx, tx, conv)
	})

	if err != nil {
		return false, fmt.Errorf("%w: failed to create conversation: %v", pkg.ErrUnavailable, err)
	}
	return created, nil
}

// CreateGroup, UUID id'li bir group konuşması oluşturur.
// Direct ile aynı seed akışı kullanılır; id çakışması beklenmez (UUID).
func (r *sqliteConversationRepo) CreateGroup(ctx context.Context, conv *models.Conversation) error {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO conversations (id, kind, group_name) VALUES (?, 'group', ?)",
			conv.ID, conv.GroupName); err != nil {
			return fmt.Errorf("failed to insert group conversation: %w", err)
		}

		return r.seedConversation(ctx, tx, conv)
	})

	if err != nil {
		return fmt.Errorf("%w: failed to create group conversation: %v", pkg.ErrUnavailable, err)
	}
	return nil
}

// seedConversation, yeni oluşturulan konuşmanın üyelerini, açılış sistem
// mesajını ve last_message cache'ini yazar. CreateIfAbsent ve CreateGroup
// tarafından transaction içinde çağrılır.
func (r *sqliteConversationRepo) seedConversation(ctx context.Context, tx *sql.Tx, conv *models.Conversation) error {
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM conversations WHERE id = ?", conv.ID,
	).Scan(&conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return fmt.Errorf("failed to read conversation timestamps: %w", err)
	}

	for i, userID := range conv.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO conversation_members (conversation_id, user_id, position) VALUES (?, ?, ?)",
			conv.ID, userID, i); err != nil {
			return fmt.Errorf("failed to insert member %s: %w", userID, err)
		}
	}

	// Açılış sistem mesajı — stream kaynak gerçeği olarak kalır,
	// cache buradan türetilir.
	var msgID string
	var msgCreatedAt sql.NullTime
	if err := tx.QueryRowContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, text) VALUES (?, ?, ?) RETURNING id, created_at",
		conv.ID, models.SystemSenderID, models.ChatStartedText,
	).Scan(&msgID, &msgCreatedAt); err != nil {
		return fmt.Errorf("failed to insert system message: %w", err)
	}

	// Gönderen baştan readBy kümesindedir — system sender dahil.
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO message_reads (message_id, user_id) VALUES (?, ?)",
		msgID, models.SystemSenderID); err != nil {
		return fmt.Errorf("failed to insert system read: %w", err)
	}

	last := &models.LastMessage{
		Text:      models.ChatStartedText,
		SenderID:  models.SystemSenderID,
		CreatedAt: msgCreatedAt.Time,
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET last_message_text = ?, last_message_sender_id = ?, last_message_at = ?, updated_at = ?
		WHERE id = ?`,
		last.Text, last.SenderID, last.CreatedAt, last.CreatedAt, conv.ID); err != nil {
		return fmt.Errorf("failed to set last message cache: %w", err)
	}

	conv.UpdatedAt = last.CreatedAt
	conv.LastMessage = last
	return nil
}

// ListByUser, kullanıcının üyesi olduğu tüm konuşmaları updated_at DESC
// sırasıyla döner (en son aktif olan üstte). Üye listeleri batch yüklenir —
// N+1 yerine iki sorgu.
func (r *sqliteConversationRepo) ListByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.kind, c.group_name, c.created_at, c.updated_at,
		       c.last_message_text, c.last_message_sender_id, c.last_message_at
		FROM conversations c
		JOIN conversation_members cm ON cm.conversation_id = c.id
		WHERE cm.user_id = ?
		ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list conversations: %v", pkg.ErrUnavailable, err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	var ids []string
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, *conv)
		ids = append(ids, conv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	memberMap, err := r.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range conversations {
		conversations[i].Members = memberMap[conversations[i].ID]
	}

	if conversations == nil {
		conversations = []models.Conversation{}
	}
	return conversations, nil
}

func (r *sqliteConversationRepo) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM conversation_members WHERE conversation_id = ? AND user_id = ?",
		conversationID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: failed to check membership: %v", pkg.ErrUnavailable, err)
	}
	return count > 0, nil
}

// TouchLastMessage, last_message cache'ini ve updated_at'i yeni mesajdan
// günceller. Mesaj append'inden SONRA çağrılır — crash durumunda stream
// doğru kalır, sadece cache stale olur (karşılığı olmayan "son mesaj" asla
// oluşamaz).
func (r *sqliteConversationRepo) TouchLastMessage(ctx context.Context, conversationID string, last *models.LastMessage) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversations
		SET last_message_text = ?, last_message_sender_id = ?, last_message_at = ?, updated_at = ?
		WHERE id = ?`,
		last.Text, last.SenderID, last.CreatedAt, last.CreatedAt, conversationID)
	if err != nil {
		return fmt.Errorf("%w: failed to update last message: %v", pkg.ErrUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: conversation not found", pkg.ErrNotFound)
	}
	return nil
}

// loadMembers, verilen konuşma ID'leri için üye listelerini tek sorguda
// yükler. Sıralama position kolonuna göredir — orijinal çağrı sırası korunur.
func (r *sqliteConversationRepo) loadMembers(ctx context.Context, conversationIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(conversationIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(conversationIDs))
	for i, id := range conversationIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT conversation_id, user_id
		FROM conversation_members
		WHERE conversation_id IN (%s)
		ORDER BY conversation_id, position`, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load members: %v", pkg.ErrUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var convID, userID string
		if err := rows.Scan(&convID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		result[convID] = append(result[convID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return result, nil
}

// rowScanner, hem *sql.Row hem *sql.Rows tarafından karşılanır.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanConversation, bir conversation satırını modele çevirir.
// last_message_* kolonları üçü birden dolu veya üçü birden NULL'dur.
func scanConversation(row rowScanner) (*models.Conversation, error) {
	conv := &models.Conversation{}
	var groupName sql.NullString
	var lastText, lastSender sql.NullString
	var lastAt sql.NullTime

	if err := row.Scan(
		&conv.ID, &conv.Kind, &groupName, &conv.CreatedAt, &conv.UpdatedAt,
		&lastText, &lastSender, &lastAt,
	); err != nil {
		return nil, err
	}

	if groupName.Valid {
		conv.GroupName = &groupName.String
	}
	if lastText.Valid && lastSender.Valid && lastAt.Valid {
		conv.LastMessage = &models.LastMessage{
			Text:      lastText.String,
			SenderID:  lastSender.String,
			CreatedAt: lastAt.Time,
		}
	}

	return conv, nil
}
