package repository

import (
	"context"

	"github.com/eakyurek/bostan/models"
)

// MessageRepository, mesaj stream'i için interface.
//
// Stream append-only'dir: Create dışında yazma yoktur, mesajlar asla
// güncellenmez veya silinmez. ID ve created_at sunucu tarafından atanır —
// caller'ın gönderdiği değerler yok sayılır. ListByConversation'a verilen
// beforeID cursor'ı konuşmada mevcut bir mesajı göstermelidir; aksi halde
// ErrNotFound döner.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID, beforeID string, limit int) ([]models.Message, error)
	ListAllOrdered(ctx context.Context, conversationID string) ([]models.Message, error)
	GetReadsByMessageIDs(ctx context.Context, messageIDs []string) (map[string][]string, error)
}
