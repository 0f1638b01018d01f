package repository

import (
	"context"

	"github.com/eakyurek/bostan/models"
)

// ConversationRepository, konuşma veritabanı işlemleri için interface.
//
// CreateIfAbsent, direct konuşmaların "exactly one per pair" garantisini
// store seviyesinde verir: kanonik ID üzerinde conditional create
// (ON CONFLICT DO NOTHING) kullanılır. Yarışan ikinci creator'ın yazması
// no-op olur — var olan kaydın üzerine ASLA yazılmaz, devam eden ilk
// mesaj kaybolamaz. created=false dönerse caller mevcut kaydı okur.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	CreateIfAbsent(ctx context.Context, conv *models.Conversation) (created bool, err error)
	CreateGroup(ctx context.Context, conv *models.Conversation) error
	ListByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	TouchLastMessage(ctx context.Context, conversationID string, last *models.LastMessage) error
}
