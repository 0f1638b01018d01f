package services

import (
	"context"
	"fmt"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
	"github.com/eakyurek/bostan/repository"
)

// MessageService, mesaj stream'i üzerindeki işlemleri yönetir.
type MessageService interface {
	Send(ctx context.Context, userID, conversationID string, req *models.SendMessageRequest) (*models.Message, error)
	GetMessages(ctx context.Context, userID, conversationID, beforeID string, limit int) (*models.MessagePage, error)
}

type messageService struct {
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository
	sync     SyncService
}

// NewMessageService, constructor.
func NewMessageService(
	msgRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	sync SyncService,
) MessageService {
	return &messageService{
		msgRepo:  msgRepo,
		convRepo: convRepo,
		sync:     sync,
	}
}

// Send, konuşmaya yeni mesaj ekler.
//
// Yazma sırası sabittir: ÖNCE stream'e append, SONRA last_message cache
// güncellemesi. Arada crash olursa stream doğru kalır — cache stale olur
// ama bir sonraki mesajda düzelir. Karşılığı stream'de olmayan bir
// "son mesaj" asla oluşamaz.
func (s *messageService) Send(ctx context.Context, userID, conversationID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	isMember, err := s.convRepo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this conversation", pkg.ErrForbidden)
	}

	// ID ve created_at store tarafından atanır — client ne gönderirse
	// göndersin yok sayılır.
	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Text:           req.Text,
	}

	// 1. Stream append — kaynak gerçeği
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	// 2. Cache güncelleme — stream'den türetilir
	last := &models.LastMessage{
		Text:      msg.Text,
		SenderID:  msg.SenderID,
		CreatedAt: msg.CreatedAt,
	}
	if err := s.convRepo.TouchLastMessage(ctx, conversationID, last); err != nil {
		return nil, err
	}

	s.sync.PublishMessages(ctx, conversationID)
	s.sync.PublishConversations(ctx, conv.Members)

	return msg, nil
}

// GetMessages, konuşmanın mesajlarını cursor-based pagination ile döner.
// Üyelik zorunludur.
//
// limit+1 trick: istenen limitten bir fazla çekilir; fazla kayıt geldiyse
// has_more = true olur ve fazlalık atılır.
func (s *messageService) GetMessages(ctx context.Context, userID, conversationID, beforeID string, limit int) (*models.MessagePage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	isMember, err := s.convRepo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this conversation", pkg.ErrForbidden)
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conversationID, beforeID, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	// Ters çevir (DB'den DESC gelir, client ASC bekler)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &models.MessagePage{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}
