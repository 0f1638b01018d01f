package services

import (
	"context"
	"fmt"
	"log"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
	"github.com/eakyurek/bostan/repository"
	"github.com/eakyurek/bostan/stream"
)

// SyncService, konuşma ve mesaj snapshot'larının abonelik sözleşmesini
// yönetir.
//
// Sözleşme:
//   - Subscribe* çağrısı önce mevcut durumun TAM snapshot'ını teslim eder,
//     sonra her değişiklikte güncel snapshot'ı.
//   - Teslimat monoton tutarlıdır: yeni bir snapshot'tan sonra asla daha
//     eski bir snapshot gelmez (yavaş abone ara durumları atlar).
//   - Dönen cancel fonksiyonu aboneliği kapatır ve idempotenttir.
//
// Publish* metodları yazma yolundan çağrılır — ilgili topic'in snapshot'ını
// broker'ın topic kilidi altında DB'den yeniden yükler ve bir sonraki
// revizyonla basar. Yükleme ile yayın aynı kilidin altında olduğundan iki
// eşzamanlı yazarın yüklemeleri iç içe geçemez; bayat bir snapshot taze
// olanın arkasından teslim edilemez.
type SyncService interface {
	SubscribeConversations(ctx context.Context, userID string) (<-chan []models.Conversation, func(), error)
	SubscribeMessages(ctx context.Context, userID, conversationID string) (<-chan []models.Message, func(), error)

	PublishConversations(ctx context.Context, userIDs []string)
	PublishMessages(ctx context.Context, conversationID string)
}

type syncService struct {
	convRepo   repository.ConversationRepository
	msgRepo    repository.MessageRepository
	convBroker *stream.Broker[[]models.Conversation]
	msgBroker  *stream.Broker[[]models.Message]
}

// NewSyncService, constructor.
func NewSyncService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
) SyncService {
	return &syncService{
		convRepo:   convRepo,
		msgRepo:    msgRepo,
		convBroker: stream.NewBroker[[]models.Conversation](),
		msgBroker:  stream.NewBroker[[]models.Message](),
	}
}

// conversationTopic, kullanıcı başına konuşma listesi topic'i.
func conversationTopic(userID string) string {
	return "conversations:" + userID
}

// messageTopic, konuşma başına mesaj stream topic'i.
func messageTopic(conversationID string) string {
	return "messages:" + conversationID
}

// SubscribeConversations, kullanıcının konuşma listesine abone olur.
// İlk teslimat: abonelik anındaki tam liste (updated_at desc) — yalnızca
// yeni aboneye gider, topic'in mevcut aboneleri tetiklenmez.
func (s *syncService) SubscribeConversations(ctx context.Context, userID string) (<-chan []models.Conversation, func(), error) {
	return s.convBroker.SubscribeFresh(conversationTopic(userID), func() ([]models.Conversation, error) {
		return s.convRepo.ListByUser(ctx, userID)
	})
}

// SubscribeMessages, bir konuşmanın mesaj stream'ine abone olur.
// Üyelik zorunludur — üye olmayan abone olamaz (ErrForbidden).
// İlk teslimat: tam sıralı stream (created_at asc, eşitlikte id).
func (s *syncService) SubscribeMessages(ctx context.Context, userID, conversationID string) (<-chan []models.Message, func(), error) {
	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return nil, nil, err
	}

	isMember, err := s.convRepo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !isMember {
		return nil, nil, fmt.Errorf("%w: not a member of this conversation", pkg.ErrForbidden)
	}

	return s.msgBroker.SubscribeFresh(messageTopic(conversationID), func() ([]models.Message, error) {
		return s.msgRepo.ListAllOrdered(ctx, conversationID)
	})
}

// PublishConversations, verilen kullanıcıların konuşma listesi snapshot'ını
// yeniler. Yükleme hatası yayını engeller ama yazma yolunu BOZMAZ —
// yazılan veri zaten DB'dedir, abone bir sonraki değişiklikte günceli alır.
func (s *syncService) PublishConversations(ctx context.Context, userIDs []string) {
	for _, userID := range userIDs {
		if userID == models.SystemSenderID {
			continue
		}

		err := s.convBroker.Refresh(conversationTopic(userID), func() ([]models.Conversation, error) {
			return s.convRepo.ListByUser(ctx, userID)
		})
		if err != nil {
			log.Printf("[sync] failed to load conversations for user %s: %v", userID, err)
		}
	}
}

// PublishMessages, konuşmanın mesaj snapshot'ını yeniler.
func (s *syncService) PublishMessages(ctx context.Context, conversationID string) {
	err := s.msgBroker.Refresh(messageTopic(conversationID), func() ([]models.Message, error) {
		return s.msgRepo.ListAllOrdered(ctx, conversationID)
	})
	if err != nil {
		log.Printf("[sync] failed to load messages for conversation %s: %v", conversationID, err)
	}
}
