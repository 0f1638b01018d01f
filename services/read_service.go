package services

import (
	"context"
	"fmt"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
	"github.com/eakyurek/bostan/repository"
)

// ReadService, mesaj okunma durumunu yönetir.
//
// readBy kümesi monoton büyür: MarkRead sadece ekler, hiçbir işlem kümeden
// eleman çıkarmaz. Tekrarlanan çağrılar no-op'tur ve hata değildir.
type ReadService interface {
	MarkRead(ctx context.Context, userID, conversationID, messageID string) error
	GetUnreadCounts(ctx context.Context, userID string) (*models.UnreadSummary, error)
}

type readService struct {
	readRepo repository.ReadRepository
	convRepo repository.ConversationRepository
	sync     SyncService
}

// NewReadService, constructor.
func NewReadService(
	readRepo repository.ReadRepository,
	convRepo repository.ConversationRepository,
	sync SyncService,
) ReadService {
	return &readService{
		readRepo: readRepo,
		convRepo: convRepo,
		sync:     sync,
	}
}

// MarkRead, kullanıcıyı mesajın readBy kümesine ekler (idempotent union).
// Mesaj yoksa veya başka bir konuşmaya aitse ErrNotFound döner.
func (s *readService) MarkRead(ctx context.Context, userID, conversationID, messageID string) error {
	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return err
	}

	isMember, err := s.convRepo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return fmt.Errorf("%w: not a member of this conversation", pkg.ErrForbidden)
	}

	if err := s.readRepo.MarkRead(ctx, conversationID, messageID, userID); err != nil {
		return err
	}

	// readBy değişti — mesaj snapshot'ı yenilenir.
	s.sync.PublishMessages(ctx, conversationID)

	return nil
}

// GetUnreadCounts, kullanıcının konuşma başına okunmamış mesaj sayılarını
// ve toplamı döner. Unread hiçbir yerde persist edilmez — her çağrıda
// stream'den türetilir.
func (s *readService) GetUnreadCounts(ctx context.Context, userID string) (*models.UnreadSummary, error) {
	infos, err := s.readRepo.GetUnreadCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, info := range infos {
		total += info.UnreadCount
	}

	return &models.UnreadSummary{
		Conversations: infos,
		Total:         total,
	}, nil
}
