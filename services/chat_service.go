package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
	"github.com/eakyurek/bostan/repository"
)

// ChatService, konuşma yaşam döngüsünü yönetir.
//
// Direct konuşmalar resolve-or-create semantiği taşır: aynı sırasız çift
// için HER ZAMAN aynı konuşma döner. Group konuşmalar her çağrıda yeni
// oluşturulur (UUID id).
type ChatService interface {
	ResolveOrCreate(ctx context.Context, userID, otherUserID string) (*models.Conversation, error)
	CreateGroup(ctx context.Context, creatorID string, req *models.CreateConversationRequest) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error)
}

type chatService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
	sync     SyncService
}

// NewChatService, constructor.
func NewChatService(
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	sync SyncService,
) ChatService {
	return &chatService{
		convRepo: convRepo,
		userRepo: userRepo,
		sync:     sync,
	}
}

// ResolveOrCreate, iki kullanıcı arasındaki direct konuşmayı bulur veya
// oluşturur.
//
// Yarış güvenliği: kanonik ID üzerinde conditional create kullanılır.
// İki caller aynı anda gelirse ikisi de AYNI konuşmayı alır — kaybeden
// taraf kazananın kaydını okur, hiçbir yazma üzerine yazılmaz.
//
// Başarılı oluşturmada her iki üyenin konuşma listesi snapshot'ı yayınlanır.
func (s *chatService) ResolveOrCreate(ctx context.Context, userID, otherUserID string) (*models.Conversation, error) {
	if otherUserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", pkg.ErrBadRequest)
	}
	if userID == otherUserID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", pkg.ErrBadRequest)
	}

	// Karşı taraf gerçekten var mı?
	if _, err := s.userRepo.GetByID(ctx, otherUserID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
		}
		return nil, err
	}

	conv := &models.Conversation{
		ID:   models.CanonicalDirectID(userID, otherUserID),
		Kind: models.ConversationDirect,
		// Üye sırası çağrıdaki orijinal sıradır — sadece ID kanonikleştirilir.
		Members: []string{userID, otherUserID},
	}

	created, err := s.convRepo.CreateIfAbsent(ctx, conv)
	if err != nil {
		return nil, err
	}

	if !created {
		// Yarışı kaybettik veya konuşma zaten vardı — kazananın kaydını oku.
		return s.convRepo.GetByID(ctx, conv.ID)
	}

	s.sync.PublishConversations(ctx, conv.Members)
	s.sync.PublishMessages(ctx, conv.ID)

	return conv, nil
}

// CreateGroup, yeni bir group konuşması oluşturur. Çağıran kullanıcı üye
// listesinde yoksa başa eklenir. Tüm üyelerin varlığı doğrulanır.
func (s *chatService) CreateGroup(ctx context.Context, creatorID string, req *models.CreateConversationRequest) (*models.Conversation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	members := req.MemberIDs
	hasCreator := false
	for _, id := range members {
		if id == creatorID {
			hasCreator = true
			break
		}
	}
	if !hasCreator {
		members = append([]string{creatorID}, members...)
	}

	for _, memberID := range members {
		if memberID == creatorID {
			continue
		}
		if _, err := s.userRepo.GetByID(ctx, memberID); err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return nil, fmt.Errorf("%w: user %s not found", pkg.ErrNotFound, memberID)
			}
			return nil, err
		}
	}

	groupName := req.GroupName
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Kind:      models.ConversationGroup,
		GroupName: &groupName,
		Members:   members,
	}

	if err := s.convRepo.CreateGroup(ctx, conv); err != nil {
		return nil, err
	}

	s.sync.PublishConversations(ctx, conv.Members)
	s.sync.PublishMessages(ctx, conv.ID)

	return conv, nil
}

// ListConversations, kullanıcının konuşmalarını updated_at desc döner.
func (s *chatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.convRepo.ListByUser(ctx, userID)
}

// GetConversation, tek bir konuşmayı döner. Üye olmayan için ErrForbidden.
func (s *chatService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	isMember := false
	for _, memberID := range conv.Members {
		if memberID == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, fmt.Errorf("%w: not a member of this conversation", pkg.ErrForbidden)
	}

	return conv, nil
}
