package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ConversationKind, konuşmanın türünü temsil eder.
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// SystemSenderID, sistem mesajlarının (konuşma açılış bildirimi gibi)
// gönderici sentinel'idir. users tablosunda karşılığı yoktur.
const SystemSenderID = "system"

// ChatStartedText, yeni bir direct konuşma açıldığında stream'e eklenen
// sistem mesajının içeriği.
const ChatStartedText = "Chat started"

// LastMessage, konuşma kaydına denormalize edilen son mesaj snapshot'ı.
// Bu bir CACHE'tir, kaynak gerçeği değil — her zaman stream'deki en yeni
// mesajdan türetilebilir. Stale kalırsa kurtarılabilir, otorite değildir.
type LastMessage struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation, iki veya daha fazla kullanıcı arasındaki konuşmayı temsil eder.
//
// Direct konuşmalarda ID kanoniktir: sırasız kullanıcı çiftinin saf bir
// fonksiyonudur (bkz. CanonicalDirectID). Aynı çift hangi sırayla verilirse
// verilsin aynı ID üretilir — ikinci bir doküman oluşamaz.
//
// Members listesi çağrıdaki ORİJİNAL sırayı korur; sadece ID kanonikleştirilir.
type Conversation struct {
	ID          string           `json:"id"`
	Kind        ConversationKind `json:"kind"`
	GroupName   *string          `json:"group_name,omitempty"` // Sadece kind = group
	Members     []string         `json:"members"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"` // Her yeni mesajda ilerler
	LastMessage *LastMessage     `json:"last_message,omitempty"`
}

// CanonicalDirectID, sırasız bir kullanıcı çifti için kanonik konuşma ID'si
// üretir. Sıralama dil bağımsız byte karşılaştırmasıdır (Go string <),
// ayraç sabit "_" karakteridir.
//
// Her a, b için: CanonicalDirectID(a, b) == CanonicalDirectID(b, a).
// a == b durumunda da deterministik bir ID döner (self-conversation) —
// bu durumun reddedilmesi service katmanının politikasıdır.
func CanonicalDirectID(a, b string) string {
	if a <= b {
		return a + "_" + b
	}
	return b + "_" + a
}

// CreateConversationRequest, POST /api/conversations body'si.
//
// İki mod desteklenir:
//   - Direct: UserID dolu → çağıran kullanıcı ile hedef arasında
//     resolve-or-create.
//   - Group: MemberIDs + GroupName dolu → yeni group konuşması (UUID id).
type CreateConversationRequest struct {
	UserID    string   `json:"user_id,omitempty"`
	MemberIDs []string `json:"member_ids,omitempty"`
	GroupName string   `json:"group_name,omitempty"`
}

// Validate, isteğin iki moddan tam olarak birine uyduğunu kontrol eder.
func (r *CreateConversationRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	r.GroupName = strings.TrimSpace(r.GroupName)

	if r.UserID != "" {
		if len(r.MemberIDs) > 0 || r.GroupName != "" {
			return fmt.Errorf("user_id cannot be combined with member_ids or group_name")
		}
		return nil
	}

	if len(r.MemberIDs) < 2 {
		return fmt.Errorf("group conversation requires at least 2 member_ids")
	}
	if r.GroupName == "" {
		return fmt.Errorf("group_name is required for group conversations")
	}
	if utf8.RuneCountInString(r.GroupName) > 64 {
		return fmt.Errorf("group_name must be at most 64 characters")
	}

	seen := make(map[string]bool, len(r.MemberIDs))
	for _, id := range r.MemberIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("member_ids cannot contain empty ids")
		}
		if seen[id] {
			return fmt.Errorf("member_ids cannot contain duplicates")
		}
		seen[id] = true
	}

	return nil
}
