package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Message, bir konuşma stream'indeki tek bir mesajı temsil eder.
//
// Mesajlar append-only'dir: bir kez oluşturulur, asla düzenlenmez.
// Tek mutable alan ReadBy kümesidir — monoton büyür (union-only),
// bir okuyucu kümeden asla çıkmaz.
//
// Sıralama anahtarı: CreatedAt (store tarafından atanır, client saati
// değil), eşitlikte ID. Store ataması clock-skew kaynaklı sıralama
// hatalarını engeller.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"` // Kullanıcı ID'si veya "system"
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	ReadBy         []string  `json:"read_by"` // Okuyan kullanıcı ID'leri; gönderen baştan dahildir
}

// SendMessageRequest, POST /api/conversations/{id}/messages body'si.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// Validate, mesaj içeriğini kontrol eder.
// Boş string reddedilir; trim CALLER'ın sorumluluğudur — core whitespace
// yorumu yapmaz. Üst sınır 2000 karakterdir.
func (r *SendMessageRequest) Validate() error {
	if r.Text == "" {
		return fmt.Errorf("message text is required")
	}
	if utf8.RuneCountInString(r.Text) > 2000 {
		return fmt.Errorf("message text must be at most 2000 characters")
	}
	return nil
}

// MessagePage, cursor-based pagination sonucu.
// Offset yerine "bu ID'den önceki N mesaj" kullanılır — yeni mesaj
// eklendiğinde sayfa kayması olmaz.
type MessagePage struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}

// ReadByContains, mesajın ReadBy kümesinde verilen kullanıcı var mı döner.
func (m *Message) ReadByContains(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}
