package models

// UnreadInfo, bir konuşmanın okunmamış mesaj bilgisini taşır.
// Client'ta konuşma listesi badge'i için kullanılır.
type UnreadInfo struct {
	ConversationID string `json:"conversation_id"`
	UnreadCount    int    `json:"unread_count"`
}

// UnreadSummary, kullanıcının tüm konuşmalarındaki okunmamış sayıları
// ve toplamı taşır.
type UnreadSummary struct {
	Conversations []UnreadInfo `json:"conversations"`
	Total         int          `json:"total"`
}

// ComputeUnread, bir mesaj kümesi için viewer'ın okunmamış mesaj sayısını
// hesaplar: senderId != viewer VE viewer ∉ readBy olan mesajlar.
//
// Saf fonksiyondur ve ASLA persist edilmez — sayaç her stream değişiminde
// yeniden türetilir; saklanan sayaç ile gerçek okuma durumu arasında
// divergence oluşamaz.
func ComputeUnread(messages []Message, viewerID string) int {
	count := 0
	for i := range messages {
		m := &messages[i]
		if m.SenderID == viewerID {
			continue
		}
		if !m.ReadByContains(viewerID) {
			count++
		}
	}
	return count
}
