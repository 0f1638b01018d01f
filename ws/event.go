// Package ws, WebSocket bağlantı yönetimi ve snapshot push transport'unu
// sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı
// - Client: Her WebSocket bağlantısını temsil eder; abone olduğu
//   konuşmaların snapshot akışlarını service katmanından köprüler
// - Event: Client-server arası iletilen mesaj formatı
//
// Akış delta değil snapshot tabanlıdır:
// 1. Client bağlanır → ready + conversation_sync (tam konuşma listesi)
// 2. Client bir konuşmaya subscribe olur → message_sync (tam sıralı stream)
// 3. Her değişiklikte ilgili snapshot yeniden gönderilir
// 4. unsubscribe veya disconnect aboneliği serbest bırakır
package ws

import "github.com/eakyurek/bostan/models"

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Seq: Her outbound event'e verilen artan sayı. Client eksik event tespit
// etmek için takip eder — ama akış snapshot tabanlı olduğu için kaçan bir
// event veri kaybı değildir, bir sonraki snapshot günceli taşır.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat   = "heartbeat"   // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
	OpSubscribe   = "subscribe"   // Bir konuşmanın mesaj stream'ine abone ol
	OpUnsubscribe = "unsubscribe" // Aboneliği bırak (disposer çağrılır)
)

// Server → Client operasyonları
const (
	OpReady            = "ready"             // Bağlantı kuruldu
	OpHeartbeatAck     = "heartbeat_ack"     // Heartbeat'e yanıt
	OpConversationSync = "conversation_sync" // Konuşma listesinin tam snapshot'ı
	OpMessageSync      = "message_sync"      // Bir konuşmanın tam mesaj snapshot'ı
)

// SubscribeData, subscribe/unsubscribe event'lerinin payload'ı.
type SubscribeData struct {
	ConversationID string `json:"conversation_id"`
}

// ReadyData, bağlantı kurulduğunda gönderilen ilk event'in payload'ı.
type ReadyData struct {
	UserID string `json:"user_id"`
}

// ConversationSyncData, conversation_sync event'inin payload'ı.
// Kullanıcının TÜM konuşmaları, updated_at desc.
type ConversationSyncData struct {
	Conversations []models.Conversation `json:"conversations"`
}

// MessageSyncData, message_sync event'inin payload'ı.
// Konuşmanın TÜM mesajları, created_at asc (eşitlikte id).
type MessageSyncData struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []models.Message `json:"messages"`
}
