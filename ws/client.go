package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eakyurek/bostan/models"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	sendBufferSize = 256
)

// SyncSource, client'ın snapshot aboneliklerini açtığı interface.
//
// Neden services.SyncService yerine kendi interface'imiz?
// services paketi bu pakete bağımlı olmasa da, ws → services importu
// gereksiz bir coupling olur. Client'ın sadece iki metoda ihtiyacı var —
// küçük, odaklı bir interface yeterli (main.go'da syncService bunu
// implicit olarak karşılar).
type SyncSource interface {
	SubscribeConversations(ctx context.Context, userID string) (<-chan []models.Conversation, func(), error)
	SubscribeMessages(ctx context.Context, userID, conversationID string) (<-chan []models.Message, func(), error)
}

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: Client'dan gelen event'leri okur ve işler
// - WritePump: send channel'ından gelen mesajları WebSocket'e yazar
//
// Ek olarak her aktif abonelik için bir forward goroutine'i vardır:
// service katmanının snapshot channel'ından okur, sync event'i olarak
// client'a iletir. Disposer'lar disposers map'inde tutulur ve unsubscribe
// veya disconnect'te çağrılır.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	source SyncSource

	send chan []byte
	mu   sync.Mutex // conn yazmalarını korur

	// done: client kapanırken kapatılır. Forward goroutine'leri kapalı
	// send channel'ına yazmak yerine done üzerinden çıkar.
	done     chan struct{}
	doneOnce sync.Once

	// disposers: conversationID → abonelik disposer'ı.
	// convCancel: konuşma listesi aboneliğinin disposer'ı.
	dispMu     sync.Mutex
	disposers  map[string]func()
	convCancel func()
}

// newClient, bağlantı için client oluşturur. Handler tarafından çağrılır.
func newClient(hub *Hub, conn *websocket.Conn, userID string, source SyncSource) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		userID:    userID,
		source:    source,
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		disposers: make(map[string]func()),
	}
}

// start, ready event'ini gönderir ve konuşma listesi aboneliğini açar.
// Bağlanan her client otomatik olarak kendi konuşma listesine abonedir.
func (c *Client) start() {
	c.sendEvent(Event{Op: OpReady, Data: ReadyData{UserID: c.userID}})

	ch, cancel, err := c.source.SubscribeConversations(context.Background(), c.userID)
	if err != nil {
		log.Printf("[ws] failed to subscribe conversations for user %s: %v", c.userID, err)
		return
	}

	c.dispMu.Lock()
	c.convCancel = cancel
	c.dispMu.Unlock()

	go func() {
		for snapshot := range ch {
			c.sendEvent(Event{
				Op:   OpConversationSync,
				Data: ConversationSyncData{Conversations: snapshot},
			})
		}
	}()
}

// ReadPump, WebSocket bağlantısından gelen event'leri okur ve işler.
// Bağlantı kapandığında tüm abonelikleri bırakır ve Hub'dan çıkar.
func (c *Client) ReadPump() {
	defer func() {
		c.releaseAll()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen event'leri türüne göre işler.
func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpSubscribe:
		c.handleSubscribe(event)

	case OpUnsubscribe:
		c.handleUnsubscribe(event)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

// handleSubscribe, bir konuşmanın mesaj stream'ine abonelik açar.
// Aynı konuşmaya ikinci subscribe no-op'tur (mevcut abonelik korunur).
func (c *Client) handleSubscribe(event Event) {
	data, ok := parseSubscribeData(event)
	if !ok || data.ConversationID == "" {
		log.Printf("[ws] subscribe without conversation_id from user %s", c.userID)
		return
	}

	c.dispMu.Lock()
	if _, exists := c.disposers[data.ConversationID]; exists {
		c.dispMu.Unlock()
		return
	}
	c.dispMu.Unlock()

	// Üyelik kontrolü service katmanında yapılır — üye olmayan abone olamaz.
	ch, cancel, err := c.source.SubscribeMessages(context.Background(), c.userID, data.ConversationID)
	if err != nil {
		log.Printf("[ws] subscribe rejected for user %s conversation %s: %v",
			c.userID, data.ConversationID, err)
		return
	}

	c.dispMu.Lock()
	c.disposers[data.ConversationID] = cancel
	c.dispMu.Unlock()

	conversationID := data.ConversationID
	go func() {
		for snapshot := range ch {
			c.sendEvent(Event{
				Op: OpMessageSync,
				Data: MessageSyncData{
					ConversationID: conversationID,
					Messages:       snapshot,
				},
			})
		}
	}()
}

// handleUnsubscribe, aboneliği bırakır. Disposer idempotenttir —
// var olmayan abonelik için çağrı sessizce no-op olur.
func (c *Client) handleUnsubscribe(event Event) {
	data, ok := parseSubscribeData(event)
	if !ok || data.ConversationID == "" {
		return
	}

	c.dispMu.Lock()
	cancel, exists := c.disposers[data.ConversationID]
	if exists {
		delete(c.disposers, data.ConversationID)
	}
	c.dispMu.Unlock()

	if exists {
		cancel()
	}
}

// releaseAll, tüm abonelik disposer'larını çağırır. Disconnect'te çalışır.
func (c *Client) releaseAll() {
	c.dispMu.Lock()
	cancels := make([]func(), 0, len(c.disposers)+1)
	if c.convCancel != nil {
		cancels = append(cancels, c.convCancel)
		c.convCancel = nil
	}
	for id, cancel := range c.disposers {
		cancels = append(cancels, cancel)
		delete(c.disposers, id)
	}
	c.dispMu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// shutdown, client'ı kapatır. Hub tarafından çağrılır; birden fazla çağrı
// güvenlidir.
func (c *Client) shutdown() {
	c.releaseAll()
	c.doneOnce.Do(func() {
		close(c.done)
	})
}

// sendEvent, client'a tek bir event gönderir ve seq atar.
func (c *Client) sendEvent(event Event) {
	event.Seq = c.hub.nextSeq()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	select {
	case <-c.done:
		// Client kapanıyor — event düşer, snapshot zaten DB'den türetilir.
	case c.send <- data:
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		select {
		case c.hub.unregister <- c:
		case <-c.done:
		}
	}
}

// WritePump, send channel'ından gelen mesajları WebSocket'e yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case <-c.done:
			c.writeMessage(websocket.CloseMessage, nil)
			return

		case message := <-c.send:
			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar. gorilla/websocket conn'a aynı anda
// birden fazla yazma yasak — mutex ile korunur.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// parseSubscribeData, event.Data'yı SubscribeData'ya çevirir.
// event.Data tipi any — JSON'a çevirip tekrar parse etmek en güvenli yöntem.
func parseSubscribeData(event Event) (SubscribeData, bool) {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return SubscribeData{}, false
	}

	var data SubscribeData
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return SubscribeData{}, false
	}
	return data, true
}
