package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
	"github.com/eakyurek/bostan/pkg/ratelimit"
	"github.com/eakyurek/bostan/services"
)

// MessageHandler, mesaj endpoint'lerini yöneten struct.
type MessageHandler struct {
	messageService services.MessageService
	readService    services.ReadService
	messageLimiter *ratelimit.MessageRateLimiter
}

// NewMessageHandler, constructor.
// messageLimiter: Spam koruması. nil ise rate limiting devre dışı.
func NewMessageHandler(
	messageService services.MessageService,
	readService services.ReadService,
	messageLimiter *ratelimit.MessageRateLimiter,
) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		readService:    readService,
		messageLimiter: messageLimiter,
	}
}

// List godoc
// GET /api/conversations/{id}/messages?before=<messageID>&limit=<n>
// Cursor-based pagination — "before" verilen mesajdan öncekileri döner.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	conversationID := r.PathValue("id")
	if conversationID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	beforeID := r.URL.Query().Get("before")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = parsed
	}

	page, err := h.messageService.GetMessages(r.Context(), user.ID, conversationID, beforeID, limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, page)
}

// Send godoc
// POST /api/conversations/{id}/messages
// Body: { "text": "..." }
//
// Rate limiting: kullanıcı bazlı spam koruması. Limit aşıldığında 429 +
// Retry-After header döner.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if h.messageLimiter != nil && !h.messageLimiter.Allow(user.ID) {
		retryAfter := h.messageLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("sending messages too fast, please wait %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	conversationID := r.PathValue("id")
	if conversationID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "conversation id is required")
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.Send(r.Context(), user.ID, conversationID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, msg)
}

// MarkRead godoc
// POST /api/conversations/{id}/messages/{messageId}/read
//
// Idempotent: aynı mesajı ikinci kez okundu işaretlemek no-op'tur, yine
// 200 döner.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	conversationID := r.PathValue("id")
	messageID := r.PathValue("messageId")
	if conversationID == "" || messageID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "conversation id and message id are required")
		return
	}

	if err := h.readService.MarkRead(r.Context(), user.ID, conversationID, messageID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "marked as read"})
}
