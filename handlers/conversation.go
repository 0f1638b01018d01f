package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
	"github.com/eakyurek/bostan/services"
)

// ConversationHandler, konuşma endpoint'lerini yöneten struct.
type ConversationHandler struct {
	chatService services.ChatService
	readService services.ReadService
}

// NewConversationHandler, constructor.
func NewConversationHandler(chatService services.ChatService, readService services.ReadService) *ConversationHandler {
	return &ConversationHandler{
		chatService: chatService,
		readService: readService,
	}
}

// Create godoc
// POST /api/conversations
//
// İki mod:
//   - { "user_id": "..." }                      → direct resolve-or-create
//   - { "member_ids": [...], "group_name": "" } → yeni group konuşması
//
// Direct modda aynı çift için her çağrı AYNI konuşmayı döner; mevcut
// konuşma varsa 200, yeni oluşturulduysa da 200 döner — caller için fark
// yoktur, id deterministiktir.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.UserID != "" {
		conv, err := h.chatService.ResolveOrCreate(r.Context(), user.ID, req.UserID)
		if err != nil {
			pkg.Error(w, err)
			return
		}
		pkg.JSON(w, http.StatusOK, conv)
		return
	}

	conv, err := h.chatService.CreateGroup(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, conv)
}

// List godoc
// GET /api/conversations
// Kullanıcının tüm konuşmaları, updated_at desc.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	conversations, err := h.chatService.ListConversations(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, conversations)
}

// Get godoc
// GET /api/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	conv, err := h.chatService.GetConversation(r.Context(), user.ID, conversationID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, conv)
}

// Unread godoc
// GET /api/conversations/unread
// Konuşma başına okunmamış mesaj sayıları + toplam. Badge'ler için.
func (h *ConversationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	summary, err := h.readService.GetUnreadCounts(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, summary)
}
