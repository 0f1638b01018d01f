package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
)

// seedMessages, konuşmaya sırayla n mesaj ekler. created_at milisaniye
// çözünürlüklü — deterministik sıra için araya küçük bekleme konur.
func seedMessages(t *testing.T, repo MessageRepository, conversationID, senderID string, n int) []models.Message {
	t.Helper()

	out := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		time.Sleep(2 * time.Millisecond)
		msg := &models.Message{
			ConversationID: conversationID,
			SenderID:       senderID,
			Text:           fmt.Sprintf("mesaj %d", i),
		}
		require.NoError(t, repo.Create(t.Context(), msg))
		out = append(out, *msg)
	}
	return out
}

func TestMessageRepo_Create(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	conv := createDirectConversation(t, db, alice, bob)
	repo := NewSQLiteMessageRepo(db)

	msg := &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Text: "domatesler olgun"}
	require.NoError(t, repo.Create(t.Context(), msg))

	// ID ve created_at store tarafından atanır
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
	// Gönderen baştan readBy kümesindedir
	assert.Equal(t, []string{alice.ID}, msg.ReadBy)

	got, err := repo.GetByID(t.Context(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.Text, got.Text)
	assert.Equal(t, []string{alice.ID}, got.ReadBy)
}

func TestMessageRepo_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewSQLiteMessageRepo(db).GetByID(t.Context(), "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMessageRepo_ListAllOrdered(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	conv := createDirectConversation(t, db, alice, bob)
	repo := NewSQLiteMessageRepo(db)

	sent := seedMessages(t, repo, conv.ID, alice.ID, 3)

	msgs, err := repo.ListAllOrdered(t.Context(), conv.ID)
	require.NoError(t, err)
	// Açılış sistem mesajı + 3 — eskiden yeniye
	require.Len(t, msgs, 4)
	assert.Equal(t, models.SystemSenderID, msgs[0].SenderID)
	assert.Equal(t, sent[0].ID, msgs[1].ID)
	assert.Equal(t, sent[2].ID, msgs[3].ID)
}

func TestMessageRepo_ListByConversation(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	conv := createDirectConversation(t, db, alice, bob)
	repo := NewSQLiteMessageRepo(db)

	sent := seedMessages(t, repo, conv.ID, alice.ID, 5)

	t.Run("newest first without cursor", func(t *testing.T) {
		msgs, err := repo.ListByConversation(t.Context(), conv.ID, "", 3)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, sent[4].ID, msgs[0].ID)
		assert.Equal(t, sent[3].ID, msgs[1].ID)
		assert.Equal(t, sent[2].ID, msgs[2].ID)
	})

	t.Run("cursor continues before given message", func(t *testing.T) {
		msgs, err := repo.ListByConversation(t.Context(), conv.ID, sent[2].ID, 10)
		require.NoError(t, err)
		// sent[1], sent[0] ve açılış sistem mesajı
		require.Len(t, msgs, 3)
		assert.Equal(t, sent[1].ID, msgs[0].ID)
		assert.Equal(t, sent[0].ID, msgs[1].ID)
		assert.Equal(t, models.SystemSenderID, msgs[2].SenderID)
	})

	t.Run("sad path - unknown cursor is rejected", func(t *testing.T) {
		_, err := repo.ListByConversation(t.Context(), conv.ID, "missing-cursor", 10)
		require.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("sad path - cursor from another conversation is rejected", func(t *testing.T) {
		carol := createTestUser(t, db, "carol-cursor")
		other := createDirectConversation(t, db, alice, carol)
		foreign, err := repo.ListAllOrdered(t.Context(), other.ID)
		require.NoError(t, err)
		require.NotEmpty(t, foreign)

		_, err = repo.ListByConversation(t.Context(), conv.ID, foreign[0].ID, 10)
		require.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("other conversation is isolated", func(t *testing.T) {
		carol := createTestUser(t, db, "carol")
		other := createDirectConversation(t, db, alice, carol)

		msgs, err := repo.ListByConversation(t.Context(), other.ID, "", 50)
		require.NoError(t, err)
		require.Len(t, msgs, 1) // sadece açılış mesajı
	})
}

func TestMessageRepo_GetReadsByMessageIDs(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	conv := createDirectConversation(t, db, alice, bob)
	msgRepo := NewSQLiteMessageRepo(db)
	readRepo := NewSQLiteReadRepo(db)

	msg := &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Text: "selam"}
	require.NoError(t, msgRepo.Create(t.Context(), msg))
	require.NoError(t, readRepo.MarkRead(t.Context(), conv.ID, msg.ID, bob.ID))

	reads, err := msgRepo.GetReadsByMessageIDs(t.Context(), []string{msg.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, reads[msg.ID])

	empty, err := msgRepo.GetReadsByMessageIDs(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
