package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
)

func TestConversationRepo_CreateIfAbsent(t *testing.T) {
	t.Run("happy path - creates and seeds system message", func(t *testing.T) {
		db := newTestDB(t)
		alice := createTestUser(t, db, "alice")
		bob := createTestUser(t, db, "bob")

		conv := createDirectConversation(t, db, alice, bob)

		assert.Equal(t, models.CanonicalDirectID(alice.ID, bob.ID), conv.ID)
		require.NotNil(t, conv.LastMessage)
		assert.Equal(t, models.ChatStartedText, conv.LastMessage.Text)
		assert.Equal(t, models.SystemSenderID, conv.LastMessage.SenderID)

		// Açılış mesajı stream'de gerçekten var
		msgs, err := NewSQLiteMessageRepo(db).ListAllOrdered(t.Context(), conv.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, models.SystemSenderID, msgs[0].SenderID)
		assert.Equal(t, models.ChatStartedText, msgs[0].Text)
	})

	t.Run("second create is a no-op", func(t *testing.T) {
		db := newTestDB(t)
		alice := createTestUser(t, db, "alice")
		bob := createTestUser(t, db, "bob")
		repo := NewSQLiteConversationRepo(db)

		first := createDirectConversation(t, db, alice, bob)

		// Aynı çift, ters sıra — kanonik ID aynı, yaratma no-op
		dup := &models.Conversation{
			ID:      models.CanonicalDirectID(bob.ID, alice.ID),
			Kind:    models.ConversationDirect,
			Members: []string{bob.ID, alice.ID},
		}
		created, err := repo.CreateIfAbsent(t.Context(), dup)
		require.NoError(t, err)
		assert.False(t, created)

		// Mevcut kayıt dokunulmadan durur — üye sırası İLK çağrınınki
		got, err := repo.GetByID(t.Context(), first.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID, bob.ID}, got.Members)

		// İkinci bir açılış mesajı eklenmemiş
		msgs, err := NewSQLiteMessageRepo(db).ListAllOrdered(t.Context(), first.ID)
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
	})
}

func TestConversationRepo_CreateGroup(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	repo := NewSQLiteConversationRepo(db)

	name := "bahçe nöbeti"
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Kind:      models.ConversationGroup,
		GroupName: &name,
		Members:   []string{carol.ID, alice.ID, bob.ID},
	}
	require.NoError(t, repo.CreateGroup(t.Context(), conv))

	got, err := repo.GetByID(t.Context(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationGroup, got.Kind)
	require.NotNil(t, got.GroupName)
	assert.Equal(t, name, *got.GroupName)
	// Üye sırası çağrıdaki orijinal sıradır
	assert.Equal(t, []string{carol.ID, alice.ID, bob.ID}, got.Members)
}

func TestConversationRepo_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewSQLiteConversationRepo(db).GetByID(t.Context(), "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestConversationRepo_ListByUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	repo := NewSQLiteConversationRepo(db)

	convAB := createDirectConversation(t, db, alice, bob)
	time.Sleep(5 * time.Millisecond)
	convAC := createDirectConversation(t, db, alice, carol)

	t.Run("ordered by last activity desc", func(t *testing.T) {
		list, err := repo.ListByUser(t.Context(), alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, convAC.ID, list[0].ID)
		assert.Equal(t, convAB.ID, list[1].ID)
	})

	t.Run("new message bumps conversation to top", func(t *testing.T) {
		time.Sleep(5 * time.Millisecond)
		msg := &models.Message{ConversationID: convAB.ID, SenderID: bob.ID, Text: "merhaba"}
		require.NoError(t, NewSQLiteMessageRepo(db).Create(t.Context(), msg))
		require.NoError(t, repo.TouchLastMessage(t.Context(), convAB.ID, &models.LastMessage{
			Text: msg.Text, SenderID: msg.SenderID, CreatedAt: msg.CreatedAt,
		}))

		list, err := repo.ListByUser(t.Context(), alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, convAB.ID, list[0].ID)
		require.NotNil(t, list[0].LastMessage)
		assert.Equal(t, "merhaba", list[0].LastMessage.Text)
	})

	t.Run("non-member sees nothing", func(t *testing.T) {
		list, err := repo.ListByUser(t.Context(), "stranger")
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.NotNil(t, list)
	})
}

func TestConversationRepo_IsMember(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	repo := NewSQLiteConversationRepo(db)

	conv := createDirectConversation(t, db, alice, bob)

	ok, err := repo.IsMember(t.Context(), conv.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMember(t.Context(), conv.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConversationRepo_TouchLastMessage_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := NewSQLiteConversationRepo(db).TouchLastMessage(t.Context(), "missing", &models.LastMessage{
		Text: "x", SenderID: "y", CreatedAt: time.Now(),
	})
	require.ErrorIs(t, err, pkg.ErrNotFound)
}
