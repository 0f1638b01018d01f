package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/pkg"
)

func waitConversations(t *testing.T, ch <-chan []models.Conversation) []models.Conversation {
	t.Helper()
	select {
	case snapshot := <-ch:
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for conversation snapshot")
		return nil
	}
}

func waitMessages(t *testing.T, ch <-chan []models.Message) []models.Message {
	t.Helper()
	select {
	case snapshot := <-ch:
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message snapshot")
		return nil
	}
}

func TestSyncService_SubscribeConversations(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "")
	bob := env.register(t, "bob", "")

	conv, err := env.chat.ResolveOrCreate(t.Context(), alice.ID, bob.ID)
	require.NoError(t, err)

	ch, cancel, err := env.sync.SubscribeConversations(t.Context(), alice.ID)
	require.NoError(t, err)
	defer cancel()

	t.Run("initial snapshot reflects current state", func(t *testing.T) {
		snapshot := waitConversations(t, ch)
		require.Len(t, snapshot, 1)
		assert.Equal(t, conv.ID, snapshot[0].ID)
	})

	t.Run("new conversation pushes fresh snapshot", func(t *testing.T) {
		carol := env.register(t, "carol", "")
		_, err := env.chat.ResolveOrCreate(t.Context(), alice.ID, carol.ID)
		require.NoError(t, err)

		snapshot := waitConversations(t, ch)
		assert.Len(t, snapshot, 2)
	})

	t.Run("new message resorts the list", func(t *testing.T) {
		time.Sleep(2 * time.Millisecond)
		_, err := env.messages.Send(t.Context(), bob.ID, conv.ID, &models.SendMessageRequest{Text: "selam"})
		require.NoError(t, err)

		snapshot := waitConversations(t, ch)
		require.NotEmpty(t, snapshot)
		assert.Equal(t, conv.ID, snapshot[0].ID)
		require.NotNil(t, snapshot[0].LastMessage)
		assert.Equal(t, "selam", snapshot[0].LastMessage.Text)
	})
}

func TestSyncService_SubscribeMessages(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "")
	bob := env.register(t, "bob", "")
	carol := env.register(t, "carol", "")

	conv, err := env.chat.ResolveOrCreate(t.Context(), alice.ID, bob.ID)
	require.NoError(t, err)

	t.Run("sad path - unknown conversation", func(t *testing.T) {
		_, _, err := env.sync.SubscribeMessages(t.Context(), alice.ID, "missing")
		require.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("sad path - non-member forbidden", func(t *testing.T) {
		_, _, err := env.sync.SubscribeMessages(t.Context(), carol.ID, conv.ID)
		require.ErrorIs(t, err, pkg.ErrForbidden)
	})

	t.Run("snapshot flow", func(t *testing.T) {
		ch, cancel, err := env.sync.SubscribeMessages(t.Context(), alice.ID, conv.ID)
		require.NoError(t, err)
		defer cancel()

		// İlk teslimat: açılış sistem mesajını içeren tam stream
		snapshot := waitMessages(t, ch)
		require.Len(t, snapshot, 1)
		assert.Equal(t, models.SystemSenderID, snapshot[0].SenderID)

		// Yeni mesaj → güncel snapshot
		msg, err := env.messages.Send(t.Context(), bob.ID, conv.ID, &models.SendMessageRequest{Text: "selam"})
		require.NoError(t, err)

		snapshot = waitMessages(t, ch)
		require.Len(t, snapshot, 2)
		assert.Equal(t, msg.ID, snapshot[1].ID)

		// Okundu işareti → readBy güncellenmiş snapshot
		require.NoError(t, env.reads.MarkRead(t.Context(), alice.ID, conv.ID, msg.ID))

		snapshot = waitMessages(t, ch)
		require.Len(t, snapshot, 2)
		assert.ElementsMatch(t, []string{alice.ID, bob.ID}, snapshot[1].ReadBy)
	})

	t.Run("new subscriber does not re-notify existing ones", func(t *testing.T) {
		chAlice, cancelAlice, err := env.sync.SubscribeMessages(t.Context(), alice.ID, conv.ID)
		require.NoError(t, err)
		defer cancelAlice()
		waitMessages(t, chAlice)

		// İkinci aboneliğin ilk teslimatı yalnızca kendisine gider
		chBob, cancelBob, err := env.sync.SubscribeMessages(t.Context(), bob.ID, conv.ID)
		require.NoError(t, err)
		defer cancelBob()
		waitMessages(t, chBob)

		select {
		case snapshot := <-chAlice:
			t.Fatalf("existing subscriber re-notified with %d messages", len(snapshot))
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		ch, cancel, err := env.sync.SubscribeMessages(t.Context(), bob.ID, conv.ID)
		require.NoError(t, err)

		// İlk snapshot'ı tüket, sonra kapat
		waitMessages(t, ch)
		cancel()
		cancel()

		_, ok := <-ch
		assert.False(t, ok)
	})
}
