package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeUnread(t *testing.T) {
	messages := []Message{
		{ID: "m1", SenderID: "alice", ReadBy: []string{"alice"}},
		{ID: "m2", SenderID: "alice", ReadBy: []string{"alice", "bob"}},
		{ID: "m3", SenderID: "bob", ReadBy: []string{"bob"}},
		{ID: "m4", SenderID: SystemSenderID, ReadBy: []string{SystemSenderID}},
	}

	t.Run("own messages never count", func(t *testing.T) {
		// alice için: m3 (bob'dan, okunmamış) + m4 (system) = 2
		assert.Equal(t, 2, ComputeUnread(messages, "alice"))
	})

	t.Run("read messages excluded", func(t *testing.T) {
		// bob için: m1 okunmamış, m2 okunmuş, m4 system okunmamış = 2
		assert.Equal(t, 2, ComputeUnread(messages, "bob"))
	})

	t.Run("third party sees everything unread", func(t *testing.T) {
		assert.Equal(t, 4, ComputeUnread(messages, "carol"))
	})

	t.Run("empty stream", func(t *testing.T) {
		assert.Equal(t, 0, ComputeUnread(nil, "alice"))
	})

	t.Run("marking read is monotonic", func(t *testing.T) {
		msgs := []Message{
			{ID: "m1", SenderID: "alice", ReadBy: []string{"alice"}},
		}
		assert.Equal(t, 1, ComputeUnread(msgs, "bob"))

		msgs[0].ReadBy = append(msgs[0].ReadBy, "bob")
		assert.Equal(t, 0, ComputeUnread(msgs, "bob"))

		// Tekrar işaretleme sayacı değiştirmez
		msgs[0].ReadBy = append(msgs[0].ReadBy, "bob")
		assert.Equal(t, 0, ComputeUnread(msgs, "bob"))
	})
}
