package repository

import (
	"database/sql"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eakyurek/bostan/database"
	"github.com/eakyurek/bostan/models"
)

// newTestDB, her test için taze bir in-memory SQLite açar ve embedded
// migration'ları uygular. Testler gerçek şema üzerinde çalışır — mock yok.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(":memory:", migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db.Conn
}

// createTestUser, FK constraint'leri için gerçek bir users satırı oluşturur.
func createTestUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		PasswordHash: "$2a$12$testhash",
	}
	require.NoError(t, NewSQLiteUserRepo(db).Create(t.Context(), user))
	return user
}

// createDirectConversation, iki kullanıcı arasında kanonik ID'li direct
// konuşma açar.
func createDirectConversation(t *testing.T, db *sql.DB, a, b *models.User) *models.Conversation {
	t.Helper()

	conv := &models.Conversation{
		ID:      models.CanonicalDirectID(a.ID, b.ID),
		Kind:    models.ConversationDirect,
		Members: []string{a.ID, b.ID},
	}
	created, err := NewSQLiteConversationRepo(db).CreateIfAbsent(t.Context(), conv)
	require.NoError(t, err)
	require.True(t, created)
	return conv
}
