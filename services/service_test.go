package services

import (
	"database/sql"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eakyurek/bostan/database"
	"github.com/eakyurek/bostan/models"
	"github.com/eakyurek/bostan/repository"
)

// testEnv, servis testleri için gerçek in-memory SQLite üzerine kurulu tam
// bir servis katmanı sağlar. Repository mock'lanmaz — testler yazma
// sırası, idempotans ve snapshot yayını gibi davranışları uçtan uca görür.
type testEnv struct {
	db *sql.DB

	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokenRepo   repository.ResetTokenRepository
	convRepo    repository.ConversationRepository
	msgRepo     repository.MessageRepository
	readRepo    repository.ReadRepository

	auth     AuthService
	sync     SyncService
	chat     ChatService
	messages MessageService
	reads    ReadService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	require.NoError(t, err)

	db, err := database.New(":memory:", migrationsFS)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:          db.Conn,
		userRepo:    repository.NewSQLiteUserRepo(db.Conn),
		sessionRepo: repository.NewSQLiteSessionRepo(db.Conn),
		tokenRepo:   repository.NewSQLiteResetTokenRepo(db.Conn),
		convRepo:    repository.NewSQLiteConversationRepo(db.Conn),
		msgRepo:     repository.NewSQLiteMessageRepo(db.Conn),
		readRepo:    repository.NewSQLiteReadRepo(db.Conn),
	}

	env.auth = NewAuthService(env.userRepo, env.sessionRepo, "test-secret", 15, 7)
	env.sync = NewSyncService(env.convRepo, env.msgRepo)
	env.chat = NewChatService(env.convRepo, env.userRepo, env.sync)
	env.messages = NewMessageService(env.msgRepo, env.convRepo, env.sync)
	env.reads = NewReadService(env.readRepo, env.convRepo, env.sync)

	return env
}

// register, gerçek kayıt akışıyla kullanıcı oluşturur ve döner.
func (e *testEnv) register(t *testing.T, username, emailAddr string) *models.User {
	t.Helper()

	tokens, err := e.auth.Register(t.Context(), &models.CreateUserRequest{
		Username: username,
		Password: "sifre12345",
		Email:    emailAddr,
	})
	require.NoError(t, err)
	return &tokens.User
}
