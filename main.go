// Package main, bostan chat backend'inin giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'larla)
//  3. Repository'leri oluştur
//  4. WebSocket Hub'ı başlat
//  5. Service'leri oluştur
//  6. Handler'ları ve middleware'ı oluştur
//  7. HTTP router'ı kur, CORS yapılandır
//  8. Server'ı başlat, graceful shutdown
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanır.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/eakyurek/bostan/config"
	"github.com/eakyurek/bostan/database"
	"github.com/eakyurek/bostan/handlers"
	"github.com/eakyurek/bostan/middleware"
	"github.com/eakyurek/bostan/pkg/email"
	"github.com/eakyurek/bostan/pkg/ratelimit"
	"github.com/eakyurek/bostan/repository"
	"github.com/eakyurek/bostan/services"
	"github.com/eakyurek/bostan/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] bostan server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to load embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	sessionRepo := repository.NewSQLiteSessionRepo(db.Conn)
	resetTokenRepo := repository.NewSQLiteResetTokenRepo(db.Conn)
	convRepo := repository.NewSQLiteConversationRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	readRepo := repository.NewSQLiteReadRepo(db.Conn)

	// ─── 4. WebSocket Hub ───
	hub := ws.NewHub()
	go hub.Run()

	// ─── 5. Service Layer ───
	authService := services.NewAuthService(
		userRepo,
		sessionRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Email yapılandırılmamışsa reset mailleri sessizce atlanır —
	// development'ta RESEND_API_KEY zorunlu değil.
	var sender email.EmailSender
	if cfg.Email.APIKey != "" {
		sender = email.NewResendSender(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.AppURL)
	} else {
		log.Println("[main] RESEND_API_KEY not set, password reset emails disabled")
	}
	resetService := services.NewPasswordResetService(userRepo, resetTokenRepo, sessionRepo, sender)

	syncService := services.NewSyncService(convRepo, messageRepo)
	chatService := services.NewChatService(convRepo, userRepo, syncService)
	messageService := services.NewMessageService(messageRepo, convRepo, syncService)
	readService := services.NewReadService(readRepo, convRepo, syncService)

	// ─── 6. Rate Limiters ───
	loginLimiter := ratelimit.NewLoginRateLimiter(5, 2*time.Minute)
	messageLimiter := ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)

	// ─── 7. Handler Layer ───
	authHandler := handlers.NewAuthHandler(authService, resetService, loginLimiter)
	convHandler := handlers.NewConversationHandler(chatService, readService)
	messageHandler := handlers.NewMessageHandler(messageService, readService, messageLimiter)
	wsHandler := ws.NewHandler(hub, authService, syncService)

	// ─── 8. Middleware ───
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── 9. HTTP Router ───
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"bostan"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.ResetPassword)

	// Protected endpoint'ler — authMiddleware.Require() sarar
	mux.Handle("GET /api/users/me", authMiddleware.Require(http.HandlerFunc(authHandler.Me)))

	// Conversations
	//
	// "unread" route'u "{id}" route'undan daha spesifiktir — Go 1.22 mux
	// en spesifik pattern'i seçer, çakışma olmaz.
	mux.Handle("POST /api/conversations", authMiddleware.Require(
		http.HandlerFunc(convHandler.Create)))
	mux.Handle("GET /api/conversations", authMiddleware.Require(
		http.HandlerFunc(convHandler.List)))
	mux.Handle("GET /api/conversations/unread", authMiddleware.Require(
		http.HandlerFunc(convHandler.Unread)))
	mux.Handle("GET /api/conversations/{id}", authMiddleware.Require(
		http.HandlerFunc(convHandler.Get)))

	// Messages
	mux.Handle("GET /api/conversations/{id}/messages", authMiddleware.Require(
		http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /api/conversations/{id}/messages", authMiddleware.Require(
		http.HandlerFunc(messageHandler.Send)))
	mux.Handle("POST /api/conversations/{id}/messages/{messageId}/read", authMiddleware.Require(
		http.HandlerFunc(messageHandler.MarkRead)))

	// WebSocket — token query parameter ile authenticate edilir.
	// WebSocket upgrade sırasında tarayıcılar custom header gönderemez,
	// bu yüzden JWT query'de taşınır: ws://server/ws?token=JWT
	mux.HandleFunc("GET /ws", wsHandler.HandleConnection)

	// ─── 10. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := corsHandler.Handler(mux)

	// ─── 11. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 12. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WebSocket bağlantıları kapanır, sonra HTTP server yeni request
	// kabul etmeyi durdurur ve mevcutların bitmesini bekler (5sn timeout).
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
