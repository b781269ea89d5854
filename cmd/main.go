package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-lab/auth"
	"social-lab/cryptobox"
	"social-lab/geo"
	"social-lab/httpapi"
	"social-lab/moderation"
	"social-lab/notify"
	"social-lab/presence"
	"social-lab/reputation"
	"social-lab/repositories"
	"social-lab/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database cleanup included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)
	auth.SetSigningKey(config.JWTSigningKey)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Crypto & moderation
	box, err := cryptobox.New(config.EncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption setup failed: %w", err)
	}
	censorChar := '*'
	if r := []rune(config.CensorChar); len(r) == 1 {
		censorChar = r[0]
	}
	censoredWords := config.CensoredWords
	if len(censoredWords) == 0 {
		dict, err := moderation.LoadEmbeddedDictionaries()
		if err != nil {
			return fmt.Errorf("loading dictionaries failed: %w", err)
		}
		log.Info(fmt.Sprintf("%d unique censored words loaded", len(dict.Words)),
			"languages", dict.Languages)
		censoredWords = dict.Words
	}
	filter, err := moderation.NewFilter(censoredWords, censorChar)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	// 4. Collaborators
	var mailer notify.Mailer
	if config.MailerMode == "smtp" {
		mailer = notify.NewSMTPMailer(log, notify.SMTPConfig{
			Host:     config.SMTPHost,
			Port:     config.SMTPPort,
			Username: config.SMTPUsername,
			Password: config.SMTPPassword,
			From:     config.SMTPFrom,
			FromName: config.SMTPFromName,
		})
	} else {
		mailer = notify.NewLogMailer(log)
	}
	ipinfo := geo.NewIPInfoClient(log, config.IPInfoBaseURL, config.IPInfoToken)

	// 5. Repositories, registry & services
	users := repositories.NewUserRepository(db)
	conversations := repositories.NewConversationRepository(db)
	vpnLogs := repositories.NewVPNLogRepository(db)
	registry := presence.NewRegistry()

	authService := services.NewAuthService(log, users, mailer, ipinfo, config.SessionDuration)
	chatService := services.NewChatService(log, conversations, registry, box, filter)

	// 6. HTTP surface
	router := httpapi.NewRouter(
		httpapi.NewAuthHandlers(log, authService, config.SessionDuration),
		httpapi.NewChatHandlers(log, chatService),
		httpapi.NewVPNHandlers(log, vpnLogs),
		httpapi.NewWSHandler(log, registry, config.ConnectionBufferSize),
		reputation.NewAnnotator(log, ipinfo, vpnLogs),
	)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	// 7. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
