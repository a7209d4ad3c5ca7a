package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/infrastructure/http"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/relay"
	"chat-relay/repositories"
	"chat-relay/search"
	"chat-relay/services"
	"chat-relay/workers"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// All defers (database close, index flush) execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := config.CharacterRune()
	if err != nil {
		return exitConfig, err
	}

	logger := internal.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Search projection (Bluge)
	index, err := search.NewIndex(config.BlugeFilepath, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		logger.Info("Closing search index...")
		_ = index.Close()
	}()

	// 4. Moderation
	wordList, err := moderation.LoadWordList()
	if err != nil {
		return exitRuntime, fmt.Errorf("loading censored words: %w", err)
	}
	logger.Info("Moderation dictionaries loaded",
		"words", len(wordList.Words), "languages", wordList.Languages)

	moderator, err := moderation.NewModerator(wordList.Words, charReplacement, logger)
	if err != nil {
		return exitRuntime, err
	}

	// 5. Relay core
	connections := relay.NewConnectionRegistry()
	rooms := relay.NewRoomRegistry()
	presence := relay.NewPresenceBroadcaster(logger, connections, config.SinkTimeout)
	router := relay.NewMessageRouter(logger, connections, rooms, moderator, config.SinkTimeout)

	// 6. Directory & services
	directory := repositories.NewDirectory(db, logger)
	authService := services.NewAuthService(directory, config.AuthTokenDuration)
	messageService := services.NewMessageService(logger, directory, connections, moderator, index)

	// 7. Supervision
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(logger)
	sup.Add(workers.NewTelemetryWorker(logger, config.TelemetryInterval, connections))
	go sup.Run(ctx)

	// 8. HTTP & WebSocket surface
	wsController := ws.NewController(logger, connections, rooms, presence, router,
		config.ConnectionBufferSize)
	server := http.NewServer(logger, authService, messageService, connections, presence, wsController)
	engine := server.SetupRouter(ctx, config.Mode)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &nethttp.Server{Addr: address, Handler: engine}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting relay server", "address", address)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, nethttp.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 10. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
