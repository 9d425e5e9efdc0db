package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/starkbot/console/internal/backend"
	"github.com/starkbot/console/internal/chat/session"
	"github.com/starkbot/console/internal/common/config"
	"github.com/starkbot/console/internal/common/logger"
	consoleapi "github.com/starkbot/console/internal/console/api"
	"github.com/starkbot/console/internal/gateway/transport"
	"github.com/starkbot/console/internal/history"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting Starkbot console...")

	// 3. Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Open the transcript store
	var store history.Store
	if cfg.History.Path != "" {
		store, err = history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			log.Fatal("Failed to open transcript store", zap.Error(err))
		}
	} else {
		store = history.NewMemoryStore(cfg.History.MaxPerSession)
	}
	defer store.Close()

	// 5. Build the backend REST client
	restClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token, cfg.Backend.TimeoutDuration())

	// 6. Assemble the session monitor
	monitor := session.NewMonitor(restClient, store, log)
	defer monitor.Close()

	// 7. Connect to the gateway; every (re)connect resyncs the monitor
	conn := transport.NewConn(transport.Config{
		URL:              cfg.Gateway.URL,
		Token:            cfg.Backend.Token,
		HandshakeTimeout: cfg.Gateway.HandshakeTimeoutDuration(),
		PingInterval:     cfg.Gateway.PingIntervalDuration(),
		ReconnectMin:     cfg.Gateway.ReconnectMinDuration(),
		ReconnectMax:     cfg.Gateway.ReconnectMaxDuration(),
	}, monitor, log)
	conn.OnConnect(monitor.Reconcile)
	conn.Connect(ctx)
	defer conn.Disconnect()

	// 8. Setup the local HTTP API
	engine := consoleapi.NewServer(monitor, conn, restClient, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// 9. Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 10. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down console...")

	// 11. Graceful shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Console stopped")
}
