package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"whisperwall/auth"
	"whisperwall/domain/event"
	"whisperwall/infrastructure/grpc/server"
	"whisperwall/infrastructure/http/router"
	"whisperwall/infrastructure/websocket"
	"whisperwall/internal"
	"whisperwall/moderation"
	"whisperwall/repositories"
	"whisperwall/runtime"
	"whisperwall/runtime/workers"
	"whisperwall/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, serves until a signal or a listener
// failure, then shuts everything down. Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	contentFilter, err := moderation.NewContentFilter(logger, config.MaxContentLength)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderation policy loading failed: %w", err)
	}

	// 3. Relay, supervision & orchestration
	telemetryChan := make(chan event.Event, config.BufferSize)
	indexChan := make(chan event.Event, config.BufferSize)
	sup := workers.NewSupervisor(logger, telemetryChan, config.RestartInterval)
	relay := runtime.NewRelay(logger, telemetryChan, config.BufferSize)
	orchestrator := runtime.NewOrchestrator(logger, sup, relay, telemetryChan,
		config.MetricInterval, config.LatencyThreshold, config.LowCapacityThreshold)

	conversationRepository := repositories.NewConversationRepository(db, logger, &config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)
	postRepository := repositories.NewPostRepository(db)
	postIndex := repositories.NewPostIndex(blugeWriter, logger)

	healthServer := health.NewServer()
	orchestrator.Add(
		workers.NewIndexWorker(postIndex, indexChan, logger),
		server.NewHealthWorker(logger, healthServer, relay, config.HealthInterval),
	)

	if config.DebugPort != 0 {
		internal.StartDebugServer(ctx, logger, db, config.DebugPort, func() map[string]any {
			stats := make(map[string]any)
			for t, n := range orchestrator.Counter().Snapshot() {
				stats[string(t)] = n
			}
			return stats
		})
	}

	// 4. Services
	tokens := auth.NewTokenManager([]byte(config.AuthSecret), config.AuthTokenDuration)
	chatService := services.NewChatService(logger, relay, conversationRepository, telemetryChan, config.StoreWriteTimeout)
	feedService := services.NewFeedService(logger, contentFilter, postRepository, postIndex, indexChan)
	authService := services.NewAuthService(userRepository, tokens)

	errChan := make(chan error, 2)
	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		logger.Info("Starting orchestrator...")
		orchestrator.Start(ctx)
	}()

	// 5. HTTP API & websocket
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	router.SetupRoutes(engine, router.Dependencies{
		Log:       logger,
		Auth:      authService,
		Feed:      feedService,
		Chat:      chatService,
		Tokens:    tokens,
		Websocket: websocket.NewHandler(logger, chatService, tokens, config.ConnectionBufferSize),
	})
	httpServer := &http.Server{
		Addr:              config.HTTPAddress(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. gRPC health
	listener, err := net.Listen("tcp", config.GRPCAddress())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.GRPCAddress(), err)
	}
	grpcServer := server.NewServer(logger, healthServer)
	go func() {
		logger.Info("Starting gRPC server", "address", listener.Addr().String(), "at", time.Now().UTC())
		for serviceName := range grpcServer.GetServiceInfo() {
			logger.Debug("📡 gRPC exposed services", "name", serviceName)
		}
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	exitCode, runErr := exitOK, error(nil)
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		exitCode = exitRuntime
	}

	// 8. Graceful shutdown: listeners first, then the relay, then pending durable writes.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.StoreWriteTimeout+5*time.Second)
	defer cancel()
	stop()
	healthServer.Shutdown()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	orchestrator.Stop()
	<-orchestratorDone
	chatService.Wait()
	logger.Info("Program stopped cleanly")

	return exitCode, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
