package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dineshmedisetty/collaborative-canvas/internal/api"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/collaboration"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/config"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/db"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/registry"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/repository"
	"github.com/Dineshmedisetty/collaborative-canvas/internal/telemetry"
)

func main() {
	log.Println("🚀 Starting Collaborative Canvas server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Initialize Jaeger tracing first so everything downstream is traced
	jaegerShutdown, err := telemetry.InitJaeger("collaborative-canvas", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	// Initialize GORM database
	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Persistence gateway + room registry with the dirty-room save loop
	snapshotRepo := repository.NewRoomSnapshotRepository(database.DB)
	rooms := registry.NewRegistry(snapshotRepo, cfg.MaxHistory)
	rooms.StartSaveLoop(cfg.SaveInterval)

	// Optional Redis relay for multi-instance deployments
	var relay *collaboration.RedisRelay
	if cfg.RedisAddr != "" {
		relay, err = collaboration.NewRedisRelay(cfg.RedisAddr)
		if err != nil {
			log.Printf("⚠️  Failed to connect Redis relay: %v (continuing single-instance)", err)
			relay = nil
		}
	}

	// Session manager (broadcaster) and WebSocket handler
	sessionManager := collaboration.NewSessionManager(relay)
	sessionManager.Start()
	wsHandler := collaboration.NewWebSocketHandler(sessionManager, rooms)

	// HTTP handlers and routes
	handler := api.NewHandler(rooms, snapshotRepo, wsHandler, sessionManager)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 Endpoints:")
		log.Printf("   GET /api/rooms      - List live rooms")
		log.Printf("   GET /api/rooms/:id  - Room history snapshot")
		log.Printf("   GET /api/health     - Health check")
		log.Printf("   WS  /ws             - Canvas session")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Close live connections, then flush every dirty room. Connection
	// teardown runs first so disconnect handling records its final
	// state before the flush.
	sessionManager.Shutdown()
	rooms.Shutdown(ctx)

	log.Println("✓ Server shutdown complete")
}
