package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"support-chat-be/internal/bootstrap"
	"support-chat-be/internal/config"
	"support-chat-be/internal/server"
	"support-chat-be/internal/tracer"
	"support-chat-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 1. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 2. Configuration
	cfg := config.Load()

	// 3. Database (optional; the in-memory store takes over without one)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 4. Dependency graph
	container := bootstrap.NewContainer(gormDB, cfg)

	// 5. Serve until interrupted
	srv := server.New(cfg, container)
	go func() {
		if err := srv.Run(); err != nil {
			log.Panicf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := srv.GetApp().ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Warn: Server shutdown error: %v", err)
	}
	container.Shutdown()
}
