package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"publo-orchestrator/internal/bootstrap"
	"publo-orchestrator/internal/config"
	"publo-orchestrator/internal/server"
	"publo-orchestrator/internal/tracer"
	"publo-orchestrator/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Event Relay...")
		if err := container.RelayService.Consume(context.Background()); err != nil {
			log.Printf("Background Relay Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server, stopping cleanly on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		if err := srv.GetApp().Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
