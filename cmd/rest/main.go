package main

import (
	"context"
	"log"

	"ai-ereader-be/internal/bootstrap"
	"ai-ereader-be/internal/config"
	"ai-ereader-be/internal/server"
	"ai-ereader-be/internal/tracer"
	"ai-ereader-be/pkg/database"
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
	go func() {
		log.Println("Background: Starting Dispatch Service...")
		if err := container.DispatchService.Start(context.Background()); err != nil {
			log.Printf("Background Dispatch Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
