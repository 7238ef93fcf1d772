package main

import (
	"context"
	"log"
	"os"

	"ai-pdf-tutor-be/internal/bootstrap"
	"ai-pdf-tutor-be/internal/config"
	"ai-pdf-tutor-be/internal/server"
	"ai-pdf-tutor-be/internal/tracer"
	"ai-pdf-tutor-be/pkg/database"
)

func main() {
	// 1. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 2. Load configuration
	cfg := config.Load()

	// 3. Initialize database
	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// Uploads land here before extraction
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		log.Panicf("Unable to create upload dir: %v", err)
	}

	// 4. Bootstrap dependencies
	container := bootstrap.NewContainer(gormDB, cfg)

	// 5. Start the extraction worker
	go func() {
		log.Println("Background: Starting extraction consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background consumer error: %v", err)
		}
	}()

	// 6. Run server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
