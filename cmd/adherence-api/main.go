package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adherence-tracker/internal/adherence"
	"adherence-tracker/internal/config"
	"adherence-tracker/internal/database"
	"adherence-tracker/internal/httpapi"
	"adherence-tracker/internal/planimport"
	"adherence-tracker/internal/regimen"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize the SQLite database
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 3. Initialize repositories
	clientRepo := regimen.NewClientRepository(db.SQL)
	regimenRepo := regimen.NewRepository(db.SQL)
	completionRepo := regimen.NewCompletionRepository(db.SQL)

	// 4. Initialize services
	svc := adherence.NewService(clientRepo, regimenRepo, completionRepo, cfg.Location)
	calendar := adherence.NewCachedCalendar(svc, 5*time.Minute)
	importer := planimport.NewImporter()

	// 5. Initialize HTTP API
	server := httpapi.NewServer(calendar, clientRepo, regimenRepo, completionRepo, importer, cfg.JWTSecret)

	mux := http.NewServeMux()
	server.RegisterHandlers(mux)

	// 6. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		log.Printf("Adherence API listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
