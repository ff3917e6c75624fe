package main

import (
	"fmt"
	"os"

	"github.com/medrates/pricing-backend/internal/db"
	"github.com/medrates/pricing-backend/internal/geo"
	"github.com/medrates/pricing-backend/internal/handlers"
	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/repos"
	"github.com/medrates/pricing-backend/internal/server"
	"github.com/medrates/pricing-backend/internal/services"
	"github.com/medrates/pricing-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres. Connectivity failure at startup is fatal.
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	searchRepo := repos.NewSearchRepo(thePG, log)

	// Geo
	resolver, err := geo.NewResolver()
	if err != nil {
		log.Error("Could not load ZIP coordinate table", "error", err)
		os.Exit(1)
	}
	log.Info("Loaded ZIP coordinate table", "zips", resolver.Size())

	// Services
	log.Info("Setting up services from main...")
	translator, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	searchService := services.NewSearchService(thePG, log, searchRepo, resolver)
	assistantService := services.NewAssistantService(thePG, log, translator)

	// Handlers
	log.Info("Setting up handlers from main...")
	providersHandler := handlers.NewProvidersHandler(log, searchService)
	askHandler := handlers.NewAskHandler(log, assistantService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ProvidersHandler: providersHandler,
		AskHandler:       askHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
