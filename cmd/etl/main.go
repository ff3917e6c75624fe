package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/medrates/pricing-backend/internal/db"
	"github.com/medrates/pricing-backend/internal/etl"
	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/repos"
	"github.com/medrates/pricing-backend/internal/utils"
)

func main() {
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

	defaultPath := utils.GetEnv("PRICING_CSV_PATH", "data/sample_prices_ny.csv", log)
	defaultChunk := utils.GetEnvAsInt("ETL_CHUNK_SIZE", etl.DefaultChunkSize, log)
	csvPath := flag.String("csv", defaultPath, "Path to the source CSV file")
	chunkSize := flag.Int("chunk-size", defaultChunk, "Rows per chunk")
	region := flag.String("region", etl.DefaultRegion, "Two-letter region code to ingest")
	flag.Parse()

	if _, err := os.Stat(*csvPath); err != nil {
		log.Error("Source CSV not found", "csv_path", *csvPath, "error", err)
		os.Exit(1)
	}

	// Store connectivity failure aborts the run before anything streams.
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

	providerRepo := repos.NewProviderRepo(thePG, log)
	procedureRepo := repos.NewProcedureRepo(thePG, log)
	providerProcedureRepo := repos.NewProviderProcedureRepo(thePG, log)
	ratingRepo := repos.NewRatingRepo(thePG, log)

	runner := etl.NewRunner(
		thePG,
		log,
		providerRepo,
		procedureRepo,
		providerProcedureRepo,
		ratingRepo,
		*csvPath,
		*chunkSize,
		*region,
	)

	result, err := runner.Run(context.Background())
	if err != nil {
		log.Error("ETL run failed", "error", err)
		os.Exit(1)
	}
	log.Info("ETL finished",
		"processed", result.Processed,
		"errors", result.Errored,
		"chunks", result.Chunks,
		"duration", result.Duration.String(),
	)
}
