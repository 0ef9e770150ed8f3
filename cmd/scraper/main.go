package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/soslookup/ilsos-api/internal/config"
	"github.com/soslookup/ilsos-api/internal/logger"
	"github.com/soslookup/ilsos-api/internal/models"
	"github.com/soslookup/ilsos-api/internal/scraper"
	"github.com/soslookup/ilsos-api/internal/utils"
)

const defaultFileNumber = "09853537"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.Log.Level, cfg.Log.Format)

	fileNumber := resolveFileNumber()
	if !utils.IsValidFileNumber(fileNumber) {
		logger.Fatalf("Invalid file number: %q", fileNumber)
	}

	requestID := os.Getenv("REQUEST_ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	log := logger.WithField("request_id", requestID)
	log.WithField("file_number", fileNumber).Info("Starting entity scrape")

	result := scraper.New(cfg, logger).Scrape(context.Background(), fileNumber)
	if result.Success {
		log.Info("Scrape succeeded")
	} else {
		log.WithField("error", result.Error).Warn("Scrape failed")
	}

	report := models.NewReport(requestID, result)

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatalf("Failed to encode report: %v", err)
	}

	// The marker block lets a CI wrapper capture the payload from stdout.
	fmt.Println("=== PROCESSED_DATA_JSON_START ===")
	fmt.Println(string(raw))
	fmt.Println("=== PROCESSED_DATA_JSON_END ===")

	reportPath := fmt.Sprintf("processed_data_%s.json", requestID)
	if err := os.WriteFile(reportPath, raw, 0o644); err != nil {
		// A failed scrape still exits zero; only losing the report is fatal.
		logger.Fatalf("Failed to write report %s: %v", reportPath, err)
	}

	log.WithField("report", reportPath).Info("Report written")
}

// resolveFileNumber picks the identifier: positional argument, FILE_NUMBER
// env, then the built-in default.
func resolveFileNumber() string {
	if len(os.Args) > 1 {
		return utils.CleanFileNumber(os.Args[1])
	}
	if env := os.Getenv("FILE_NUMBER"); env != "" {
		return utils.CleanFileNumber(env)
	}
	return defaultFileNumber
}
