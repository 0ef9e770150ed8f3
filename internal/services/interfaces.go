package services

import (
	"context"

	"github.com/soslookup/ilsos-api/internal/models"
)

// EntityScraper retrieves one business entity by file number. Satisfied by
// scraper.Scraper; handlers depend on this so tests can substitute a fake.
type EntityScraper interface {
	Scrape(ctx context.Context, fileNumber string) *models.ScrapeResult
}
