package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/browser"
	"github.com/soslookup/ilsos-api/internal/captcha"
	"github.com/soslookup/ilsos-api/internal/config"
	"github.com/soslookup/ilsos-api/internal/models"
)

// Scraper sequences the full run: bootstrap an authenticated session, replay
// it as a search and a detail request, and extract the business record.
// Every failure mode collapses into a single tagged ScrapeResult; no step is
// retried.
type Scraper struct {
	bootstrapper *Bootstrapper
	client       *Client
	extractor    *Extractor
	diag         *Diagnostics
	logger       *logrus.Logger
}

// New wires a production scraper: Chrome sessions, the configured solving
// service, and the logs-directory diagnostics sink.
func New(cfg *config.Config, logger *logrus.Logger) *Scraper {
	diag := NewDiagnostics(cfg.Scraper.LogsDir, logger)
	solver := captcha.NewClient(cfg.Captcha, logger)
	sessions := browser.NewChromeFactory(cfg.Browser, logger)

	return &Scraper{
		bootstrapper: NewBootstrapper(cfg.Scraper, sessions, solver, diag, logger),
		client:       NewClient(cfg.Scraper, logger),
		extractor:    NewExtractor(logger),
		diag:         diag,
		logger:       logger,
	}
}

// Scrape retrieves one entity by file number. The returned result is always
// non-nil and terminal; errors are carried in its Error field.
func (s *Scraper) Scrape(ctx context.Context, fileNumber string) *models.ScrapeResult {
	log := s.logger.WithField("file_number", fileNumber)
	result := &models.ScrapeResult{FileNumber: fileNumber}

	log.Info("Starting scrape")

	// Stage 1: browser bootstrap.
	creds, err := s.bootstrapper.Bootstrap(ctx, fileNumber)
	if err != nil {
		log.WithError(err).Error("Session bootstrap failed")
		result.Error = fmt.Sprintf("Failed to solve captcha and extract cookies/headers: %v", err)
		return result
	}

	// Stage 2: search request.
	searchResp, err := s.client.Search(ctx, fileNumber, creds)
	if err != nil {
		log.WithError(err).Error("Search request failed")
		result.Error = s.requestError("Search", err)
		return result
	}
	if searchResp.StatusCode != http.StatusOK {
		s.diag.SaveResponse(fileNumber, "search_request", searchResp, true)
		result.Error = fmt.Sprintf("Search request failed with status: %d", searchResp.StatusCode)
		return result
	}

	// Stage 3: transaction id.
	ids, err := s.extractor.TransactionIDs(searchResp.Body)
	if err != nil || len(ids) == 0 {
		s.diag.SaveResponse(fileNumber, "search_parsing", searchResp, true)
		result.Error = "No transaction IDs found in search results"
		return result
	}
	result.TransactionID = ids[0]
	log.WithField("transaction_id", result.TransactionID).Info("Transaction id found")

	// Stage 4: detail request.
	detailResp, err := s.client.FetchDetail(ctx, result.TransactionID, creds)
	if err != nil {
		log.WithError(err).Error("Detail request failed")
		result.Error = s.requestError("Detail", err)
		return result
	}
	if detailResp.StatusCode != http.StatusOK {
		s.diag.SaveResponse(fileNumber, "detail_request", detailResp, true)
		result.Error = fmt.Sprintf("Detail request failed with status: %d", detailResp.StatusCode)
		return result
	}
	s.diag.SaveResponse(fileNumber, "detail_success", detailResp, false)

	// Stage 5: record extraction. An empty record is treated as a failure,
	// not as an entity with no data.
	record, err := s.extractor.BusinessRecord(detailResp.Body)
	if err != nil || len(record) == 0 {
		s.diag.SaveResponse(fileNumber, "detail_parsing", detailResp, true)
		result.Error = "No business details found in response"
		return result
	}

	result.Success = true
	result.Data = record
	log.WithFields(logrus.Fields{
		"fields":   len(record),
		"managers": len(record.Managers()),
	}).Info("Scrape completed")

	return result
}

// requestError renders a transport failure into the result message.
func (s *Scraper) requestError(stage string, err error) string {
	if errors.Is(err, ErrRequestTimeout) {
		return fmt.Sprintf("%s request timed out after %.0f seconds", stage, s.client.Timeout().Seconds())
	}
	return fmt.Sprintf("%s request failed: %v", stage, err)
}
