package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/models"
	"github.com/soslookup/ilsos-api/internal/services"
	"github.com/soslookup/ilsos-api/internal/utils"
)

// EntityHandler handles business entity lookup requests
type EntityHandler struct {
	scraper services.EntityScraper
	cache   *services.CacheService
	logger  *logrus.Logger
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(scraper services.EntityScraper, cache *services.CacheService, logger *logrus.Logger) *EntityHandler {
	return &EntityHandler{
		scraper: scraper,
		cache:   cache,
		logger:  logger,
	}
}

// GetEntity handles a single entity lookup
// @Summary Get business entity information
// @Description Retrieve detailed information about a business entity from the Illinois Secretary of State
// @Tags Entity
// @Accept json
// @Produce json
// @Param fileNumber path string true "Entity file number" example(09853537)
// @Success 200 {object} models.EntityResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /entity/{fileNumber} [get]
func (h *EntityHandler) GetEntity(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("request_id")

	fileNumber := utils.CleanFileNumber(c.Param("fileNumber"))
	if !utils.IsValidFileNumber(fileNumber) {
		h.logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"file_number": c.Param("fileNumber"),
		}).Warn("Invalid file number")

		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid file number",
			Message:   "File number must be a non-empty printable token",
			Code:      "INVALID_FILE_NUMBER",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	log := h.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"file_number": fileNumber,
	})

	// Cache check. Only successful results are cached, so a hit is final.
	if cached, err := h.cache.GetResult(c.Request.Context(), fileNumber); err == nil {
		log.Info("Entity served from cache")
		c.Header("X-Cache", "HIT")
		c.Header("Cache-Control", "public, max-age=3600")
		c.JSON(http.StatusOK, models.EntityResponse{
			ScrapeResult: *cached,
			Cache:        true,
			DurationMs:   time.Since(start).Milliseconds(),
		})
		return
	}

	log.Info("Processing entity lookup")

	result := h.scraper.Scrape(c.Request.Context(), fileNumber)
	if !result.Success {
		log.WithFields(logrus.Fields{
			"error":    result.Error,
			"duration": time.Since(start),
		}).Error("Entity lookup failed")

		h.writeScrapeError(c, result.Error)
		return
	}

	if err := h.cache.SetResult(c.Request.Context(), fileNumber, result); err != nil {
		log.WithError(err).Warn("Failed to cache entity result")
	}

	duration := time.Since(start)
	log.WithField("duration", duration).Info("Entity lookup completed")

	c.Header("X-Cache", "MISS")
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, models.EntityResponse{
		ScrapeResult: *result,
		Cache:        false,
		DurationMs:   duration.Milliseconds(),
	})
}

// writeScrapeError maps a scrape error message to an HTTP status.
func (h *EntityHandler) writeScrapeError(c *gin.Context, message string) {
	switch {
	case strings.Contains(message, "No transaction IDs found"):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:     "Entity not found",
			Message:   "No entity matched the requested file number",
			Code:      "ENTITY_NOT_FOUND",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	case strings.Contains(message, "timed out"):
		c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error:     "Upstream timeout",
			Message:   "The search portal took too long to respond. Please try again later",
			Code:      "UPSTREAM_TIMEOUT",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	case strings.Contains(message, "captcha"):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:     "Captcha service unavailable",
			Message:   "Unable to establish an authenticated session. Please try again later",
			Code:      "CAPTCHA_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	default:
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:     "Upstream error",
			Message:   message,
			Code:      "UPSTREAM_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
	}
}
