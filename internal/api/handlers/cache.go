package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/models"
	"github.com/soslookup/ilsos-api/internal/services"
	"github.com/soslookup/ilsos-api/internal/utils"
)

// CacheHandler handles cache management requests
type CacheHandler struct {
	cache  *services.CacheService
	logger *logrus.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cache *services.CacheService, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  cache,
		logger: logger,
	}
}

// GetStats handles cache statistics request
// @Summary Get cache statistics
// @Description Get cache backend availability and size
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	requestID := c.GetString("request_id")

	h.logger.WithField("request_id", requestID).Info("Getting cache statistics")

	c.JSON(http.StatusOK, map[string]interface{}{
		"stats":     h.cache.Stats(c.Request.Context()),
		"health":    h.cache.Health(),
		"timestamp": time.Now(),
	})
}

// Clear handles cache clear request
// @Summary Clear all cache
// @Description Clear all cached entity results
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	requestID := c.GetString("request_id")

	h.logger.WithField("request_id", requestID).Info("Clearing all cache")

	if err := h.cache.Clear(c.Request.Context()); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to clear cache")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "Failed to clear cache",
			Code:      "CACHE_CLEAR_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Cache cleared successfully",
		"timestamp": time.Now(),
		"success":   true,
	})
}

// Delete handles deletion of a single cached entity
// @Summary Delete entity from cache
// @Description Delete a specific entity result from cache
// @Tags Cache
// @Param fileNumber path string true "Entity file number to delete from cache"
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /cache/{fileNumber} [delete]
func (h *CacheHandler) Delete(c *gin.Context) {
	requestID := c.GetString("request_id")

	fileNumber := utils.CleanFileNumber(c.Param("fileNumber"))
	if !utils.IsValidFileNumber(fileNumber) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid file number",
			Message:   "File number must be a non-empty printable token",
			Code:      "INVALID_FILE_NUMBER",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"file_number": fileNumber,
	}).Info("Deleting entity from cache")

	h.cache.Delete(c.Request.Context(), fileNumber)

	c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Entity deleted from cache",
		"file_number": fileNumber,
		"timestamp":   time.Now(),
		"success":     true,
	})
}
