package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soslookup/ilsos-api/internal/models"
	"github.com/soslookup/ilsos-api/internal/services"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// scraperStub returns a canned result and counts invocations.
type scraperStub struct {
	result *models.ScrapeResult
	calls  int
}

func (s *scraperStub) Scrape(ctx context.Context, fileNumber string) *models.ScrapeResult {
	s.calls++
	return s.result
}

func newEntityRouter(stub *scraperStub) (*gin.Engine, *services.CacheService) {
	gin.SetMode(gin.TestMode)

	cache := services.NewCacheService(nil, time.Minute, testLogger())
	handler := NewEntityHandler(stub, cache, testLogger())

	router := gin.New()
	router.GET("/api/v1/entity/:fileNumber", handler.GetEntity)
	return router, cache
}

func doGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetEntitySuccess(t *testing.T) {
	stub := &scraperStub{result: &models.ScrapeResult{
		FileNumber:    "09853537",
		TransactionID: "txn-42",
		Success:       true,
		Data:          models.BusinessRecord{"Entity Name": "ACME WIDGETS LLC"},
	}}
	router, _ := newEntityRouter(stub)

	w := doGet(router, "/api/v1/entity/09853537")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var resp models.EntityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "txn-42", resp.TransactionID)
	assert.False(t, resp.Cache)
}

func TestGetEntityCacheHit(t *testing.T) {
	stub := &scraperStub{result: &models.ScrapeResult{
		FileNumber: "09853537",
		Success:    true,
		Data:       models.BusinessRecord{"Entity Name": "ACME WIDGETS LLC"},
	}}
	router, _ := newEntityRouter(stub)

	first := doGet(router, "/api/v1/entity/09853537")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, stub.calls)

	second := doGet(router, "/api/v1/entity/09853537")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, stub.calls, "cached lookup must not scrape again")

	var resp models.EntityResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Cache)
}

func TestGetEntityInvalidFileNumber(t *testing.T) {
	stub := &scraperStub{result: &models.ScrapeResult{Success: true}}
	router, _ := newEntityRouter(stub)

	w := doGet(router, "/api/v1/entity/%20%20")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, stub.calls)
}

func TestGetEntityNotFound(t *testing.T) {
	stub := &scraperStub{result: &models.ScrapeResult{
		FileNumber: "00000000",
		Error:      "No transaction IDs found in search results",
	}}
	router, _ := newEntityRouter(stub)

	w := doGet(router, "/api/v1/entity/00000000")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ENTITY_NOT_FOUND", resp.Code)
}

func TestGetEntityUpstreamTimeout(t *testing.T) {
	stub := &scraperStub{result: &models.ScrapeResult{
		FileNumber: "09853537",
		Error:      "Search request timed out after 30 seconds",
	}}
	router, _ := newEntityRouter(stub)

	w := doGet(router, "/api/v1/entity/09853537")

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestGetEntityCaptchaFailure(t *testing.T) {
	stub := &scraperStub{result: &models.ScrapeResult{
		FileNumber: "09853537",
		Error:      "Failed to solve captcha and extract cookies/headers: timeout waiting for captcha solution",
	}}
	router, _ := newEntityRouter(stub)

	w := doGet(router, "/api/v1/entity/09853537")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetEntityFailureNotCached(t *testing.T) {
	stub := &scraperStub{result: &models.ScrapeResult{
		FileNumber: "09853537",
		Error:      "Detail request failed with status: 500",
	}}
	router, cache := newEntityRouter(stub)

	w := doGet(router, "/api/v1/entity/09853537")
	require.Equal(t, http.StatusBadGateway, w.Code)

	_, err := cache.GetResult(context.Background(), "09853537")
	assert.ErrorIs(t, err, services.ErrCacheMiss)
}
