package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReportSuccess(t *testing.T) {
	result := &ScrapeResult{
		FileNumber:    "09853537",
		TransactionID: "txn-42",
		Success:       true,
		Data: BusinessRecord{
			"Entity Name": "ACME WIDGETS LLC",
		},
	}

	report := NewReport("req-1", result)

	assert.Equal(t, 1, report.Metadata.TotalFilesRequested)
	assert.Equal(t, 1, report.Metadata.FilesProcessed)
	assert.Equal(t, 0, report.Metadata.FilesRemaining)
	assert.Equal(t, "req-1", report.Metadata.RequestID)
	assert.False(t, report.Metadata.Blocked)
	assert.Equal(t, "illinois_business_entity", report.Metadata.ScraperType)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} UTC$`, report.Metadata.ScrapeTimestamp)

	entry, ok := report.Results["09853537"]
	require.True(t, ok)
	assert.True(t, entry.Success)
	assert.Equal(t, "txn-42", entry.TransactionID)
	assert.Equal(t, 1, entry.BusinessesFound)
	assert.Empty(t, entry.Error)
}

func TestNewReportFailure(t *testing.T) {
	result := &ScrapeResult{
		FileNumber: "09853537",
		Error:      "No transaction IDs found in search results",
	}

	report := NewReport("req-2", result)

	assert.Equal(t, 0, report.Metadata.FilesProcessed)
	assert.Equal(t, 1, report.Metadata.FilesRemaining)

	entry := report.Results["09853537"]
	assert.False(t, entry.Success)
	assert.Equal(t, "No transaction IDs found in search results", entry.Error)
	assert.Equal(t, 0, entry.BusinessesFound)
	assert.Nil(t, entry.Data)
}

func TestReportJSONShape(t *testing.T) {
	report := NewReport("req-3", &ScrapeResult{FileNumber: "1", Success: true, Data: BusinessRecord{"A": "B"}})

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "metadata")
	assert.Contains(t, decoded, "results")
}
