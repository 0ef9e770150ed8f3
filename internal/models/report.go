package models

import "time"

// ReportMetadata describes one scrape run in the persisted report.
type ReportMetadata struct {
	TotalFilesRequested int    `json:"total_files_requested"`
	FilesProcessed      int    `json:"files_processed"`
	FilesRemaining      int    `json:"files_remaining"`
	RequestID           string `json:"request_id"`
	Blocked             bool   `json:"blocked"`
	ScrapeTimestamp     string `json:"scrape_timestamp"`
	ScraperType         string `json:"scraper_type"`
}

// ReportEntry is the per-identifier slot of the report.
type ReportEntry struct {
	Success         bool           `json:"success"`
	FileNumber      string         `json:"file_number"`
	TransactionID   string         `json:"transaction_id,omitempty"`
	Data            BusinessRecord `json:"data,omitempty"`
	Error           string         `json:"error,omitempty"`
	BusinessesFound int            `json:"businesses_found"`
}

// Report is the JSON document persisted at the end of a CLI run.
type Report struct {
	Metadata ReportMetadata         `json:"metadata"`
	Results  map[string]ReportEntry `json:"results"`
}

// NewReport wraps a single scrape result in the report envelope.
func NewReport(requestID string, result *ScrapeResult) *Report {
	metadata := ReportMetadata{
		TotalFilesRequested: 1,
		RequestID:           requestID,
		ScrapeTimestamp:     time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		ScraperType:         "illinois_business_entity",
	}

	entry := ReportEntry{
		Success:    result.Success,
		FileNumber: result.FileNumber,
	}

	if result.Success {
		metadata.FilesProcessed = 1
		entry.TransactionID = result.TransactionID
		entry.Data = result.Data
		if len(result.Data) > 0 {
			entry.BusinessesFound = 1
		}
	} else {
		metadata.FilesRemaining = 1
		entry.TransactionID = result.TransactionID
		entry.Error = result.Error
	}

	return &Report{
		Metadata: metadata,
		Results:  map[string]ReportEntry{result.FileNumber: entry},
	}
}
