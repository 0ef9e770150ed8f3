package models

import "time"

// EntityResponse is the API payload for a single entity lookup.
type EntityResponse struct {
	ScrapeResult
	Cache      bool  `json:"cache"`
	DurationMs int64 `json:"duration_ms"`
}

// ErrorResponse is the standard API error payload.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// HealthResponse is the payload of the /health endpoint.
type HealthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Uptime    string         `json:"uptime"`
	Timestamp time.Time      `json:"timestamp"`
	Services  map[string]any `json:"services"`
}
