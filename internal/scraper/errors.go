package scraper

import "errors"

// Failure modes surfaced by the bootstrap and request layers. Extraction
// misses (no transaction id, empty record) are ordinary data for the
// orchestrator to classify, not errors raised by the layers themselves.
var (
	// ErrNavigation covers the fatal browser-stage failures: the entry page
	// or its search form never became usable.
	ErrNavigation = errors.New("navigation failed")

	// ErrNoSiteKey means a challenge frame appeared but carried no site key,
	// so the solve cannot proceed.
	ErrNoSiteKey = errors.New("no site key found in challenge frame")

	// ErrRequestTimeout and ErrRequestFailed classify transport faults on
	// the replayed HTTP calls. Non-200 statuses are returned as data.
	ErrRequestTimeout = errors.New("request timed out")
	ErrRequestFailed  = errors.New("request failed")
)
