package models

// Manager is one row of the managers table on an entity detail page.
type Manager struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BusinessRecord maps the labeled rows of a detail page to their values.
// The field set is whatever the page carries for a given entity type; when
// the managers table yields rows they are attached under the "managers" key
// as []Manager.
type BusinessRecord map[string]any

// Managers returns the manager rows attached to the record, if any.
func (r BusinessRecord) Managers() []Manager {
	managers, _ := r["managers"].([]Manager)
	return managers
}

// ScrapeResult is the terminal outcome of one scrape run: either a populated
// record or an error message, never both.
type ScrapeResult struct {
	FileNumber    string         `json:"file_number"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Success       bool           `json:"success"`
	Data          BusinessRecord `json:"data,omitempty"`
	Error         string         `json:"error,omitempty"`
}
