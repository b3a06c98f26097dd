// Package search finds valuations by address, client or session key.
// Meilisearch serves queries when reachable; Postgres ILIKE is the fallback
// so search never goes fully dark.
package search

import "shamay/api/internal/store"

// Query describes a search request.
type Query struct {
	Text           string
	OrganizationID string
	Limit          int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []store.ValuationSummary `json:"results"`
	Total   int                      `json:"total"`
	Query   string                   `json:"query"`
}

// Record is the shape pushed into the search index on every save.
type Record struct {
	SessionID      string `json:"sessionId"`
	OrganizationID string `json:"organizationId"`
	Street         string `json:"street"`
	City           string `json:"city"`
	Neighborhood   string `json:"neighborhood"`
	ClientName     string `json:"clientName"`
	Status         string `json:"status"`
	UpdatedAt      string `json:"updatedAt"`
}
