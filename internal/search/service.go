package search

import (
	"context"
	"log"
	"time"

	"shamay/api/internal/store"
)

// Fallback is the Postgres-side search the service degrades to.
type Fallback interface {
	Search(ctx context.Context, query string, limit int) ([]store.ValuationSummary, error)
}

// Service tries Meilisearch first and falls back to Postgres ILIKE.
type Service struct {
	meili    *Meili
	fallback Fallback
}

// NewService creates a search service. meili may be nil when Meilisearch is
// not configured.
func NewService(meili *Meili, fallback Fallback) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search serves a query, always returning a well-formed response.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	results, err := s.fallback.Search(ctx, q.Text, q.Limit)
	if err != nil {
		log.Printf("search: postgres fallback error: %v", err)
		return Response{Results: []store.ValuationSummary{}, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: len(results), Query: q.Text}
}

// Index pushes a saved valuation into the index, fire-and-forget. Indexing
// lag is acceptable; save latency is not.
func (s *Service) Index(v store.Valuation) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	record := Record{
		SessionID:      v.SessionID,
		OrganizationID: v.OrganizationID,
		Street:         v.Street,
		City:           v.City,
		Neighborhood:   v.Neighborhood,
		ClientName:     v.ClientName,
		Status:         v.Status,
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		if err := s.meili.Index(record); err != nil {
			log.Printf("search: index valuation %s: %v", record.SessionID, err)
		}
	}()
}

// Delete removes a valuation from the index, fire-and-forget.
func (s *Service) Delete(sessionID string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.Delete(sessionID); err != nil {
			log.Printf("search: delete valuation %s: %v", sessionID, err)
		}
	}()
}

// Healthy reports whether the primary backend is reachable. The fallback
// keeps the endpoint serving either way.
func (s *Service) Healthy() bool {
	return s.meili != nil && s.meili.Healthy()
}

func nonNil(r []store.ValuationSummary) []store.ValuationSummary {
	if r == nil {
		return []store.ValuationSummary{}
	}
	return r
}
