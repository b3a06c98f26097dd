package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"shamay/api/internal/hebrew"
	"shamay/api/internal/store"
)

const idxValuations = "shamay_valuations"

// Meili is the primary search backend.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the valuations index.
// The client stays usable when the initial connection fails; the health loop
// reconfigures once the server comes back.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxValuations,
		PrimaryKey: "sessionId",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxValuations, err)
	}

	index := m.client.Index(idxValuations)
	filterable := []interface{}{"organizationId", "status"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxValuations, err)
	}
	searchable := []string{"street", "city", "neighborhood", "clientName", "sessionId"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxValuations, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the valuations index.
func (m *Meili) Search(q Query) ([]store.ValuationSummary, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	sr := &meili.SearchRequest{
		Limit: limit,
	}
	if q.OrganizationID != "" {
		sr.Filter = []string{fmt.Sprintf("organizationId = %q", q.OrganizationID)}
	}

	resp, err := m.client.Index(idxValuations).Search(q.Text, sr)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	summaries := make([]store.ValuationSummary, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		summaries = append(summaries, hitToSummary(hit))
	}
	return summaries, int(resp.EstimatedTotalHits), nil
}

func hitToSummary(hit meili.Hit) store.ValuationSummary {
	summary := store.ValuationSummary{
		SessionID:  decodeString(hit, "sessionId"),
		Street:     decodeString(hit, "street"),
		City:       decodeString(hit, "city"),
		ClientName: decodeString(hit, "clientName"),
		Status:     decodeString(hit, "status"),
	}
	if t, ok := hebrew.ParseDate(decodeString(hit, "updatedAt")); ok {
		summary.UpdatedAt = t
	}
	return summary
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// Index adds or updates one valuation in the search index.
func (m *Meili) Index(record Record) error {
	_, err := m.client.Index(idxValuations).AddDocuments([]Record{record}, nil)
	return err
}

// IndexAll bulk-indexes valuations, used on startup reindex.
func (m *Meili) IndexAll(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxValuations).AddDocuments(records, nil)
	return err
}

// Delete removes a valuation from the search index.
func (m *Meili) Delete(sessionID string) error {
	_, err := m.client.Index(idxValuations).DeleteDocument(sessionID, nil)
	return err
}
