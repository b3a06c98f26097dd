// Package app wires the valuation wizard's operations behind the HTTP
// surface: saves, extraction ingestion, report assembly and export.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shamay/api/internal/cache"
	"shamay/api/internal/export"
	"shamay/api/internal/extract"
	"shamay/api/internal/overlay"
	"shamay/api/internal/report"
	"shamay/api/internal/search"
	"shamay/api/internal/store"
)

// Store is the persistence surface the service depends on.
type Store interface {
	Upsert(ctx context.Context, in store.UpsertInput) (string, error)
	Load(ctx context.Context, sessionID string) (store.FullRecord, error)
	List(ctx context.Context, organizationID string) ([]store.ValuationSummary, error)
	Delete(ctx context.Context, sessionID string) error
	SetStatus(ctx context.Context, sessionID, status string) error
	Ping(ctx context.Context) error
}

// Searcher is the search surface; nil-safe no-op implementations are fine.
type Searcher interface {
	Search(ctx context.Context, q search.Query) search.Response
	Index(v store.Valuation)
	Delete(sessionID string)
	Healthy() bool
}

// Exporter produces the final PDF.
type Exporter interface {
	Export(ctx context.Context, sessionID string) (*export.Result, error)
}

// Uploader stores a binary artifact and returns its retrievable URL.
type Uploader interface {
	Put(ctx context.Context, sessionID, kind string, data []byte, contentType string) (string, error)
}

// cacheTTL keeps reads warm between the wizard's debounced saves without
// letting staleness outlive a short edit pause.
const cacheTTL = 30 * time.Second

type Service struct {
	store    Store
	cache    cache.Cache
	search   Searcher
	exporter Exporter
	uploader Uploader
	log      *slog.Logger

	reportSettings report.Settings
}

// SetUploader attaches object storage. Uploads stay disabled without one.
func (s *Service) SetUploader(u Uploader) {
	s.uploader = u
}

// ConfigureReport overrides report assembly defaults, such as the page
// height budget.
func (s *Service) ConfigureReport(settings report.Settings) {
	s.reportSettings = settings
}

func NewService(st Store, c cache.Cache, se Searcher, ex Exporter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if c == nil {
		c = cache.NewMemory(0)
	}
	return &Service{store: st, cache: c, search: se, exporter: ex, log: log}
}

// SaveRequest is the PUT body of a wizard save. The embedded record carries
// the scalar and blob fields; child sections are optional and only written
// when present.
type SaveRequest struct {
	store.Valuation
	Measurements      []store.Measurement      `json:"measurements"`
	MeasurementImages []store.MeasurementImage `json:"measurementImages"`
	Screenshots       []store.Screenshot       `json:"screenshots"`
}

// SaveValuation merges one wizard save into the stored record.
func (s *Service) SaveValuation(ctx context.Context, sessionID, orgID, userID string, req SaveRequest) (string, error) {
	record := req.Valuation
	record.SessionID = sessionID
	if record.OrganizationID == "" {
		record.OrganizationID = orgID
	}
	if record.UserID == "" {
		record.UserID = userID
	}

	id, err := s.store.Upsert(ctx, store.UpsertInput{
		Record:       record,
		Measurements: req.Measurements,
		Images:       req.MeasurementImages,
		Screenshots:  req.Screenshots,
	})
	if err != nil {
		return "", fmt.Errorf("save valuation: %w", err)
	}

	s.invalidateSession(ctx, sessionID)

	// Index the merged row, not the incoming partial: the index write
	// replaces the whole document, so a child-section save carrying no
	// scalars would otherwise blank the searchable fields.
	if s.search != nil {
		if merged, err := s.store.Load(ctx, sessionID); err == nil {
			s.search.Index(merged.Valuation)
		} else {
			s.log.Warn("skipping search index, reload failed", "sessionId", sessionID, "error", err)
		}
	}
	return id, nil
}

// LoadValuation serves reads cache-first. The record cache exists to absorb
// the wizard's reload-after-save pattern, not to be authoritative.
func (s *Service) LoadValuation(ctx context.Context, sessionID string) (store.FullRecord, error) {
	key := cache.SessionKey(sessionID, "record")
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var record store.FullRecord
		if err := json.Unmarshal(cached, &record); err == nil {
			return record, nil
		}
		_ = s.cache.Invalidate(ctx, key)
	}

	record, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return store.FullRecord{}, notFoundError("valuation not found")
	}
	if err != nil {
		return store.FullRecord{}, fmt.Errorf("load valuation: %w", err)
	}

	if encoded, err := json.Marshal(record); err == nil {
		if err := s.cache.Set(ctx, key, encoded, cacheTTL); err != nil {
			s.log.Warn("record cache set failed", "sessionId", sessionID, "error", err)
		}
	}
	return record, nil
}

// IngestExtraction normalizes a raw AI extraction payload and merges it into
// the record under its document-type section.
func (s *Service) IngestExtraction(ctx context.Context, sessionID, rawDocType string, payload []byte) (extract.Result, error) {
	docType, err := extract.ParseDocType(rawDocType)
	if err != nil {
		return extract.Result{}, validationError(err.Error(), nil)
	}

	result, err := extract.Normalize(docType, payload)
	if err != nil {
		return extract.Result{}, validationError(fmt.Sprintf("unreadable extraction payload: %v", err), nil)
	}
	for _, warning := range result.Warnings {
		s.log.Warn("extraction warning", "sessionId", sessionID, "docType", string(docType), "warning", warning)
	}

	_, err = s.store.Upsert(ctx, store.UpsertInput{
		Record: store.Valuation{SessionID: sessionID},
		Extraction: &store.ExtractionDocument{
			DocType:    docType.Section(),
			Fields:     result.Fields,
			Confidence: result.Confidence,
			Overall:    result.Overall,
		},
	})
	if err != nil {
		return extract.Result{}, fmt.Errorf("persist extraction: %w", err)
	}

	s.invalidateSession(ctx, sessionID)
	return result, nil
}

// UploadAttachment stores the file in object storage and appends an upload
// entry to the record. A cover upload also becomes the report cover image.
func (s *Service) UploadAttachment(ctx context.Context, sessionID, name, contentType string, data []byte, isCover bool) (store.Upload, error) {
	if s.uploader == nil {
		return store.Upload{}, storageUnavailableError()
	}
	if len(data) == 0 {
		return store.Upload{}, validationError("empty upload body", nil)
	}

	url, err := s.uploader.Put(ctx, sessionID, "uploads", data, contentType)
	if err != nil {
		return store.Upload{}, fmt.Errorf("store upload: %w", err)
	}

	upload := store.Upload{Name: name, URL: url, ContentType: contentType, IsCover: isCover}
	record, err := s.LoadValuation(ctx, sessionID)
	if err != nil {
		var domainErr *DomainError
		if !errors.As(err, &domainErr) {
			return store.Upload{}, err
		}
		record = store.FullRecord{Valuation: store.Valuation{SessionID: sessionID}}
	}

	incoming := store.Valuation{
		SessionID: sessionID,
		Uploads:   append(record.Valuation.Uploads, upload),
	}
	if isCover {
		incoming.CoverImageURL = url
	}
	if _, err := s.store.Upsert(ctx, store.UpsertInput{Record: incoming}); err != nil {
		return store.Upload{}, fmt.Errorf("save upload: %w", err)
	}
	s.invalidateSession(ctx, sessionID)
	return upload, nil
}

// SaveEdits merges custom report edits keyed by selector.
func (s *Service) SaveEdits(ctx context.Context, sessionID string, edits map[string]string) error {
	if len(edits) == 0 {
		return validationError("no edits supplied", nil)
	}
	_, err := s.store.Upsert(ctx, store.UpsertInput{
		Record: store.Valuation{SessionID: sessionID, CustomEdits: edits},
	})
	if err != nil {
		return fmt.Errorf("save edits: %w", err)
	}
	s.invalidateSession(ctx, sessionID)
	return nil
}

// Report assembles the document for a session, applies custom edits and
// caches the rendered HTML per mode.
func (s *Service) Report(ctx context.Context, sessionID string, mode overlay.Mode) (string, error) {
	key := cache.SessionKey(sessionID, "report:"+string(mode))
	if cached, err := s.cache.Get(ctx, key); err == nil {
		return string(cached), nil
	}

	record, err := s.LoadValuation(ctx, sessionID)
	if err != nil {
		return "", err
	}

	html, err := report.Assemble(record, mode, s.reportSettings)
	if err != nil {
		return "", fmt.Errorf("assemble report: %w", err)
	}
	if len(record.Valuation.CustomEdits) > 0 {
		html, err = overlay.Apply(html, record.Valuation.CustomEdits, mode, s.log)
		if err != nil {
			return "", fmt.Errorf("apply custom edits: %w", err)
		}
	}

	if err := s.cache.Set(ctx, key, []byte(html), cacheTTL); err != nil {
		s.log.Warn("report cache set failed", "sessionId", sessionID, "error", err)
	}
	return html, nil
}

// Export runs the validation checklist and prints the PDF. A checklist
// failure maps to a structured 422.
func (s *Service) Export(ctx context.Context, sessionID string) (*export.Result, error) {
	result, err := s.exporter.Export(ctx, sessionID)
	if err != nil {
		var verr *export.ValidationError
		if errors.As(err, &verr) {
			return nil, validationError("report is not ready for export", verr.Fields)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("valuation not found")
		}
		return nil, fmt.Errorf("export valuation: %w", err)
	}
	return result, nil
}

// DeleteValuation removes a record after an explicit user action.
func (s *Service) DeleteValuation(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("valuation not found")
		}
		return fmt.Errorf("delete valuation: %w", err)
	}
	s.invalidateSession(ctx, sessionID)
	if s.search != nil {
		s.search.Delete(sessionID)
	}
	return nil
}

// Archive flips the status flag; the row stays.
func (s *Service) Archive(ctx context.Context, sessionID string) error {
	if err := s.store.SetStatus(ctx, sessionID, "archived"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("valuation not found")
		}
		return fmt.Errorf("archive valuation: %w", err)
	}
	s.invalidateSession(ctx, sessionID)
	return nil
}

func (s *Service) List(ctx context.Context, organizationID string) ([]store.ValuationSummary, error) {
	items, err := s.store.List(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list valuations: %w", err)
	}
	return items, nil
}

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Query: q.Text}
	}
	return s.search.Search(ctx, q)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CachePing round-trips a probe key through the cache backend.
func (s *Service) CachePing(ctx context.Context) error {
	key := cache.SessionKey("readiness", "probe")
	if err := s.cache.Set(ctx, key, []byte("ok"), time.Second); err != nil {
		return err
	}
	_, err := s.cache.Get(ctx, key)
	return err
}

// SearchHealthy reports whether the primary search backend is up; the
// readiness endpoint surfaces it as a degraded-but-ready check.
func (s *Service) SearchHealthy() bool {
	return s.search != nil && s.search.Healthy()
}

// invalidateSession drops every cached view of a session after a write.
func (s *Service) invalidateSession(ctx context.Context, sessionID string) {
	for _, concern := range []string{"record", "report:preview", "report:export"} {
		if err := s.cache.Invalidate(ctx, cache.SessionKey(sessionID, concern)); err != nil {
			s.log.Warn("cache invalidate failed", "sessionId", sessionID, "concern", concern, "error", err)
		}
	}
}
