package export

import (
	"context"
	"fmt"
	"log/slog"

	"shamay/api/internal/overlay"
	"shamay/api/internal/report"
	"shamay/api/internal/store"
)

// RecordLoader is the slice of the store the exporter needs.
type RecordLoader interface {
	Load(ctx context.Context, sessionID string) (store.FullRecord, error)
}

// Service runs the full export pipeline for a session.
type Service struct {
	loader RecordLoader
	log    *slog.Logger

	// renderPDF is swapped out in tests; headless Chrome is not a test
	// dependency.
	render func(ctx context.Context, html string) ([]byte, error)
}

func NewService(loader RecordLoader, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		loader: loader,
		log:    log,
		render: renderPDF,
	}
}

// Export validates the record, assembles the export-mode document, applies
// the appraiser's custom edits and prints it. A checklist failure returns
// *ValidationError; the caller maps it to a structured 422.
func (s *Service) Export(ctx context.Context, sessionID string) (*Result, error) {
	record, err := s.loader.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load record for export: %w", err)
	}

	if failures := Validate(record.Valuation); len(failures) > 0 {
		return nil, &ValidationError{Fields: failures}
	}

	html, err := report.Assemble(record, overlay.ModeExport, report.Settings{})
	if err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}

	if len(record.Valuation.CustomEdits) > 0 {
		html, err = overlay.Apply(html, record.Valuation.CustomEdits, overlay.ModeExport, s.log)
		if err != nil {
			return nil, fmt.Errorf("apply custom edits: %w", err)
		}
	}

	data, err := s.render(ctx, html)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:     data,
		Filename: sanitizeFilename("valuation-"+sessionID) + ".pdf",
		MimeType: "application/pdf",
	}, nil
}
