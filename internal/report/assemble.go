// Package report assembles the long-form Hebrew valuation document from a
// stored record: field resolution with fallback paths, fixed chapter order,
// locale formatting and a page-break heuristic.
package report

import (
	"shamay/api/internal/overlay"
	"shamay/api/internal/store"
)

// Settings tunes assembly. Zero values mean defaults.
type Settings struct {
	// Title overrides the document title on the cover page.
	Title string
	// PageBudget overrides the per-page content height for pagination.
	PageBudget int
}

const defaultTitle = "חוות דעת בעניין שווי שוק של זכויות במקרקעין"

// Assemble composes the full HTML document for a record. Preview mode keeps
// logical page ids and the in-browser correction script; export mode emits
// the print layout with the cover as a separate unindexed section. Missing
// data degrades to placeholders, never to an error.
func Assemble(record store.FullRecord, mode overlay.Mode, settings Settings) (string, error) {
	fields := ResolveFields(record)
	chapters := BuildChapters(fields, record)
	pages := Paginate(chapters, settings.PageBudget)

	title := settings.Title
	if title == "" {
		title = defaultTitle
	}

	cover := record.Valuation.CoverImageURL
	if cover == "" {
		cover = coverFromUploadList(record.Valuation.Uploads)
	}

	return renderDocument(templateData{
		Title:         title,
		Address:       fields.Address,
		ClientName:    fields.ClientName,
		ValuationDate: fields.ValuationDateLong,
		CoverImageURL: cover,
		Pages:         pages,
		Preview:       mode != overlay.ModeExport,
	})
}

func coverFromUploadList(uploads []store.Upload) string {
	for _, upload := range uploads {
		if upload.IsCover {
			return upload.URL
		}
	}
	return ""
}
