// Package export turns an assembled valuation report into a deliverable
// PDF: validation checklist, custom-edit overlay, then headless-browser
// printing.
package export

import "errors"

// Result is the finished document.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// FieldError is one entry of the export validation checklist.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	// ErrPDFDependencyMissing indicates the headless browser is not installed.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)

// ValidationError carries the full checklist result for a 422 response.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return "export validation failed"
}
