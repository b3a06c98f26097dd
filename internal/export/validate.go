package export

import (
	"strings"

	"shamay/api/internal/store"
)

// checklist is the fixed set of fields a report must carry before final
// export. Intermediate saves are never blocked by it.
var checklist = []struct {
	field   string
	message string
	missing func(v store.Valuation) bool
}{
	{"street", "חסרה כתובת הנכס", func(v store.Valuation) bool {
		return strings.TrimSpace(v.Street) == ""
	}},
	{"city", "חסרה עיר", func(v store.Valuation) bool {
		return strings.TrimSpace(v.City) == ""
	}},
	{"clientName", "חסר שם הלקוח", func(v store.Valuation) bool {
		return strings.TrimSpace(v.ClientName) == ""
	}},
	{"appraiserName", "חסר שם השמאי", func(v store.Valuation) bool {
		return strings.TrimSpace(v.AppraiserName) == ""
	}},
	{"valuationDate", "חסר תאריך חוות הדעת", func(v store.Valuation) bool {
		return strings.TrimSpace(v.ValuationDate) == ""
	}},
	{"finalValuation", "חסר שווי סופי", func(v store.Valuation) bool {
		return v.FinalValuation == 0
	}},
}

// Validate runs the export checklist and returns every failure, not just
// the first; the UI shows the full list at once.
func Validate(v store.Valuation) []FieldError {
	var failures []FieldError
	for _, item := range checklist {
		if item.missing(v) {
			failures = append(failures, FieldError{Field: item.field, Message: item.message})
		}
	}
	return failures
}
