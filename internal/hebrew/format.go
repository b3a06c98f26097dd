package hebrew

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is rendered wherever a field has no value. Reports are expected
// to be partial mid-wizard; a missing field is never an error.
const Placeholder = "—"

var months = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

var printer = message.NewPrinter(language.Hebrew)

// FormatCurrency renders an amount with thousands separators and the shekel
// glyph. Zero and absent amounts both render the placeholder: a valuation of
// zero shekels is never a real output, only unfilled data.
func FormatCurrency(amount float64, ok bool) string {
	if !ok || amount == 0 {
		return Placeholder
	}
	return printer.Sprintf("%v", number.Decimal(amount, number.MaxFractionDigits(0))) + " ₪"
}

// FormatNumber renders a plain number with thousands separators, keeping up
// to two fraction digits. Zero is a meaningful value here, unlike currency.
func FormatNumber(value float64, ok bool) string {
	if !ok {
		return Placeholder
	}
	return printer.Sprintf("%v", number.Decimal(value, number.MaxFractionDigits(2)))
}

// FormatArea renders a square-meter measurement.
func FormatArea(sqm float64, ok bool) string {
	if !ok || sqm == 0 {
		return Placeholder
	}
	return FormatNumber(sqm, true) + " מ\"ר"
}

// dateLayouts covers the encodings that reach the store: ISO dates from the
// wizard, ISO timestamps from extraction passes, and the numeric form typed
// by appraisers.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "02.01.2006", "02/01/2006"}

// ParseDate parses a stored date string. The zero time and false are returned
// when nothing matches.
func ParseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDateNumeric renders day.month.year, the fixed short form used in
// report tables.
func FormatDateNumeric(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return Placeholder
	}
	return t.Format("02.01.2006")
}

// FormatDateLong renders the long form used in cover pages and letters:
// "15 בינואר 2024".
func FormatDateLong(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return Placeholder
	}
	return fmt.Sprintf("%d ב%s %d", t.Day(), months[t.Month()-1], t.Year())
}
