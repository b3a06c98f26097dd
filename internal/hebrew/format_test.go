package hebrew

import (
	"strings"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	got := FormatCurrency(1_234_567, true)
	if !strings.Contains(got, "₪") {
		t.Errorf("missing shekel glyph: %q", got)
	}
	if !strings.Contains(got, "1,234,567") {
		t.Errorf("missing thousands separators: %q", got)
	}
}

func TestFormatCurrencyZeroAndAbsentRenderPlaceholder(t *testing.T) {
	if got := FormatCurrency(0, true); got != Placeholder {
		t.Errorf("zero: got %q, want placeholder", got)
	}
	if got := FormatCurrency(0, false); got != Placeholder {
		t.Errorf("absent: got %q, want placeholder", got)
	}
}

func TestFormatNumberZeroIsNotPlaceholder(t *testing.T) {
	if got := FormatNumber(0, true); got == Placeholder {
		t.Error("zero must render as 0 for plain numbers")
	}
	if got := FormatNumber(0, false); got != Placeholder {
		t.Errorf("absent number: got %q", got)
	}
}

func TestFormatDateNumeric(t *testing.T) {
	if got := FormatDateNumeric("2024-01-15"); got != "15.01.2024" {
		t.Errorf("iso date: got %q", got)
	}
	if got := FormatDateNumeric("15.01.2024"); got != "15.01.2024" {
		t.Errorf("numeric date: got %q", got)
	}
	if got := FormatDateNumeric("not a date"); got != Placeholder {
		t.Errorf("garbage: got %q", got)
	}
	if got := FormatDateNumeric(""); got != Placeholder {
		t.Errorf("empty: got %q", got)
	}
}

func TestFormatDateLong(t *testing.T) {
	if got := FormatDateLong("2024-03-05"); got != "5 במרץ 2024" {
		t.Errorf("long form: got %q", got)
	}
	if got := FormatDateLong("2023-12-31"); got != "31 בדצמבר 2023" {
		t.Errorf("december: got %q", got)
	}
}

func TestFormatArea(t *testing.T) {
	got := FormatArea(85.5, true)
	if !strings.Contains(got, "85.5") || !strings.Contains(got, "מ\"ר") {
		t.Errorf("area: got %q", got)
	}
	if got := FormatArea(0, true); got != Placeholder {
		t.Errorf("zero area: got %q", got)
	}
}
