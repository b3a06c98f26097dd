package hebrew

import "testing"

func TestNumberToWordsDualForms(t *testing.T) {
	if got := NumberToWords(200); got != "מאתיים" {
		t.Errorf("200: got %q", got)
	}
	if got := NumberToWords(2000); got != "אלפיים" {
		t.Errorf("2000: got %q", got)
	}
	if got := NumberToWords(2_000_000); got != "שני מיליון" {
		t.Errorf("2000000: got %q", got)
	}
}

func TestNumberToWordsSegments(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "אפס"},
		{1, "אחת"},
		{17, "שבע עשרה"},
		{20, "עשרים"},
		{67, "שישים ושבע"},
		{100, "מאה"},
		{105, "מאה וחמש"},
		{120, "מאה ועשרים"},
		{123, "מאה עשרים ושלוש"},
		{567, "חמש מאות שישים ושבע"},
		{1000, "אלף"},
		{3000, "שלושת אלפים"},
		{10_000, "עשרת אלפים"},
		{234_000, "מאתיים שלושים וארבע אלף"},
		{1_000_000, "מיליון"},
		{1_234_567, "מיליון מאתיים שלושים וארבע אלף חמש מאות שישים ושבע"},
		{999_999_999, "תשע מאות תשעים ותשע מיליון תשע מאות תשעים ותשע אלף תשע מאות תשעים ותשע"},
	}
	for _, tc := range cases {
		if got := NumberToWords(tc.n); got != tc.want {
			t.Errorf("%d: got %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestNumberToWordsOutOfRange(t *testing.T) {
	if got := NumberToWords(-1); got != "" {
		t.Errorf("negative: got %q", got)
	}
	if got := NumberToWords(MaxSpellable + 1); got != "" {
		t.Errorf("overflow: got %q", got)
	}
}
