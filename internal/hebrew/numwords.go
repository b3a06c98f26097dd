// Package hebrew renders dates, currency amounts and spelled-out numbers the
// way Israeli appraisal reports write them.
package hebrew

import "strings"

// MaxSpellable is the largest amount NumberToWords can spell out.
const MaxSpellable = 999_999_999

var onesFem = [...]string{"", "אחת", "שתיים", "שלוש", "ארבע", "חמש", "שש", "שבע", "שמונה", "תשע"}

var teensFem = [...]string{"עשר", "אחת עשרה", "שתים עשרה", "שלוש עשרה", "ארבע עשרה", "חמש עשרה", "שש עשרה", "שבע עשרה", "שמונה עשרה", "תשע עשרה"}

var tens = [...]string{"", "", "עשרים", "שלושים", "ארבעים", "חמישים", "שישים", "שבעים", "שמונים", "תשעים"}

var onesMasc = [...]string{"", "אחד", "שניים", "שלושה", "ארבעה", "חמישה", "שישה", "שבעה", "שמונה", "תשעה"}

// Construct-state forms used before אלפים for 3..10 thousand.
var thousandsConstruct = [...]string{"", "", "", "שלושת", "ארבעת", "חמשת", "ששת", "שבעת", "שמונת", "תשעת", "עשרת"}

// NumberToWords spells out an amount in Hebrew, as written in the final-value
// sentence of a report. The dual forms are substituted where Hebrew requires
// them: 200 is מאתיים (not "שתי מאות") and 2000 is אלפיים (not "שני אלפים").
// Values outside [0, MaxSpellable] return the empty string.
func NumberToWords(n int64) string {
	if n < 0 || n > MaxSpellable {
		return ""
	}
	if n == 0 {
		return "אפס"
	}

	var parts []string

	if millions := n / 1_000_000; millions > 0 {
		switch {
		case millions == 1:
			parts = append(parts, "מיליון")
		case millions == 2:
			parts = append(parts, "שני מיליון")
		case millions <= 9:
			parts = append(parts, onesMasc[millions]+" מיליון")
		default:
			parts = append(parts, segment(millions)+" מיליון")
		}
	}

	if thousands := (n / 1000) % 1000; thousands > 0 {
		switch {
		case thousands == 1:
			parts = append(parts, "אלף")
		case thousands == 2:
			parts = append(parts, "אלפיים")
		case thousands <= 10:
			parts = append(parts, thousandsConstruct[thousands]+" אלפים")
		default:
			parts = append(parts, segment(thousands)+" אלף")
		}
	}

	if rest := n % 1000; rest > 0 {
		parts = append(parts, segment(rest))
	}

	return strings.Join(parts, " ")
}

// segment spells 1..999 in the feminine counting forms, placing the ו
// conjunction before the final atom only: 123 is "מאה עשרים ושלוש" while
// 120 is "מאה ועשרים".
func segment(x int64) string {
	var atoms []string

	switch h := x / 100; {
	case h == 1:
		atoms = append(atoms, "מאה")
	case h == 2:
		atoms = append(atoms, "מאתיים")
	case h >= 3:
		atoms = append(atoms, onesFem[h]+" מאות")
	}

	rest := x % 100
	switch {
	case rest == 0:
	case rest < 10:
		atoms = append(atoms, onesFem[rest])
	case rest < 20:
		atoms = append(atoms, teensFem[rest-10])
	default:
		atoms = append(atoms, tens[rest/10])
		if rest%10 > 0 {
			atoms = append(atoms, onesFem[rest%10])
		}
	}

	if len(atoms) > 1 {
		atoms[len(atoms)-1] = "ו" + atoms[len(atoms)-1]
	}
	return strings.Join(atoms, " ")
}
