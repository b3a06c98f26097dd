package extract

import (
	"testing"
)

func TestNormalizeCanonicalizesSnakeCase(t *testing.T) {
	payload := []byte(`{
		"gush": "9905",
		"sub_chelka": "8",
		"apartment_registered_area": 85.5,
		"registration_office": "לשכת רישום מקרקעין תל אביב"
	}`)

	result, err := Normalize(DocLandRegistry, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if result.Fields["gush"] != "9905" {
		t.Errorf("gush: %v", result.Fields["gush"])
	}
	if result.Fields["subChelka"] != "8" {
		t.Errorf("subChelka alias not applied: %v", result.Fields)
	}
	if result.Fields["registeredArea"] != 85.5 {
		t.Errorf("registeredArea alias not applied: %v", result.Fields)
	}
	if result.Fields["registrationOffice"] == nil {
		t.Errorf("mechanical snake_case conversion missing: %v", result.Fields)
	}
	if _, stillThere := result.Fields["sub_chelka"]; stillThere {
		t.Error("snake_case key leaked past normalization")
	}
}

func TestNormalizeUnwrapsConfidenceEnvelopes(t *testing.T) {
	payload := []byte(`{
		"permit_number": {"value": "BP-2024-001", "confidence": 0.72},
		"permitted_usage": {"value": "מגורים"}
	}`)

	result, err := Normalize(DocBuildingPermit, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if result.Fields["permitNumber"] != "BP-2024-001" {
		t.Errorf("envelope value not unwrapped: %v", result.Fields)
	}
	if result.Confidence["permitNumber"] != 0.72 {
		t.Errorf("confidence lost: %v", result.Confidence)
	}
	if result.Confidence["permittedUsage"] != DefaultConfidence {
		t.Errorf("missing confidence should default, got %v", result.Confidence["permittedUsage"])
	}
}

func TestNormalizeEnvelopeWithoutValueBecomesWarning(t *testing.T) {
	payload := []byte(`{"permit_number": {"value": null, "confidence": 0.9}, "permit_date": "2024-01-10"}`)

	result, err := Normalize(DocBuildingPermit, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if _, ok := result.Fields["permitNumber"]; ok {
		t.Error("valueless envelope should contribute nothing")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning for the dropped envelope")
	}
	if result.Fields["permitDate"] != "2024-01-10" {
		t.Errorf("sibling field lost: %v", result.Fields)
	}
}

func TestNormalizeRepairsMalformedJSON(t *testing.T) {
	// Trailing comma and markdown fence, as LLMs actually emit.
	payload := []byte("```json\n{\"gush\": \"6638\", \"chelka\": \"45\",}\n```")

	result, err := Normalize(DocLandRegistry, payload)
	if err != nil {
		t.Fatalf("repair should have salvaged this payload: %v", err)
	}
	if result.Fields["gush"] != "6638" {
		t.Errorf("fields lost in repair: %v", result.Fields)
	}
}

func TestNormalizeOverallConfidence(t *testing.T) {
	payload := []byte(`{"gush": "1", "confidence_overall": 0.85}`)
	result, err := Normalize(DocLandRegistry, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if result.Overall != 0.85 {
		t.Errorf("overall: got %v", result.Overall)
	}
	if _, ok := result.Fields["overallConfidence"]; ok {
		t.Error("overall confidence should not remain a field")
	}

	// Percentage-style scores from older passes are scaled down.
	payload = []byte(`{"permit_number": "x", "overall_confidence": 87.5}`)
	result, err = Normalize(DocBuildingPermit, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if result.Overall != 0.875 {
		t.Errorf("percentage overall: got %v", result.Overall)
	}
}

func TestCoerceConfidenceDefaults(t *testing.T) {
	for _, raw := range []any{nil, "not a number", -0.5, 0.0, 250.0} {
		if got := coerceConfidence(raw); got != DefaultConfidence {
			t.Errorf("coerceConfidence(%v) = %v, want default", raw, got)
		}
	}
	if got := coerceConfidence(0.6); got != 0.6 {
		t.Errorf("valid score altered: %v", got)
	}
}

func TestParseDocType(t *testing.T) {
	for raw, want := range map[string]DocType{
		"land_registry":       DocLandRegistry,
		"tabu":                DocLandRegistry,
		"buildingPermit":      DocBuildingPermit,
		"shared_building_order": DocSharedBuildingOrder,
	} {
		got, err := ParseDocType(raw)
		if err != nil || got != want {
			t.Errorf("ParseDocType(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseDocType("mortgage_deed"); err == nil {
		t.Error("unknown doc type should error")
	}
}

func TestDecodeLandRegistry(t *testing.T) {
	payload := []byte(`{"gush": "9905", "chelka": "88", "total_plot_area": 250.5, "ownership_type": "בעלות מלאה"}`)
	result, err := Normalize(DocLandRegistry, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	doc, err := result.DecodeLandRegistry()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Gush != "9905" || doc.TotalPlotArea != 250.5 || doc.OwnershipType != "בעלות מלאה" {
		t.Errorf("typed decode mismatch: %+v", doc)
	}
}

func TestNormalizeFlagsMissingCoreFields(t *testing.T) {
	payload := []byte(`{"registration_office": "לשכת רישום מקרקעין תל אביב"}`)
	result, err := Normalize(DocLandRegistry, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !hasWarning(result.Warnings, "landRegistry: gush not extracted") {
		t.Errorf("missing gush not flagged: %v", result.Warnings)
	}
	if !hasWarning(result.Warnings, "landRegistry: chelka not extracted") {
		t.Errorf("missing chelka not flagged: %v", result.Warnings)
	}

	payload = []byte(`{"gush": "9905", "chelka": "88"}`)
	result, err = Normalize(DocLandRegistry, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if hasWarning(result.Warnings, "landRegistry: gush not extracted") {
		t.Errorf("present gush flagged as missing: %v", result.Warnings)
	}

	payload = []byte(`{"permitted_usage": "מגורים"}`)
	result, err = Normalize(DocBuildingPermit, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !hasWarning(result.Warnings, "buildingPermit: permitNumber not extracted") {
		t.Errorf("missing permit number not flagged: %v", result.Warnings)
	}

	payload = []byte(`{"finish": "סטנדרט גבוה"}`)
	result, err = Normalize(DocInteriorAnalysis, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !hasWarning(result.Warnings, "interiorAnalysis: condition not extracted") {
		t.Errorf("missing condition not flagged: %v", result.Warnings)
	}
}

func TestDecodeImageAnalysis(t *testing.T) {
	payload := []byte(`{"condition": "טוב מאוד", "features": ["מרפסת", "ממ\"ד"]}`)
	result, err := Normalize(DocExteriorAnalysis, payload)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	doc, err := result.DecodeImageAnalysis()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Condition != "טוב מאוד" || len(doc.Features) != 2 {
		t.Errorf("typed decode mismatch: %+v", doc)
	}
}

func hasWarning(warnings []string, want string) bool {
	for _, w := range warnings {
		if w == want {
			return true
		}
	}
	return false
}
