package store

import (
	"log/slog"
	"testing"
)

func testStore() *PostgresStore {
	return &PostgresStore{log: slog.Default()}
}

func TestMergeValuationScalarsCoalesce(t *testing.T) {
	existing := Valuation{
		SessionID:  "sess-1",
		Street:     "הרצל",
		City:       "תל אביב",
		Rooms:      4,
		ClientName: "ישראל ישראלי",
	}
	incoming := Valuation{
		SessionID: "sess-1",
		Street:    "",
		City:      "רמת גן",
		Rooms:     0,
	}

	merged := testStore().mergeValuation(incoming, existing)

	if merged.Street != "הרצל" {
		t.Errorf("empty incoming street erased stored value: %q", merged.Street)
	}
	if merged.City != "רמת גן" {
		t.Errorf("non-empty incoming city should win, got %q", merged.City)
	}
	if merged.Rooms != 4 {
		t.Errorf("zero incoming rooms erased stored value: %v", merged.Rooms)
	}
	if merged.ClientName != "ישראל ישראלי" {
		t.Errorf("untouched field changed: %q", merged.ClientName)
	}
}

func TestMergeValuationExtractedDataDeepMerges(t *testing.T) {
	existing := Valuation{
		SessionID: "sess-1",
		ExtractedData: map[string]any{
			"landRegistry": map[string]any{
				"gush":    "6638",
				"chelka":  "42",
				"address": map[string]any{"street": "הרצל"},
			},
		},
	}
	incoming := Valuation{
		SessionID: "sess-1",
		ExtractedData: map[string]any{
			"landRegistry": map[string]any{
				"subChelka": "3",
				"address":   map[string]any{"city": "תל אביב"},
			},
		},
	}

	merged := testStore().mergeValuation(incoming, existing)

	land, ok := merged.ExtractedData["landRegistry"].(map[string]any)
	if !ok {
		t.Fatalf("landRegistry section missing: %#v", merged.ExtractedData)
	}
	if land["gush"] != "6638" || land["subChelka"] != "3" {
		t.Errorf("leaves did not merge additively: %#v", land)
	}
	address, ok := land["address"].(map[string]any)
	if !ok {
		t.Fatalf("nested address missing: %#v", land)
	}
	if address["street"] != "הרצל" || address["city"] != "תל אביב" {
		t.Errorf("nested merge lost a side: %#v", address)
	}
}

func TestMergeValuationArraysReplaceWholesale(t *testing.T) {
	existing := Valuation{
		SessionID:   "sess-1",
		Comparables: []Comparable{{Address: "א"}, {Address: "ב"}},
		Uploads:     []Upload{{URL: "https://x/1.jpg"}},
	}
	incoming := Valuation{
		SessionID:   "sess-1",
		Comparables: []Comparable{{Address: "ג"}},
		Uploads:     []Upload{},
	}

	merged := testStore().mergeValuation(incoming, existing)

	if len(merged.Comparables) != 1 || merged.Comparables[0].Address != "ג" {
		t.Errorf("non-empty comparables should replace wholesale: %#v", merged.Comparables)
	}
	if len(merged.Uploads) != 1 {
		t.Errorf("empty incoming uploads erased stored list: %#v", merged.Uploads)
	}
}

func TestMergeValuationCustomEditsAccumulate(t *testing.T) {
	existing := Valuation{
		SessionID:   "sess-1",
		CustomEdits: map[string]string{"#chapter-1 h2": "<h2>א</h2>"},
	}
	incoming := Valuation{
		SessionID:   "sess-1",
		CustomEdits: map[string]string{"#chapter-2 p": "<p>ב</p>"},
	}

	merged := testStore().mergeValuation(incoming, existing)

	if len(merged.CustomEdits) != 2 {
		t.Fatalf("edits should accumulate per selector: %#v", merged.CustomEdits)
	}
	if merged.CustomEdits["#chapter-1 h2"] != "<h2>א</h2>" {
		t.Errorf("earlier edit lost")
	}
}

func TestHashImagePayloadStable(t *testing.T) {
	a := HashImagePayload([]byte("payload"))
	b := HashImagePayload([]byte("payload"))
	c := HashImagePayload([]byte("other"))
	if a != b {
		t.Errorf("identical payloads hashed differently")
	}
	if a == c {
		t.Errorf("distinct payloads collided")
	}
	if len(a) != 64 {
		t.Errorf("unexpected hash length %d", len(a))
	}
}

func TestCoverFromUploads(t *testing.T) {
	uploads := []Upload{
		{URL: "https://x/doc.pdf", ContentType: "application/pdf"},
		{URL: "https://x/front.jpg", ContentType: "image/jpeg"},
		{URL: "https://x/cover.jpg", ContentType: "image/jpeg", IsCover: true},
	}
	if got := coverFromUploads(uploads); got != "https://x/cover.jpg" {
		t.Errorf("explicit cover not preferred, got %q", got)
	}
	if got := coverFromUploads(uploads[:2]); got != "https://x/front.jpg" {
		t.Errorf("first image fallback wrong, got %q", got)
	}
	if got := coverFromUploads(uploads[:1]); got != "" {
		t.Errorf("non-image uploads should not produce a cover, got %q", got)
	}
}
