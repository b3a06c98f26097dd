package merge

import (
	"reflect"
	"testing"
)

func TestDeepEmptyIncomingKeepsExisting(t *testing.T) {
	existing := map[string]any{"street": "הרצל", "extractedData": map[string]any{"gush": "9905"}}

	merged, notes := Deep(map[string]any{}, existing)

	if !reflect.DeepEqual(merged, existing) {
		t.Fatalf("expected existing to survive, got %v", merged)
	}
	if len(notes) != 0 {
		t.Fatalf("expected no degradations, got %v", notes)
	}
}

func TestDeepEmptyExistingTakesNonEmptyLeaves(t *testing.T) {
	incoming := map[string]any{
		"street": "הרצל",
		"city":   "",
		"rooms":  4.0,
	}

	merged, _ := Deep(incoming, nil)

	if merged["street"] != "הרצל" {
		t.Errorf("street: got %v", merged["street"])
	}
	if _, ok := merged["city"]; ok {
		t.Errorf("empty string leaf should be skipped")
	}
	if merged["rooms"] != 4.0 {
		t.Errorf("rooms: got %v", merged["rooms"])
	}
}

func TestDeepNestedLeavesAreAdditive(t *testing.T) {
	existing := map[string]any{
		"extractedData": map[string]any{
			"chelka": "88",
			"tabu":   map[string]any{"registeredArea": 85.5},
		},
	}
	incoming := map[string]any{
		"extractedData": map[string]any{"gush": "9905"},
	}

	merged, _ := Deep(incoming, existing)

	extracted := merged["extractedData"].(map[string]any)
	if extracted["gush"] != "9905" {
		t.Errorf("gush: got %v", extracted["gush"])
	}
	if extracted["chelka"] != "88" {
		t.Errorf("previously stored leaf was lost: %v", extracted)
	}
	tabu := extracted["tabu"].(map[string]any)
	if tabu["registeredArea"] != 85.5 {
		t.Errorf("nested subtree was lost: %v", tabu)
	}
}

func TestDeepIsIdempotent(t *testing.T) {
	a := map[string]any{
		"street": "בן יהודה",
		"extractedData": map[string]any{
			"gush":        "6638",
			"comparables": []any{map[string]any{"price": 2100000.0}},
		},
	}
	b := map[string]any{
		"city":          "תל אביב",
		"extractedData": map[string]any{"chelka": "45"},
	}

	once, _ := Deep(a, b)
	twice, _ := Deep(once, b)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestDeepEmptyArrayDoesNotEraseStoredArray(t *testing.T) {
	existing := map[string]any{"comparables": []any{map[string]any{"address": "הרצל 3"}}}
	incoming := map[string]any{"comparables": []any{}}

	merged, _ := Deep(incoming, existing)

	stored := merged["comparables"].([]any)
	if len(stored) != 1 {
		t.Fatalf("empty incoming array erased stored entries: %v", merged)
	}
}

func TestDeepNonEmptyArrayReplacesWholesale(t *testing.T) {
	existing := map[string]any{"comparables": []any{"a", "b", "c"}}
	incoming := map[string]any{"comparables": []any{"d"}}

	merged, _ := Deep(incoming, existing)

	stored := merged["comparables"].([]any)
	if len(stored) != 1 || stored[0] != "d" {
		t.Fatalf("expected wholesale replacement, got %v", stored)
	}
}

func TestDeepTypeMismatchDegradesAndReports(t *testing.T) {
	existing := map[string]any{"permit": "raw text from an older pass"}
	incoming := map[string]any{"permit": map[string]any{"permitNumber": "BP-2024-001"}}

	merged, notes := Deep(incoming, existing)

	permit, ok := merged["permit"].(map[string]any)
	if !ok || permit["permitNumber"] != "BP-2024-001" {
		t.Fatalf("incoming should replace subtree on mismatch, got %v", merged["permit"])
	}
	if len(notes) != 1 || notes[0].Path != "permit" {
		t.Fatalf("expected one degradation at 'permit', got %v", notes)
	}
}

func TestDeepScalarOverObjectDegradesAndReports(t *testing.T) {
	existing := map[string]any{"permit": map[string]any{"permitNumber": "BP-2024-001"}}
	incoming := map[string]any{"permit": 4.0}

	merged, notes := Deep(incoming, existing)

	if merged["permit"] != 4.0 {
		t.Fatalf("incoming scalar should replace subtree, got %v", merged["permit"])
	}
	if len(notes) != 1 || notes[0].Path != "permit" {
		t.Fatalf("expected one degradation at 'permit', got %v", notes)
	}
	if notes[0].Incoming != "number" || notes[0].Existing != "object" {
		t.Fatalf("degradation types: got %+v", notes[0])
	}
}

func TestDeepDoesNotMutateInputs(t *testing.T) {
	existing := map[string]any{"nested": map[string]any{"kept": "yes"}}
	incoming := map[string]any{"nested": map[string]any{"added": "new"}}

	Deep(incoming, existing)

	if _, ok := existing["nested"].(map[string]any)["added"]; ok {
		t.Fatal("existing document was mutated")
	}
	if len(incoming["nested"].(map[string]any)) != 1 {
		t.Fatal("incoming document was mutated")
	}
}

func TestDeepDepthCap(t *testing.T) {
	// Build a chain deeper than the cap; the merge must terminate.
	incoming := map[string]any{}
	cursor := incoming
	for i := 0; i < maxDepth+10; i++ {
		next := map[string]any{}
		cursor["n"] = next
		cursor = next
	}
	cursor["leaf"] = "v"

	merged, _ := Deep(incoming, map[string]any{"other": "kept"})

	if merged["other"] != "kept" {
		t.Fatal("existing top-level key lost")
	}
	if _, ok := merged["n"]; !ok {
		t.Fatal("incoming chain dropped entirely")
	}
}
