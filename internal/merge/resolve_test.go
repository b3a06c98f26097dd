package merge

import "testing"

func testDoc() map[string]any {
	return map[string]any{
		"street":        "הרצל",
		"city":          "",
		"floorNumber":   0.0,
		"extractedData": map[string]any{
			"tabu": map[string]any{
				"gush":           "9905",
				"registeredArea": 85.5,
			},
			"gush": "legacy-overridden",
		},
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	value, ok := Resolve(testDoc(), "extractedData.tabu.gush", "extractedData.gush")
	if !ok || value != "9905" {
		t.Fatalf("expected most specific path to win, got %v (found=%v)", value, ok)
	}
}

func TestResolveFallsThroughEmptyValues(t *testing.T) {
	value, ok := Resolve(testDoc(), "city", "street")
	if !ok || value != "הרצל" {
		t.Fatalf("empty string should not count as found, got %v", value)
	}
}

func TestResolveMissingIntermediateSegment(t *testing.T) {
	if _, ok := Resolve(testDoc(), "extractedData.permit.permitNumber"); ok {
		t.Fatal("missing intermediate segment should resolve as not found")
	}
	// A path through a scalar must not panic either.
	if _, ok := Resolve(testDoc(), "street.deeper.path"); ok {
		t.Fatal("path through a scalar should resolve as not found")
	}
}

func TestResolveZeroIsFound(t *testing.T) {
	value, ok := Resolve(testDoc(), "floorNumber")
	if !ok || value != 0.0 {
		t.Fatalf("zero is a meaningful value and must count as found, got %v (found=%v)", value, ok)
	}
	parsed, ok := ResolveFloat(testDoc(), "floorNumber")
	if !ok || parsed != 0 {
		t.Fatalf("ResolveFloat must report zero as found")
	}
}

func TestResolveDefault(t *testing.T) {
	got := ResolveDefault(testDoc(), "—", "missing.path", "another.missing")
	if got != "—" {
		t.Fatalf("expected fallback, got %v", got)
	}
}

func TestResolveFloatParsesStrings(t *testing.T) {
	doc := map[string]any{"area": "1,250.5"}
	parsed, ok := ResolveFloat(doc, "area")
	if !ok || parsed != 1250.5 {
		t.Fatalf("expected 1250.5, got %v (found=%v)", parsed, ok)
	}
}

func TestResolveString(t *testing.T) {
	doc := map[string]any{"rooms": 4.0}
	if got := ResolveString(doc, "rooms"); got != "4" {
		t.Fatalf("expected \"4\", got %q", got)
	}
	if got := ResolveString(doc, "missing"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
