package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultConfidence substitutes for a missing or out-of-range confidence
// score. Extraction passes that predate per-field scoring send none at all.
const DefaultConfidence = 0.95

// canonicalKeys maps known aliases (legacy snake_case columns and a few
// historical misspellings) onto the canonical camelCase key. Anything not
// listed here is converted mechanically by snakeToCamel.
var canonicalKeys = map[string]string{
	"sub_chelka":                "subChelka",
	"helka":                     "chelka",
	"apartment_registered_area": "registeredArea",
	"apartmentRegisteredArea":   "registeredArea",
	"registered_area":           "registeredArea",
	"confidence_overall":        "overallConfidence",
	"overall_confidence":        "overallConfidence",
	"filename":                  "documentFilename",
	"document_filename":         "documentFilename",
	"building_sub_plots_count":  "totalSubPlots",
	"total_sub_plots":           "totalSubPlots",
	"floor_number":              "floor",
}

// Normalize parses a raw provider payload and produces the canonical field
// tree for one document type. It never rejects recoverable input: malformed
// JSON goes through repair, schema violations and dropped envelopes become
// warnings. A hard error means the payload was beyond saving.
func Normalize(docType DocType, payload []byte) (Result, error) {
	raw, err := parsePayload(payload)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s payload: %w", docType, err)
	}

	result := Result{
		DocType:    docType,
		Confidence: make(map[string]float64),
	}

	result.Fields = normalizeTree(raw, "", &result)

	if overall, ok := result.Fields["overallConfidence"]; ok {
		result.Overall = coerceConfidence(overall)
		delete(result.Fields, "overallConfidence")
	} else {
		result.Overall = averageConfidence(result.Confidence)
	}

	if schemaWarnings := validateAgainstSchema(docType, result.Fields); len(schemaWarnings) > 0 {
		result.Warnings = append(result.Warnings, schemaWarnings...)
	}
	result.Warnings = append(result.Warnings, missingCoreFields(result)...)

	return result, nil
}

// missingCoreFields decodes the document's typed view and flags absent
// identifiers the report cannot degrade around. A decode failure means the
// tree holds the wrong shapes; the schema warnings already cover those.
func missingCoreFields(r Result) []string {
	var missing []string
	switch r.DocType {
	case DocLandRegistry:
		doc, err := r.DecodeLandRegistry()
		if err != nil {
			return nil
		}
		if doc.Gush == "" {
			missing = append(missing, "landRegistry: gush not extracted")
		}
		if doc.Chelka == "" {
			missing = append(missing, "landRegistry: chelka not extracted")
		}
	case DocBuildingPermit:
		doc, err := r.DecodeBuildingPermit()
		if err != nil {
			return nil
		}
		if doc.PermitNumber == "" {
			missing = append(missing, "buildingPermit: permitNumber not extracted")
		}
	case DocSharedBuildingOrder:
		doc, err := r.DecodeSharedBuildingOrder()
		if err != nil {
			return nil
		}
		if doc.OrderIssueDate == "" {
			missing = append(missing, "sharedBuildingOrder: orderIssueDate not extracted")
		}
	case DocInteriorAnalysis, DocExteriorAnalysis:
		doc, err := r.DecodeImageAnalysis()
		if err != nil {
			return nil
		}
		if doc.Condition == "" {
			missing = append(missing, string(r.DocType)+": condition not extracted")
		}
	}
	return missing
}

// normalizeTree canonicalizes every key and unwraps {value, confidence}
// envelopes. Missing value and missing confidence are tolerated
// independently: an envelope without a value contributes nothing, an
// envelope without a confidence gets the default.
func normalizeTree(raw map[string]any, prefix string, result *Result) map[string]any {
	normalized := make(map[string]any, len(raw))
	for key, value := range raw {
		canonical := canonicalKey(key)
		path := canonical
		if prefix != "" {
			path = prefix + "." + canonical
		}

		if envelope, ok := asEnvelope(value); ok {
			inner, hasValue := envelope["value"]
			if !hasValue || inner == nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("field %s: envelope without value", path))
				continue
			}
			normalized[canonical] = inner
			result.Confidence[path] = coerceConfidence(envelope["confidence"])
			continue
		}

		if nested, ok := value.(map[string]any); ok {
			normalized[canonical] = normalizeTree(nested, path, result)
			continue
		}
		normalized[canonical] = value
	}
	return normalized
}

func canonicalKey(key string) string {
	if canonical, ok := canonicalKeys[key]; ok {
		return canonical
	}
	return snakeToCamel(key)
}

func snakeToCamel(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}
	parts := strings.Split(key, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// asEnvelope recognizes the provider's per-field {value, confidence} shape.
// Only maps limited to those two keys qualify; anything richer is a real
// nested object.
func asEnvelope(value any) (map[string]any, bool) {
	node, ok := value.(map[string]any)
	if !ok || len(node) == 0 || len(node) > 2 {
		return nil, false
	}
	_, hasValue := node["value"]
	if !hasValue {
		return nil, false
	}
	if len(node) == 2 {
		if _, hasConfidence := node["confidence"]; !hasConfidence {
			return nil, false
		}
	}
	return node, true
}

// coerceConfidence clamps a raw confidence into (0, 1]; anything missing or
// invalid falls back to the default. Scores above 1 are assumed to be
// percentages from older passes.
func coerceConfidence(raw any) float64 {
	var score float64
	switch v := raw.(type) {
	case float64:
		score = v
	case int:
		score = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return DefaultConfidence
		}
		score = parsed
	default:
		return DefaultConfidence
	}
	if score > 1 && score <= 100 {
		score = score / 100
	}
	if score <= 0 || score > 1 {
		return DefaultConfidence
	}
	return score
}

func averageConfidence(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return DefaultConfidence
	}
	var sum float64
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}
