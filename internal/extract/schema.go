package extract

import (
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[DocType]string{
	DocLandRegistry:        "schemas/land_registry.json",
	DocBuildingPermit:      "schemas/building_permit.json",
	DocSharedBuildingOrder: "schemas/shared_building_order.json",
	DocInteriorAnalysis:    "schemas/image_analysis.json",
	DocExteriorAnalysis:    "schemas/image_analysis.json",
}

var compiledSchemas = map[DocType]*jsonschema.Schema{}

func init() {
	for docType, file := range schemaFiles {
		raw, err := schemaFS.ReadFile(file)
		if err != nil {
			continue
		}
		schema, err := jsonschema.CompileString(file, string(raw))
		if err != nil {
			continue
		}
		compiledSchemas[docType] = schema
	}
}

// validateAgainstSchema checks the canonical tree against the document's
// structural schema. Violations degrade to warnings: extraction output is
// merged even when a field arrives with the wrong shape, and the report layer
// deals with whatever survives.
func validateAgainstSchema(docType DocType, fields map[string]any) []string {
	schema, ok := compiledSchemas[docType]
	if !ok {
		return nil
	}
	if err := schema.Validate(toJSONValue(fields)); err != nil {
		return []string{fmt.Sprintf("%s schema: %v", docType, err)}
	}
	return nil
}

// toJSONValue deep-copies the tree through plain any values, which is what
// the validator expects.
func toJSONValue(fields map[string]any) any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case map[string]any:
			out[key] = toJSONValue(v)
		default:
			out[key] = v
		}
	}
	return out
}
