// Package extract ingests AI document-extraction results: it parses the
// provider payload tolerantly, normalizes key casing into one canonical form
// and unwraps per-field confidence envelopes before anything reaches the
// merge engine.
package extract

import (
	"encoding/json"
	"fmt"
)

// DocType identifies the extraction source document.
type DocType string

const (
	DocLandRegistry        DocType = "landRegistry"
	DocBuildingPermit      DocType = "buildingPermit"
	DocSharedBuildingOrder DocType = "sharedBuildingOrder"
	DocInteriorAnalysis    DocType = "interiorAnalysis"
	DocExteriorAnalysis    DocType = "exteriorAnalysis"
)

// docTypeAliases accepts the snake_case spellings older clients send on the
// route path.
var docTypeAliases = map[string]DocType{
	"landRegistry":          DocLandRegistry,
	"land_registry":         DocLandRegistry,
	"tabu":                  DocLandRegistry,
	"buildingPermit":        DocBuildingPermit,
	"building_permit":       DocBuildingPermit,
	"sharedBuildingOrder":   DocSharedBuildingOrder,
	"shared_building_order": DocSharedBuildingOrder,
	"interiorAnalysis":      DocInteriorAnalysis,
	"interior_analysis":     DocInteriorAnalysis,
	"exteriorAnalysis":      DocExteriorAnalysis,
	"exterior_analysis":     DocExteriorAnalysis,
}

// ParseDocType resolves a route parameter to a known document type.
func ParseDocType(raw string) (DocType, error) {
	if docType, ok := docTypeAliases[raw]; ok {
		return docType, nil
	}
	return "", fmt.Errorf("unknown document type %q", raw)
}

// Section returns the key under which this document's fields live inside the
// record's extractedData tree.
func (d DocType) Section() string {
	return string(d)
}

// Result is a normalized extraction pass, ready for the merge engine.
type Result struct {
	DocType    DocType
	Fields     map[string]any     // canonical camelCase tree
	Confidence map[string]float64 // dotted canonical path -> confidence
	Overall    float64
	Warnings   []string
}

// LandRegistry is the typed view of a נסח טאבו extraction.
type LandRegistry struct {
	RegistrationOffice string  `json:"registrationOffice"`
	IssueDate          string  `json:"issueDate"`
	TabuExtractDate    string  `json:"tabuExtractDate"`
	Gush               string  `json:"gush"`
	Chelka             string  `json:"chelka"`
	SubChelka          string  `json:"subChelka"`
	TotalPlotArea      float64 `json:"totalPlotArea"`
	RegulationType     string  `json:"regulationType"`
	AddressFromTabu    string  `json:"addressFromTabu"`
	UnitDescription    string  `json:"unitDescription"`
	Floor              string  `json:"floor"`
	RegisteredArea     float64 `json:"registeredArea"`
	BalconyArea        float64 `json:"balconyArea"`
	OwnersCount        int     `json:"ownersCount"`
	OwnershipType      string  `json:"ownershipType"`
}

// BuildingPermit is the typed view of a היתר בנייה extraction.
type BuildingPermit struct {
	PermitNumber       string `json:"permitNumber"`
	PermitDate         string `json:"permitDate"`
	PermitIssueDate    string `json:"permitIssueDate"`
	PermittedUsage     string `json:"permittedUsage"`
	LocalCommitteeName string `json:"localCommitteeName"`
}

// SharedBuildingOrder is the typed view of a צו בית משותף extraction.
type SharedBuildingOrder struct {
	OrderIssueDate      string `json:"orderIssueDate"`
	BuildingDescription string `json:"buildingDescription"`
	BuildingFloors      int    `json:"buildingFloors"`
	BuildingAddress     string `json:"buildingAddress"`
	TotalSubPlots       int    `json:"totalSubPlots"`
}

// ImageAnalysis is the typed view of an interior or exterior image pass.
type ImageAnalysis struct {
	Condition   string   `json:"condition"`
	Finish      string   `json:"finish"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
}

// DecodeLandRegistry maps a normalized result into its typed form.
func (r Result) DecodeLandRegistry() (LandRegistry, error) {
	var doc LandRegistry
	if err := decodeInto(r.Fields, &doc); err != nil {
		return LandRegistry{}, err
	}
	return doc, nil
}

// DecodeBuildingPermit maps a normalized result into its typed form.
func (r Result) DecodeBuildingPermit() (BuildingPermit, error) {
	var doc BuildingPermit
	if err := decodeInto(r.Fields, &doc); err != nil {
		return BuildingPermit{}, err
	}
	return doc, nil
}

// DecodeSharedBuildingOrder maps a normalized result into its typed form.
func (r Result) DecodeSharedBuildingOrder() (SharedBuildingOrder, error) {
	var doc SharedBuildingOrder
	if err := decodeInto(r.Fields, &doc); err != nil {
		return SharedBuildingOrder{}, err
	}
	return doc, nil
}

// DecodeImageAnalysis maps a normalized result into its typed form.
func (r Result) DecodeImageAnalysis() (ImageAnalysis, error) {
	var doc ImageAnalysis
	if err := decodeInto(r.Fields, &doc); err != nil {
		return ImageAnalysis{}, err
	}
	return doc, nil
}

func decodeInto(fields map[string]any, target any) error {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(encoded, target); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}
