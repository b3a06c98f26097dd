package report

import (
	"strings"

	"shamay/api/internal/hebrew"
	"shamay/api/internal/merge"
	"shamay/api/internal/store"
)

// Fallback path lists per report field, resolved against the extraction
// blob. Order encodes priority: newest extraction source first, legacy
// aliases last. Normalization canonicalizes new writes, but rows written
// before it shipped still carry snake_case leaves.
var fieldPaths = map[string][]string{
	"gush":               {"landRegistry.gush", "land_registry.gush", "gush"},
	"chelka":             {"landRegistry.chelka", "land_registry.chelka", "chelka"},
	"subChelka":          {"landRegistry.subChelka", "land_registry.sub_chelka", "subChelka", "sub_chelka"},
	"registrationOffice": {"landRegistry.registrationOffice", "land_registry.registration_office", "registrationOffice"},
	"tabuExtractDate":    {"landRegistry.tabuExtractDate", "land_registry.tabu_extract_date", "tabuExtractDate"},
	"totalPlotArea":      {"landRegistry.totalPlotArea", "land_registry.total_plot_area", "totalPlotArea"},
	"registeredArea":     {"landRegistry.registeredArea", "land_registry.apartment_registered_area", "apartmentRegisteredArea"},
	"permitNumber":       {"buildingPermit.permitNumber", "building_permit.permit_number", "permitNumber"},
	"permitDate":         {"buildingPermit.permitDate", "building_permit.permit_date", "permitDate"},
	"permittedUsage":     {"buildingPermit.permittedUsage", "building_permit.permitted_usage", "permittedUsage"},
	"localCommitteeName": {"buildingPermit.localCommitteeName", "building_permit.local_committee_name", "localCommitteeName"},
	"orderIssueDate":     {"sharedBuildingOrder.orderIssueDate", "shared_building_order.order_issue_date", "orderIssueDate"},
	"totalSubPlots":      {"sharedBuildingOrder.totalSubPlots", "shared_building_order.total_sub_plots", "totalSubPlots"},
	"buildingFloors":     {"sharedBuildingOrder.buildingFloors", "shared_building_order.building_floors", "buildingPermit.buildingFloors", "building_floors"},
	"interiorCondition":  {"interiorAnalysis.condition", "interior_analysis.condition"},
	"exteriorCondition":  {"exteriorAnalysis.condition", "exterior_analysis.condition"},
	"buildingType":       {"exteriorAnalysis.buildingType", "exterior_analysis.building_type", "buildingType"},
}

// Fields carries every display value a chapter may read, already formatted
// for the Hebrew report. Unresolved values hold the placeholder glyph.
type Fields struct {
	Address       string
	City          string
	Neighborhood  string
	RoomsDisplay  string
	FloorDisplay  string
	ClientName    string
	AppraiserName string
	LicenseNo     string

	Gush               string
	Chelka             string
	SubChelka          string
	RegistrationOffice string
	TabuExtractDate    string
	TotalPlotArea      string
	RegisteredArea     string
	BuiltArea          string
	BalconyArea        string

	PermitNumber       string
	PermitDate         string
	PermittedUsage     string
	LocalCommitteeName string
	OrderIssueDate     string
	TotalSubPlots      string
	BuildingFloors     string
	InteriorCondition  string
	ExteriorCondition  string
	BuildingType       string

	VisitDateLong     string
	ValuationDateLong string
	EffectiveDate     string

	PricePerSqm      string
	FinalValuation   string
	FinalInWords     string
	HasFinalValue    bool
	FinalValueAmount float64
}

// ResolveFields projects a stored record into display values. Every lookup
// that finds nothing degrades to the placeholder; assembly never fails on
// missing data.
func ResolveFields(record store.FullRecord) Fields {
	v := record.Valuation
	doc := v.ExtractedData

	f := Fields{
		Address:       composeAddress(v),
		City:          textOrPlaceholder(v.City),
		Neighborhood:  textOrPlaceholder(v.Neighborhood),
		ClientName:    textOrPlaceholder(v.ClientName),
		AppraiserName: textOrPlaceholder(v.AppraiserName),
		LicenseNo:     textOrPlaceholder(v.AppraiserLicense),
		RoomsDisplay:  hebrew.FormatNumber(v.Rooms, v.Rooms != 0),
		FloorDisplay:  textOrPlaceholder(v.Floor),
	}

	f.Gush = resolvePath(doc, "gush")
	f.Chelka = resolvePath(doc, "chelka")
	f.SubChelka = resolvePath(doc, "subChelka")
	f.RegistrationOffice = resolvePath(doc, "registrationOffice")
	f.TabuExtractDate = resolveDate(doc, "tabuExtractDate")
	f.TotalPlotArea = resolveArea(doc, "totalPlotArea", v.ParcelArea)
	f.RegisteredArea = resolveArea(doc, "registeredArea", v.RegisteredArea)
	f.BuiltArea = hebrew.FormatArea(v.BuiltArea, v.BuiltArea != 0)
	f.BalconyArea = hebrew.FormatArea(v.BalconyArea, v.BalconyArea != 0)

	f.PermitNumber = resolvePath(doc, "permitNumber")
	f.PermitDate = resolveDate(doc, "permitDate")
	f.PermittedUsage = resolvePath(doc, "permittedUsage")
	f.LocalCommitteeName = resolvePath(doc, "localCommitteeName")
	f.OrderIssueDate = resolveDate(doc, "orderIssueDate")
	f.TotalSubPlots = resolvePath(doc, "totalSubPlots")
	f.InteriorCondition = resolvePath(doc, "interiorCondition")
	f.ExteriorCondition = resolvePath(doc, "exteriorCondition")
	f.BuildingType = resolvePath(doc, "buildingType")

	if floors, ok := merge.ResolveFloat(doc, fieldPaths["buildingFloors"]...); ok {
		f.BuildingFloors = hebrew.FormatNumber(floors, true)
	} else if v.BuildingFloors != 0 {
		f.BuildingFloors = hebrew.FormatNumber(float64(v.BuildingFloors), true)
	} else {
		f.BuildingFloors = hebrew.Placeholder
	}

	f.VisitDateLong = hebrew.FormatDateLong(v.VisitDate)
	f.ValuationDateLong = hebrew.FormatDateLong(v.ValuationDate)
	f.EffectiveDate = hebrew.FormatDateNumeric(v.EffectiveDate)

	f.PricePerSqm = hebrew.FormatCurrency(v.PricePerSqm, v.PricePerSqm != 0)
	f.FinalValuation = hebrew.FormatCurrency(v.FinalValuation, v.FinalValuation != 0)
	f.HasFinalValue = v.FinalValuation != 0
	f.FinalValueAmount = v.FinalValuation
	f.FinalInWords = hebrew.Placeholder
	if f.HasFinalValue {
		if words := hebrew.NumberToWords(int64(v.FinalValuation)); words != "" {
			f.FinalInWords = words
		}
	}

	return f
}

// composeAddress joins street, building number and city, skipping whichever
// parts are absent.
func composeAddress(v store.Valuation) string {
	var parts []string
	street := strings.TrimSpace(v.Street)
	number := strings.TrimSpace(v.BuildingNumber)
	switch {
	case street != "" && number != "":
		parts = append(parts, street+" "+number)
	case street != "":
		parts = append(parts, street)
	}
	if apt := strings.TrimSpace(v.ApartmentNumber); apt != "" {
		parts = append(parts, "דירה "+apt)
	}
	if city := strings.TrimSpace(v.City); city != "" {
		parts = append(parts, city)
	}
	if len(parts) == 0 {
		return hebrew.Placeholder
	}
	return strings.Join(parts, ", ")
}

func resolvePath(doc map[string]any, field string) string {
	value := merge.ResolveString(doc, fieldPaths[field]...)
	if strings.TrimSpace(value) == "" {
		return hebrew.Placeholder
	}
	return value
}

func resolveDate(doc map[string]any, field string) string {
	return hebrew.FormatDateNumeric(merge.ResolveString(doc, fieldPaths[field]...))
}

func resolveArea(doc map[string]any, field string, scalar float64) string {
	if value, ok := merge.ResolveFloat(doc, fieldPaths[field]...); ok {
		return hebrew.FormatArea(value, true)
	}
	return hebrew.FormatArea(scalar, scalar != 0)
}

func textOrPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return hebrew.Placeholder
	}
	return value
}
