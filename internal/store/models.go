package store

import "time"

// Valuation is one appraisal session: a wide set of scalar property fields
// plus the JSON blobs accumulated by wizard steps and extraction passes.
// SessionID is the externally generated correlation key; at most one row
// exists per session.
type Valuation struct {
	ID             string `json:"id"`
	SessionID      string `json:"sessionId"`
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId"`
	Status         string `json:"status"`

	// Address
	Street          string `json:"street"`
	BuildingNumber  string `json:"buildingNumber"`
	ApartmentNumber string `json:"apartmentNumber"`
	Neighborhood    string `json:"neighborhood"`
	City            string `json:"city"`

	// Property
	Rooms          float64 `json:"rooms"`
	Floor          string  `json:"floor"`
	BuildingFloors int     `json:"buildingFloors"`
	ParcelArea     float64 `json:"parcelArea"`
	RegisteredArea float64 `json:"registeredArea"`
	BuiltArea      float64 `json:"builtArea"`
	BalconyArea    float64 `json:"balconyArea"`

	// Dates, ISO strings as sent by the wizard
	VisitDate     string `json:"visitDate"`
	ValuationDate string `json:"valuationDate"`
	EffectiveDate string `json:"effectiveDate"`

	// People
	AppraiserName    string `json:"appraiserName"`
	AppraiserLicense string `json:"appraiserLicense"`
	ClientName       string `json:"clientName"`

	// Location. LocationBucket is a geohash derived from the coordinates,
	// used to order comparables by proximity.
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LocationBucket string  `json:"locationBucket"`

	// Financials
	PricePerSqm    float64 `json:"pricePerSqm"`
	FinalValuation float64 `json:"finalValuation"`

	// JSON blobs
	ExtractedData   map[string]any    `json:"extractedData"`
	Comparables     []Comparable      `json:"comparables"`
	Recommendations []string          `json:"recommendations"`
	Uploads         []Upload          `json:"uploads"`
	CustomEdits     map[string]string `json:"customEdits"`

	// Derived: backfilled from Uploads when no cover was chosen.
	CoverImageURL string `json:"coverImageUrl"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comparable is one transaction in the comparable-sales table.
type Comparable struct {
	Address     string  `json:"address"`
	Gush        string  `json:"gush"`
	Chelka      string  `json:"chelka"`
	SaleDate    string  `json:"saleDate"`
	Rooms       float64 `json:"rooms"`
	Area        float64 `json:"area"`
	Floor       string  `json:"floor"`
	Price       float64 `json:"price"`
	PricePerSqm float64 `json:"pricePerSqm"`
}

// Upload is a file the appraiser attached to the session.
type Upload struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	IsCover     bool   `json:"isCover"`
}

// Measurement is one named item in the on-site measurement set.
// Kind is point, line or polygon.
type Measurement struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Kind     string  `json:"kind"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
	Geometry []Point `json:"geometry"`
}

// Point is a coordinate inside a measurement geometry.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MeasurementImage is an exported annotated image of the measurement canvas.
// ContentHash deduplicates identical exports within a session.
type MeasurementImage struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentHash string    `json:"contentHash"`
	URL         string    `json:"url"`
	Data        []byte    `json:"data,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Screenshot is a named map snapshot. Kind is one of wideArea, zoomed,
// zoomedOverlay; at most one row per kind per session.
type Screenshot struct {
	Kind      string  `json:"kind"`
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ExtractionDocument is one persisted AI extraction pass for a session.
type ExtractionDocument struct {
	ID         string             `json:"id"`
	DocType    string             `json:"docType"`
	Fields     map[string]any     `json:"fields"`
	Confidence map[string]float64 `json:"confidence"`
	Overall    float64            `json:"overallConfidence"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// ValuationSummary is the list/search row.
type ValuationSummary struct {
	SessionID  string    `json:"sessionId"`
	Street     string    `json:"street"`
	City       string    `json:"city"`
	ClientName string    `json:"clientName"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpsertInput bundles one save: the partial record plus whichever child
// sections the request carried. Nil child sections leave stored children
// untouched.
type UpsertInput struct {
	Record       Valuation
	Measurements []Measurement
	Images       []MeasurementImage
	Screenshots  []Screenshot
	Extraction   *ExtractionDocument
}

// FullRecord is what Load returns: the merged row plus all children.
type FullRecord struct {
	Valuation    Valuation            `json:"valuation"`
	Measurements []Measurement        `json:"measurements"`
	Images       []MeasurementImage   `json:"measurementImages"`
	Screenshots  []Screenshot         `json:"screenshots"`
	Extractions  []ExtractionDocument `json:"extractions"`
}
