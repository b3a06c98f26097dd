package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcloughlin/geohash"

	"shamay/api/internal/merge"
	"shamay/api/internal/util"
)

// ErrNotFound is returned when no valuation exists for a session key.
var ErrNotFound = errors.New("valuation not found")

// locationPrecision gives geohash cells of roughly 150m, enough to group
// comparables on the same street.
const locationPrecision = 7

type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresStore{db: db, log: log}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Upsert writes a wizard save in one transaction: read the existing row by
// session key, merge, write the row, then write whichever child sections the
// input carried. Any failure rolls the whole save back.
func (s *PostgresStore) Upsert(ctx context.Context, in UpsertInput) (string, error) {
	sessionID := strings.TrimSpace(in.Record.SessionID)
	if sessionID == "" {
		return "", fmt.Errorf("upsert: session id required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, found, err := s.readForUpdate(ctx, tx, sessionID)
	if err != nil {
		return "", err
	}

	record := in.Record
	if in.Extraction != nil {
		// An extraction pass lands under its section key inside the blob.
		if record.ExtractedData == nil {
			record.ExtractedData = map[string]any{}
		}
		record.ExtractedData[in.Extraction.DocType] = in.Extraction.Fields
	}

	var merged Valuation
	if found {
		merged = s.mergeValuation(record, existing)
	} else {
		merged = record
		merged.ID = util.NewID("val")
	}
	if merged.Status == "" {
		merged.Status = "draft"
	}
	if merged.Latitude != 0 || merged.Longitude != 0 {
		merged.LocationBucket = geohash.EncodeWithPrecision(merged.Latitude, merged.Longitude, locationPrecision)
	}

	if err := s.writeRow(ctx, tx, merged, found); err != nil {
		return "", err
	}

	if in.Measurements != nil {
		if err := s.writeMeasurements(ctx, tx, sessionID, in.Measurements); err != nil {
			return "", err
		}
	}
	for _, image := range in.Images {
		if err := s.writeMeasurementImage(ctx, tx, sessionID, image); err != nil {
			return "", err
		}
	}
	for _, shot := range in.Screenshots {
		if err := s.writeScreenshot(ctx, tx, sessionID, shot); err != nil {
			return "", err
		}
	}
	if in.Extraction != nil {
		if err := s.writeExtraction(ctx, tx, sessionID, *in.Extraction); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit upsert: %w", err)
	}
	return merged.ID, nil
}

// mergeValuation reconciles an incoming partial record against the stored
// one. Scalars coalesce (new value wins only when non-empty), the extraction
// blob deep-merges, arrays replace wholesale when non-empty.
func (s *PostgresStore) mergeValuation(incoming, existing Valuation) Valuation {
	merged := existing

	merged.OrganizationID = coalesce(incoming.OrganizationID, existing.OrganizationID)
	merged.UserID = coalesce(incoming.UserID, existing.UserID)
	merged.Status = coalesce(incoming.Status, existing.Status)
	merged.Street = coalesce(incoming.Street, existing.Street)
	merged.BuildingNumber = coalesce(incoming.BuildingNumber, existing.BuildingNumber)
	merged.ApartmentNumber = coalesce(incoming.ApartmentNumber, existing.ApartmentNumber)
	merged.Neighborhood = coalesce(incoming.Neighborhood, existing.Neighborhood)
	merged.City = coalesce(incoming.City, existing.City)
	merged.Floor = coalesce(incoming.Floor, existing.Floor)
	merged.VisitDate = coalesce(incoming.VisitDate, existing.VisitDate)
	merged.ValuationDate = coalesce(incoming.ValuationDate, existing.ValuationDate)
	merged.EffectiveDate = coalesce(incoming.EffectiveDate, existing.EffectiveDate)
	merged.AppraiserName = coalesce(incoming.AppraiserName, existing.AppraiserName)
	merged.AppraiserLicense = coalesce(incoming.AppraiserLicense, existing.AppraiserLicense)
	merged.ClientName = coalesce(incoming.ClientName, existing.ClientName)
	merged.CoverImageURL = coalesce(incoming.CoverImageURL, existing.CoverImageURL)

	merged.Rooms = coalesceFloat(incoming.Rooms, existing.Rooms)
	merged.BuildingFloors = coalesceInt(incoming.BuildingFloors, existing.BuildingFloors)
	merged.ParcelArea = coalesceFloat(incoming.ParcelArea, existing.ParcelArea)
	merged.RegisteredArea = coalesceFloat(incoming.RegisteredArea, existing.RegisteredArea)
	merged.BuiltArea = coalesceFloat(incoming.BuiltArea, existing.BuiltArea)
	merged.BalconyArea = coalesceFloat(incoming.BalconyArea, existing.BalconyArea)
	merged.Latitude = coalesceFloat(incoming.Latitude, existing.Latitude)
	merged.Longitude = coalesceFloat(incoming.Longitude, existing.Longitude)
	merged.PricePerSqm = coalesceFloat(incoming.PricePerSqm, existing.PricePerSqm)
	merged.FinalValuation = coalesceFloat(incoming.FinalValuation, existing.FinalValuation)

	if incoming.ExtractedData != nil {
		blob, notes := merge.Deep(incoming.ExtractedData, existing.ExtractedData)
		merged.ExtractedData = blob
		for _, note := range notes {
			s.log.Warn("extraction merge degraded",
				"sessionId", existing.SessionID,
				"path", note.Path,
				"incoming", note.Incoming,
				"existing", note.Existing)
		}
	}

	if incoming.CustomEdits != nil {
		if merged.CustomEdits == nil {
			merged.CustomEdits = map[string]string{}
		}
		for selector, html := range incoming.CustomEdits {
			merged.CustomEdits[selector] = html
		}
	}

	// Array fields replace wholesale; an empty incoming list never erases
	// stored entries.
	if len(incoming.Comparables) > 0 {
		merged.Comparables = incoming.Comparables
	}
	if len(incoming.Recommendations) > 0 {
		merged.Recommendations = incoming.Recommendations
	}
	if len(incoming.Uploads) > 0 {
		merged.Uploads = incoming.Uploads
	}

	return merged
}

func (s *PostgresStore) readForUpdate(ctx context.Context, tx *sql.Tx, sessionID string) (Valuation, bool, error) {
	row := tx.QueryRowContext(ctx, selectValuation+` WHERE session_id=$1 FOR UPDATE`, sessionID)
	record, err := scanValuation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Valuation{}, false, nil
	}
	if err != nil {
		return Valuation{}, false, fmt.Errorf("read valuation for update: %w", err)
	}
	return record, true, nil
}

const selectValuation = `
	SELECT id, session_id, organization_id, user_id, status,
		street, building_number, apartment_number, neighborhood, city,
		rooms, floor, building_floors,
		parcel_area, registered_area, built_area, balcony_area,
		visit_date, valuation_date, effective_date,
		appraiser_name, appraiser_license, client_name,
		latitude, longitude, location_bucket,
		price_per_sqm, final_valuation,
		COALESCE(extracted_data::text, '{}'),
		COALESCE(comparables::text, '[]'),
		COALESCE(recommendations::text, '[]'),
		COALESCE(uploads::text, '[]'),
		COALESCE(custom_edits::text, '{}'),
		cover_image_url, created_at, updated_at
	FROM valuations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanValuation(row rowScanner) (Valuation, error) {
	var v Valuation
	var extracted, comparables, recommendations, uploads, customEdits string
	err := row.Scan(
		&v.ID, &v.SessionID, &v.OrganizationID, &v.UserID, &v.Status,
		&v.Street, &v.BuildingNumber, &v.ApartmentNumber, &v.Neighborhood, &v.City,
		&v.Rooms, &v.Floor, &v.BuildingFloors,
		&v.ParcelArea, &v.RegisteredArea, &v.BuiltArea, &v.BalconyArea,
		&v.VisitDate, &v.ValuationDate, &v.EffectiveDate,
		&v.AppraiserName, &v.AppraiserLicense, &v.ClientName,
		&v.Latitude, &v.Longitude, &v.LocationBucket,
		&v.PricePerSqm, &v.FinalValuation,
		&extracted, &comparables, &recommendations, &uploads, &customEdits,
		&v.CoverImageURL, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return Valuation{}, err
	}
	// Reconstitute JSONB columns into typed values; a corrupt blob falls back
	// to empty rather than failing the read.
	_ = json.Unmarshal([]byte(extracted), &v.ExtractedData)
	_ = json.Unmarshal([]byte(comparables), &v.Comparables)
	_ = json.Unmarshal([]byte(recommendations), &v.Recommendations)
	_ = json.Unmarshal([]byte(uploads), &v.Uploads)
	_ = json.Unmarshal([]byte(customEdits), &v.CustomEdits)
	return v, nil
}

func (s *PostgresStore) writeRow(ctx context.Context, tx *sql.Tx, v Valuation, exists bool) error {
	extracted, err := encodeJSON(v.ExtractedData, "{}")
	if err != nil {
		return fmt.Errorf("encode extracted data: %w", err)
	}
	comparables, err := encodeJSON(v.Comparables, "[]")
	if err != nil {
		return fmt.Errorf("encode comparables: %w", err)
	}
	recommendations, err := encodeJSON(v.Recommendations, "[]")
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	uploads, err := encodeJSON(v.Uploads, "[]")
	if err != nil {
		return fmt.Errorf("encode uploads: %w", err)
	}
	customEdits, err := encodeJSON(v.CustomEdits, "{}")
	if err != nil {
		return fmt.Errorf("encode custom edits: %w", err)
	}

	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE valuations SET
				organization_id=$2, user_id=$3, status=$4,
				street=$5, building_number=$6, apartment_number=$7, neighborhood=$8, city=$9,
				rooms=$10, floor=$11, building_floors=$12,
				parcel_area=$13, registered_area=$14, built_area=$15, balcony_area=$16,
				visit_date=$17, valuation_date=$18, effective_date=$19,
				appraiser_name=$20, appraiser_license=$21, client_name=$22,
				latitude=$23, longitude=$24, location_bucket=$25,
				price_per_sqm=$26, final_valuation=$27,
				extracted_data=$28::jsonb, comparables=$29::jsonb, recommendations=$30::jsonb,
				uploads=$31::jsonb, custom_edits=$32::jsonb,
				cover_image_url=$33, updated_at=NOW()
			WHERE session_id=$1
		`, v.SessionID, v.OrganizationID, v.UserID, v.Status,
			v.Street, v.BuildingNumber, v.ApartmentNumber, v.Neighborhood, v.City,
			v.Rooms, v.Floor, v.BuildingFloors,
			v.ParcelArea, v.RegisteredArea, v.BuiltArea, v.BalconyArea,
			v.VisitDate, v.ValuationDate, v.EffectiveDate,
			v.AppraiserName, v.AppraiserLicense, v.ClientName,
			v.Latitude, v.Longitude, v.LocationBucket,
			v.PricePerSqm, v.FinalValuation,
			extracted, comparables, recommendations, uploads, customEdits,
			v.CoverImageURL)
		if err != nil {
			return fmt.Errorf("update valuation: %w", err)
		}
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO valuations (
			id, session_id, organization_id, user_id, status,
			street, building_number, apartment_number, neighborhood, city,
			rooms, floor, building_floors,
			parcel_area, registered_area, built_area, balcony_area,
			visit_date, valuation_date, effective_date,
			appraiser_name, appraiser_license, client_name,
			latitude, longitude, location_bucket,
			price_per_sqm, final_valuation,
			extracted_data, comparables, recommendations, uploads, custom_edits,
			cover_image_url
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20,
			$21, $22, $23,
			$24, $25, $26,
			$27, $28,
			$29::jsonb, $30::jsonb, $31::jsonb, $32::jsonb, $33::jsonb,
			$34
		)
	`, v.ID, v.SessionID, v.OrganizationID, v.UserID, v.Status,
		v.Street, v.BuildingNumber, v.ApartmentNumber, v.Neighborhood, v.City,
		v.Rooms, v.Floor, v.BuildingFloors,
		v.ParcelArea, v.RegisteredArea, v.BuiltArea, v.BalconyArea,
		v.VisitDate, v.ValuationDate, v.EffectiveDate,
		v.AppraiserName, v.AppraiserLicense, v.ClientName,
		v.Latitude, v.Longitude, v.LocationBucket,
		v.PricePerSqm, v.FinalValuation,
		extracted, comparables, recommendations, uploads, customEdits,
		v.CoverImageURL)
	if err != nil {
		return fmt.Errorf("insert valuation: %w", err)
	}
	return nil
}

// writeMeasurements replaces the measurement set for a session. The wizard
// always sends the full set, so replace-wholesale matches the save model.
func (s *PostgresStore) writeMeasurements(ctx context.Context, tx *sql.Tx, sessionID string, items []Measurement) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM measurements WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("clear measurements: %w", err)
	}
	for _, item := range items {
		if item.ID == "" {
			item.ID = util.NewID("msr")
		}
		geometry, err := encodeJSON(item.Geometry, "[]")
		if err != nil {
			return fmt.Errorf("encode measurement geometry: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO measurements (id, session_id, name, color, kind, value, unit, geometry)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		`, item.ID, sessionID, item.Name, item.Color, item.Kind, item.Value, item.Unit, geometry); err != nil {
			return fmt.Errorf("insert measurement: %w", err)
		}
	}
	return nil
}

// writeMeasurementImage inserts an exported image unless an identical payload
// already exists for the session. Pre-existing duplicates collapse to one
// row, keeping the newest.
func (s *PostgresStore) writeMeasurementImage(ctx context.Context, tx *sql.Tx, sessionID string, image MeasurementImage) error {
	hash := image.ContentHash
	if hash == "" && len(image.Data) > 0 {
		hash = HashImagePayload(image.Data)
	}
	if hash == "" {
		return fmt.Errorf("measurement image without payload or hash")
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM measurement_images
		WHERE session_id=$1 AND content_hash=$2
		ORDER BY created_at DESC
	`, sessionID, hash)
	if err != nil {
		return fmt.Errorf("lookup image duplicates: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan image duplicate: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate image duplicates: %w", err)
	}

	if len(ids) > 0 {
		keep := ids[0]
		if len(ids) > 1 {
			s.log.Warn("collapsing duplicate measurement images",
				"sessionId", sessionID, "count", len(ids))
			for _, stale := range ids[1:] {
				if _, err := tx.ExecContext(ctx, `DELETE FROM measurement_images WHERE id=$1`, stale); err != nil {
					return fmt.Errorf("collapse duplicate image: %w", err)
				}
			}
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE measurement_images SET name=$2, url=$3, data=$4, created_at=NOW()
			WHERE id=$1
		`, keep, image.Name, image.URL, image.Data); err != nil {
			return fmt.Errorf("refresh duplicate image: %w", err)
		}
		return nil
	}

	id := image.ID
	if id == "" {
		id = util.NewID("img")
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO measurement_images (id, session_id, name, content_hash, url, data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, sessionID, image.Name, hash, image.URL, image.Data); err != nil {
		return fmt.Errorf("insert measurement image: %w", err)
	}
	return nil
}

func (s *PostgresStore) writeScreenshot(ctx context.Context, tx *sql.Tx, sessionID string, shot Screenshot) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO screenshots (id, session_id, kind, title, url, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, kind)
		DO UPDATE SET title=EXCLUDED.title, url=EXCLUDED.url,
			latitude=EXCLUDED.latitude, longitude=EXCLUDED.longitude, updated_at=NOW()
	`, util.NewID("shot"), sessionID, shot.Kind, shot.Title, shot.URL, shot.Latitude, shot.Longitude)
	if err != nil {
		return fmt.Errorf("upsert screenshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) writeExtraction(ctx context.Context, tx *sql.Tx, sessionID string, doc ExtractionDocument) error {
	fields, err := encodeJSON(doc.Fields, "{}")
	if err != nil {
		return fmt.Errorf("encode extraction fields: %w", err)
	}
	confidence, err := encodeJSON(doc.Confidence, "{}")
	if err != nil {
		return fmt.Errorf("encode extraction confidence: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO extraction_documents (id, session_id, doc_type, fields, confidence, overall_confidence)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6)
		ON CONFLICT (session_id, doc_type)
		DO UPDATE SET fields=EXCLUDED.fields, confidence=EXCLUDED.confidence,
			overall_confidence=EXCLUDED.overall_confidence, updated_at=NOW()
	`, util.NewID("ext"), sessionID, doc.DocType, fields, confidence, doc.Overall)
	if err != nil {
		return fmt.Errorf("upsert extraction document: %w", err)
	}
	return nil
}

// Load reconstitutes the full record for a session, children included.
// The cover image is backfilled from the uploads list for rows that predate
// the explicit cover field.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (FullRecord, error) {
	row := s.db.QueryRowContext(ctx, selectValuation+` WHERE session_id=$1`, sessionID)
	record, err := scanValuation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return FullRecord{}, ErrNotFound
	}
	if err != nil {
		return FullRecord{}, fmt.Errorf("load valuation: %w", err)
	}

	if record.CoverImageURL == "" {
		record.CoverImageURL = coverFromUploads(record.Uploads)
	}

	full := FullRecord{Valuation: record}

	if full.Measurements, err = s.listMeasurements(ctx, sessionID); err != nil {
		return FullRecord{}, err
	}
	if full.Images, err = s.listMeasurementImages(ctx, sessionID); err != nil {
		return FullRecord{}, err
	}
	if full.Screenshots, err = s.listScreenshots(ctx, sessionID); err != nil {
		return FullRecord{}, err
	}
	if full.Extractions, err = s.listExtractions(ctx, sessionID); err != nil {
		return FullRecord{}, err
	}
	return full, nil
}

func coverFromUploads(uploads []Upload) string {
	for _, upload := range uploads {
		if upload.IsCover {
			return upload.URL
		}
	}
	for _, upload := range uploads {
		if strings.HasPrefix(upload.ContentType, "image/") {
			return upload.URL
		}
	}
	return ""
}

func (s *PostgresStore) listMeasurements(ctx context.Context, sessionID string) ([]Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, color, kind, value, unit, COALESCE(geometry::text, '[]')
		FROM measurements
		WHERE session_id=$1
		ORDER BY name ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	items := make([]Measurement, 0)
	for rows.Next() {
		var item Measurement
		var geometry string
		if err := rows.Scan(&item.ID, &item.Name, &item.Color, &item.Kind, &item.Value, &item.Unit, &geometry); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		_ = json.Unmarshal([]byte(geometry), &item.Geometry)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) listMeasurementImages(ctx context.Context, sessionID string) ([]MeasurementImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, content_hash, url, created_at
		FROM measurement_images
		WHERE session_id=$1
		ORDER BY created_at DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list measurement images: %w", err)
	}
	defer rows.Close()

	items := make([]MeasurementImage, 0)
	for rows.Next() {
		var item MeasurementImage
		if err := rows.Scan(&item.ID, &item.Name, &item.ContentHash, &item.URL, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan measurement image: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurement images: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) listScreenshots(ctx context.Context, sessionID string) ([]Screenshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, title, url, latitude, longitude
		FROM screenshots
		WHERE session_id=$1
		ORDER BY kind ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list screenshots: %w", err)
	}
	defer rows.Close()

	items := make([]Screenshot, 0)
	for rows.Next() {
		var item Screenshot
		if err := rows.Scan(&item.Kind, &item.Title, &item.URL, &item.Latitude, &item.Longitude); err != nil {
			return nil, fmt.Errorf("scan screenshot: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screenshots: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) listExtractions(ctx context.Context, sessionID string) ([]ExtractionDocument, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doc_type, COALESCE(fields::text, '{}'), COALESCE(confidence::text, '{}'), overall_confidence, updated_at
		FROM extraction_documents
		WHERE session_id=$1
		ORDER BY doc_type ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list extraction documents: %w", err)
	}
	defer rows.Close()

	items := make([]ExtractionDocument, 0)
	for rows.Next() {
		var item ExtractionDocument
		var fields, confidence string
		if err := rows.Scan(&item.ID, &item.DocType, &fields, &confidence, &item.Overall, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan extraction document: %w", err)
		}
		_ = json.Unmarshal([]byte(fields), &item.Fields)
		_ = json.Unmarshal([]byte(confidence), &item.Confidence)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction documents: %w", err)
	}
	return items, nil
}

// List returns summaries for an organization, newest first.
func (s *PostgresStore) List(ctx context.Context, organizationID string) ([]ValuationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, street, city, client_name, status, updated_at
		FROM valuations
		WHERE ($1='' OR organization_id=$1)
		ORDER BY updated_at DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list valuations: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// Search is the Postgres fallback search over address and client fields.
func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]ValuationSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, street, city, client_name, status, updated_at
		FROM valuations
		WHERE street ILIKE '%' || $1 || '%'
			OR city ILIKE '%' || $1 || '%'
			OR neighborhood ILIKE '%' || $1 || '%'
			OR client_name ILIKE '%' || $1 || '%'
			OR session_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search valuations: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]ValuationSummary, error) {
	items := make([]ValuationSummary, 0)
	for rows.Next() {
		var item ValuationSummary
		if err := rows.Scan(&item.SessionID, &item.Street, &item.City, &item.ClientName, &item.Status, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan valuation summary: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate valuation summaries: %w", err)
	}
	return items, nil
}

// SetStatus flips the lifecycle flag; archival never removes the row.
func (s *PostgresStore) SetStatus(ctx context.Context, sessionID, status string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE valuations SET status=$2, updated_at=NOW() WHERE session_id=$1
	`, sessionID, status)
	if err != nil {
		return fmt.Errorf("set valuation status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set valuation status rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record and its children. Only an explicit user action
// reaches this.
func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"measurements", "measurement_images", "screenshots", "extraction_documents"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id=$1`, sessionID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM valuations WHERE session_id=$1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete valuation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete valuation rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// HashImagePayload is the content hash used for measurement-image dedup.
func HashImagePayload(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func encodeJSON(value any, empty string) (string, error) {
	if value == nil {
		return empty, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func coalesce(incoming, existing string) string {
	if strings.TrimSpace(incoming) != "" {
		return incoming
	}
	return existing
}

func coalesceFloat(incoming, existing float64) float64 {
	if incoming != 0 {
		return incoming
	}
	return existing
}

func coalesceInt(incoming, existing int) int {
	if incoming != 0 {
		return incoming
	}
	return existing
}
