package store

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"shamay/api/internal/util"
)

// TestUpsertLoadRoundTrip drives a full save-merge-save-load cycle against a
// real database: scalar coalescing, extraction deep-merge and child rows.
func TestUpsertLoadRoundTrip(t *testing.T) {
	st := openIntegrationStore(t)
	ctx := context.Background()
	sessionID := util.NewID("sess")

	_, err := st.Upsert(ctx, UpsertInput{
		Record: Valuation{
			SessionID:      sessionID,
			OrganizationID: "org_it",
			Street:         "הרצל",
			City:           "תל אביב",
			ClientName:     "ישראל ישראלי",
		},
		Measurements: []Measurement{
			{Name: "סלון", Kind: "polygon", Value: 24.5, Unit: "sqm"},
		},
		Screenshots: []Screenshot{
			{Kind: "wideArea", Title: "סביבה", URL: "https://maps.example/wide.png"},
		},
		Extraction: &ExtractionDocument{
			DocType:    "landRegistry",
			Fields:     map[string]any{"gush": "6638"},
			Confidence: map[string]float64{"gush": 0.97},
			Overall:    0.97,
		},
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	t.Cleanup(func() { _ = st.Delete(context.Background(), sessionID) })

	// Second save: empty street must not clobber, extraction must merge
	// additively, the screenshot kind must stay a single row.
	_, err = st.Upsert(ctx, UpsertInput{
		Record: Valuation{
			SessionID:  sessionID,
			ClientName: "משה כהן",
		},
		Screenshots: []Screenshot{
			{Kind: "wideArea", Title: "סביבה רחבה", URL: "https://maps.example/wide2.png"},
		},
		Extraction: &ExtractionDocument{
			DocType: "landRegistry",
			Fields:  map[string]any{"chelka": "42"},
			Overall: 0.9,
		},
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	record, err := st.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if record.Valuation.Street != "הרצל" {
		t.Errorf("empty street clobbered the stored value, got %q", record.Valuation.Street)
	}
	if record.Valuation.ClientName != "משה כהן" {
		t.Errorf("non-empty client name should win, got %q", record.Valuation.ClientName)
	}
	section, _ := record.Valuation.ExtractedData["landRegistry"].(map[string]any)
	if section["gush"] != "6638" || section["chelka"] != "42" {
		t.Errorf("extraction sections should merge additively, got %v", section)
	}
	if len(record.Measurements) != 1 || record.Measurements[0].Name != "סלון" {
		t.Errorf("measurements: got %+v", record.Measurements)
	}
	if len(record.Screenshots) != 1 || record.Screenshots[0].Title != "סביבה רחבה" {
		t.Errorf("screenshot should upsert per kind, got %+v", record.Screenshots)
	}
	if len(record.Extractions) != 1 {
		t.Errorf("extraction documents: got %+v", record.Extractions)
	}
}

// TestMeasurementImageDedup verifies that identical image exports collapse
// to exactly one row per session, keeping the newest.
func TestMeasurementImageDedup(t *testing.T) {
	st := openIntegrationStore(t)
	ctx := context.Background()
	sessionID := util.NewID("sess")
	payload := []byte("identical-canvas-export-bytes")

	save := func(name string) {
		t.Helper()
		_, err := st.Upsert(ctx, UpsertInput{
			Record: Valuation{SessionID: sessionID},
			Images: []MeasurementImage{{Name: name, Data: payload}},
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}

	save("export-a")
	t.Cleanup(func() { _ = st.Delete(context.Background(), sessionID) })
	save("export-b")

	record, err := st.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(record.Images) != 1 {
		t.Fatalf("identical exports must dedup to one row, got %d", len(record.Images))
	}
	if record.Images[0].Name != "export-b" {
		t.Errorf("dedup should keep the newest export, got %q", record.Images[0].Name)
	}

	// A pre-existing duplicate pair (written before dedup shipped) must
	// collapse to a single row on the next save of the same payload.
	hash := HashImagePayload(payload)
	if _, err := st.DB().ExecContext(ctx, `
		INSERT INTO measurement_images (id, session_id, name, content_hash, url, data, created_at)
		VALUES ($1, $2, 'stale', $3, '', $4, NOW() - INTERVAL '1 hour')
	`, util.NewID("img"), sessionID, hash, payload); err != nil {
		t.Fatalf("seed stale duplicate: %v", err)
	}

	save("export-c")
	record, err = st.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(record.Images) != 1 {
		t.Fatalf("duplicate rows must collapse, got %d", len(record.Images))
	}
	if record.Images[0].Name != "export-c" {
		t.Errorf("collapse should keep the refreshed row, got %q", record.Images[0].Name)
	}

	// A different payload is a second image, not a duplicate.
	_, err = st.Upsert(ctx, UpsertInput{
		Record: Valuation{SessionID: sessionID},
		Images: []MeasurementImage{{Name: "other", Data: []byte("different-bytes")}},
	})
	if err != nil {
		t.Fatalf("upsert other: %v", err)
	}
	record, err = st.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("final load: %v", err)
	}
	if len(record.Images) != 2 {
		t.Errorf("distinct payloads should coexist, got %d rows", len(record.Images))
	}
}

func openIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := Open(ctx, getTestDatabaseURL(t))
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ApplyMigrations(ctx, db, "../../db/migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db, slog.Default())
}

// getTestDatabaseURL returns the database URL for testing. It checks the
// TEST_DATABASE_URL environment variable first, then falls back to the
// standard Postgres environment variables.
func getTestDatabaseURL(t *testing.T) string {
	t.Helper()

	if url := getenv("TEST_DATABASE_URL", ""); url != "" {
		return url
	}

	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "shamay")
	pass := getenv("POSTGRES_PASSWORD", "shamay")
	dbname := getenv("POSTGRES_DB", "shamay_test")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + dbname + "?sslmode=disable"
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
