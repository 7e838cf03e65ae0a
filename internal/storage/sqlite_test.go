package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/saffron-monitor/internal/models"
)

// testLogger creates a logger for tests
func testLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.Disabled)
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "saffron-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewSQLiteStore(dbPath, testLogger())
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// createTestReading creates a nominal greenhouse reading at the given time
func createTestReading(sensorID string, temp float64, timestamp time.Time) *models.Reading {
	return &models.Reading{
		SensorID:        sensorID,
		Timestamp:       timestamp,
		Temperature:     temp,
		Humidity:        50,
		SoilTemperature: 20,
		SoilHumidity:    50,
		PH:              7,
		Nitrogen:        40,
		Phosphorus:      70,
		Potassium:       50,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if store == nil {
		t.Fatal("Expected non-nil store")
	}
	if store.db == nil {
		t.Fatal("Expected non-nil database connection")
	}
}

func TestNewSQLiteStore_InvalidPath(t *testing.T) {
	_, err := NewSQLiteStore("/nonexistent/path/that/cannot/exist/test.db", testLogger())
	if err == nil {
		t.Fatal("Expected error for invalid path")
	}
}

func TestInsertAndGetLatest(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ts := time.Date(2024, 12, 15, 10, 30, 0, 0, time.UTC)
	reading := createTestReading("greenhouse-01", 21.5, ts)
	reading.GrowthStage = "VegetativeGrowth"
	irrigation := 120.0
	reading.IrrigationAmount = &irrigation

	if err := store.InsertReading(reading); err != nil {
		t.Fatalf("InsertReading failed: %v", err)
	}

	got, err := store.GetLatestReading("greenhouse-01")
	if err != nil {
		t.Fatalf("GetLatestReading failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a reading, got nil")
	}
	if got.Temperature != 21.5 || got.PH != 7 || got.Phosphorus != 70 {
		t.Errorf("reading fields mismatch: %+v", got)
	}
	if got.GrowthStage != "VegetativeGrowth" {
		t.Errorf("growth stage = %q, want VegetativeGrowth", got.GrowthStage)
	}
	if got.IrrigationAmount == nil || *got.IrrigationAmount != 120 {
		t.Errorf("irrigation amount not round-tripped: %v", got.IrrigationAmount)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
}

func TestInsertReading_NullOptionals(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	reading := createTestReading("greenhouse-01", 20, time.Now().UTC())
	if err := store.InsertReading(reading); err != nil {
		t.Fatalf("InsertReading failed: %v", err)
	}

	got, err := store.GetLatestReading("greenhouse-01")
	if err != nil {
		t.Fatalf("GetLatestReading failed: %v", err)
	}
	if got.GrowthStage != "" {
		t.Errorf("growth stage = %q, want empty", got.GrowthStage)
	}
	if got.IrrigationAmount != nil {
		t.Errorf("irrigation amount = %v, want nil", *got.IrrigationAmount)
	}
}

func TestGetLatestReading_NoData(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := store.GetLatestReading("nobody")
	if err != nil {
		t.Fatalf("GetLatestReading failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil reading, got %+v", got)
	}
}

func TestInsertBatch(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2024, 12, 15, 8, 0, 0, 0, time.UTC)
	readings := make([]*models.Reading, 10)
	for i := range readings {
		readings[i] = createTestReading("greenhouse-01", 20+float64(i), base.Add(time.Duration(i)*time.Hour))
	}

	if err := store.InsertBatch(readings); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	stats, err := store.GetStorageStats()
	if err != nil {
		t.Fatalf("GetStorageStats failed: %v", err)
	}
	if stats.TotalReadings != 10 {
		t.Errorf("total readings = %d, want 10", stats.TotalReadings)
	}
}

func TestInsertBatch_Empty(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.InsertBatch(nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}

func TestGetReadingsInRange(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24; i++ {
		r := createTestReading("greenhouse-01", 20, base.Add(time.Duration(i)*time.Hour))
		if err := store.InsertReading(r); err != nil {
			t.Fatalf("InsertReading failed: %v", err)
		}
	}

	readings, err := store.GetReadingsInRange("greenhouse-01",
		base.Add(6*time.Hour), base.Add(12*time.Hour), 100)
	if err != nil {
		t.Fatalf("GetReadingsInRange failed: %v", err)
	}
	if len(readings) != 7 {
		t.Errorf("readings in range = %d, want 7", len(readings))
	}
	// Newest first
	for i := 1; i < len(readings); i++ {
		if readings[i].Timestamp.After(readings[i-1].Timestamp) {
			t.Errorf("readings not ordered newest first at index %d", i)
		}
	}
}

func TestGetReadingsBeforeAfter(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		r := createTestReading("greenhouse-01", 20, base.Add(time.Duration(i)*time.Hour))
		if err := store.InsertReading(r); err != nil {
			t.Fatalf("InsertReading failed: %v", err)
		}
	}

	before, err := store.GetReadingsBefore("greenhouse-01", base.Add(5*time.Hour), 100)
	if err != nil {
		t.Fatalf("GetReadingsBefore failed: %v", err)
	}
	if len(before) != 5 {
		t.Errorf("readings before = %d, want 5", len(before))
	}

	after, err := store.GetReadingsAfter("greenhouse-01", base.Add(5*time.Hour), 100)
	if err != nil {
		t.Fatalf("GetReadingsAfter failed: %v", err)
	}
	if len(after) != 4 {
		t.Errorf("readings after = %d, want 4", len(after))
	}
}

func TestGetReadingAt(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	day := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	early := createTestReading("greenhouse-01", 18, day.Add(10*time.Hour+5*time.Minute))
	late := createTestReading("greenhouse-01", 19, day.Add(10*time.Hour+45*time.Minute))
	other := createTestReading("greenhouse-01", 25, day.Add(14*time.Hour))
	for _, r := range []*models.Reading{early, late, other} {
		if err := store.InsertReading(r); err != nil {
			t.Fatalf("InsertReading failed: %v", err)
		}
	}

	got, err := store.GetReadingAt("greenhouse-01", day, 10)
	if err != nil {
		t.Fatalf("GetReadingAt failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a reading for hour 10")
	}
	// Latest reading within the hour wins
	if got.Temperature != 19 {
		t.Errorf("temperature = %v, want 19", got.Temperature)
	}

	missing, err := store.GetReadingAt("greenhouse-01", day, 3)
	if err != nil {
		t.Fatalf("GetReadingAt failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for empty hour, got %+v", missing)
	}

	if _, err := store.GetReadingAt("greenhouse-01", day, 24); err == nil {
		t.Error("Expected error for hour out of range")
	}
}

func TestGetDailyStats(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	day := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	temps := []float64{15, 20, 25}
	for i, temp := range temps {
		r := createTestReading("greenhouse-01", temp, day.Add(time.Duration(i)*time.Hour))
		r.SoilHumidity = 40 + float64(i)*10
		if err := store.InsertReading(r); err != nil {
			t.Fatalf("InsertReading failed: %v", err)
		}
	}

	stats, err := store.GetDailyStats("greenhouse-01", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("GetDailyStats failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("daily stats = %d days, want 1", len(stats))
	}

	stat := stats[0]
	if stat.MinTemperature != 15 || stat.MaxTemperature != 25 || stat.AvgTemperature != 20 {
		t.Errorf("temperature aggregates wrong: %+v", stat)
	}
	if stat.MinSoilHumidity != 40 || stat.MaxSoilHumidity != 60 || stat.AvgSoilHumidity != 50 {
		t.Errorf("soil humidity aggregates wrong: %+v", stat)
	}
	if stat.AvgPH != 7 {
		t.Errorf("avg ph = %v, want 7", stat.AvgPH)
	}
	if stat.ReadingCount != 3 {
		t.Errorf("reading count = %d, want 3", stat.ReadingCount)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now().UTC()
	old := createTestReading("greenhouse-01", 20, now.AddDate(0, 0, -100))
	recent := createTestReading("greenhouse-01", 21, now.Add(-time.Hour))
	for _, r := range []*models.Reading{old, recent} {
		if err := store.InsertReading(r); err != nil {
			t.Fatalf("InsertReading failed: %v", err)
		}
	}

	deleted, err := store.DeleteOlderThan(90)
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	stats, _ := store.GetStorageStats()
	if stats.TotalReadings != 1 {
		t.Errorf("remaining readings = %d, want 1", stats.TotalReadings)
	}
}

func TestGetSensorIDs(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now().UTC()
	for _, id := range []string{"greenhouse-02", "greenhouse-01", "greenhouse-01"} {
		if err := store.InsertReading(createTestReading(id, 20, now)); err != nil {
			t.Fatalf("InsertReading failed: %v", err)
		}
	}

	ids, err := store.GetSensorIDs()
	if err != nil {
		t.Fatalf("GetSensorIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("sensor ids = %v, want 2 unique", ids)
	}
	if ids[0] != "greenhouse-01" || ids[1] != "greenhouse-02" {
		t.Errorf("sensor ids not sorted: %v", ids)
	}
}

func TestGetStorageStats_Empty(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	stats, err := store.GetStorageStats()
	if err != nil {
		t.Fatalf("GetStorageStats failed: %v", err)
	}
	if stats.TotalReadings != 0 || stats.UniqueSensors != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}
