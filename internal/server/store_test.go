package server

import (
	"testing"
	"time"

	"github.com/afroash/saffron-monitor/internal/models"
)

func storeReading(sensorID string, temp float64) *models.Reading {
	return &models.Reading{
		SensorID:        sensorID,
		Timestamp:       time.Now(),
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

func TestMemoryStore_AddAndGetCurrent(t *testing.T) {
	ms := NewMemoryStore(10)

	ms.Add(storeReading("greenhouse-01", 20))
	ms.Add(storeReading("greenhouse-01", 21))

	current := ms.GetCurrentReading("greenhouse-01")
	if current == nil {
		t.Fatal("expected a current reading")
	}
	if current.Temperature != 21 {
		t.Errorf("temperature = %v, want 21", current.Temperature)
	}
}

func TestMemoryStore_GetCurrentReturnsCopy(t *testing.T) {
	ms := NewMemoryStore(10)
	ms.Add(storeReading("greenhouse-01", 20))

	first := ms.GetCurrentReading("greenhouse-01")
	first.Temperature = 99

	second := ms.GetCurrentReading("greenhouse-01")
	if second.Temperature != 20 {
		t.Error("GetCurrentReading exposed internal data")
	}
}

func TestMemoryStore_RingEviction(t *testing.T) {
	ms := NewMemoryStore(3)

	for i := 0; i < 5; i++ {
		ms.Add(storeReading("greenhouse-01", float64(20+i)))
	}

	latest := ms.GetLatest("greenhouse-01", 10)
	if len(latest) != 3 {
		t.Fatalf("retained = %d, want capacity 3", len(latest))
	}
	// Newest first
	if latest[0].Temperature != 24 || latest[2].Temperature != 22 {
		t.Errorf("eviction order wrong: %v ... %v", latest[0].Temperature, latest[2].Temperature)
	}
}

func TestMemoryStore_GetLatest_Empty(t *testing.T) {
	ms := NewMemoryStore(3)
	if got := ms.GetLatest("nobody", 5); got != nil {
		t.Errorf("expected nil for unknown sensor, got %v", got)
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	ms := NewMemoryStore(2)

	ms.Add(storeReading("greenhouse-01", 20))
	ms.Add(storeReading("greenhouse-01", 21))
	ms.Add(storeReading("greenhouse-01", 22)) // evicts one
	ms.Add(storeReading("greenhouse-02", 20))

	stats := ms.Stats()
	if stats.TotalReadings != 4 {
		t.Errorf("total = %d, want 4", stats.TotalReadings)
	}
	if stats.UniqueSensors != 2 {
		t.Errorf("sensors = %d, want 2", stats.UniqueSensors)
	}
	if stats.CurrentReadings != 3 {
		t.Errorf("current = %d, want 3", stats.CurrentReadings)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	ms := NewMemoryStore(10)
	ms.Add(storeReading("greenhouse-01", 20))
	ms.Clear()

	if ms.GetCurrentReading("greenhouse-01") != nil {
		t.Error("store not empty after Clear")
	}
	if ms.Stats().TotalReadings != 0 {
		t.Error("stats not reset after Clear")
	}
}
