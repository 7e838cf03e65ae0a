package ingest

import (
	"testing"
)

func TestSimulatedSource_ProducesValidReadings(t *testing.T) {
	src := NewSimulatedSource("greenhouse-01", 42)
	defer src.Close()

	for i := 0; i < 100; i++ {
		r, err := src.Read()
		if err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
		if err := r.Validate(); err != nil {
			t.Fatalf("simulated reading %d invalid: %v", i, err)
		}
		if r.SensorID != "greenhouse-01" {
			t.Errorf("sensor id = %s", r.SensorID)
		}
	}
}

func TestSimulatedSource_SeedIsDeterministic(t *testing.T) {
	a := NewSimulatedSource("greenhouse-01", 7)
	b := NewSimulatedSource("greenhouse-01", 7)

	for i := 0; i < 10; i++ {
		ra, _ := a.Read()
		rb, _ := b.Read()
		if ra.Temperature != rb.Temperature || ra.PH != rb.PH {
			t.Fatalf("seeded sources diverged at read %d", i)
		}
	}
}

func TestSimulatedSource_BoundedValues(t *testing.T) {
	src := NewSimulatedSource("greenhouse-01", 1)

	for i := 0; i < 500; i++ {
		r, _ := src.Read()
		if r.Temperature < 12 || r.Temperature > 28 {
			t.Errorf("temperature %v outside jitter bounds", r.Temperature)
		}
		if r.PH < 5.6 || r.PH > 8.4 {
			t.Errorf("ph %v outside jitter bounds", r.PH)
		}
	}
}
