package models

import (
	"fmt"
	"math"
	"time"
)

// Reading represents one sensor sample from the greenhouse.
type Reading struct {
	SensorID        string    `json:"sensor_id"`
	Timestamp       time.Time `json:"timestamp"`
	Temperature     float64   `json:"temperature"`      // °C, ambient
	Humidity        float64   `json:"humidity"`         // %, ambient
	SoilTemperature float64   `json:"soil_temperature"` // °C
	SoilHumidity    float64   `json:"soil_humidity"`    // %
	PH              float64   `json:"ph"`
	Nitrogen        float64   `json:"nitrogen"`   // kg/ha
	Phosphorus      float64   `json:"phosphorus"` // kg/ha
	Potassium       float64   `json:"potassium"`  // kg/ha

	// GrowthStage is the cultivation stage label when the export carries one.
	// Empty means "derive from the timestamp month".
	GrowthStage string `json:"growth_stage,omitempty"`

	// IrrigationAmount is the measured irrigation volume in ml, when logged.
	IrrigationAmount *float64 `json:"irrigation_amount,omitempty"`
}

// Validate checks that the reading is evaluable: sensor ID and timestamp
// present, every numeric field finite. Returns an error naming the first
// offending field. A reading that fails here must be rejected, never
// evaluated with defaults.
func (r *Reading) Validate() error {
	if r.SensorID == "" {
		return fmt.Errorf("reading missing sensor_id")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("reading missing timestamp")
	}

	fields := []struct {
		name  string
		value float64
	}{
		{"temperature", r.Temperature},
		{"humidity", r.Humidity},
		{"soil_temperature", r.SoilTemperature},
		{"soil_humidity", r.SoilHumidity},
		{"ph", r.PH},
		{"nitrogen", r.Nitrogen},
		{"phosphorus", r.Phosphorus},
		{"potassium", r.Potassium},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("reading field %s is not finite: %v", f.name, f.value)
		}
	}
	if r.IrrigationAmount != nil {
		if v := *r.IrrigationAmount; math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("reading field irrigation_amount is not finite: %v", v)
		}
	}
	return nil
}

// IsValid reports whether the reading is evaluable.
func (r *Reading) IsValid() bool {
	return r.Validate() == nil
}

// get the reading as a string
func (r *Reading) String() string {
	return fmt.Sprintf("SensorID: %s, Timestamp: %s, Temp: %.1f°C, Humidity: %.1f%%, SoilTemp: %.1f°C, SoilHumidity: %.1f%%, pH: %.2f, N: %.1f, P: %.1f, K: %.1f",
		r.SensorID,
		r.Timestamp.Format(time.RFC3339),
		r.Temperature,
		r.Humidity,
		r.SoilTemperature,
		r.SoilHumidity,
		r.PH,
		r.Nitrogen,
		r.Phosphorus,
		r.Potassium)
}

// NewReading creates a new Reading with the current timestamp
func NewReading(sensorID string, temperature, humidity float64) *Reading {
	return &Reading{
		SensorID:    sensorID,
		Timestamp:   time.Now(),
		Temperature: temperature,
		Humidity:    humidity,
	}
}

// Copy returns a deep copy of the Reading
func (r *Reading) Copy() *Reading {
	if r == nil {
		return nil
	}
	out := *r
	if r.IrrigationAmount != nil {
		v := *r.IrrigationAmount
		out.IrrigationAmount = &v
	}
	return &out
}
