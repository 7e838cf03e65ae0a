package agronomy

import "fmt"

// Range is a closed ideal interval [Min, Max] for one parameter.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies inside the closed interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// IsZero reports whether the range was never configured.
func (r Range) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// Validate rejects inverted ranges. Configuration data, checked at load
// time so evaluation never sees a bad interval.
func (r Range) Validate(name string) error {
	if r.Min > r.Max {
		return fmt.Errorf("threshold %s: min %.2f greater than max %.2f", name, r.Min, r.Max)
	}
	return nil
}

// Thresholds holds the ideal range for every evaluated parameter. The saffron
// literature the source dashboards drew on never settled on a single pH
// window (5.5-8.0 vs 6.0-8.0), so all bounds are configuration, not literals.
type Thresholds struct {
	PH              Range `yaml:"ph" json:"ph"`
	Temperature     Range `yaml:"temperature" json:"temperature"`
	Humidity        Range `yaml:"humidity" json:"humidity"`
	Nitrogen        Range `yaml:"nitrogen" json:"nitrogen"`
	Phosphorus      Range `yaml:"phosphorus" json:"phosphorus"`
	Potassium       Range `yaml:"potassium" json:"potassium"`
	SoilTemperature Range `yaml:"soil_temperature" json:"soil_temperature"`
	SoilHumidity    Range `yaml:"soil_humidity" json:"soil_humidity"`
}

// DefaultThresholds returns the stock saffron thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PH:              Range{Min: 6.0, Max: 8.0},
		Temperature:     Range{Min: 15.0, Max: 25.0},
		Humidity:        Range{Min: 40.0, Max: 60.0},
		Nitrogen:        Range{Min: 20.0, Max: 60.0},
		Phosphorus:      Range{Min: 60.0, Max: 120.0},
		Potassium:       Range{Min: 40.0, Max: 80.0},
		SoilTemperature: Range{Min: 18.0, Max: 22.0},
		SoilHumidity:    Range{Min: 40.0, Max: 60.0},
	}
}

// ApplyDefaults fills any unconfigured range with the stock value.
func (t *Thresholds) ApplyDefaults() {
	def := DefaultThresholds()
	if t.PH.IsZero() {
		t.PH = def.PH
	}
	if t.Temperature.IsZero() {
		t.Temperature = def.Temperature
	}
	if t.Humidity.IsZero() {
		t.Humidity = def.Humidity
	}
	if t.Nitrogen.IsZero() {
		t.Nitrogen = def.Nitrogen
	}
	if t.Phosphorus.IsZero() {
		t.Phosphorus = def.Phosphorus
	}
	if t.Potassium.IsZero() {
		t.Potassium = def.Potassium
	}
	if t.SoilTemperature.IsZero() {
		t.SoilTemperature = def.SoilTemperature
	}
	if t.SoilHumidity.IsZero() {
		t.SoilHumidity = def.SoilHumidity
	}
}

// Validate checks every configured range.
func (t Thresholds) Validate() error {
	checks := []struct {
		name string
		r    Range
	}{
		{"ph", t.PH},
		{"temperature", t.Temperature},
		{"humidity", t.Humidity},
		{"nitrogen", t.Nitrogen},
		{"phosphorus", t.Phosphorus},
		{"potassium", t.Potassium},
		{"soil_temperature", t.SoilTemperature},
		{"soil_humidity", t.SoilHumidity},
	}
	for _, c := range checks {
		if err := c.r.Validate(c.name); err != nil {
			return err
		}
	}
	return nil
}
