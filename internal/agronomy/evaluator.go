package agronomy

import (
	"fmt"
	"math"

	"github.com/afroash/saffron-monitor/internal/models"
)

// Verdict is the overall crop-health classification.
type Verdict string

const (
	VerdictHealthy        Verdict = "Healthy"
	VerdictNeedsAttention Verdict = "Needs Attention"
	VerdictAtRisk         Verdict = "At Risk"
)

// Direction says which side of the ideal range a parameter fell on.
type Direction string

const (
	DirectionLow  Direction = "Low"
	DirectionHigh Direction = "High"
)

// Finding is one out-of-range observation contributing to a verdict.
// Check-level observations (high-side nutrients, soil temperature) do not
// produce findings; they surface only in the soil table.
type Finding struct {
	Parameter string    `json:"parameter"`
	Direction Direction `json:"direction"`
	Reason    string    `json:"reason"`
}

// HealthVerdict is the result of classifying one reading. A Healthy verdict
// always carries an empty findings list.
type HealthVerdict struct {
	Verdict  Verdict   `json:"verdict"`
	Findings []Finding `json:"findings"`
}

// Status is the per-parameter soil-table status.
type Status string

const (
	StatusGood       Status = "Good"
	StatusCheck      Status = "Check"
	StatusBad        Status = "Bad"
	StatusNeedsWater Status = "NeedsWater"
)

// SoilRow is one line of the soil-parameter recommendation table.
type SoilRow struct {
	Parameter      string  `json:"parameter"`
	CurrentValue   float64 `json:"current_value"`
	Recommendation string  `json:"recommendation"`
	Status         Status  `json:"status"`
	Reason         string  `json:"reason,omitempty"`
}

// Evaluator maps one greenhouse reading to a health verdict and a soil
// recommendation table. Stateless and pure: identical inputs always yield
// identical outputs, and concurrent use needs no coordination.
type Evaluator struct {
	thresholds Thresholds
}

// NewEvaluator builds an evaluator from a validated threshold table.
func NewEvaluator(t Thresholds) (*Evaluator, error) {
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return &Evaluator{thresholds: t}, nil
}

// Thresholds returns the threshold table the evaluator was built with.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// StageFor resolves the growth stage for a reading: the explicit label when
// the reading carries one, otherwise derived from the timestamp month.
func (e *Evaluator) StageFor(r *models.Reading) Stage {
	if r.GrowthStage != "" {
		return ParseStage(r.GrowthStage)
	}
	return StageForMonth(r.Timestamp.Month())
}

// severity orders finding severities for verdict resolution.
type severity int

const (
	sevAttention severity = iota
	sevAtRisk
)

// ClassifyHealth evaluates one reading against the thresholds and returns
// the overall verdict with its findings.
//
// Dormancy overrides everything: no inputs or irrigation happen during
// dormancy, so out-of-range soil readings carry no action and the verdict is
// Healthy. Outside dormancy the checks run in a fixed order; pH and
// temperature excursions are the severe ones.
func (e *Evaluator) ClassifyHealth(r *models.Reading, stage Stage) (HealthVerdict, error) {
	if err := r.Validate(); err != nil {
		return HealthVerdict{}, err
	}

	if stage == StageDormancy {
		return HealthVerdict{Verdict: VerdictHealthy}, nil
	}

	t := e.thresholds
	var findings []Finding
	worst := severity(-1)

	record := func(param string, dir Direction, reason string, sev severity) {
		findings = append(findings, Finding{Parameter: param, Direction: dir, Reason: reason})
		if sev > worst {
			worst = sev
		}
	}

	if !t.PH.Contains(r.PH) {
		record("ph", side(r.PH, t.PH), "pH out of range", sevAtRisk)
	}
	if !t.Temperature.Contains(r.Temperature) {
		if r.Temperature < t.Temperature.Min {
			record("temperature", DirectionLow, "temperature too low", sevAttention)
		} else {
			record("temperature", DirectionHigh, "temperature too high", sevAttention)
		}
	}
	if !t.Humidity.Contains(r.Humidity) {
		record("humidity", side(r.Humidity, t.Humidity), "ambient humidity out of range", sevAttention)
	}
	if r.Nitrogen < t.Nitrogen.Min {
		record("nitrogen", DirectionLow, "low nitrogen", sevAttention)
	}
	if r.Phosphorus < t.Phosphorus.Min {
		record("phosphorus", DirectionLow, "low phosphorus", sevAttention)
	}
	if r.Potassium < t.Potassium.Min {
		record("potassium", DirectionLow, "low potassium", sevAttention)
	}
	// High-side nutrients and soil temperature are Check-level: soil-table
	// concerns only, never findings.
	if !t.SoilHumidity.Contains(r.SoilHumidity) {
		record("soil_humidity", side(r.SoilHumidity, t.SoilHumidity), "soil moisture out of range", sevAttention)
	}

	verdict := VerdictHealthy
	switch worst {
	case sevAtRisk:
		verdict = VerdictAtRisk
	case sevAttention:
		verdict = VerdictNeedsAttention
	}
	return HealthVerdict{Verdict: verdict, Findings: findings}, nil
}

// BuildSoilTable returns one row per soil parameter in a fixed presentation
// order: nitrogen, phosphorus, potassium, soil temperature, soil humidity,
// pH. The order is a contract with the dashboard.
func (e *Evaluator) BuildSoilTable(r *models.Reading, stage Stage) ([]SoilRow, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	t := e.thresholds
	rows := []SoilRow{
		nutrientRow("nitrogen", r.Nitrogen, t.Nitrogen),
		nutrientRow("phosphorus", r.Phosphorus, t.Phosphorus),
		nutrientRow("potassium", r.Potassium, t.Potassium),
		soilTemperatureRow(r.SoilTemperature, t.SoilTemperature),
		e.soilHumidityRow(r, stage),
		phRow(r.PH, t.PH),
	}
	return rows, nil
}

// nutrientRow applies the shared N/P/K rule shape: low is Bad, high is
// Check, in-range is Good.
func nutrientRow(name string, value float64, ideal Range) SoilRow {
	row := SoilRow{Parameter: name, CurrentValue: value}
	switch {
	case value < ideal.Min:
		row.Status = StatusBad
		row.Recommendation = fmt.Sprintf("raise %s to at least %.0f kg/ha", name, ideal.Min)
		row.Reason = "low " + name
	case value > ideal.Max:
		row.Status = StatusCheck
		row.Recommendation = fmt.Sprintf("reduce %s", name)
		row.Reason = "high " + name
	default:
		row.Status = StatusGood
		row.Recommendation = "optimal"
	}
	return row
}

func soilTemperatureRow(value float64, ideal Range) SoilRow {
	row := SoilRow{Parameter: "soil_temperature", CurrentValue: value}
	if ideal.Contains(value) {
		row.Status = StatusGood
		row.Recommendation = "optimal"
		return row
	}
	row.Status = StatusCheck
	row.Recommendation = "adjust soil temperature"
	if value < ideal.Min {
		row.Reason = "low soil temperature"
	} else {
		row.Reason = "high soil temperature"
	}
	return row
}

func (e *Evaluator) soilHumidityRow(r *models.Reading, stage Stage) SoilRow {
	value := r.SoilHumidity
	ideal := e.thresholds.SoilHumidity
	row := SoilRow{Parameter: "soil_humidity", CurrentValue: value}

	if stage == StageDormancy {
		row.Status = StatusGood
		row.Recommendation = "no irrigation needed"
		return row
	}

	switch {
	case value < ideal.Min:
		volume := SuggestedIrrigationML(value, ideal.Min, r.IrrigationAmount)
		row.Status = StatusNeedsWater
		row.Recommendation = fmt.Sprintf("irrigate with %d ml", volume)
		row.Reason = "low soil moisture"
	case value > ideal.Max:
		row.Status = StatusCheck
		row.Recommendation = "reduce irrigation"
		row.Reason = "high soil moisture"
	default:
		row.Status = StatusGood
		row.Recommendation = "optimal"
	}
	return row
}

func phRow(value float64, ideal Range) SoilRow {
	row := SoilRow{Parameter: "ph", CurrentValue: value}
	if ideal.Contains(value) {
		row.Status = StatusGood
		row.Recommendation = "optimal"
		return row
	}
	row.Status = StatusBad
	row.Recommendation = fmt.Sprintf("adjust pH to %.1f-%.1f", ideal.Min, ideal.Max)
	row.Reason = "pH out of range"
	return row
}

// SuggestedIrrigationML estimates a suggested water volume in milliliters
// when soil humidity is below threshold. The measured irrigation amount wins
// when one was logged; otherwise the volume is a proportional deficit
// estimate. A presentation heuristic, not a physical model.
func SuggestedIrrigationML(value, shMin float64, measured *float64) int {
	if measured != nil {
		v := math.Round(*measured)
		if v < 0 {
			return 0
		}
		return int(v)
	}
	if shMin <= 0 {
		return 0
	}
	est := 100 * (shMin - value) / shMin
	if est < 0 {
		return 0
	}
	return int(math.Round(est))
}

func side(v float64, r Range) Direction {
	if v < r.Min {
		return DirectionLow
	}
	return DirectionHigh
}
