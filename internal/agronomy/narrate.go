package agronomy

// Narrative messages, one sentence each. The dashboard shows a single line,
// so Narrate picks the most specific applicable message; the full findings
// list stays available on the HealthVerdict for callers that want all of it.
const (
	narrativeDormancy     = "Saffron is dormant. No inputs or irrigation are needed during this period."
	narrativeThriving     = "Saffron is thriving. Maintain the current conditions."
	narrativeAtRisk       = "Critical conditions detected. Immediate intervention is required."
	narrativeLowMoisture  = "Soil moisture is low. Increase irrigation."
	narrativeLowNutrients = "Nutrient levels are low. Apply fertilizer to restore soil fertility."
	narrativeTooHot       = "Temperature is too high. Improve ventilation or shading."
	narrativeTooCold      = "Temperature is too low. Protect the crop from cold stress."
	narrativeGeneric      = "Conditions need attention. Review the sensor readings."
)

// Narrate turns a verdict into the one-line dashboard message. For a
// Needs Attention verdict the priority is: low soil moisture, then low
// nutrients, then a temperature excursion (hot and cold phrased
// differently), then the generic fallback.
func Narrate(v HealthVerdict, stage Stage) string {
	if stage == StageDormancy {
		return narrativeDormancy
	}

	switch v.Verdict {
	case VerdictHealthy:
		return narrativeThriving
	case VerdictAtRisk:
		return narrativeAtRisk
	}

	for _, f := range v.Findings {
		if f.Parameter == "soil_humidity" && f.Direction == DirectionLow {
			return narrativeLowMoisture
		}
	}
	for _, f := range v.Findings {
		switch f.Parameter {
		case "nitrogen", "phosphorus", "potassium":
			if f.Direction == DirectionLow {
				return narrativeLowNutrients
			}
		}
	}
	for _, f := range v.Findings {
		if f.Parameter == "temperature" {
			if f.Direction == DirectionHigh {
				return narrativeTooHot
			}
			return narrativeTooCold
		}
	}
	return narrativeGeneric
}
